package memory

import (
	"context"
	"delivery-dispatch-service/internal/domain"
)

// Transactor serializes units of work against a DB and undoes the route
// writes of any unit that returns an error.
type Transactor struct{ DB *DB }

func NewTransactor(db *DB) *Transactor { return &Transactor{DB: db} }

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		// Already inside a unit of work; join it.
		return fn(ctx)
	}

	t.DB.txMu.Lock()
	defer t.DB.txMu.Unlock()

	j := &journal{before: make(map[string]*domain.Route)}
	defer func() {
		if p := recover(); p != nil {
			t.rollback(j)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		t.rollback(j)
		return err
	}
	return nil
}

func (t *Transactor) rollback(j *journal) {
	t.DB.mu.Lock()
	defer t.DB.mu.Unlock()

	for id, prev := range j.before {
		if prev == nil {
			t.DB.deleteRouteLocked(id)
			continue
		}
		t.DB.putRouteLocked(prev)
	}
}
