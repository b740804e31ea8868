package ports

import "context"

// Transactor runs fn as one logical unit of work.
// Repositories called with the ctx passed to fn take part in the same transaction;
// fn returning an error rolls every write back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ZoneLocker serializes assignment decisions per delivery zone so that two
// callers cannot push the same staff member past the zone's concurrency ceiling.
type ZoneLocker interface {
	// Block until the zone is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, zoneID string) (unlock func(), err error)
}
