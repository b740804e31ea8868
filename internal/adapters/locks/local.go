// Package locks implements ports.ZoneLocker.
package locks

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// LocalZoneLocker serializes work per zone inside one process.
// Each zone gets a one-slot channel used as a context-aware mutex.
type LocalZoneLocker struct {
	zones *xsync.Map[string, chan struct{}]
}

func NewLocalZoneLocker() *LocalZoneLocker {
	return &LocalZoneLocker{zones: xsync.NewMap[string, chan struct{}]()}
}

func (l *LocalZoneLocker) Lock(ctx context.Context, zoneID string) (func(), error) {
	sem, _ := l.zones.LoadOrCompute(zoneID, func() (chan struct{}, bool) {
		return make(chan struct{}, 1), false
	})

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("local zone lock %q: %w", zoneID, ctx.Err())
	}
}
