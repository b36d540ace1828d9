package tracking

import (
	"context"

	"github.com/freightline/tracker/internal/core/domain"
)

// PositionSlot holds at most one pending position. Offering a new position
// replaces whatever has not been consumed yet, so readers only ever see the
// newest report.
type PositionSlot struct {
	ch chan domain.GeoPoint
}

// NewPositionSlot creates an empty slot.
func NewPositionSlot() *PositionSlot {
	return &PositionSlot{ch: make(chan domain.GeoPoint, 1)}
}

// Offer stores p, dropping any unread older value. It never blocks.
func (s *PositionSlot) Offer(p domain.GeoPoint) {
	for {
		select {
		case s.ch <- p:
			return
		default:
		}
		// Slot full: drop the stale value and retry.
		select {
		case <-s.ch:
		default:
		}
	}
}

// Latest takes the pending position without blocking.
func (s *PositionSlot) Latest() (domain.GeoPoint, bool) {
	select {
	case p := <-s.ch:
		return p, true
	default:
		return domain.GeoPoint{}, false
	}
}

// Next blocks until a position is available or ctx is done.
func (s *PositionSlot) Next(ctx context.Context) (domain.GeoPoint, error) {
	select {
	case p := <-s.ch:
		return p, nil
	case <-ctx.Done():
		return domain.GeoPoint{}, ctx.Err()
	}
}
