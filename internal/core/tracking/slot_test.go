package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/tracker/internal/core/domain"
)

func TestPositionSlot_LatestWins(t *testing.T) {
	s := NewPositionSlot()

	_, ok := s.Latest()
	assert.False(t, ok)

	s.Offer(brasilia)
	s.Offer(rio)
	s.Offer(saoPaulo)

	p, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, saoPaulo, p)

	_, ok = s.Latest()
	assert.False(t, ok)
}

func TestPositionSlot_NextBlocksUntilOffer(t *testing.T) {
	s := NewPositionSlot()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Offer(rio)
	}()

	p, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, rio, p)
}

func TestPositionSlot_NextHonoursContext(t *testing.T) {
	s := NewPositionSlot()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPositionSlot_ConcurrentOffersNeverBlock(t *testing.T) {
	s := NewPositionSlot()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Offer(domain.GeoPoint{Lat: float64(i)})
		}(i)
	}
	wg.Wait()

	_, ok := s.Latest()
	assert.True(t, ok)
	_, ok = s.Latest()
	assert.False(t, ok)
}
