package inventory

import (
	"context"
	"sync"
	"testing"

	errs "turnstile/internal/errors"
	"turnstile/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBroadcaster struct {
	mu     sync.Mutex
	deltas []models.SeatStatusDelta
}

func (c *captureBroadcaster) Publish(showtimeID int64, delta models.SeatStatusDelta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deltas = append(c.deltas, delta)
}

func (c *captureBroadcaster) all() []models.SeatStatusDelta {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.SeatStatusDelta(nil), c.deltas...)
}

func newTestService() (*Service, *MemoryStore, *captureBroadcaster) {
	store := NewMemoryStore()
	hub := &captureBroadcaster{}
	return NewService(store, hub, nil), store, hub
}

func TestTransitionSuccess(t *testing.T) {
	svc, store, hub := newTestService()
	store.AddSeat(models.Seat{ID: "seat-1", VenueID: 1})
	store.AddShowtime(10, 1)

	ok, err := svc.Transition(context.Background(), 10, "seat-1", models.SeatAvailable, models.SeatHeld)
	require.NoError(t, err)
	assert.True(t, ok)

	seat, err := svc.Seat(context.Background(), "seat-1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatHeld, seat.Status)

	deltas := hub.all()
	require.Len(t, deltas, 1)
	assert.Equal(t, int64(10), deltas[0].ShowtimeID)
	require.Len(t, deltas[0].Seats, 1)
	assert.Equal(t, "seat-1", deltas[0].Seats[0].SeatID)
	assert.Equal(t, models.SeatHeld, deltas[0].Seats[0].Status)
}

func TestTransitionLostRace(t *testing.T) {
	svc, store, hub := newTestService()
	store.AddSeat(models.Seat{ID: "seat-1", VenueID: 1, Status: models.SeatHeld})

	ok, err := svc.Transition(context.Background(), 10, "seat-1", models.SeatAvailable, models.SeatHeld)
	require.NoError(t, err)
	assert.False(t, ok, "losing a CAS must not be an error")

	// A failed transition publishes nothing.
	assert.Empty(t, hub.all())

	seat, err := svc.Seat(context.Background(), "seat-1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatHeld, seat.Status)
}

type captureSnapshotCache struct {
	mu       sync.Mutex
	venueIDs []int64
}

func (c *captureSnapshotCache) InvalidateVenueSeats(ctx context.Context, venueID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.venueIDs = append(c.venueIDs, venueID)
	return nil
}

func (c *captureSnapshotCache) all() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.venueIDs...)
}

func TestTransitionInvalidatesVenueSnapshot(t *testing.T) {
	svc, store, _ := newTestService()
	store.AddSeat(models.Seat{ID: "seat-1", VenueID: 3})
	store.AddShowtime(10, 3)

	snapshots := &captureSnapshotCache{}
	svc.SetSnapshotCache(snapshots)

	ok, err := svc.Transition(context.Background(), 10, "seat-1", models.SeatAvailable, models.SeatHeld)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, snapshots.all())

	// A lost CAS changes nothing, so the snapshot stays.
	ok, err = svc.Transition(context.Background(), 10, "seat-1", models.SeatAvailable, models.SeatReserved)
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, []int64{3}, snapshots.all())
}

func TestTransitionUnknownSeat(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Transition(context.Background(), 10, "nope", models.SeatAvailable, models.SeatHeld)
	assert.ErrorIs(t, err, errs.ErrSeatNotFound)
}

func TestTransitionConcurrentSingleWinner(t *testing.T) {
	svc, store, _ := newTestService()
	store.AddSeat(models.Seat{ID: "seat-1", VenueID: 1})

	const contenders = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.Transition(context.Background(), 10, "seat-1", models.SeatAvailable, models.SeatHeld)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestSameSeatDeltasArriveInApplyOrder(t *testing.T) {
	svc, store, hub := newTestService()
	store.AddSeat(models.Seat{ID: "seat-1", VenueID: 1})

	ctx := context.Background()
	steps := []struct{ from, to models.SeatStatus }{
		{models.SeatAvailable, models.SeatHeld},
		{models.SeatHeld, models.SeatReserved},
		{models.SeatReserved, models.SeatSold},
	}
	for _, step := range steps {
		ok, err := svc.Transition(ctx, 10, "seat-1", step.from, step.to)
		require.NoError(t, err)
		require.True(t, ok)
	}

	deltas := hub.all()
	require.Len(t, deltas, 3)
	assert.Equal(t, models.SeatHeld, deltas[0].Seats[0].Status)
	assert.Equal(t, models.SeatReserved, deltas[1].Seats[0].Status)
	assert.Equal(t, models.SeatSold, deltas[2].Seats[0].Status)
}

func TestSeatsByShowtime(t *testing.T) {
	svc, store, _ := newTestService()
	store.AddSeat(models.Seat{ID: "seat-1", VenueID: 1})
	store.AddSeat(models.Seat{ID: "seat-2", VenueID: 1})
	store.AddSeat(models.Seat{ID: "seat-3", VenueID: 2})
	store.AddShowtime(10, 1)

	seats, err := svc.SeatsByShowtime(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, seats, 2)
}
