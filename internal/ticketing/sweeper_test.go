package ticketing

import (
	"context"
	"testing"
	"time"

	"turnstile/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperExpiresOverdueReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A reservation whose payment deadline already passed.
	ok, err := f.inv.Transition(ctx, 10, "seat-1", models.SeatAvailable, models.SeatReserved)
	require.NoError(t, err)
	require.True(t, ok)

	res := &models.Reservation{
		ShowtimeID: 10,
		BuyerID:    7,
		Status:     models.ReservationPendingPayment,
		TotalPrice: 50000,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.repo.Create(ctx, res, []string{"seat-1"}))

	sweeper := NewSweeper(f.svc, 20*time.Millisecond)
	sweeper.Start()
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		current, err := f.repo.GetByID(ctx, res.ID)
		return err == nil && current != nil && current.Status == models.ReservationExpired
	}, 2*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		return f.seatStatus(t, "seat-1") == models.SeatAvailable
	}, time.Second, 20*time.Millisecond)
}

func TestSweeperStops(t *testing.T) {
	f := newFixture(t)

	sweeper := NewSweeper(f.svc, 10*time.Millisecond)
	sweeper.Start()

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
