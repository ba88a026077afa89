package broadcast

import (
	"testing"
	"time"

	"turnstile/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delta(showtimeID int64, seatID string, status models.SeatStatus) models.SeatStatusDelta {
	return models.SeatStatusDelta{
		ShowtimeID: showtimeID,
		Seats:      []models.SeatStatusItem{{SeatID: seatID, Status: status}},
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe(10)
	b := hub.Subscribe(10)
	defer a.Close()
	defer b.Close()

	hub.Publish(10, delta(10, "seat-1", models.SeatHeld))

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.C:
			assert.Equal(t, "seat-1", got.Seats[0].SeatID)
			assert.Equal(t, models.SeatHeld, got.Seats[0].Status)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive delta")
		}
	}
}

func TestPublishIsScopedToShowtime(t *testing.T) {
	hub := NewHub()
	other := hub.Subscribe(20)
	defer other.Close()

	hub.Publish(10, delta(10, "seat-1", models.SeatHeld))

	select {
	case <-other.C:
		t.Fatal("subscriber of another showtime received delta")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeltasArriveInPublishOrder(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(10)
	defer sub.Close()

	statuses := []models.SeatStatus{models.SeatHeld, models.SeatReserved, models.SeatSold}
	for _, status := range statuses {
		hub.Publish(10, delta(10, "seat-1", status))
	}

	for _, want := range statuses {
		got := <-sub.C
		assert.Equal(t, want, got.Seats[0].Status)
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe(10)
	fast := hub.Subscribe(10)
	defer fast.Close()

	// Never drain slow; overflow its buffer.
	for i := 0; i <= subscriberBuffer; i++ {
		hub.Publish(10, delta(10, "seat-1", models.SeatHeld))
	}

	assert.Equal(t, 1, hub.SubscriberCount(10))

	// The dropped subscriber's channel is closed after draining.
	drained := 0
	for range slow.C {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)

	// The healthy subscriber keeps receiving.
	hub.Publish(10, delta(10, "seat-2", models.SeatSold))
	deadline := time.After(time.Second)
	for {
		select {
		case got := <-fast.C:
			if got.Seats[0].SeatID == "seat-2" {
				return
			}
		case <-deadline:
			t.Fatal("fast subscriber stopped receiving")
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(10)

	sub.Close()
	sub.Close()

	require.Equal(t, 0, hub.SubscriberCount(10))

	// Publishing to an empty topic is a no-op.
	hub.Publish(10, delta(10, "seat-1", models.SeatHeld))
}
