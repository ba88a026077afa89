// Package queue gates entry into seat selection for a showtime. Entries are
// admitted strictly first-come-first-served into a bounded active booking
// window; readiness is monotonic and abandoned slots are recycled by a grace
// timer.
package queue

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	errs "turnstile/internal/errors"
	"turnstile/internal/logger"
	"turnstile/internal/metrics"
	"turnstile/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultWindow     = 100
	DefaultReadyGrace = 2 * time.Minute
)

type Config struct {
	// Window is the maximum number of concurrently READY holders per showtime.
	Window int
	// ReadyGrace bounds how long a READY entry may sit unconsumed before its
	// slot is handed to the next waiter.
	ReadyGrace time.Duration
}

type entryState int

const (
	stateWaiting entryState = iota
	stateReady
	stateConsumed
	stateExpired
)

type entry struct {
	token      string
	showtimeID int64
	holderID   int64
	enqueuedAt time.Time
	state      entryState
	graceTimer *time.Timer
}

type showtimeQueue struct {
	waiting []*entry
	ready   map[string]*entry
}

// Queue is the per-process admission state. Tokens are opaque UUIDs; an
// unknown or expired token is a signaled condition, the client re-enters.
type Queue struct {
	cfg Config

	mu        sync.Mutex
	byToken   map[string]*entry
	showtimes map[int64]*showtimeQueue
	events    EventPublisher
}

// EventPublisher mirrors admissions onto the message bus.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

func New(cfg Config, events EventPublisher) *Queue {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.ReadyGrace <= 0 {
		cfg.ReadyGrace = DefaultReadyGrace
	}
	return &Queue{
		cfg:       cfg,
		byToken:   make(map[string]*entry),
		showtimes: make(map[int64]*showtimeQueue),
		events:    events,
	}
}

// Enter appends the holder to the showtime queue and returns the issued
// token with the current position. A holder with a live entry for the same
// showtime gets that entry back instead of a second slot.
func (q *Queue) Enter(showtimeID, holderID int64) models.QueueEnterResponse {
	q.mu.Lock()
	defer q.mu.Unlock()

	sq := q.showtime(showtimeID)

	for _, e := range sq.waiting {
		if e.holderID == holderID {
			return models.QueueEnterResponse{Token: e.token, Position: q.positionLocked(e)}
		}
	}
	for _, e := range sq.ready {
		if e.holderID == holderID {
			return models.QueueEnterResponse{Token: e.token, Position: 0}
		}
	}

	e := &entry{
		token:      uuid.New().String(),
		showtimeID: showtimeID,
		holderID:   holderID,
		enqueuedAt: time.Now(),
		state:      stateWaiting,
	}
	sq.waiting = append(sq.waiting, e)
	q.byToken[e.token] = e

	q.promoteLocked(showtimeID)
	q.gaugeLocked(showtimeID)

	return models.QueueEnterResponse{Token: e.token, Position: q.positionLocked(e)}
}

// Status reports readiness and the number of waiters strictly ahead. The
// position never increases for a live entry; once ready, an entry never
// reverts to waiting.
func (q *Queue) Status(token string) (models.QueueStatusResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byToken[token]
	if !ok || e.state == stateExpired {
		return models.QueueStatusResponse{}, errs.ErrQueueTokenInvalid
	}

	switch e.state {
	case stateWaiting:
		return models.QueueStatusResponse{Ready: false, Position: q.positionLocked(e)}, nil
	default: // ready or consumed
		return models.QueueStatusResponse{Ready: true, Position: 0}, nil
	}
}

// Consume marks the holder's READY entry as used, called when the holder
// places their first seat hold. Safe to call when the holder has no entry.
func (q *Queue) Consume(showtimeID, holderID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	sq, ok := q.showtimes[showtimeID]
	if !ok {
		return
	}
	for token, e := range sq.ready {
		if e.holderID != holderID {
			continue
		}
		e.state = stateConsumed
		if e.graceTimer != nil {
			e.graceTimer.Stop()
		}
		delete(sq.ready, token)
		// Keep the consumed token answering Status for a short tail of
		// in-flight polls, then retire it so byToken stays bounded by
		// live entries.
		tok := token
		time.AfterFunc(q.cfg.ReadyGrace, func() { q.retireConsumed(tok) })
		q.promoteLocked(showtimeID)
		q.gaugeLocked(showtimeID)
		return
	}
}

// Leave removes the holder's live entry, freeing its slot. Idempotent.
func (q *Queue) Leave(showtimeID, holderID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	sq, ok := q.showtimes[showtimeID]
	if !ok {
		return
	}
	for i, e := range sq.waiting {
		if e.holderID == holderID {
			sq.waiting = append(sq.waiting[:i], sq.waiting[i+1:]...)
			delete(q.byToken, e.token)
			q.gaugeLocked(showtimeID)
			return
		}
	}
	for token, e := range sq.ready {
		if e.holderID == holderID {
			if e.graceTimer != nil {
				e.graceTimer.Stop()
			}
			delete(sq.ready, token)
			delete(q.byToken, token)
			q.promoteLocked(showtimeID)
			q.gaugeLocked(showtimeID)
			return
		}
	}
}

func (q *Queue) showtime(showtimeID int64) *showtimeQueue {
	sq, ok := q.showtimes[showtimeID]
	if !ok {
		sq = &showtimeQueue{ready: make(map[string]*entry)}
		q.showtimes[showtimeID] = sq
	}
	return sq
}

// positionLocked is the count of WAITING entries strictly ahead. READY and
// consumed entries are position 0.
func (q *Queue) positionLocked(e *entry) int {
	if e.state != stateWaiting {
		return 0
	}
	sq := q.showtimes[e.showtimeID]
	for i, candidate := range sq.waiting {
		if candidate == e {
			return i
		}
	}
	return 0
}

// promoteLocked fills the active window from the head of the waiting list.
// FIFO order is the fairness guarantee: no entry becomes READY before an
// earlier one.
func (q *Queue) promoteLocked(showtimeID int64) {
	sq := q.showtimes[showtimeID]
	for len(sq.ready) < q.cfg.Window && len(sq.waiting) > 0 {
		e := sq.waiting[0]
		sq.waiting = sq.waiting[1:]
		e.state = stateReady
		sq.ready[e.token] = e

		token := e.token
		e.graceTimer = time.AfterFunc(q.cfg.ReadyGrace, func() { q.expireReady(token) })

		if q.events != nil {
			event := models.QueueAdmittedEvent{
				Token:      e.token,
				ShowtimeID: showtimeID,
				HolderID:   e.holderID,
				Timestamp:  time.Now(),
			}
			if err := q.events.Publish(models.EventQueueAdmitted, event); err != nil {
				logger.Get().Error("Failed to publish queue admitted event",
					"error", err,
					"showtime_id", showtimeID,
					"event_type", models.EventQueueAdmitted)
			}
		}
	}
}

// retireConsumed drops a consumed token from the index once its poll tail
// has passed.
func (q *Queue) retireConsumed(token string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byToken[token]
	if !ok || e.state != stateConsumed {
		return
	}
	delete(q.byToken, token)
}

// expireReady reclaims a READY slot whose holder never started a hold.
func (q *Queue) expireReady(token string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byToken[token]
	if !ok || e.state != stateReady {
		return
	}
	e.state = stateExpired
	sq := q.showtimes[e.showtimeID]
	delete(sq.ready, token)
	delete(q.byToken, token)

	logger.Get().Info("Queue entry expired before use",
		"showtime_id", e.showtimeID,
		"holder_id", e.holderID,
		"waited", time.Since(e.enqueuedAt).String())

	q.promoteLocked(e.showtimeID)
	q.gaugeLocked(e.showtimeID)
}

func (q *Queue) gaugeLocked(showtimeID int64) {
	sq := q.showtimes[showtimeID]
	label := strconv.FormatInt(showtimeID, 10)
	metrics.QueueWaiting.WithLabelValues(label).Set(float64(len(sq.waiting)))
	metrics.QueueReady.WithLabelValues(label).Set(float64(len(sq.ready)))
}

// Depths reports waiting/ready counts, used by the health endpoint.
func (q *Queue) Depths(showtimeID int64) (waiting, ready int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	sq, ok := q.showtimes[showtimeID]
	if !ok {
		return 0, 0
	}
	return len(sq.waiting), len(sq.ready)
}

// String implements fmt.Stringer for debug logging.
func (q *Queue) String() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return fmt.Sprintf("queue{showtimes=%d tokens=%d window=%d}", len(q.showtimes), len(q.byToken), q.cfg.Window)
}
