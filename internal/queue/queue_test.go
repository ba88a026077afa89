package queue

import (
	"testing"
	"time"

	errs "turnstile/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterWithinWindowIsImmediatelyReady(t *testing.T) {
	q := New(Config{Window: 2, ReadyGrace: time.Minute}, nil)

	resp := q.Enter(10, 1)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, 0, resp.Position)

	status, err := q.Status(resp.Token)
	require.NoError(t, err)
	assert.True(t, status.Ready)
	assert.Equal(t, 0, status.Position)
}

func TestFIFOAdmissionOrder(t *testing.T) {
	q := New(Config{Window: 1, ReadyGrace: time.Minute}, nil)

	first := q.Enter(10, 1)
	second := q.Enter(10, 2)
	third := q.Enter(10, 3)

	s1, err := q.Status(first.Token)
	require.NoError(t, err)
	assert.True(t, s1.Ready)

	s2, err := q.Status(second.Token)
	require.NoError(t, err)
	assert.False(t, s2.Ready)
	assert.Equal(t, 0, s2.Position)

	s3, err := q.Status(third.Token)
	require.NoError(t, err)
	assert.False(t, s3.Ready)
	assert.Equal(t, 1, s3.Position)

	// Head consumes its slot; the next in line becomes ready, never the third.
	q.Consume(10, 1)

	s2, err = q.Status(second.Token)
	require.NoError(t, err)
	assert.True(t, s2.Ready)

	s3, err = q.Status(third.Token)
	require.NoError(t, err)
	assert.False(t, s3.Ready)
	assert.Equal(t, 0, s3.Position)
}

func TestEnterIsIdempotentPerHolder(t *testing.T) {
	q := New(Config{Window: 1, ReadyGrace: time.Minute}, nil)

	first := q.Enter(10, 1)
	again := q.Enter(10, 1)
	assert.Equal(t, first.Token, again.Token)

	waiting, ready := q.Depths(10)
	assert.Equal(t, 0, waiting)
	assert.Equal(t, 1, ready)

	queued := q.Enter(10, 2)
	queuedAgain := q.Enter(10, 2)
	assert.Equal(t, queued.Token, queuedAgain.Token)
	assert.Equal(t, queued.Position, queuedAgain.Position)
}

func TestConsumedTokensAreRetired(t *testing.T) {
	q := New(Config{Window: 1, ReadyGrace: 30 * time.Millisecond}, nil)

	resp := q.Enter(10, 1)
	q.Consume(10, 1)

	// The token still answers Status for the in-flight poll tail.
	status, err := q.Status(resp.Token)
	require.NoError(t, err)
	assert.True(t, status.Ready)

	// Then it is dropped and the index carries no dead entries.
	assert.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.byToken) == 0
	}, time.Second, 5*time.Millisecond)

	_, err = q.Status(resp.Token)
	assert.ErrorIs(t, err, errs.ErrQueueTokenInvalid)
}

func TestUnknownTokenIsInvalid(t *testing.T) {
	q := New(Config{}, nil)

	_, err := q.Status("nonsense")
	assert.ErrorIs(t, err, errs.ErrQueueTokenInvalid)
}

func TestReadyGraceExpiryRecyclesSlot(t *testing.T) {
	q := New(Config{Window: 1, ReadyGrace: 30 * time.Millisecond}, nil)

	first := q.Enter(10, 1)
	second := q.Enter(10, 2)

	// Holder 1 never holds a seat; their slot passes to holder 2.
	assert.Eventually(t, func() bool {
		status, err := q.Status(second.Token)
		return err == nil && status.Ready
	}, time.Second, 10*time.Millisecond)

	_, err := q.Status(first.Token)
	assert.ErrorIs(t, err, errs.ErrQueueTokenInvalid)
}

func TestConsumeStopsGraceTimer(t *testing.T) {
	q := New(Config{Window: 1, ReadyGrace: 30 * time.Millisecond}, nil)

	resp := q.Enter(10, 1)
	q.Consume(10, 1)

	time.Sleep(80 * time.Millisecond)

	status, err := q.Status(resp.Token)
	require.NoError(t, err)
	assert.True(t, status.Ready, "a consumed entry stays valid")
}

func TestLeaveFreesSlot(t *testing.T) {
	q := New(Config{Window: 1, ReadyGrace: time.Minute}, nil)

	first := q.Enter(10, 1)
	second := q.Enter(10, 2)

	q.Leave(10, 1)

	_, err := q.Status(first.Token)
	assert.ErrorIs(t, err, errs.ErrQueueTokenInvalid)

	status, err := q.Status(second.Token)
	require.NoError(t, err)
	assert.True(t, status.Ready)

	q.Leave(10, 1) // idempotent
}

func TestPositionsAreMonotonicUnderChurn(t *testing.T) {
	q := New(Config{Window: 2, ReadyGrace: time.Minute}, nil)

	tokens := make([]string, 0, 8)
	for i := int64(1); i <= 8; i++ {
		tokens = append(tokens, q.Enter(10, i).Token)
	}

	last := make(map[string]int)
	for _, token := range tokens {
		status, err := q.Status(token)
		require.NoError(t, err)
		last[token] = status.Position
	}

	for drop := int64(1); drop <= 4; drop++ {
		q.Consume(10, drop)
		for _, token := range tokens[4:] {
			status, err := q.Status(token)
			require.NoError(t, err)
			assert.LessOrEqual(t, status.Position, last[token],
				"position must never move backward in the line")
			last[token] = status.Position
		}
	}
}

func TestShowtimesAreIsolated(t *testing.T) {
	q := New(Config{Window: 1, ReadyGrace: time.Minute}, nil)

	a := q.Enter(10, 1)
	b := q.Enter(20, 1)
	assert.NotEqual(t, a.Token, b.Token)

	sa, err := q.Status(a.Token)
	require.NoError(t, err)
	sb, err := q.Status(b.Token)
	require.NoError(t, err)
	assert.True(t, sa.Ready)
	assert.True(t, sb.Ready)
}
