// Package errors defines the error taxonomy shared across the booking engine.
// A failed compare-and-set is reported through these sentinels, never retried
// blindly by the component that lost the race.
package errors

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")

// ErrSeatUnavailable - hold/reserve contention. Expected under load; the
// caller offers the buyer another seat instead of retry-looping.
var ErrSeatUnavailable = errors.New("seat is not available")

// ErrSeatNoLongerHeld - a reservation referenced a seat the buyer no longer
// holds. The whole reservation fails; no partial reservation is created.
var ErrSeatNoLongerHeld = errors.New("seat is no longer held by buyer")

// ErrHoldExpired - the hold lapsed before checkout completed.
var ErrHoldExpired = errors.New("seat hold has expired")

// ErrQueueTokenInvalid - stale or unknown queue token. Recoverable: the
// client re-enters the queue.
var ErrQueueTokenInvalid = errors.New("queue token is invalid or expired")

// ErrReservationStateConflict - confirm/cancel raced with expiry. The caller
// re-reads reservation state.
var ErrReservationStateConflict = errors.New("reservation is not in an eligible state")

// ErrAmountMismatch - payment callback amount disagrees with the reservation
// total. Fatal for that confirmation; never auto-corrected.
var ErrAmountMismatch = errors.New("payment amount does not match reservation total")

var ErrReservationNotFound = errors.New("reservation not found")

var ErrSeatNotFound = errors.New("seat not found")

var ErrVenueNotFound = errors.New("venue not found")
