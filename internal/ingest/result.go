// Package ingest implements the webhook processing pipeline:
// fetch block → validate → insert-if-absent → broadcast.
package ingest

import (
	"errors"

	"banano-chat-relay/internal/domain"
)

// Reject reasons. These classify a notification as an invalid submission:
// the webhook caller gets a client error and should not retry.
var (
	// ErrMissingHash means the notification or block carries no hash.
	ErrMissingHash = errors.New("missing block hash")

	// ErrBlockNotFound means the node has no settled block for the hash.
	ErrBlockNotFound = errors.New("block doesn't exist")

	// ErrNotSend means the fetched block is not a send. The notification's
	// is_send flag is untrusted input; the block's own subtype decides.
	ErrNotSend = errors.New("block is not a send")

	// ErrAmountMismatch means the paid amount equals neither configured fee.
	ErrAmountMismatch = errors.New("amount matches no configured fee")

	// ErrInvalidAddress means the sender is not a valid ban_ address.
	ErrInvalidAddress = errors.New("invalid sender address")

	// ErrInvalidSignature means the block's signature does not verify
	// against the sender account.
	ErrInvalidSignature = errors.New("block signature does not verify")
)

// Status is the terminal status of one processed notification.
type Status int

const (
	// StatusOK acknowledges the notification: ignored non-send, duplicate
	// replay or freshly accepted message.
	StatusOK Status = iota

	// StatusRejected marks an invalid submission. Not retryable.
	StatusRejected

	// StatusServerError marks a transient failure (node unreachable, store
	// down). The caller is expected to retry.
	StatusServerError
)

// Result is the outcome of one Ingest call.
type Result struct {
	Status Status

	// Reason is the reject reason when Status is StatusRejected.
	Reason error

	// Err is the underlying failure when Status is StatusServerError.
	Err error

	// Message is the stored record when a new message was accepted.
	// Nil for ignored, duplicate, rejected and failed notifications.
	Message *domain.Message

	// Duplicate reports that the hash was already stored.
	Duplicate bool
}

// Outcome maps the result onto the archive/metrics label.
func (r Result) Outcome() domain.Outcome {
	switch {
	case r.Status == StatusRejected:
		return domain.OutcomeRejected
	case r.Status == StatusServerError:
		return domain.OutcomeError
	case r.Duplicate:
		return domain.OutcomeDuplicate
	case r.Message != nil:
		return domain.OutcomeAccepted
	default:
		return domain.OutcomeIgnored
	}
}

func rejected(reason error) Result {
	return Result{Status: StatusRejected, Reason: reason}
}

func serverError(err error) Result {
	return Result{Status: StatusServerError, Err: err}
}
