package service

import (
	"context"

	"authsvc/internal/events"
)

// EmailDispatcher hands a verification email to the delivery queue. A nil
// error means the item was enqueued, not that it was delivered.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, mail events.VerificationEmail) error
}
