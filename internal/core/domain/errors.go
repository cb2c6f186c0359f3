package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrPartialFailure     = errors.New("partial failure")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Steps of a bid acceptance that can be left incomplete.
const (
	StepMarkBidAccepted = "mark_bid_accepted"
	StepCloseRequest    = "close_request"
)

// PartialFailureError reports an acceptance whose booking exists but whose
// follow-up writes did not complete. It needs manual reconciliation.
type PartialFailureError struct {
	BookingID string
	RequestID string
	BidID     string
	Step      string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: booking %s created for request %s but step %s failed: %v",
		e.BookingID, e.RequestID, e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
