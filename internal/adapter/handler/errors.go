package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type errorKind struct {
	status int
	code   string
	grpc   codes.Code
}

// Order matters: a partial failure unwraps to the storage error that broke
// it, and capacity exhaustion is reported separately from plain conflicts.
var errorKinds = []struct {
	target error
	kind   errorKind
}{
	{domain.ErrPartialFailure, errorKind{http.StatusInternalServerError, "PARTIAL_FAILURE", codes.DataLoss}},
	{domain.ErrValidation, errorKind{http.StatusBadRequest, "VALIDATION_ERROR", codes.InvalidArgument}},
	{domain.ErrUnauthenticated, errorKind{http.StatusUnauthorized, "UNAUTHORIZED", codes.Unauthenticated}},
	{domain.ErrForbidden, errorKind{http.StatusForbidden, "FORBIDDEN", codes.PermissionDenied}},
	{domain.ErrNotFound, errorKind{http.StatusNotFound, "NOT_FOUND", codes.NotFound}},
	{domain.ErrCapacityExceeded, errorKind{http.StatusConflict, "CAPACITY_EXCEEDED", codes.ResourceExhausted}},
	{domain.ErrConflict, errorKind{http.StatusConflict, "CONFLICT", codes.Aborted}},
	{domain.ErrStorageUnavailable, errorKind{http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", codes.Unavailable}},
}

var internalKind = errorKind{http.StatusInternalServerError, "INTERNAL_ERROR", codes.Internal}

func classify(err error) errorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return internalKind
}

// errorDetails exposes what an operator needs to reconcile a partial
// acceptance. Other errors carry no details.
func errorDetails(err error) map[string]string {
	var pf *domain.PartialFailureError
	if errors.As(err, &pf) {
		return map[string]string{
			"booking_id": pf.BookingID,
			"request_id": pf.RequestID,
			"bid_id":     pf.BidID,
			"step":       pf.Step,
		}
	}
	return nil
}
