package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
	"github.com/rl1809/marketplace/internal/telemetry"
)

type CreateBookingInput struct {
	ServiceID string
	Date      string
}

type BookingService struct {
	gate     *Gate
	tables   *port.Tables
	catalog  port.CatalogRepository
	notifier port.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(gate *Gate, tables *port.Tables, catalog port.CatalogRepository, notifier port.Notifier, logger *zap.Logger) *BookingService {
	return &BookingService{
		gate:     gate,
		tables:   tables,
		catalog:  catalog,
		notifier: notifierOrNop(notifier),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking books a catalog service directly. Provider, name, type and
// price are copied from the service as it is now.
func (s *BookingService) CreateBooking(ctx context.Context, subjectID string, in CreateBookingInput) (_ *domain.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.create",
		attribute.String("service_id", in.ServiceID))
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ServiceID) == "" {
		return nil, fmt.Errorf("%w: service_id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}

	svc, err := s.catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := domain.Booking{
		CustomerID:   p.SubjectID,
		CustomerName: p.DisplayName,
		ProviderID:   svc.ProviderID,
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		ServiceType:  svc.ServiceType,
		Date:         in.Date,
		Price:        svc.Price,
		Status:       domain.BookingStatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.tables.Bookings.Insert(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	booking.ID = id

	s.logger.Info("booking requested",
		zap.String("booking_id", id),
		zap.String("service_id", svc.ID),
		zap.String("customer_id", p.SubjectID),
		zap.String("provider_id", svc.ProviderID),
	)

	s.notifier.Notify(context.WithoutCancel(ctx), domain.Notification{
		Kind:        domain.NotificationBookingCreated,
		RecipientID: svc.ProviderID,
		EntityID:    id,
		Message:     fmt.Sprintf("New booking request for %s on %s", svc.Name, in.Date),
		CreatedAt:   now,
	})

	return &booking, nil
}

// ListBookings returns the caller's bookings newest first: as the customer
// for customers, as the provider for everyone else.
func (s *BookingService) ListBookings(ctx context.Context, subjectID string) (_ []domain.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.list")
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	filter := port.Where("provider_id", p.SubjectID)
	if p.Role == domain.RoleCustomer {
		filter = port.Where("customer_id", p.SubjectID)
	}

	bookings, err := s.tables.Bookings.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}

	slices.SortFunc(bookings, func(a, b domain.Booking) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return bookings, nil
}

// UpdateBookingStatus applies a role-gated transition. The role's allowed
// set is checked before the booking is read, so a forbidden status fails
// the same way whatever the booking's state.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, subjectID, bookingID string, status domain.BookingStatus) (_ *domain.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.update_status",
		attribute.String("booking_id", bookingID),
		attribute.String("status", string(status)),
	)
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", domain.ErrValidation, status)
	}
	if !domain.CanSetBookingStatus(p.Role, status) {
		return nil, fmt.Errorf("%w: role %s may not set status %s", domain.ErrForbidden, p.Role, status)
	}

	booking, err := s.tables.Bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	owner, counterpart := booking.ProviderID, booking.CustomerID
	if p.Role == domain.RoleCustomer {
		owner, counterpart = booking.CustomerID, booking.ProviderID
	}
	if err := RequireOwner(p, owner, "booking"); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.tables.Bookings.Update(ctx, bookingID, port.Fields{
		"status":     status,
		"updated_at": port.FormatTime(now),
	}); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	previous := booking.Status
	booking.Status = status
	booking.UpdatedAt = now

	s.logger.Info("booking status changed",
		zap.String("booking_id", bookingID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("actor_id", p.SubjectID),
	)

	s.notifier.Notify(context.WithoutCancel(ctx), domain.Notification{
		Kind:        domain.NotificationBookingStatusChanged,
		RecipientID: counterpart,
		EntityID:    bookingID,
		Message:     fmt.Sprintf("Booking for %s is now %s", booking.ServiceName, status),
		CreatedAt:   now,
	})

	return &booking, nil
}
