package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
	"github.com/rl1809/marketplace/internal/telemetry"
)

type NegotiationConfig struct {
	// AcceptMaxAttempts bounds each follow-up write of an acceptance.
	AcceptMaxAttempts int
	AcceptRetryDelay  time.Duration
	// RejectSiblingsOnAccept rejects the other pending bids of a request
	// once one bid is accepted.
	RejectSiblingsOnAccept bool
}

type OpenRequestInput struct {
	EventName           string
	EventType           string
	Date                string
	Location            string
	GuestCount          int
	Budget              float64
	IsFreelancerRequest bool
}

type PlaceBidInput struct {
	Price float64
	Pitch string
}

// BidResponse is the outcome of RespondToBid. Booking is set only when the
// bid was accepted.
type BidResponse struct {
	Request domain.BidRequest
	Bid     domain.Bid
	Booking *domain.Booking
}

type NegotiationService struct {
	gate     *Gate
	tables   *port.Tables
	notifier port.Notifier
	logger   *zap.Logger
	cfg      NegotiationConfig
	now      func() time.Time
}

func NewNegotiationService(gate *Gate, tables *port.Tables, notifier port.Notifier, logger *zap.Logger, cfg NegotiationConfig) *NegotiationService {
	if cfg.AcceptMaxAttempts < 1 {
		cfg.AcceptMaxAttempts = 5
	}
	if cfg.AcceptRetryDelay <= 0 {
		cfg.AcceptRetryDelay = 10 * time.Millisecond
	}
	return &NegotiationService{
		gate:     gate,
		tables:   tables,
		notifier: notifierOrNop(notifier),
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *NegotiationService) OpenRequest(ctx context.Context, subjectID string, in OpenRequestInput) (_ *domain.BidRequest, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.negotiation.open_request")
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}

	eventType := in.EventType
	if eventType == "" {
		eventType = domain.DefaultEventType
	}

	req := domain.BidRequest{
		CustomerID:          p.SubjectID,
		CustomerName:        p.DisplayName,
		EventName:           in.EventName,
		EventType:           eventType,
		Date:                in.Date,
		Location:            in.Location,
		GuestCount:          in.GuestCount,
		Budget:              in.Budget,
		IsFreelancerRequest: in.IsFreelancerRequest,
		Status:              domain.BidRequestStatusOpen,
		CreatedAt:           s.now(),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id, err := s.tables.BidRequests.Insert(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("insert bid request: %w", err)
	}
	req.ID = id
	req.Bids = []domain.Bid{}

	s.logger.Info("bid request opened",
		zap.String("request_id", id),
		zap.String("customer_id", p.SubjectID),
	)

	return &req, nil
}

// ListRequests returns a customer's own requests, or every open request for
// any other role, newest first and with visible bids attached.
func (s *NegotiationService) ListRequests(ctx context.Context, subjectID string) (_ []domain.BidRequest, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.negotiation.list_requests")
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	filter := port.Where("status", domain.BidRequestStatusOpen)
	if p.Role == domain.RoleCustomer {
		filter = port.Where("customer_id", p.SubjectID)
	}

	requests, err := s.tables.BidRequests.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find bid requests: %w", err)
	}

	slices.SortFunc(requests, func(a, b domain.BidRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	for i := range requests {
		bids, err := s.visibleBids(ctx, p, &requests[i])
		if err != nil {
			return nil, err
		}
		requests[i].Bids = bids
	}

	return requests, nil
}

func (s *NegotiationService) GetRequest(ctx context.Context, subjectID, requestID string) (_ *domain.BidRequest, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.negotiation.get_request",
		attribute.String("request_id", requestID))
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	req, err := s.tables.BidRequests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if p.Role == domain.RoleCustomer {
		if err := RequireOwner(p, req.CustomerID, "bid request"); err != nil {
			return nil, err
		}
	}

	req.Bids, err = s.visibleBids(ctx, p, &req)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// visibleBids returns every bid to the request owner and to admins, and
// only their own bids to everyone else.
func (s *NegotiationService) visibleBids(ctx context.Context, p domain.Principal, req *domain.BidRequest) ([]domain.Bid, error) {
	filter := port.Where("request_id", req.ID)
	if p.SubjectID != req.CustomerID && p.Role != domain.RoleAdmin {
		filter = filter.And("provider_id", p.SubjectID)
	}

	bids, err := s.tables.Bids.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find bids: %w", err)
	}

	slices.SortFunc(bids, func(a, b domain.Bid) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if bids == nil {
		bids = []domain.Bid{}
	}
	return bids, nil
}

func (s *NegotiationService) PlaceBid(ctx context.Context, subjectID, requestID string, in PlaceBidInput) (_ *domain.Bid, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.negotiation.place_bid",
		attribute.String("request_id", requestID))
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID, domain.RoleProvider, domain.RoleFreelancer)
	if err != nil {
		return nil, err
	}

	bid := domain.Bid{
		RequestID:    requestID,
		ProviderID:   p.SubjectID,
		ProviderName: p.DisplayName,
		Price:        in.Price,
		Pitch:        in.Pitch,
		Status:       domain.BidStatusPending,
		CreatedAt:    s.now(),
	}
	if err := bid.Validate(); err != nil {
		return nil, err
	}

	req, err := s.tables.BidRequests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsOpen() || req.AcceptanceInFlight() {
		return nil, fmt.Errorf("%w: bid request %s is not open", domain.ErrConflict, requestID)
	}

	id, err := s.tables.Bids.Insert(ctx, bid)
	if err != nil {
		return nil, fmt.Errorf("insert bid: %w", err)
	}
	bid.ID = id

	// The request may have been closed between the check and the insert.
	current, err := s.tables.BidRequests.Get(ctx, requestID)
	if err != nil {
		s.withdrawBid(ctx, id)
		return nil, fmt.Errorf("confirm bid request %s is open: %w", requestID, err)
	}
	if !current.IsOpen() || current.AcceptanceInFlight() {
		s.withdrawBid(ctx, id)
		return nil, fmt.Errorf("%w: bid request %s closed while bidding", domain.ErrConflict, requestID)
	}

	s.logger.Info("bid placed",
		zap.String("request_id", requestID),
		zap.String("bid_id", id),
		zap.String("provider_id", p.SubjectID),
		zap.Float64("price", bid.Price),
	)

	s.notifier.Notify(context.WithoutCancel(ctx), domain.Notification{
		Kind:        domain.NotificationBidPlaced,
		RecipientID: req.CustomerID,
		EntityID:    id,
		Message:     fmt.Sprintf("New bid of %.2f on %s", bid.Price, req.EventName),
		CreatedAt:   s.now(),
	})

	return &bid, nil
}

// RespondToBid accepts or rejects a bid on one of the caller's requests.
func (s *NegotiationService) RespondToBid(ctx context.Context, subjectID, requestID, bidID string, action domain.BidAction) (_ *BidResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.negotiation.respond_to_bid",
		attribute.String("request_id", requestID),
		attribute.String("bid_id", bidID),
		attribute.String("action", string(action)),
	)
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: action must be ACCEPT or REJECT", domain.ErrValidation)
	}

	req, err := s.tables.BidRequests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(p, req.CustomerID, "bid request"); err != nil {
		return nil, err
	}

	bid, err := s.tables.Bids.Get(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.RequestID != req.ID {
		return nil, fmt.Errorf("%w: bid %s does not belong to request %s", domain.ErrNotFound, bidID, requestID)
	}

	if action == domain.BidActionReject {
		return s.reject(ctx, req, bid)
	}
	return s.accept(ctx, req, bid)
}

func (s *NegotiationService) reject(ctx context.Context, req domain.BidRequest, bid domain.Bid) (*BidResponse, error) {
	switch bid.Status {
	case domain.BidStatusRejected:
		return &BidResponse{Request: req, Bid: bid}, nil
	case domain.BidStatusAccepted:
		return nil, fmt.Errorf("%w: bid %s is already accepted", domain.ErrConflict, bid.ID)
	}
	if req.AcceptanceInFlight() {
		return nil, fmt.Errorf("%w: bid request %s is being accepted", domain.ErrConflict, req.ID)
	}

	// Hold the same claim accept takes so the two cannot interleave.
	claimed := req.Version + 1
	ok, err := s.tables.BidRequests.CompareAndSwap(ctx, req.ID, "version", req.Version, claimed)
	if err != nil {
		return nil, fmt.Errorf("claim bid request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: bid request %s changed concurrently", domain.ErrConflict, req.ID)
	}
	defer s.releaseClaim(ctx, req.ID, claimed)

	current, err := s.tables.Bids.Get(ctx, bid.ID)
	if err != nil {
		return nil, fmt.Errorf("reload bid: %w", err)
	}
	switch current.Status {
	case domain.BidStatusRejected:
		return &BidResponse{Request: req, Bid: current}, nil
	case domain.BidStatusAccepted:
		return nil, fmt.Errorf("%w: bid %s is already accepted", domain.ErrConflict, bid.ID)
	}

	if err := s.tables.Bids.Update(ctx, bid.ID, port.Fields{"status": domain.BidStatusRejected}); err != nil {
		return nil, fmt.Errorf("reject bid: %w", err)
	}
	bid = current
	bid.Status = domain.BidStatusRejected

	s.logger.Info("bid rejected",
		zap.String("request_id", req.ID),
		zap.String("bid_id", bid.ID),
	)
	s.notifyBid(ctx, domain.NotificationBidRejected, req, bid)

	return &BidResponse{Request: req, Bid: bid}, nil
}

// accept turns bid into a booking and closes req. The request is claimed
// first by moving its version from even to odd, so no second acceptance can
// start; the follow-up writes are retried and a failure after the booking
// exists is reported as a partial failure.
func (s *NegotiationService) accept(ctx context.Context, req domain.BidRequest, bid domain.Bid) (*BidResponse, error) {
	if !req.IsOpen() {
		return nil, fmt.Errorf("%w: bid request %s is already closed", domain.ErrConflict, req.ID)
	}
	if req.AcceptanceInFlight() {
		return nil, fmt.Errorf("%w: bid request %s is being accepted", domain.ErrConflict, req.ID)
	}
	if bid.Status != domain.BidStatusPending {
		return nil, fmt.Errorf("%w: bid %s is %s", domain.ErrConflict, bid.ID, bid.Status)
	}

	claimed := req.Version + 1
	ok, err := s.tables.BidRequests.CompareAndSwap(ctx, req.ID, "version", req.Version, claimed)
	if err != nil {
		return nil, fmt.Errorf("claim bid request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: bid request %s changed concurrently", domain.ErrConflict, req.ID)
	}

	booking := domain.NewBidBooking(&req, &bid, s.now())
	bookingID, err := s.tables.Bookings.Insert(ctx, booking)
	if err != nil {
		s.releaseClaim(ctx, req.ID, claimed)
		return nil, fmt.Errorf("create booking: %w", err)
	}
	booking.ID = bookingID

	// The booking exists now; finish even if the caller goes away.
	stepCtx := context.WithoutCancel(ctx)

	err = retryStorage(stepCtx, s.cfg.AcceptMaxAttempts, s.cfg.AcceptRetryDelay, func(ctx context.Context) error {
		return s.tables.Bids.Update(ctx, bid.ID, port.Fields{"status": domain.BidStatusAccepted})
	})
	if err != nil {
		return nil, s.partialFailure(req, bid, bookingID, domain.StepMarkBidAccepted, err)
	}
	bid.Status = domain.BidStatusAccepted

	closed := claimed + 1
	err = retryStorage(stepCtx, s.cfg.AcceptMaxAttempts, s.cfg.AcceptRetryDelay, func(ctx context.Context) error {
		return s.tables.BidRequests.Update(ctx, req.ID, port.Fields{
			"status":          domain.BidRequestStatusClosed,
			"selected_bid_id": bid.ID,
			"version":         closed,
		})
	})
	if err != nil {
		return nil, s.partialFailure(req, bid, bookingID, domain.StepCloseRequest, err)
	}
	req.Status = domain.BidRequestStatusClosed
	req.SelectedBidID = bid.ID
	req.Version = closed

	s.logger.Info("bid accepted",
		zap.String("request_id", req.ID),
		zap.String("bid_id", bid.ID),
		zap.String("booking_id", bookingID),
		zap.Float64("price", bid.Price),
	)

	s.notifyBid(ctx, domain.NotificationBidAccepted, req, bid)
	s.notifier.Notify(context.WithoutCancel(ctx), domain.Notification{
		Kind:        domain.NotificationBookingCreated,
		RecipientID: booking.ProviderID,
		EntityID:    bookingID,
		Message:     fmt.Sprintf("Booking confirmed for %s", booking.ServiceName),
		CreatedAt:   s.now(),
	})

	if s.cfg.RejectSiblingsOnAccept {
		s.rejectSiblings(stepCtx, req, bid.ID)
	}

	return &BidResponse{Request: req, Bid: bid, Booking: &booking}, nil
}

// withdrawBid rejects a bid that was inserted but could not be confirmed.
func (s *NegotiationService) withdrawBid(ctx context.Context, bidID string) {
	if err := s.tables.Bids.Update(context.WithoutCancel(ctx), bidID, port.Fields{"status": domain.BidStatusRejected}); err != nil {
		s.logger.Warn("failed to reject late bid", zap.String("bid_id", bidID), zap.Error(err))
	}
}

func (s *NegotiationService) releaseClaim(ctx context.Context, requestID string, claimed int64) {
	ok, err := s.tables.BidRequests.CompareAndSwap(context.WithoutCancel(ctx), requestID, "version", claimed, claimed+1)
	if err != nil || !ok {
		s.logger.Error("failed to release bid request claim",
			zap.String("request_id", requestID),
			zap.Int64("version", claimed),
			zap.Bool("swapped", ok),
			zap.Error(err),
		)
	}
}

func (s *NegotiationService) partialFailure(req domain.BidRequest, bid domain.Bid, bookingID, step string, err error) error {
	s.logger.Error("bid acceptance left incomplete",
		zap.String("request_id", req.ID),
		zap.String("bid_id", bid.ID),
		zap.String("booking_id", bookingID),
		zap.String("step", step),
		zap.Error(err),
	)
	return &domain.PartialFailureError{
		BookingID: bookingID,
		RequestID: req.ID,
		BidID:     bid.ID,
		Step:      step,
		Err:       err,
	}
}

// rejectSiblings is best effort: the acceptance already succeeded.
func (s *NegotiationService) rejectSiblings(ctx context.Context, req domain.BidRequest, acceptedID string) {
	bids, err := s.tables.Bids.Find(ctx, port.Where("request_id", req.ID))
	if err != nil {
		s.logger.Warn("failed to list sibling bids", zap.String("request_id", req.ID), zap.Error(err))
		return
	}

	for _, sibling := range bids {
		if sibling.ID == acceptedID || sibling.Status != domain.BidStatusPending {
			continue
		}
		if err := s.tables.Bids.Update(ctx, sibling.ID, port.Fields{"status": domain.BidStatusRejected}); err != nil {
			s.logger.Warn("failed to reject sibling bid", zap.String("bid_id", sibling.ID), zap.Error(err))
			continue
		}
		sibling.Status = domain.BidStatusRejected
		s.notifyBid(ctx, domain.NotificationBidRejected, req, sibling)
	}
}

func (s *NegotiationService) notifyBid(ctx context.Context, kind domain.NotificationKind, req domain.BidRequest, bid domain.Bid) {
	verb := "accepted"
	if kind == domain.NotificationBidRejected {
		verb = "rejected"
	}
	s.notifier.Notify(context.WithoutCancel(ctx), domain.Notification{
		Kind:        kind,
		RecipientID: bid.ProviderID,
		EntityID:    bid.ID,
		Message:     fmt.Sprintf("Your bid on %s was %s", req.EventName, verb),
		CreatedAt:   s.now(),
	})
}
