package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
	"github.com/rl1809/marketplace/internal/telemetry"
)

var errLostRace = errors.New("sold_count changed since it was read")

type PassConfig struct {
	// PurchaseMaxAttempts bounds the read-check-swap loop of a purchase.
	PurchaseMaxAttempts int
	PurchaseRetryDelay  time.Duration
}

type CreatePassInput struct {
	EventName string
	EventDate string
	StartTime string
	Location  string
	Price     float64
	PassType  string
	// Capacity defaults to domain.DefaultPassCapacity when zero.
	Capacity int
}

type PurchaseInput struct {
	// Quantity defaults to 1 when zero.
	Quantity     int
	AttendeeName string
	Email        string
	// IdempotencyKey, if set, makes a repeated purchase by the same buyer
	// fail with ErrConflict.
	IdempotencyKey string
}

type PassService struct {
	gate        *Gate
	tables      *port.Tables
	idempotency port.IdempotencyRepository
	notifier    port.Notifier
	logger      *zap.Logger
	cfg         PassConfig
	now         func() time.Time
}

func NewPassService(gate *Gate, tables *port.Tables, idempotency port.IdempotencyRepository, notifier port.Notifier, logger *zap.Logger, cfg PassConfig) *PassService {
	if cfg.PurchaseMaxAttempts < 1 {
		cfg.PurchaseMaxAttempts = 5
	}
	if cfg.PurchaseRetryDelay <= 0 {
		cfg.PurchaseRetryDelay = 5 * time.Millisecond
	}
	return &PassService{
		gate:        gate,
		tables:      tables,
		idempotency: idempotency,
		notifier:    notifierOrNop(notifier),
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *PassService) CreatePass(ctx context.Context, subjectID string, in CreatePassInput) (_ *domain.Pass, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pass.create")
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	capacity := in.Capacity
	if capacity == 0 {
		capacity = domain.DefaultPassCapacity
	}

	pass := domain.Pass{
		CreatorID:   p.SubjectID,
		CreatorName: p.DisplayName,
		EventName:   in.EventName,
		EventDate:   in.EventDate,
		StartTime:   in.StartTime,
		Location:    in.Location,
		Price:       in.Price,
		PassType:    in.PassType,
		Capacity:    capacity,
		SoldCount:   0,
		IsActive:    true,
		CreatedAt:   s.now(),
	}
	if err := pass.Validate(); err != nil {
		return nil, err
	}

	id, err := s.tables.Passes.Insert(ctx, pass)
	if err != nil {
		return nil, fmt.Errorf("insert pass: %w", err)
	}
	pass.ID = id

	s.logger.Info("pass created",
		zap.String("pass_id", id),
		zap.String("creator_id", p.SubjectID),
		zap.Int("capacity", capacity),
	)

	return &pass, nil
}

// ListActivePasses needs no caller.
func (s *PassService) ListActivePasses(ctx context.Context) (_ []domain.Pass, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pass.list_active")
	defer func() { telemetry.End(span, err) }()

	passes, err := s.tables.Passes.Find(ctx, port.Where("is_active", true))
	if err != nil {
		return nil, fmt.Errorf("find passes: %w", err)
	}

	slices.SortFunc(passes, func(a, b domain.Pass) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return passes, nil
}

// PurchasePass sells quantity units of a pass. sold_count only ever moves
// through a compare-and-swap against the value just read, so concurrent
// buyers can never push it past capacity; a buyer that keeps losing the
// swap gives up with ErrConflict. The ledger entry is written only after
// the swap succeeded.
func (s *PassService) PurchasePass(ctx context.Context, subjectID, passID string, in PurchaseInput) (_ *domain.PassPurchase, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pass.purchase",
		attribute.String("pass_id", passID))
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	if in.IdempotencyKey != "" && s.idempotency != nil {
		key := fmt.Sprintf("purchase:%s:%s", p.SubjectID, in.IdempotencyKey)
		ok, claimErr := s.idempotency.SetIdempotency(ctx, key)
		if claimErr != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", claimErr)
		}
		if !ok {
			return nil, fmt.Errorf("%w: duplicate purchase request", domain.ErrConflict)
		}
		defer func() {
			if err == nil {
				return
			}
			if rerr := s.idempotency.ReleaseIdempotency(context.WithoutCancel(ctx), key); rerr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(rerr))
			}
		}()
	}

	pass, attempts, err := s.reserve(ctx, passID, quantity)
	if errors.Is(err, errLostRace) {
		s.logger.Warn("purchase lost every compare-and-swap",
			zap.String("pass_id", passID),
			zap.String("buyer_id", p.SubjectID),
			zap.Int("attempts", attempts),
		)
		return nil, fmt.Errorf("%w: pass %s is busy, gave up after %d attempts", domain.ErrConflict, passID, attempts)
	}
	if err != nil {
		return nil, err
	}

	purchase := domain.PassPurchase{
		PassID:       pass.ID,
		BuyerID:      p.SubjectID,
		EventName:    pass.EventName,
		PassType:     pass.PassType,
		Quantity:     quantity,
		TotalPrice:   pass.Price * float64(quantity),
		AttendeeName: in.AttendeeName,
		Email:        in.Email,
		Status:       domain.PurchaseStatusConfirmed,
		PurchasedAt:  s.now(),
	}

	stepCtx := context.WithoutCancel(ctx)
	var id string
	err = retryStorage(stepCtx, s.cfg.PurchaseMaxAttempts, s.cfg.PurchaseRetryDelay, func(ctx context.Context) error {
		var err error
		id, err = s.tables.PassPurchases.Insert(ctx, purchase)
		return err
	})
	if err != nil {
		s.restock(stepCtx, passID, quantity)
		return nil, fmt.Errorf("record purchase: %w", err)
	}
	purchase.ID = id

	s.logger.Info("pass purchased",
		zap.String("purchase_id", id),
		zap.String("pass_id", passID),
		zap.String("buyer_id", p.SubjectID),
		zap.Int("quantity", quantity),
		zap.Int("sold_count", pass.SoldCount+quantity),
		zap.Int("attempts", attempts),
	)

	s.notifier.Notify(stepCtx, domain.Notification{
		Kind:        domain.NotificationPassPurchased,
		RecipientID: p.SubjectID,
		EntityID:    id,
		Message:     fmt.Sprintf("%d x %s pass for %s confirmed", quantity, pass.PassType, pass.EventName),
		CreatedAt:   purchase.PurchasedAt,
	})

	return &purchase, nil
}

// reserve runs the read, capacity check and compare-and-swap loop. It
// returns the pass as read by the winning attempt.
func (s *PassService) reserve(ctx context.Context, passID string, quantity int) (domain.Pass, int, error) {
	backoff := retry.WithMaxRetries(uint64(s.cfg.PurchaseMaxAttempts-1),
		retry.WithJitterPercent(20,
			retry.WithCappedDuration(100*time.Millisecond, retry.NewExponential(s.cfg.PurchaseRetryDelay))))

	var (
		pass     domain.Pass
		attempts int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		var err error
		pass, err = s.tables.Passes.Get(ctx, passID)
		if err != nil {
			return err
		}
		if !pass.IsActive {
			return fmt.Errorf("%w: pass %s is not on sale", domain.ErrConflict, passID)
		}
		if !pass.CanSell(quantity) {
			return fmt.Errorf("%w: %d requested, %d left", domain.ErrCapacityExceeded, quantity, pass.Remaining())
		}

		ok, err := s.tables.Passes.CompareAndSwap(ctx, passID, "sold_count",
			int64(pass.SoldCount), int64(pass.SoldCount+quantity))
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errLostRace)
		}
		return nil
	})

	return pass, attempts, err
}

// restock returns units whose ledger entry could not be written.
func (s *PassService) restock(ctx context.Context, passID string, quantity int) {
	for range s.cfg.PurchaseMaxAttempts {
		pass, err := s.tables.Passes.Get(ctx, passID)
		if err != nil {
			break
		}
		ok, err := s.tables.Passes.CompareAndSwap(ctx, passID, "sold_count",
			int64(pass.SoldCount), int64(pass.SoldCount-quantity))
		if err != nil {
			break
		}
		if ok {
			s.logger.Warn("purchase rolled back", zap.String("pass_id", passID), zap.Int("quantity", quantity))
			return
		}
	}
	s.logger.Error("CRITICAL rollback failed, sold_count overstates purchases",
		zap.String("pass_id", passID),
		zap.Int("quantity", quantity),
	)
}

// ListMyPurchases returns the caller's purchases, oldest first.
func (s *PassService) ListMyPurchases(ctx context.Context, subjectID string) (_ []domain.PassPurchase, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pass.list_purchases")
	defer func() { telemetry.End(span, err) }()

	p, err := s.gate.Authorize(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	purchases, err := s.tables.PassPurchases.Find(ctx, port.Where("buyer_id", p.SubjectID))
	if err != nil {
		return nil, fmt.Errorf("find purchases: %w", err)
	}

	slices.SortStableFunc(purchases, func(a, b domain.PassPurchase) int {
		if c := a.PurchasedAt.Compare(b.PurchasedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return purchases, nil
}
