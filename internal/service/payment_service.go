package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	gateway     gateway.Gateway
	currency    string
	logger      zerolog.Logger
}

// NewPaymentService creates a new payment service. All payments are taken
// in the given currency.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	gw gateway.Gateway,
	currency string,
	logger zerolog.Logger,
) PaymentService {
	if currency == "" {
		currency = "USD"
	}
	return &paymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateway:     gw,
		currency:    currency,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// CreatePayment records a payment attempt and settles it synchronously.
// The amount is always the order's total; callers never supply it. The
// payment row and the order's payment_status are written in one
// transaction on both the success and the failure path, so the two can
// never disagree. A gateway failure leaves the order payable again and is
// reported through the returned payment's status, not as an error.
func (s *paymentService) CreatePayment(ctx context.Context, userID string, orderID uuid.UUID, method model.PaymentMethod) (*model.Payment, error) {
	if !method.Valid() {
		return nil, model.NewDomainError(model.ErrCodeValidationFailed, fmt.Sprintf("Unsupported payment method %q", method))
	}

	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}

	// At most one successful payment per order.
	if order.PaymentStatus == model.PaymentPaid {
		s.logger.Warn().Str("order_id", orderID.String()).Msg("payment rejected, order already paid")
		return nil, model.ErrAlreadyPaid
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Re-read under the order's row lock. The checks above ran outside the
	// transaction, and a concurrent attempt may have settled the payment in
	// between; the lock serializes attempts so only one can charge.
	order, err = s.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}
	if order.PaymentStatus == model.PaymentPaid {
		s.logger.Warn().Str("order_id", orderID.String()).Msg("payment settled concurrently")
		err = model.ErrAlreadyPaid
		return nil, err
	}

	var existing *model.Payment
	existing, err = s.paymentRepo.GetByOrderIDTx(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	now := time.Now()
	var payment *model.Payment

	if existing != nil {
		// A previous attempt left a row behind. Only failed -> pending
		// is a legal re-entry; anything else is a state-machine
		// violation.
		if !existing.Status.CanTransitionTo(model.PaymentPending) {
			err = &model.InvalidTransitionError{From: string(existing.Status), To: string(model.PaymentPending)}
			return nil, err
		}
		payment = existing
		payment.Method = method
		payment.Status = model.PaymentPending
		payment.Amount = order.TotalAmount
		payment.Currency = s.currency
		payment.UpdatedAt = now

		if err = s.paymentRepo.Update(ctx, tx, payment); err != nil {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}
	} else {
		payment = &model.Payment{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Method:    method,
			Amount:    order.TotalAmount,
			Currency:  s.currency,
			Status:    model.PaymentPending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err = s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}
	}

	// Synchronous settlement against the external gateway.
	ref, chargeErr := s.gateway.Charge(ctx, order.OrderNumber, payment.Amount, payment.Currency, method)

	settled := time.Now()
	if chargeErr != nil {
		s.logger.Warn().
			Err(chargeErr).
			Str("order_id", orderID.String()).
			Msg("gateway declined charge")
		payment.Status = model.PaymentFailed
		order.PaymentStatus = model.PaymentFailed
	} else {
		payment.PaymentID = ref
		payment.Status = model.PaymentPaid
		order.PaymentStatus = model.PaymentPaid
		order.PaidAt = &settled
	}
	payment.UpdatedAt = settled
	order.UpdatedAt = settled

	if err = s.paymentRepo.Update(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment result: %w", err)
	}

	if err = s.orderRepo.UpdatePaymentStatus(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to record payment result: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit payment")
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info().
		Str("payment_id", payment.ID.String()).
		Str("order_id", orderID.String()).
		Str("status", string(payment.Status)).
		Str("amount", payment.Amount.StringFixed(2)).
		Msg("payment processed")

	return payment, nil
}

// GetByOrderID retrieves the payment for one of the caller's orders.
func (s *paymentService) GetByOrderID(ctx context.Context, userID string, orderID uuid.UUID) (*model.Payment, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}
