package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// paymentRepository implements the PaymentRepository interface using PostgreSQL.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// GetByOrderID retrieves the payment for an order, or nil when none exists.
// The payments.order_id unique constraint guarantees at most one row.
func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, order_id, payment_method, payment_id, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE order_id = $1
	`

	var p model.Payment
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.PaymentID,
		&p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return &p, nil
}

// GetByOrderIDTx retrieves the payment for an order within the provided
// transaction, or nil when none exists.
func (r *paymentRepository) GetByOrderIDTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, order_id, payment_method, payment_id, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE order_id = $1
	`

	var p model.Payment
	err := tx.QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.PaymentID,
		&p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return &p, nil
}

// Create inserts a new payment within the provided transaction.
func (r *paymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, payment_method, payment_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		payment.ID, payment.OrderID, payment.Method, payment.PaymentID,
		payment.Amount, payment.Currency, payment.Status, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", payment.OrderID.String()).
			Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.logger.Debug().
		Str("payment_id", payment.ID.String()).
		Str("order_id", payment.OrderID.String()).
		Msg("payment created")

	return nil
}

// Update persists the payment's status, gateway reference and method within
// the provided transaction.
func (r *paymentRepository) Update(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		UPDATE payments
		SET payment_method = $1, payment_id = $2, status = $3, updated_at = $4
		WHERE id = $5
	`

	tag, err := tx.Exec(ctx, query,
		payment.Method, payment.PaymentID, payment.Status, payment.UpdatedAt, payment.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("payment_id", payment.ID.String()).
			Msg("failed to update payment")
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", payment.ID)
	}

	return nil
}
