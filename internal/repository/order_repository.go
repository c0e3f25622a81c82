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

const orderColumns = `
	id, user_id, order_number, status, payment_status,
	subtotal, tax_amount, shipping_cost, total_amount,
	shipping_address, shipping_city, shipping_state, shipping_zipcode, shipping_country,
	customer_email, customer_phone,
	created_at, updated_at, paid_at, shipped_at, delivered_at, cancelled_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, order_number, status, payment_status,
			subtotal, tax_amount, shipping_cost, total_amount,
			shipping_address, shipping_city, shipping_state, shipping_zipcode, shipping_country,
			customer_email, customer_phone,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.OrderNumber, order.Status, order.PaymentStatus,
		order.Subtotal, order.TaxAmount, order.ShippingCost, order.TotalAmount,
		order.ShippingAddress, order.ShippingCity, order.ShippingState, order.ShippingZipcode, order.ShippingCountry,
		order.CustomerEmail, order.CustomerPhone,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, product_price, quantity, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID,
			item.ProductName, item.ProductPrice, item.Quantity, item.TotalPrice)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// OrderNumberExists reports whether an order already carries the given
// order number.
func (r *orderRepository) OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, number,
	).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Str("order_number", number).Msg("failed to check order number")
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID, &order.UserID, &order.OrderNumber, &order.Status, &order.PaymentStatus,
		&order.Subtotal, &order.TaxAmount, &order.ShippingCost, &order.TotalAmount,
		&order.ShippingAddress, &order.ShippingCity, &order.ShippingState, &order.ShippingZipcode, &order.ShippingCountry,
		&order.CustomerEmail, &order.CustomerPhone,
		&order.CreatedAt, &order.UpdatedAt, &order.PaidAt, &order.ShippedAt, &order.DeliveredAt, &order.CancelledAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return &order, items, nil
}

// GetByIDForUpdate retrieves an order within the provided transaction,
// holding its row lock until the transaction ends.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	var order model.Order
	err := tx.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.UserID, &order.OrderNumber, &order.Status, &order.PaymentStatus,
		&order.Subtotal, &order.TaxAmount, &order.ShippingCost, &order.TotalAmount,
		&order.ShippingAddress, &order.ShippingCity, &order.ShippingState, &order.ShippingZipcode, &order.ShippingCountry,
		&order.CustomerEmail, &order.CustomerPhone,
		&order.CreatedAt, &order.UpdatedAt, &order.PaidAt, &order.ShippedAt, &order.DeliveredAt, &order.CancelledAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order row")
		return nil, fmt.Errorf("failed to lock order row: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, id uuid.UUID) ([]model.OrderItem, error) {
	itemsQuery := `
		SELECT id, order_id, product_id, product_name, product_price, quantity, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.ProductName, &item.ProductPrice, &item.Quantity, &item.TotalPrice)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ListByUser retrieves a user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		err := rows.Scan(
			&order.ID, &order.UserID, &order.OrderNumber, &order.Status, &order.PaymentStatus,
			&order.Subtotal, &order.TaxAmount, &order.ShippingCost, &order.TotalAmount,
			&order.ShippingAddress, &order.ShippingCity, &order.ShippingState, &order.ShippingZipcode, &order.ShippingCountry,
			&order.CustomerEmail, &order.CustomerPhone,
			&order.CreatedAt, &order.UpdatedAt, &order.PaidAt, &order.ShippedAt, &order.DeliveredAt, &order.CancelledAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus persists the order's fulfillment status plus lifecycle
// stamps. The UPDATE is conditional on the status the caller read, so two
// writers racing over the same order cannot both apply their transition.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order, from model.Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2, shipped_at = $3, delivered_at = $4, cancelled_at = $5
		WHERE id = $6 AND status = $7
	`

	tag, err := r.pool.Exec(ctx, query,
		order.Status, order.UpdatedAt, order.ShippedAt, order.DeliveredAt, order.CancelledAt, order.ID, from)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if !exists {
			return model.ErrOrderNotFound
		}
		r.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("from", string(from)).
			Str("to", string(order.Status)).
			Msg("order status changed concurrently")
		return model.ErrStatusConflict
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Msg("order status updated")

	return nil
}

// UpdatePaymentStatus persists the order's payment status within the
// provided transaction so it can never diverge from the payment record.
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET payment_status = $1, paid_at = $2, updated_at = $3
		WHERE id = $4
	`

	tag, err := tx.Exec(ctx, query, order.PaymentStatus, order.PaidAt, order.UpdatedAt, order.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("payment_status", string(order.PaymentStatus)).
			Msg("failed to update order payment status")
		return fmt.Errorf("failed to update order payment status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}
