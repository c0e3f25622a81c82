package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines data access for the catalog: product reads and
// the conditional stock mutations the inventory ledger relies on.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// DecrementStock conditionally subtracts quantity from a product's
	// stock within the provided transaction. It succeeds only when the
	// row holds at least that much stock at the moment of the write;
	// the returned bool reports whether the decrement was applied.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) (bool, error)

	// StockOnHand reads a product's current stock within the provided
	// transaction. Returns model.ErrProductNotFound when the row is
	// missing.
	StockOnHand(ctx context.Context, tx pgx.Tx, id string) (int, error)

	// IncrementStock adds quantity back to a product's stock. Returns
	// model.ErrProductNotFound when the row is missing.
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// OrderRepository defines data access for orders and their line items.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// OrderNumberExists reports whether an order already carries the
	// given order number, observed within the provided transaction.
	OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error)

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetByIDForUpdate retrieves an order within the provided transaction,
	// holding its row lock until the transaction ends. Returns nil when
	// the order does not exist.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// UpdateStatus persists the order's fulfillment status and the
	// lifecycle timestamps that accompany it. The write only applies
	// while the order still carries the status the caller read; a row
	// whose status moved underneath the caller yields ErrStatusConflict.
	UpdateStatus(ctx context.Context, order *model.Order, from model.Status) error

	// UpdatePaymentStatus persists the order's payment status and paid_at
	// stamp within the provided transaction.
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error
}

// PaymentRepository defines data access for payment records.
type PaymentRepository interface {
	// GetByOrderID retrieves the payment for an order, or nil when none
	// exists.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)

	// GetByOrderIDTx is GetByOrderID observed within the provided
	// transaction.
	GetByOrderIDTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Payment, error)

	// Create inserts a new payment within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	// Update persists the payment's status and gateway reference within
	// the provided transaction.
	Update(ctx context.Context, tx pgx.Tx, payment *model.Payment) error
}
