package service

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// ProductService defines read operations over the catalog.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// OrderService is the order aggregate manager: creation, materialization,
// status transitions and cancellation. Every operation takes the caller's
// opaque user reference and refuses to touch orders the caller does not
// own.
type OrderService interface {
	// CreateOrder prices, reserves stock for and persists a new order as
	// one atomic unit.
	CreateOrder(ctx context.Context, userID string, req *model.OrderRequest) (*model.OrderResponse, error)

	// GetByID materializes an order: the order row, all items, the
	// payment when one exists, and the item count.
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*model.OrderResponse, error)

	// ListByUser retrieves the caller's orders, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// UpdateStatus advances the fulfillment lifecycle one step:
	// pending -> processing -> shipped -> delivered. Skipping or
	// backward moves are rejected. Cancellation is not reachable here;
	// use Cancel.
	UpdateStatus(ctx context.Context, userID string, id uuid.UUID, next model.Status) (*model.OrderResponse, error)

	// Cancel moves a pending or processing order to cancelled and
	// restores its reserved stock, best-effort per item. Restore
	// failures are reported as warnings on the response, never as a
	// top-level error.
	Cancel(ctx context.Context, userID string, id uuid.UUID) (*model.OrderResponse, error)
}

// PaymentService tracks payment status on the payment record and the order
// in lockstep.
type PaymentService interface {
	// CreatePayment records a payment attempt for the order and settles
	// it synchronously through the gateway. Rejected with
	// model.ErrAlreadyPaid when the order is already paid.
	CreatePayment(ctx context.Context, userID string, orderID uuid.UUID, method model.PaymentMethod) (*model.Payment, error)

	// GetByOrderID retrieves the payment for one of the caller's orders.
	GetByOrderID(ctx context.Context, userID string, orderID uuid.UUID) (*model.Payment, error)
}
