package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records the single payment attempt for an order. Amount and
// currency are snapshots of the order total at payment-creation time and
// are never caller-supplied.
type Payment struct {
	ID      uuid.UUID     `json:"id" db:"id"`
	OrderID uuid.UUID     `json:"orderId" db:"order_id"`
	Method  PaymentMethod `json:"paymentMethod" db:"payment_method"`

	// PaymentID is the external gateway reference; empty until the
	// gateway confirms.
	PaymentID string `json:"paymentId,omitempty" db:"payment_id"`

	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Currency string          `json:"currency" db:"currency"`
	Status   PaymentStatus   `json:"status" db:"status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PaymentRequest is the request payload for creating a payment.
type PaymentRequest struct {
	Method PaymentMethod `json:"paymentMethod"`
}
