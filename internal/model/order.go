package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents one checkout transaction with snapshot pricing and
// shipping details.
type Order struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	OrderNumber string    `json:"orderNumber" db:"order_number"`

	Status        Status        `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus" db:"payment_status"`

	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxAmount    decimal.Decimal `json:"taxAmount" db:"tax_amount"`
	ShippingCost decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	TotalAmount  decimal.Decimal `json:"totalAmount" db:"total_amount"`

	// Shipping snapshot, copied in at creation and immutable thereafter.
	ShippingAddress string `json:"shippingAddress" db:"shipping_address"`
	ShippingCity    string `json:"shippingCity" db:"shipping_city"`
	ShippingState   string `json:"shippingState" db:"shipping_state"`
	ShippingZipcode string `json:"shippingZipcode" db:"shipping_zipcode"`
	ShippingCountry string `json:"shippingCountry" db:"shipping_country"`

	CustomerEmail string `json:"customerEmail" db:"customer_email"`
	CustomerPhone string `json:"customerPhone,omitempty" db:"customer_phone"`

	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	PaidAt      *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	ShippedAt   *time.Time `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty" db:"cancelled_at"`
}

// RecomputeTotal derives total_amount from its components. The total is
// never accepted as input; every write path calls this.
func (o *Order) RecomputeTotal() {
	o.TotalAmount = o.Subtotal.Add(o.TaxAmount).Add(o.ShippingCost)
}

// OrderItem is a price-frozen snapshot of one product line. Name and unit
// price are copied from the catalog at order time so later catalog changes
// never alter a historical order.
type OrderItem struct {
	ID           uuid.UUID       `json:"-" db:"id"`
	OrderID      uuid.UUID       `json:"-" db:"order_id"`
	ProductID    string          `json:"productId" db:"product_id"`
	ProductName  string          `json:"productName" db:"product_name"`
	ProductPrice decimal.Decimal `json:"productPrice" db:"product_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice" db:"total_price"`
}

// RecomputeTotal derives total_price from the unit price and quantity.
func (i *OrderItem) RecomputeTotal() {
	i.TotalPrice = i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderRequest is the request payload for creating an order.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items"`

	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState"`
	ShippingZipcode string `json:"shippingZipcode"`
	ShippingCountry string `json:"shippingCountry"`

	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

// OrderItemRequest is a single product line in an order request.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// StatusUpdateRequest is the request payload for an administrative status
// transition.
type StatusUpdateRequest struct {
	Status Status `json:"status"`
}

// OrderResponse is the fully materialized read model of an order: the
// order row, all of its items, and the payment when one exists.
type OrderResponse struct {
	Order     *Order      `json:"order"`
	Items     []OrderItem `json:"items"`
	Payment   *Payment    `json:"payment,omitempty"`
	ItemCount int         `json:"itemCount"`

	// Warnings carries per-item stock-restore failures from cancellation.
	// These never fail the cancellation itself.
	Warnings []string `json:"warnings,omitempty"`
}
