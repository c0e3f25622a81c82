package model

// Status is the fulfillment lifecycle of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// fulfillmentRank orders the forward-only fulfillment states.
var fulfillmentRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the order may move from s to next.
// Fulfillment advances one step at a time: pending -> processing ->
// shipped -> delivered. Cancellation is reachable from pending and
// processing only.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusCancelled {
		return s == StatusPending || s == StatusProcessing
	}

	from, ok := fulfillmentRank[s]
	if !ok {
		return false
	}
	to, ok := fulfillmentRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// Cancellable reports whether an order in this state may still be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// PaymentStatus is the payment lifecycle, tracked on both the order and
// its payment record.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the payment may move from s to next.
// Allowed: pending -> paid, pending -> failed, paid -> refunded, and
// failed -> pending for retries.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentPaid || next == PaymentFailed
	case PaymentPaid:
		return next == PaymentRefunded
	case PaymentFailed:
		return next == PaymentPending
	}
	return false
}

// PaymentMethod identifies how a payment is collected.
type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodPayPal     PaymentMethod = "paypal"
	MethodStripe     PaymentMethod = "stripe"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPayPal, MethodStripe:
		return true
	}
	return false
}
