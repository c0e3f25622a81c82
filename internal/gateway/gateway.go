// Package gateway abstracts the external payment gateway. The core only
// reacts to gateway success or failure; it does not implement real payment
// processing.
package gateway

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Gateway settles a payment and returns the gateway's opaque reference on
// success.
type Gateway interface {
	Charge(ctx context.Context, orderNumber string, amount decimal.Decimal, currency string, method model.PaymentMethod) (string, error)
}

// Simulated is a gateway that settles every charge successfully. It stands
// in for a real processor integration.
type Simulated struct {
	logger zerolog.Logger
}

// NewSimulated creates a simulated gateway.
func NewSimulated(logger zerolog.Logger) *Simulated {
	return &Simulated{
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

// Charge settles the payment immediately and returns a synthetic reference.
func (g *Simulated) Charge(ctx context.Context, orderNumber string, amount decimal.Decimal, currency string, method model.PaymentMethod) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := "sim_" + uuid.NewString()

	g.logger.Info().
		Str("order_number", orderNumber).
		Str("amount", amount.StringFixed(2)).
		Str("currency", currency).
		Str("method", string(method)).
		Str("gateway_ref", ref).
		Msg("charge settled")

	return ref, nil
}
