// Package inventory owns the stock-adjustment protocol: conditional
// reservation at order creation and restoration on cancellation.
package inventory

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Reservation is a requested stock decrement for one product.
type Reservation struct {
	ProductID string
	Quantity  int
}

// Ledger mediates stock mutations against the catalog.
type Ledger interface {
	// Reserve decrements stock for every reservation, all-or-nothing.
	// Each decrement is conditional on sufficient stock at the moment of
	// the write. All decrements run in the caller's transaction, so a
	// failure aborts the transaction and undoes every earlier decrement
	// in the same request; no partial reservation is ever committed.
	// Returns *model.InsufficientStockError for the first product that
	// cannot be reserved.
	Reserve(ctx context.Context, tx pgx.Tx, reservations []Reservation) error

	// Restore adds quantity back to a product's stock. Used on
	// cancellation, where the aggregate manager guarantees at most one
	// restore per cancelled order by gating on the status transition.
	Restore(ctx context.Context, productID string, quantity int) error
}

// ledger implements Ledger over the catalog's product repository.
type ledger struct {
	products repository.ProductRepository
	logger   zerolog.Logger
}

// NewLedger creates a new inventory ledger.
func NewLedger(products repository.ProductRepository, logger zerolog.Logger) Ledger {
	return &ledger{
		products: products,
		logger:   logger.With().Str("component", "inventory").Logger(),
	}
}

// Reserve decrements stock for every reservation, all-or-nothing.
func (l *ledger) Reserve(ctx context.Context, tx pgx.Tx, reservations []Reservation) error {
	for _, res := range reservations {
		if res.Quantity < 1 {
			return model.ErrInvalidQuantity
		}

		applied, err := l.products.DecrementStock(ctx, tx, res.ProductID, res.Quantity)
		if err != nil {
			return fmt.Errorf("failed to reserve stock for %s: %w", res.ProductID, err)
		}
		if applied {
			continue
		}

		// The conditional write was rejected; read what is actually on
		// hand so the caller can report it. A missing row surfaces as
		// product-not-found rather than insufficient stock.
		available, err := l.products.StockOnHand(ctx, tx, res.ProductID)
		if err != nil {
			if err == model.ErrProductNotFound {
				return err
			}
			return fmt.Errorf("failed to read stock for %s: %w", res.ProductID, err)
		}

		l.logger.Warn().
			Str("product_id", res.ProductID).
			Int("available", available).
			Int("requested", res.Quantity).
			Msg("reservation rejected, insufficient stock")

		return &model.InsufficientStockError{
			ProductID: res.ProductID,
			Available: available,
			Requested: res.Quantity,
		}
	}

	l.logger.Debug().Int("count", len(reservations)).Msg("stock reserved")
	return nil
}

// Restore adds quantity back to a product's stock.
func (l *ledger) Restore(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	if err := l.products.IncrementStock(ctx, productID, quantity); err != nil {
		return err
	}

	l.logger.Debug().
		Str("product_id", productID).
		Int("quantity", quantity).
		Msg("stock restored")

	return nil
}
