package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product. The catalog owns product data;
// this core reads price and stock and adjusts stock through reservations.
type Product struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	Category  string          `json:"category" db:"category"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
