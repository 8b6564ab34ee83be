package fetcher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSnapshot is the ephemeral result of one feed poll. It lives for a
// single evaluation pass and is never persisted.
type PriceSnapshot struct {
	Code         string
	CurrentPrice decimal.Decimal
	FetchedAt    time.Time
}

// PriceFetcher retrieves the current quote for a tracked instrument.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, code string) (PriceSnapshot, error)
}
