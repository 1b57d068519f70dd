package interfaces

import (
	"context"

	"stock-market-api/src/models"
)

// -----------------------------------------------------------------------------
// IDataSource is the contract for external market-data providers.
// -----------------------------------------------------------------------------

// MStockInfo is provider metadata about a symbol.
type MStockInfo struct {
	Symbol   string
	Name     string
	Sector   string
	Industry string
	Exchange string
}

// -----------------------------------------------------------------------------

type IDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// GetStockInfo resolves a ticker symbol to company metadata.
	// Returns nil when the symbol is unknown to the provider.
	GetStockInfo(ctx context.Context, symbol string) (*MStockInfo, error)

	// -----------------------------------------------------------------------------

	// GetDailyPrices fetches daily historical prices. When start and end are
	// set they bound the range; otherwise period ("1mo", "1y", "max", ...)
	// selects how far back to look.
	GetDailyPrices(ctx context.Context, symbol string, start, end *models.MDate, period string) ([]models.MStockPrice, error)
}
