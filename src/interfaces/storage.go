package interfaces

import "stock-market-api/src/models"

// -----------------------------------------------------------------------------
// IStockStore defines the contract for persistence of stocks and their
// historical prices.
// -----------------------------------------------------------------------------

type IStockStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------
	// Stocks

	// CreateStock inserts a new stock and returns it with its assigned ID.
	CreateStock(stock *models.MStock) (*models.MStock, error)

	// GetStockByID returns the stock or nil when it does not exist.
	GetStockByID(id int64) (*models.MStock, error)

	// GetStockBySymbol looks up a stock by ticker symbol (case-insensitive).
	GetStockBySymbol(symbol string) (*models.MStock, error)

	// ListStocks returns stocks ordered by symbol, with pagination.
	ListStocks(offset, limit int, activeOnly bool) ([]models.MStock, error)

	// UpdateStock applies a partial update. Returns nil when not found.
	UpdateStock(id int64, update *models.MStockUpdate) (*models.MStock, error)

	// DeleteStock removes a stock and all of its prices.
	DeleteStock(id int64) (bool, error)

	// SearchStocks matches symbol or name by substring.
	SearchStocks(query string, limit int) ([]models.MStock, error)

	// -----------------------------------------------------------------------------
	// Prices

	// SavePricesBulk inserts price records, skipping dates already stored for
	// the stock. Returns the number of newly created records.
	SavePricesBulk(stockID int64, prices []models.MStockPrice) (int, error)

	// GetPrices returns prices for a stock, newest first, optionally bounded
	// by an inclusive date range.
	GetPrices(stockID int64, start, end *models.MDate, limit int) ([]models.MStockPrice, error)

	// GetLatestPrice returns the most recent record or nil when none exist.
	GetLatestPrice(stockID int64) (*models.MStockPrice, error)

	// GetPriceStats aggregates min/max/avg close and the covered date range.
	// Returns nil when the stock has no price data.
	GetPriceStats(stockID int64) (*models.MPriceStats, error)

	// CleanupOldPrices deletes price records older than retentionDays.
	// Returns the number of deleted rows.
	CleanupOldPrices(retentionDays int) (int64, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
