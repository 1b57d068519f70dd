package collector

import (
	"context"
	"fmt"
	"strings"

	"stock-market-api/src/helpers"
	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/models"
)

// -----------------------------------------------------------------------------

// Collector glues the data sources to the store: it resolves symbols to
// stored stocks and persists fetched candles.
type Collector struct {
	Store   interfaces.IStockStore
	Sources interfaces.IDataSource
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCollector(cfg *models.MConfig, store interfaces.IStockStore, sources interfaces.IDataSource) *Collector {
	return &Collector{
		Store:   store,
		Sources: sources,
		Logger:  logger.NewLogger(cfg.LogLevel, "Collector"),
	}
}

// -----------------------------------------------------------------------------

// EnsureStock returns the stored stock for symbol, creating it from provider
// metadata when it is not known yet. Returns nil when no provider knows the
// symbol.
func (c *Collector) EnsureStock(ctx context.Context, symbol string) (*models.MStock, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	stock, err := c.Store.GetStockBySymbol(symbol)
	if err != nil {
		return nil, err
	}
	if stock != nil {
		return stock, nil
	}

	info, err := c.Sources.GetStockInfo(ctx, symbol)
	if err != nil {
		c.Logger.Warning("stock info lookup failed for %s: %v", symbol, err)
	}
	if info == nil {
		return nil, nil
	}

	newStock := &models.MStock{
		Symbol:   symbol,
		Name:     info.Name,
		Sector:   info.Sector,
		Industry: info.Industry,
		Exchange: info.Exchange,
		IsActive: true,
	}
	if newStock.Name == "" {
		newStock.Name = symbol
	}

	created, err := c.Store.CreateStock(newStock)
	if err != nil {
		return nil, fmt.Errorf("failed to register stock %s: %w", symbol, err)
	}
	c.Logger.Info("registered new stock %s (id=%d)", symbol, created.ID)
	return created, nil
}

// -----------------------------------------------------------------------------

// FetchAndStore downloads daily candles for symbol and saves the ones not
// already stored. Existing dates are left untouched. Business failures
// (unknown symbol, empty series) are reported inside the result; the error
// return is for storage and transport faults only.
func (c *Collector) FetchAndStore(ctx context.Context, symbol string, start, end *models.MDate, period string) (*models.MFetchResult, error) {
	stock, err := c.EnsureStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return &models.MFetchResult{
			Success: false,
			Symbol:  symbol,
			Error:   fmt.Sprintf("Stock %s not found", symbol),
		}, nil
	}

	prices, err := c.Sources.GetDailyPrices(ctx, stock.Symbol, start, end, period)
	if err != nil {
		return nil, fmt.Errorf("price fetch failed for %s: %w", stock.Symbol, err)
	}
	if len(prices) == 0 {
		c.Logger.Warning("no candles returned for %s", stock.Symbol)
		return &models.MFetchResult{
			Success: false,
			StockID: stock.ID,
			Symbol:  stock.Symbol,
			Error:   "No price data found",
		}, nil
	}

	inserted, err := c.Store.SavePricesBulk(stock.ID, prices)
	if err != nil {
		return nil, &helpers.StorageError{StockAPIError: helpers.StockAPIError{
			Message: fmt.Sprintf("price save failed for %s", stock.Symbol),
			Cause:   err,
		}}
	}

	c.Logger.Info("stored %d/%d candles for %s", inserted, len(prices), stock.Symbol)
	return &models.MFetchResult{
		Success:      true,
		StockID:      stock.ID,
		Symbol:       stock.Symbol,
		TotalFetched: len(prices),
		NewRecords:   inserted,
	}, nil
}
