package datasource

import (
	"context"
	"fmt"

	"stock-market-api/src/helpers"
	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/models"
)

// -----------------------------------------------------------------------------

// SourceManager tries each configured data source in order and returns the
// first non-empty answer.
type SourceManager struct {
	Sources []interfaces.IDataSource
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSourceManager(cfg *models.MConfig, sources []interfaces.IDataSource) *SourceManager {
	return &SourceManager{
		Sources: sources,
		Logger:  logger.NewLogger(cfg.LogLevel, "SourceManager"),
	}
}

// -----------------------------------------------------------------------------

func (m *SourceManager) Name() string {
	return "source-manager"
}

// -----------------------------------------------------------------------------

func (m *SourceManager) GetStockInfo(ctx context.Context, symbol string) (*interfaces.MStockInfo, error) {
	var lastErr error
	for _, src := range m.Sources {
		info, err := src.GetStockInfo(ctx, symbol)
		if err != nil {
			m.Logger.Warning("source %s failed for %s info: %v", src.Name(), symbol, err)
			lastErr = err
			continue
		}
		if info != nil {
			return info, nil
		}
	}
	if lastErr != nil {
		return nil, m.allFailed(symbol, lastErr)
	}
	return nil, nil
}

// -----------------------------------------------------------------------------

func (m *SourceManager) GetDailyPrices(ctx context.Context, symbol string, start, end *models.MDate, period string) ([]models.MStockPrice, error) {
	var lastErr error
	for _, src := range m.Sources {
		prices, err := src.GetDailyPrices(ctx, symbol, start, end, period)
		if err != nil {
			m.Logger.Warning("source %s failed for %s prices: %v", src.Name(), symbol, err)
			lastErr = err
			continue
		}
		if len(prices) > 0 {
			m.Logger.Info("source %s returned %d candles for %s", src.Name(), len(prices), symbol)
			return prices, nil
		}
	}
	if lastErr != nil {
		return nil, m.allFailed(symbol, lastErr)
	}
	return nil, nil
}

// -----------------------------------------------------------------------------

func (m *SourceManager) allFailed(symbol string, lastErr error) error {
	return &helpers.DataSourceError{StockAPIError: helpers.StockAPIError{
		Message: fmt.Sprintf("all sources failed for %s", symbol),
		Cause:   lastErr,
	}}
}
