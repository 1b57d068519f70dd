package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"stock-market-api/src/collector"
	"stock-market-api/src/helpers"
	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/models"
	"stock-market-api/src/utils"
)

const refreshTimeout = 10 * time.Minute

// -----------------------------------------------------------------------------

// Scheduler runs the periodic price refresh for all active stocks.
type Scheduler struct {
	Config    *models.MConfig
	Store     interfaces.IStockStore
	Collector *collector.Collector
	Exchanger interfaces.IDataExchanger
	Logger    *logger.Logger
	cron      *cron.Cron
}

// -----------------------------------------------------------------------------

func NewScheduler(cfg *models.MConfig, store interfaces.IStockStore, coll *collector.Collector, exchanger interfaces.IDataExchanger) *Scheduler {
	return &Scheduler{
		Config:    cfg,
		Store:     store,
		Collector: coll,
		Exchanger: exchanger,
		Logger:    logger.NewLogger(cfg.LogLevel, "Scheduler"),
		cron:      cron.New(cron.WithSeconds()),
	}
}

// -----------------------------------------------------------------------------

func (s *Scheduler) Start() error {
	spec := s.Config.Scheduler.RefreshCron
	if _, err := s.cron.AddFunc(spec, s.RefreshAll); err != nil {
		return err
	}
	s.cron.Start()
	s.Logger.Info("scheduler started, refresh cron: %s", spec)
	return nil
}

// -----------------------------------------------------------------------------

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.Logger.Info("scheduler stopped")
}

// -----------------------------------------------------------------------------

// RefreshAll fetches recent candles for every active stock whose exchange
// traded today, then prunes records past the retention window.
func (s *Scheduler) RefreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	stocks, err := s.Store.ListStocks(0, 10000, true)
	if err != nil {
		s.Logger.Error("refresh aborted, stock list failed: %v", err)
		return
	}

	now := time.Now()
	refreshed := 0
	for _, stock := range stocks {
		if !utils.GetCalendar(stock.Symbol).IsTradingDay(now) {
			s.Logger.Debug("skipping %s, not a trading day", stock.Symbol)
			continue
		}

		symbol := stock.Symbol
		res, err := helpers.RetryWithBackoff("refresh "+symbol, 2, 5*time.Second, func() (interface{}, error) {
			return s.Collector.FetchAndStore(ctx, symbol, nil, nil, "5d")
		})
		if err != nil {
			s.Logger.Warning("refresh failed for %s: %v", symbol, err)
			continue
		}
		refreshed++

		result := res.(*models.MFetchResult)
		if result.NewRecords > 0 && s.Exchanger != nil {
			s.broadcast(result)
		}
	}

	s.Logger.Info("refresh cycle done: %d/%d stocks updated", refreshed, len(stocks))

	retention := s.Config.DataSource.DataRetentionDays
	if retention > 0 {
		deleted, err := s.Store.CleanupOldPrices(retention)
		if err != nil {
			s.Logger.Warning("price cleanup failed: %v", err)
		} else if deleted > 0 {
			s.Logger.Info("pruned %d price records older than %d days", deleted, retention)
		}
	}
}

// -----------------------------------------------------------------------------

func (s *Scheduler) broadcast(result *models.MFetchResult) {
	latest, err := s.Store.GetLatestPrice(result.StockID)
	if err != nil || latest == nil {
		return
	}
	s.Exchanger.BroadcastPriceUpdate(&models.MPriceUpdate{
		Type:        "PRICE_UPDATE",
		StockID:     result.StockID,
		Symbol:      result.Symbol,
		NewRecords:  result.NewRecords,
		LatestClose: latest.Close,
		LatestDate:  latest.Date,
		Timestamp:   time.Now().Unix(),
	})
}
