package server

import (
	"time"

	"stock-market-api/src/analysis"
	"stock-market-api/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Price and analytics handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getPrices(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	start, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 100, 1, 1000)

	stock, err := s.Store.GetStockByID(id)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if stock == nil {
		abortDetail(c, 404, "Stock not found")
		return
	}

	prices, err := s.Store.GetPrices(id, start, end, limit)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	c.JSON(200, prices)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPricesBySymbol(c *gin.Context) {
	start, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 100, 1, 1000)

	stock, err := s.Store.GetStockBySymbol(c.Param("symbol"))
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if stock == nil {
		abortDetail(c, 404, "Stock not found")
		return
	}

	prices, err := s.Store.GetPrices(stock.ID, start, end, limit)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	c.JSON(200, prices)
}

// -----------------------------------------------------------------------------

// fetchPrices pulls historical candles from the external providers and
// stores them.
func (s *APIServer) fetchPrices(c *gin.Context) {
	var req models.MPriceFetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, 422, err.Error())
		return
	}

	var start, end *models.MDate
	if req.StartDate != "" {
		d, err := models.ParseMDate(req.StartDate)
		if err != nil {
			abortDetail(c, 422, "Invalid start_date")
			return
		}
		start = &d
	}
	if req.EndDate != "" {
		d, err := models.ParseMDate(req.EndDate)
		if err != nil {
			abortDetail(c, 422, "Invalid end_date")
			return
		}
		end = &d
	}

	period := req.Period
	if period == "" {
		period = "1mo"
	}

	result, err := s.Collector.FetchAndStore(c.Request.Context(), req.Symbol, start, end, period)
	if err != nil {
		s.Logger.Error("price fetch failed for %s: %v", req.Symbol, err)
		abortDetail(c, 500, "Failed to fetch prices")
		return
	}
	if !result.Success {
		detail := result.Error
		if detail == "" {
			detail = "Failed to fetch prices"
		}
		abortDetail(c, 400, detail)
		return
	}

	if result.NewRecords > 0 {
		s.broadcastFetchResult(result)
	}
	c.JSON(200, result)
}

// -----------------------------------------------------------------------------

// broadcastFetchResult pushes a price update to websocket subscribers after
// new records have been stored.
func (s *APIServer) broadcastFetchResult(result *models.MFetchResult) {
	latest, err := s.Store.GetLatestPrice(result.StockID)
	if err != nil || latest == nil {
		return
	}
	s.BroadcastPriceUpdate(&models.MPriceUpdate{
		Type:        "PRICE_UPDATE",
		StockID:     result.StockID,
		Symbol:      result.Symbol,
		NewRecords:  result.NewRecords,
		LatestClose: latest.Close,
		LatestDate:  latest.Date,
		Timestamp:   time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPriceStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	stock, err := s.Store.GetStockByID(id)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if stock == nil {
		abortDetail(c, 404, "Stock not found")
		return
	}

	stats, err := s.Store.GetPriceStats(id)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if stats == nil {
		abortDetail(c, 404, "No price data found for this stock")
		return
	}
	stats.Symbol = stock.Symbol
	c.JSON(200, stats)
}

// -----------------------------------------------------------------------------
// Analytics
// -----------------------------------------------------------------------------

func (s *APIServer) getMovingAverage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	window := queryInt(c, "window", 20, 5, 200)
	start, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return
	}

	prices, err := s.Store.GetPrices(id, start, end, 1000)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}

	result := analysis.ComputeMovingAverage(models.PricePoints(prices), window)
	if len(result) == 0 {
		abortDetail(c, 400, "Insufficient data for moving average calculation")
		return
	}
	c.JSON(200, result)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getProjection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	daysAhead := queryInt(c, "days_ahead", 30, 1, 365)
	lookbackDays := queryInt(c, "lookback_days", 90, 10, 365)

	prices, err := s.Store.GetPrices(id, nil, nil, lookbackDays)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}

	result, err := analysis.ComputeProjection(id, models.PricePoints(prices), daysAhead)
	if err != nil {
		abortDetail(c, 400, err.Error())
		return
	}
	c.JSON(200, result)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getVolatility(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	lookbackDays := queryInt(c, "lookback_days", 30, 5, 365)

	prices, err := s.Store.GetPrices(id, nil, nil, lookbackDays)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}

	result, err := analysis.ComputeVolatility(id, models.PricePoints(prices))
	if err != nil {
		abortDetail(c, 400, err.Error())
		return
	}
	c.JSON(200, result)
}
