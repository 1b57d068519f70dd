package models

// -----------------------------------------------------------------------------
// Analysis engine outputs. All values are transient results of a single call.
// -----------------------------------------------------------------------------

// MMovingAveragePoint is one point of a trailing moving average series.
type MMovingAveragePoint struct {
	Date          MDate   `json:"date"`
	Close         float64 `json:"close_price"`
	MovingAverage float64 `json:"moving_average"`
}

// -----------------------------------------------------------------------------

// MProjectedPrice is one future calendar-day price from a trend projection.
type MProjectedPrice struct {
	Date           MDate   `json:"date"`
	ProjectedPrice float64 `json:"projected_price"`
}

// -----------------------------------------------------------------------------

// MProjectionResult is the outcome of a linear trend projection.
type MProjectionResult struct {
	StockID         int64             `json:"stock_id"`
	LastPrice       float64           `json:"last_price"`
	LastDate        MDate             `json:"last_date"`
	Trend           string            `json:"trend"` // "bullish" or "bearish"
	DailyChangeRate float64           `json:"daily_change_rate"`
	RSquared        float64           `json:"r_squared"`
	Projections     []MProjectedPrice `json:"projections"`
}

// -----------------------------------------------------------------------------

// MVolatilityResult holds annualized volatility metrics over a price series.
type MVolatilityResult struct {
	StockID           int64   `json:"stock_id"`
	PeriodDays        int     `json:"period_days"`
	VolatilityPct     float64 `json:"volatility"`
	AvgDailyReturnPct float64 `json:"avg_daily_return"`
	MinPrice          float64 `json:"min_price"`
	MaxPrice          float64 `json:"max_price"`
	PriceRangePct     float64 `json:"price_range_pct"`
}

// -----------------------------------------------------------------------------

// MPriceStats summarizes the stored price history of one stock.
type MPriceStats struct {
	Symbol         string  `json:"symbol"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	AvgPrice       float64 `json:"avg_price"`
	TotalRecords   int     `json:"total_records"`
	DateRangeStart MDate   `json:"date_range_start"`
	DateRangeEnd   MDate   `json:"date_range_end"`
}

// -----------------------------------------------------------------------------

// MFetchResult reports the outcome of a provider fetch-and-store run.
// Error carries the reason when Success is false.
type MFetchResult struct {
	Success      bool   `json:"success"`
	StockID      int64  `json:"stock_id,omitempty"`
	Symbol       string `json:"symbol"`
	TotalFetched int    `json:"total_fetched,omitempty"`
	NewRecords   int    `json:"new_records,omitempty"`
	Error        string `json:"error,omitempty"`
}
