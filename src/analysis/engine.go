package analysis

import (
	"errors"
	"math"
	"sort"

	"stock-market-api/src/analysis/core"
	"stock-market-api/src/models"
)

// Annualization factor assumes 252 trading days per year.
const tradingDaysPerYear = 252

// -----------------------------------------------------------------------------
// Error texts are part of the API contract and surface verbatim as the
// "detail" of 400 responses, hence the non-standard capitalization.
// -----------------------------------------------------------------------------

var (
	ErrInsufficientHistory = errors.New("Insufficient historical data")
	ErrInsufficientData    = errors.New("Insufficient data")
	ErrInvalidPrices       = errors.New("Invalid price data: non-positive prices in series")
)

// -----------------------------------------------------------------------------

// sortedByDate returns a fresh ascending-by-date copy of the series. Callers
// may supply points in any order; every computation establishes its own order
// so results never depend on the input arrangement.
func sortedByDate(series []models.MPricePoint) []models.MPricePoint {
	points := make([]models.MPricePoint, len(series))
	copy(points, series)
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date.Time)
	})
	return points
}

// -----------------------------------------------------------------------------

// ComputeMovingAverage calculates a trailing simple moving average over the
// series. Fewer points than the window is not an error: the result is empty
// and callers decide how to present "not enough history". Windows never slide
// past the series boundary, so the output has len(series)-window+1 points.
func ComputeMovingAverage(series []models.MPricePoint, window int) []models.MMovingAveragePoint {
	if window <= 0 || len(series) < window {
		return nil
	}

	points := sortedByDate(series)

	results := make([]models.MMovingAveragePoint, 0, len(points)-window+1)
	for i := window - 1; i < len(points); i++ {
		sum := 0.0
		for _, p := range points[i-window+1 : i+1] {
			sum += p.Close
		}
		ma := sum / float64(window)

		results = append(results, models.MMovingAveragePoint{
			Date:          points[i].Date,
			Close:         points[i].Close,
			MovingAverage: core.RoundTo(ma, 2),
		})
	}

	return results
}

// -----------------------------------------------------------------------------

// ComputeProjection fits an ordinary-least-squares line through the series
// (x = index position, not calendar date, so weekend gaps do not distort the
// slope) and extends it daysAhead calendar days past the last observation.
// Projected prices are clamped at zero.
//
// A series with zero price variance fits its own mean line exactly, so
// R-squared is reported as 1.0 rather than dividing by zero.
func ComputeProjection(stockID int64, series []models.MPricePoint, daysAhead int) (*models.MProjectionResult, error) {
	if len(series) < 10 {
		return nil, ErrInsufficientHistory
	}

	points := sortedByDate(series)
	n := len(points)

	y := make([]float64, n)
	for i, p := range points {
		y[i] = p.Close
	}

	slope, intercept := core.LinearRegression(y)

	trend := "bearish"
	if slope > 0 {
		trend = "bullish"
	}

	last := points[n-1]
	projections := make([]models.MProjectedPrice, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		price := intercept + slope*float64(n-1+i)
		if price < 0 {
			price = 0
		}
		projections = append(projections, models.MProjectedPrice{
			Date:           last.Date.AddDays(i),
			ProjectedPrice: core.RoundTo(price, 2),
		})
	}

	mean := core.Mean(y)
	ssRes, ssTot := 0.0, 0.0
	for i, v := range y {
		predicted := intercept + slope*float64(i)
		ssRes += (v - predicted) * (v - predicted)
		ssTot += (v - mean) * (v - mean)
	}
	rSquared := 1.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return &models.MProjectionResult{
		StockID:         stockID,
		LastPrice:       last.Close,
		LastDate:        last.Date,
		Trend:           trend,
		DailyChangeRate: core.RoundTo(slope, 4),
		RSquared:        core.RoundTo(rSquared, 4),
		Projections:     projections,
	}, nil
}

// -----------------------------------------------------------------------------

// ComputeVolatility derives annualized volatility from simple (non-log) daily
// returns, using the population standard deviation. A non-positive minimum
// price would poison both the return divisions and the range percentage, so
// it is rejected up front instead of leaking NaN or Inf into a response.
func ComputeVolatility(stockID int64, series []models.MPricePoint) (*models.MVolatilityResult, error) {
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}

	points := sortedByDate(series)

	minPrice, maxPrice := points[0].Close, points[0].Close
	for _, p := range points[1:] {
		if p.Close < minPrice {
			minPrice = p.Close
		}
		if p.Close > maxPrice {
			maxPrice = p.Close
		}
	}
	if minPrice <= 0 {
		return nil, ErrInvalidPrices
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		returns = append(returns, (points[i].Close-points[i-1].Close)/points[i-1].Close)
	}

	avgReturn, std := core.MeanStd(returns)
	volatility := std * math.Sqrt(tradingDaysPerYear)

	return &models.MVolatilityResult{
		StockID:           stockID,
		PeriodDays:        len(points),
		VolatilityPct:     core.RoundTo(volatility*100, 2),
		AvgDailyReturnPct: core.RoundTo(avgReturn*100, 4),
		MinPrice:          core.RoundTo(minPrice, 2),
		MaxPrice:          core.RoundTo(maxPrice, 2),
		PriceRangePct:     core.RoundTo((maxPrice-minPrice)/minPrice*100, 2),
	}, nil
}
