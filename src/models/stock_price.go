package models

import "time"

// MStockPrice represents one stored daily price record.
// At most one record exists per (stock_id, date); the store enforces it.
type MStockPrice struct {
	ID        int64     `json:"id"`
	StockID   int64     `json:"stock_id"`
	Date      MDate     `json:"date"`
	Open      *float64  `json:"open_price"`
	High      *float64  `json:"high_price"`
	Low       *float64  `json:"low_price"`
	Close     float64   `json:"close_price"`
	AdjClose  *float64  `json:"adj_close"`
	Volume    *int64    `json:"volume"`
	CreatedAt time.Time `json:"created_at"`
}

// -----------------------------------------------------------------------------

// MPricePoint is the value type the analysis engine consumes: one daily
// closing price. The engine never mutates or persists these.
type MPricePoint struct {
	Date  MDate   `json:"date"`
	Close float64 `json:"close_price"`
}

// -----------------------------------------------------------------------------

// PricePoints projects stored price records onto analysis inputs.
func PricePoints(prices []MStockPrice) []MPricePoint {
	points := make([]MPricePoint, len(prices))
	for i, p := range prices {
		points[i] = MPricePoint{Date: p.Date, Close: p.Close}
	}
	return points
}
