package models

// -----------------------------------------------------------------------------
// WebSocket payloads
// -----------------------------------------------------------------------------

// MPriceUpdate is broadcast to websocket clients whenever new price records
// are stored for a stock.
type MPriceUpdate struct {
	Type        string  `json:"type"` // "PRICE_UPDATE"
	StockID     int64   `json:"stock_id"`
	Symbol      string  `json:"symbol"`
	NewRecords  int     `json:"new_records"`
	LatestClose float64 `json:"latest_close"`
	LatestDate  MDate   `json:"latest_date"`
	Timestamp   int64   `json:"timestamp"`
}

// -----------------------------------------------------------------------------

// MSubscribeCommand narrows a client's stream to specific symbols.
// An empty symbol list subscribes to everything.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}
