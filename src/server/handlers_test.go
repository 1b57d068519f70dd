package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-market-api/src/collector"
	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/models"
	"stock-market-api/src/storage"
)

// -----------------------------------------------------------------------------
// Test rig
// -----------------------------------------------------------------------------

type fakeSource struct {
	info   *interfaces.MStockInfo
	prices []models.MStockPrice
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetStockInfo(ctx context.Context, symbol string) (*interfaces.MStockInfo, error) {
	return f.info, nil
}

func (f *fakeSource) GetDailyPrices(ctx context.Context, symbol string, start, end *models.MDate, period string) ([]models.MStockPrice, error) {
	return f.prices, nil
}

// -----------------------------------------------------------------------------

func newTestServer(t *testing.T, source interfaces.IDataSource) (*APIServer, interfaces.IStockStore) {
	t.Helper()

	cfg := &models.MConfig{
		Name:     "test-api",
		Host:     "127.0.0.1",
		Port:     8000,
		LogLevel: "ERROR",
	}
	cfg.Storage.DBType = "sqlite"
	cfg.Storage.DBPath = ":memory:"

	store, err := storage.NewSQLiteStore(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })

	if source == nil {
		source = &fakeSource{}
	}
	return NewAPIServer(cfg, store, collector.NewCollector(cfg, store, source)), store
}

func perform(s *APIServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeJSON(t, rec, &body)
	return body["detail"]
}

func seedStock(t *testing.T, store interfaces.IStockStore, symbol string) *models.MStock {
	t.Helper()
	stock, err := store.CreateStock(&models.MStock{Symbol: symbol, Name: symbol + " Inc", IsActive: true})
	require.NoError(t, err)
	return stock
}

func seedPrices(t *testing.T, store interfaces.IStockStore, stockID int64, startDate string, closes ...float64) {
	t.Helper()
	start, err := models.ParseMDate(startDate)
	require.NoError(t, err)
	prices := make([]models.MStockPrice, len(closes))
	for i, c := range closes {
		prices[i] = models.MStockPrice{Date: start.AddDays(i), Close: c}
	}
	_, err = store.SavePricesBulk(stockID, prices)
	require.NoError(t, err)
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := perform(srv, "GET", "/api/v1/health", nil)
	require.Equal(t, 200, rec.Code)

	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

// -----------------------------------------------------------------------------

func TestRootAndHealthAliases(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := perform(srv, "GET", "/", nil)
	require.Equal(t, 200, rec.Code)

	var root map[string]interface{}
	decodeJSON(t, rec, &root)
	assert.NotEmpty(t, root["app"])

	rec = perform(srv, "GET", "/health", nil)
	require.Equal(t, 200, rec.Code)
}

// -----------------------------------------------------------------------------
// Stocks
// -----------------------------------------------------------------------------

func TestCreateStock(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := perform(srv, "POST", "/api/v1/stocks", models.MStockCreate{
		Symbol: "aapl",
		Name:   "Apple Inc",
		Sector: "Technology",
	})
	require.Equal(t, 201, rec.Code)

	var stock models.MStock
	decodeJSON(t, rec, &stock)
	assert.Equal(t, "AAPL", stock.Symbol)
	assert.True(t, stock.IsActive)
	assert.NotZero(t, stock.ID)
}

func TestCreateStockDuplicate(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seedStock(t, store, "AAPL")

	rec := perform(srv, "POST", "/api/v1/stocks", models.MStockCreate{Symbol: "AAPL", Name: "dup"})
	require.Equal(t, 400, rec.Code)
	assert.Equal(t, "Stock with this symbol already exists", detailOf(t, rec))
}

func TestCreateStockValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	// missing name
	rec := perform(srv, "POST", "/api/v1/stocks", map[string]string{"symbol": "AAPL"})
	assert.Equal(t, 422, rec.Code)

	// symbol too long
	rec = perform(srv, "POST", "/api/v1/stocks", map[string]string{"symbol": "WAYTOOLONGSYM", "name": "x"})
	assert.Equal(t, 422, rec.Code)
}

func TestListStocks(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seedStock(t, store, "MSFT")
	seedStock(t, store, "AAPL")

	rec := perform(srv, "GET", "/api/v1/stocks", nil)
	require.Equal(t, 200, rec.Code)

	var stocks []models.MStock
	decodeJSON(t, rec, &stocks)
	require.Len(t, stocks, 2)
	assert.Equal(t, "AAPL", stocks[0].Symbol)

	rec = perform(srv, "GET", "/api/v1/stocks?skip=1&limit=1", nil)
	require.Equal(t, 200, rec.Code)
	decodeJSON(t, rec, &stocks)
	require.Len(t, stocks, 1)
	assert.Equal(t, "MSFT", stocks[0].Symbol)
}

func TestListStocksActiveFilter(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seedStock(t, store, "AAPL")
	inactive := seedStock(t, store, "MSFT")

	off := false
	_, err := store.UpdateStock(inactive.ID, &models.MStockUpdate{IsActive: &off})
	require.NoError(t, err)

	var stocks []models.MStock
	rec := perform(srv, "GET", "/api/v1/stocks", nil)
	decodeJSON(t, rec, &stocks)
	assert.Len(t, stocks, 1) // active only by default

	rec = perform(srv, "GET", "/api/v1/stocks?active_only=false", nil)
	decodeJSON(t, rec, &stocks)
	assert.Len(t, stocks, 2)
}

func TestGetStock(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/stocks/%d", stock.ID), nil)
	require.Equal(t, 200, rec.Code)

	var got models.MStock
	decodeJSON(t, rec, &got)
	assert.Equal(t, stock.ID, got.ID)

	rec = perform(srv, "GET", "/api/v1/stocks/999", nil)
	require.Equal(t, 404, rec.Code)
	assert.Equal(t, "Stock not found", detailOf(t, rec))

	rec = perform(srv, "GET", "/api/v1/stocks/abc", nil)
	assert.Equal(t, 400, rec.Code)
}

func TestGetStockBySymbol(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seedStock(t, store, "AAPL")

	rec := perform(srv, "GET", "/api/v1/stocks/symbol/aapl", nil)
	require.Equal(t, 200, rec.Code)

	rec = perform(srv, "GET", "/api/v1/stocks/symbol/NOPE", nil)
	assert.Equal(t, 404, rec.Code)
}

func TestSearchStocks(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seedStock(t, store, "AAPL")
	seedStock(t, store, "MSFT")

	rec := perform(srv, "GET", "/api/v1/stocks/search?q=aap", nil)
	require.Equal(t, 200, rec.Code)

	var stocks []models.MStock
	decodeJSON(t, rec, &stocks)
	require.Len(t, stocks, 1)
	assert.Equal(t, "AAPL", stocks[0].Symbol)

	rec = perform(srv, "GET", "/api/v1/stocks/search", nil)
	assert.Equal(t, 422, rec.Code)
}

func TestFetchStock(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{
		info: &interfaces.MStockInfo{Symbol: "AAPL", Name: "Apple Inc", Exchange: "NasdaqGS"},
	})

	rec := perform(srv, "POST", "/api/v1/stocks/fetch/AAPL", nil)
	require.Equal(t, 200, rec.Code)

	var stock models.MStock
	decodeJSON(t, rec, &stock)
	assert.Equal(t, "Apple Inc", stock.Name)
}

func TestFetchStockUnknown(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := perform(srv, "POST", "/api/v1/stocks/fetch/NOPE", nil)
	require.Equal(t, 404, rec.Code)
	assert.Equal(t, "Stock NOPE not found in external sources", detailOf(t, rec))
}

func TestUpdateStock(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")

	rec := perform(srv, "PUT", fmt.Sprintf("/api/v1/stocks/%d", stock.ID), map[string]interface{}{
		"name": "Apple Computer",
	})
	require.Equal(t, 200, rec.Code)

	var got models.MStock
	decodeJSON(t, rec, &got)
	assert.Equal(t, "Apple Computer", got.Name)
	assert.Equal(t, "AAPL", got.Symbol)

	rec = perform(srv, "PUT", "/api/v1/stocks/999", map[string]interface{}{"name": "x"})
	assert.Equal(t, 404, rec.Code)
}

func TestDeleteStock(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")

	rec := perform(srv, "DELETE", fmt.Sprintf("/api/v1/stocks/%d", stock.ID), nil)
	assert.Equal(t, 204, rec.Code)

	rec = perform(srv, "DELETE", fmt.Sprintf("/api/v1/stocks/%d", stock.ID), nil)
	assert.Equal(t, 404, rec.Code)
}

// -----------------------------------------------------------------------------
// Prices
// -----------------------------------------------------------------------------

func TestGetPrices(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 100, 101, 102)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d", stock.ID), nil)
	require.Equal(t, 200, rec.Code)

	var prices []models.MStockPrice
	decodeJSON(t, rec, &prices)
	require.Len(t, prices, 3)
	assert.Equal(t, "2024-01-03", prices[0].Date.String()) // newest first

	rec = perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d?start_date=2024-01-02&end_date=2024-01-02", stock.ID), nil)
	require.Equal(t, 200, rec.Code)
	decodeJSON(t, rec, &prices)
	require.Len(t, prices, 1)
	assert.Equal(t, 101.0, prices[0].Close)

	rec = perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d?start_date=bogus", stock.ID), nil)
	assert.Equal(t, 400, rec.Code)

	rec = perform(srv, "GET", "/api/v1/prices/999", nil)
	assert.Equal(t, 404, rec.Code)
}

func TestGetPricesBySymbol(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 100, 101)

	rec := perform(srv, "GET", "/api/v1/prices/symbol/AAPL", nil)
	require.Equal(t, 200, rec.Code)

	var prices []models.MStockPrice
	decodeJSON(t, rec, &prices)
	assert.Len(t, prices, 2)

	rec = perform(srv, "GET", "/api/v1/prices/symbol/NOPE", nil)
	assert.Equal(t, 404, rec.Code)
}

func TestFetchPrices(t *testing.T) {
	start, _ := models.ParseMDate("2024-01-01")
	srv, _ := newTestServer(t, &fakeSource{
		info: &interfaces.MStockInfo{Symbol: "AAPL", Name: "Apple Inc"},
		prices: []models.MStockPrice{
			{Date: start, Close: 100},
			{Date: start.AddDays(1), Close: 101},
		},
	})

	rec := perform(srv, "POST", "/api/v1/prices/fetch", models.MPriceFetchRequest{Symbol: "AAPL", Period: "5d"})
	require.Equal(t, 200, rec.Code)

	var result models.MFetchResult
	decodeJSON(t, rec, &result)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalFetched)
	assert.Equal(t, 2, result.NewRecords)

	// New records queue a price update for websocket subscribers.
	select {
	case update := <-srv.broadcast:
		assert.Equal(t, "PRICE_UPDATE", update.Type)
		assert.Equal(t, "AAPL", update.Symbol)
		assert.Equal(t, 2, update.NewRecords)
		assert.Equal(t, 101.0, update.LatestClose)
	default:
		t.Fatal("expected a queued price update")
	}
}

func TestFetchPricesUnknownSymbol(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := perform(srv, "POST", "/api/v1/prices/fetch", models.MPriceFetchRequest{Symbol: "NOPE"})
	require.Equal(t, 400, rec.Code)
	assert.Equal(t, "Stock NOPE not found", detailOf(t, rec))
}

func TestFetchPricesEmptySeries(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{
		info: &interfaces.MStockInfo{Symbol: "AAPL", Name: "Apple Inc"},
	})

	rec := perform(srv, "POST", "/api/v1/prices/fetch", models.MPriceFetchRequest{Symbol: "AAPL"})
	require.Equal(t, 400, rec.Code)
	assert.Equal(t, "No price data found", detailOf(t, rec))
}

func TestFetchPricesValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := perform(srv, "POST", "/api/v1/prices/fetch", map[string]string{})
	assert.Equal(t, 422, rec.Code)

	rec = perform(srv, "POST", "/api/v1/prices/fetch", map[string]string{"symbol": "AAPL", "period": "7w"})
	assert.Equal(t, 422, rec.Code)
}

func TestGetPriceStats(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 100, 110, 90)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/stats", stock.ID), nil)
	require.Equal(t, 200, rec.Code)

	var stats models.MPriceStats
	decodeJSON(t, rec, &stats)
	assert.Equal(t, "AAPL", stats.Symbol)
	assert.Equal(t, 90.0, stats.MinPrice)
	assert.Equal(t, 110.0, stats.MaxPrice)
	assert.Equal(t, 3, stats.TotalRecords)
}

func TestGetPriceStatsEmpty(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/stats", stock.ID), nil)
	require.Equal(t, 404, rec.Code)
	assert.Equal(t, "No price data found for this stock", detailOf(t, rec))

	rec = perform(srv, "GET", "/api/v1/prices/999/stats", nil)
	require.Equal(t, 404, rec.Code)
	assert.Equal(t, "Stock not found", detailOf(t, rec))
}

// -----------------------------------------------------------------------------
// Analytics
// -----------------------------------------------------------------------------

func TestGetMovingAverage(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 10, 20, 30, 40, 50, 60, 70)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/moving-average?window=5", stock.ID), nil)
	require.Equal(t, 200, rec.Code)

	var points []models.MMovingAveragePoint
	decodeJSON(t, rec, &points)
	require.Len(t, points, 3)
	assert.Equal(t, 30.0, points[0].MovingAverage)
	assert.Equal(t, 50.0, points[2].MovingAverage)
}

func TestGetMovingAverageInsufficientData(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 10, 20, 30)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/moving-average?window=20", stock.ID), nil)
	require.Equal(t, 400, rec.Code)
	assert.Equal(t, "Insufficient data for moving average calculation", detailOf(t, rec))
}

func TestGetProjection(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 100, 102, 104, 106, 108, 110, 112, 114, 116, 118)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/projection?days_ahead=3", stock.ID), nil)
	require.Equal(t, 200, rec.Code)

	var result models.MProjectionResult
	decodeJSON(t, rec, &result)
	assert.Equal(t, "bullish", result.Trend)
	assert.Equal(t, 2.0, result.DailyChangeRate)
	assert.Equal(t, 1.0, result.RSquared)
	require.Len(t, result.Projections, 3)
	assert.Equal(t, 120.0, result.Projections[0].ProjectedPrice)
}

func TestGetProjectionInsufficientHistory(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 100, 101, 102)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/projection", stock.ID), nil)
	require.Equal(t, 400, rec.Code)
	assert.Equal(t, "Insufficient historical data", detailOf(t, rec))
}

func TestGetProjectionLookbackWindow(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	// 20 flat days then 12 rising: a short lookback only sees the rise
	closes := make([]float64, 0, 32)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100)
	}
	for i := 1; i <= 12; i++ {
		closes = append(closes, 100+float64(i))
	}
	seedPrices(t, store, stock.ID, "2024-01-01", closes...)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/projection?lookback_days=10", stock.ID), nil)
	require.Equal(t, 200, rec.Code)

	var result models.MProjectionResult
	decodeJSON(t, rec, &result)
	assert.Equal(t, "bullish", result.Trend)
	assert.Equal(t, 1.0, result.DailyChangeRate)
}

func TestGetVolatility(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 100, 110, 99, 104, 101)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/volatility", stock.ID), nil)
	require.Equal(t, 200, rec.Code)

	var result models.MVolatilityResult
	decodeJSON(t, rec, &result)
	assert.Equal(t, 5, result.PeriodDays)
	assert.Equal(t, 99.0, result.MinPrice)
	assert.Equal(t, 110.0, result.MaxPrice)
	assert.Greater(t, result.VolatilityPct, 0.0)
}

func TestGetVolatilityInsufficientData(t *testing.T) {
	srv, store := newTestServer(t, nil)
	stock := seedStock(t, store, "AAPL")
	seedPrices(t, store, stock.ID, "2024-01-01", 100)

	rec := perform(srv, "GET", fmt.Sprintf("/api/v1/prices/%d/volatility", stock.ID), nil)
	require.Equal(t, 400, rec.Code)
	assert.Equal(t, "Insufficient data", detailOf(t, rec))
}
