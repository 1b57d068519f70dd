package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-market-api/src/interfaces"
	"stock-market-api/src/models"
)

// -----------------------------------------------------------------------------

type stubSource struct {
	name   string
	info   *interfaces.MStockInfo
	prices []models.MStockPrice
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) GetStockInfo(ctx context.Context, symbol string) (*interfaces.MStockInfo, error) {
	s.calls++
	return s.info, s.err
}

func (s *stubSource) GetDailyPrices(ctx context.Context, symbol string, start, end *models.MDate, period string) ([]models.MStockPrice, error) {
	s.calls++
	return s.prices, s.err
}

func newManager(sources ...interfaces.IDataSource) *SourceManager {
	return NewSourceManager(&models.MConfig{LogLevel: "ERROR"}, sources)
}

func somePrices() []models.MStockPrice {
	d, _ := models.ParseMDate("2024-01-02")
	return []models.MStockPrice{{Date: d, Close: 100}}
}

// -----------------------------------------------------------------------------

func TestSourceManagerFirstSourceWins(t *testing.T) {
	primary := &stubSource{name: "primary", prices: somePrices()}
	secondary := &stubSource{name: "secondary", prices: somePrices()}
	mgr := newManager(primary, secondary)

	prices, err := mgr.GetDailyPrices(context.Background(), "AAPL", nil, nil, "1mo")
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, secondary.calls)
}

func TestSourceManagerFallsThroughOnError(t *testing.T) {
	broken := &stubSource{name: "broken", err: errors.New("rate limited")}
	backup := &stubSource{name: "backup", prices: somePrices()}
	mgr := newManager(broken, backup)

	prices, err := mgr.GetDailyPrices(context.Background(), "AAPL", nil, nil, "1mo")
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.Equal(t, 1, backup.calls)
}

func TestSourceManagerFallsThroughOnEmpty(t *testing.T) {
	empty := &stubSource{name: "empty"}
	backup := &stubSource{name: "backup", prices: somePrices()}
	mgr := newManager(empty, backup)

	prices, err := mgr.GetDailyPrices(context.Background(), "AAPL", nil, nil, "1mo")
	require.NoError(t, err)
	assert.Len(t, prices, 1)
}

func TestSourceManagerAllSourcesFail(t *testing.T) {
	mgr := newManager(
		&stubSource{name: "a", err: errors.New("down")},
		&stubSource{name: "b", err: errors.New("also down")},
	)

	_, err := mgr.GetDailyPrices(context.Background(), "AAPL", nil, nil, "1mo")
	assert.Error(t, err)
}

func TestSourceManagerUnknownSymbolEverywhere(t *testing.T) {
	mgr := newManager(&stubSource{name: "a"}, &stubSource{name: "b"})

	info, err := mgr.GetStockInfo(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, info)

	prices, err := mgr.GetDailyPrices(context.Background(), "NOPE", nil, nil, "1mo")
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestSourceManagerStockInfoFallback(t *testing.T) {
	mgr := newManager(
		&stubSource{name: "a", err: errors.New("down")},
		&stubSource{name: "b", info: &interfaces.MStockInfo{Symbol: "AAPL", Name: "Apple Inc"}},
	)

	info, err := mgr.GetStockInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Apple Inc", info.Name)
}
