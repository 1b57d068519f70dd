package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/models"
)

const chartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// -----------------------------------------------------------------------------

type Source struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
	BaseURL string
}

// -----------------------------------------------------------------------------

func NewSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *Source {
	return &Source{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger(cfg.LogLevel, "YahooSource"),
		BaseURL: chartBaseURL,
	}
}

// -----------------------------------------------------------------------------

func (s *Source) Name() string {
	return "yahoo"
}

// -----------------------------------------------------------------------------

// GetStockInfo resolves company metadata from the chart meta block. Yahoo has
// no sector/industry on this endpoint; those stay empty.
func (s *Source) GetStockInfo(ctx context.Context, symbol string) (*interfaces.MStockInfo, error) {
	resp, err := s.fetchChart(ctx, symbol, map[string]string{
		"interval": "1d",
		"range":    "1d",
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	meta := resp.Chart.Result[0].Meta
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	exchange := meta.FullExchangeName
	if exchange == "" {
		exchange = meta.ExchangeName
	}

	return &interfaces.MStockInfo{
		Symbol:   meta.Symbol,
		Name:     name,
		Exchange: exchange,
	}, nil
}

// -----------------------------------------------------------------------------

// GetDailyPrices fetches daily candles. Explicit dates take precedence over
// the period string, matching the upstream chart API semantics.
func (s *Source) GetDailyPrices(ctx context.Context, symbol string, start, end *models.MDate, period string) ([]models.MStockPrice, error) {
	params := map[string]string{
		"interval":       "1d",
		"includePrePost": "false",
		"events":         "div,splits",
	}

	if start != nil && end != nil {
		params["period1"] = fmt.Sprintf("%d", start.Unix())
		// end is inclusive; the API treats period2 as exclusive
		params["period2"] = fmt.Sprintf("%d", end.AddDays(1).Unix())
	} else {
		if period == "" {
			period = s.Config.DataSource.DefaultPeriod
		}
		params["range"] = period
	}

	resp, err := s.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	return s.parseDaily(symbol, resp)
}

// -----------------------------------------------------------------------------

// chartResponse mirrors the fields we consume from the v8 chart payload.
// Quote arrays use pointers: the API emits null for missing candles.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				LongName             string `json:"longName"`
				ShortName            string `json:"shortName"`
				ExchangeName         string `json:"exchangeName"`
				FullExchangeName     string `json:"fullExchangeName"`
				InstrumentType       string `json:"instrumentType"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

// fetchChart returns nil (no error) when Yahoo reports the symbol as unknown,
// so the source manager can fall through to the next provider.
func (s *Source) fetchChart(ctx context.Context, symbol string, params map[string]string) (*chartResponse, error) {
	url := fmt.Sprintf("%s/%s", s.BaseURL, symbol)

	respBytes, err := s.Network.Get(ctx, url, params)
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	var resp chartResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		s.Logger.Info("Yahoo api error for %s: %s - %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
		return nil, nil
	}

	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	return &resp, nil
}

// -----------------------------------------------------------------------------

func (s *Source) parseDaily(symbol string, resp *chartResponse) ([]models.MStockPrice, error) {
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	// Alignment check
	if len(result.Timestamp) != len(quote.Close) ||
		len(result.Timestamp) != len(quote.Open) ||
		len(result.Timestamp) != len(quote.High) ||
		len(result.Timestamp) != len(quote.Low) ||
		len(result.Timestamp) != len(quote.Volume) {
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == len(result.Timestamp) {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	// Candle timestamps are exchange-local; resolve them in the exchange
	// timezone so the calendar date is the trading day, not the UTC day.
	loc := time.UTC
	if result.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(result.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	prices := make([]models.MStockPrice, 0, len(result.Timestamp))
	seen := make(map[string]bool)

	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil || *quote.Close[i] <= 0 {
			s.Logger.Debug("Skipping invalid close for %s at index %d", symbol, i)
			continue
		}

		date := models.NewMDate(time.Unix(ts, 0).In(loc))
		if seen[date.String()] {
			continue
		}
		seen[date.String()] = true

		p := models.MStockPrice{
			Date:  date,
			Close: *quote.Close[i],
			Open:  quote.Open[i],
			High:  quote.High[i],
			Low:   quote.Low[i],
		}
		if adjClose != nil {
			p.AdjClose = adjClose[i]
		}
		if quote.Volume[i] != nil && *quote.Volume[i] >= 0 {
			v := int64(*quote.Volume[i])
			p.Volume = &v
		}

		prices = append(prices, p)
	}

	s.Logger.Info("Yahoo: parsed %d/%d daily candles for %s", len(prices), len(result.Timestamp), symbol)
	return prices, nil
}
