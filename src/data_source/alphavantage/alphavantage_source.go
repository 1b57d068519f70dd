package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/models"
)

const queryBaseURL = "https://www.alphavantage.co/query"

// -----------------------------------------------------------------------------

// Source fetches daily series from Alpha Vantage. It only participates when
// an API key is configured.
type Source struct {
	Config  *models.MConfig
	APIKey  string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
	BaseURL string
}

// -----------------------------------------------------------------------------

func NewSource(cfg *models.MConfig, apiKey string, netMgr interfaces.INetworkManager) *Source {
	return &Source{
		Config:  cfg,
		APIKey:  apiKey,
		Network: netMgr,
		Logger:  logger.NewLogger(cfg.LogLevel, "AlphaVantageSource"),
		BaseURL: queryBaseURL,
	}
}

// -----------------------------------------------------------------------------

func (s *Source) Name() string {
	return "alpha-vantage"
}

// -----------------------------------------------------------------------------

func (s *Source) GetStockInfo(ctx context.Context, symbol string) (*interfaces.MStockInfo, error) {
	respBytes, err := s.Network.Get(ctx, s.BaseURL, map[string]string{
		"function": "OVERVIEW",
		"symbol":   symbol,
		"apikey":   s.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	var overview struct {
		Symbol   string `json:"Symbol"`
		Name     string `json:"Name"`
		Sector   string `json:"Sector"`
		Industry string `json:"Industry"`
		Exchange string `json:"Exchange"`
	}
	if err := json.Unmarshal(respBytes, &overview); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	// Unknown symbols come back as an empty object
	if overview.Symbol == "" {
		return nil, nil
	}

	return &interfaces.MStockInfo{
		Symbol:   overview.Symbol,
		Name:     overview.Name,
		Sector:   overview.Sector,
		Industry: overview.Industry,
		Exchange: overview.Exchange,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *Source) GetDailyPrices(ctx context.Context, symbol string, start, end *models.MDate, period string) ([]models.MStockPrice, error) {
	lookbackDays := periodDays(period)
	if start != nil {
		lookbackDays = int(time.Since(start.Time).Hours()/24) + 1
	}

	outputSize := "compact" // latest 100 points
	if lookbackDays == 0 || lookbackDays > 100 {
		outputSize = "full"
	}

	respBytes, err := s.Network.Get(ctx, s.BaseURL, map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     symbol,
		"outputsize": outputSize,
		"apikey":     s.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	var resp struct {
		ErrorMessage string                       `json:"Error Message"`
		Series       map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.ErrorMessage != "" || len(resp.Series) == 0 {
		s.Logger.Info("AlphaVantage: no daily series for %s", symbol)
		return nil, nil
	}

	cutoff := models.MDate{}
	if lookbackDays > 0 {
		cutoff = models.NewMDate(time.Now().UTC().AddDate(0, 0, -lookbackDays))
	}

	prices := make([]models.MStockPrice, 0, len(resp.Series))
	for dateStr, fields := range resp.Series {
		date, err := models.ParseMDate(dateStr)
		if err != nil {
			continue
		}

		if start != nil && date.Before(start.Time) {
			continue
		}
		if end != nil && date.After(end.Time) {
			continue
		}
		if start == nil && lookbackDays > 0 && date.Before(cutoff.Time) {
			continue
		}

		closePrice, err := strconv.ParseFloat(fields["4. close"], 64)
		if err != nil || closePrice <= 0 {
			continue
		}

		p := models.MStockPrice{Date: date, Close: closePrice}
		if v, err := strconv.ParseFloat(fields["1. open"], 64); err == nil {
			p.Open = &v
		}
		if v, err := strconv.ParseFloat(fields["2. high"], 64); err == nil {
			p.High = &v
		}
		if v, err := strconv.ParseFloat(fields["3. low"], 64); err == nil {
			p.Low = &v
		}
		if v, err := strconv.ParseInt(fields["5. volume"], 10, 64); err == nil {
			p.Volume = &v
		}

		prices = append(prices, p)
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.Before(prices[j].Date.Time)
	})

	s.Logger.Info("AlphaVantage: parsed %d daily candles for %s", len(prices), symbol)
	return prices, nil
}

// -----------------------------------------------------------------------------

// periodDays converts a chart period string to an approximate day count.
// 0 means unbounded.
func periodDays(period string) int {
	switch period {
	case "1d":
		return 1
	case "5d":
		return 5
	case "1mo":
		return 30
	case "3mo":
		return 90
	case "6mo":
		return 180
	case "1y":
		return 365
	case "2y":
		return 730
	case "5y":
		return 1825
	case "10y":
		return 3650
	case "ytd":
		now := time.Now().UTC()
		return int(now.Sub(time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)).Hours()/24) + 1
	case "max":
		return 0
	default:
		return 30
	}
}
