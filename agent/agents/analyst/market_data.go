package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

const tradingDaysPerYear = 252

// Statistics summarises a close price series.
type Statistics struct {
	MinClose             float64 `json:"min_close"`
	MaxClose             float64 `json:"max_close"`
	MeanClose            float64 `json:"mean_close"`
	StdDev               float64 `json:"std_dev_30d"`
	PercentChange        float64 `json:"percent_change_30d"`
	VolatilityAnnualized float64 `json:"volatility_annualized"`
	LastClose            float64 `json:"last_close"`
}

type TickerReport struct {
	Ticker      string      `json:"ticker"`
	CompanyName string      `json:"company_name,omitempty"`
	Currency    string      `json:"currency,omitempty"`
	Exchange    string      `json:"exchange,omitempty"`
	Period      string      `json:"data_period,omitempty"`
	DataPoints  int         `json:"data_points,omitempty"`
	Statistics  *Statistics `json:"statistics,omitempty"`
	Error       string      `json:"error,omitempty"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol       string `json:"symbol"`
				Currency     string `json:"currency"`
				LongName     string `json:"longName"`
				ShortName    string `json:"shortName"`
				ExchangeName string `json:"exchangeName"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// MarketData reports recent price statistics from a Yahoo-compatible chart API.
type MarketData struct {
	baseURL    string
	rangeParam string
	client     *http.Client
	now        func() time.Time
}

func NewMarketData(baseURL, rangeParam string, client *http.Client) (*MarketData, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: market data url: %v", contractx.ErrValidation, err)
	}
	if rangeParam == "" {
		rangeParam = "1mo"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &MarketData{baseURL: baseURL, rangeParam: rangeParam, client: client, now: time.Now}, nil
}

func (m *MarketData) ID() contractx.AgentID { return contractx.AgentMarketData }

func (m *MarketData) Invoke(ctx context.Context, req contractx.Request) (*contractx.Response, error) {
	key := contractx.AgentMarketData.ResultKey()
	if len(req.Context.Tickers) == 0 {
		return respond(req, key, contractx.ErrorEntry(errNoTickers), contractx.StatusFailed, nil, m.now()), nil
	}

	reports := make([]TickerReport, 0, len(req.Context.Tickers))
	for _, ticker := range req.Context.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report, err := m.fetch(ctx, ticker)
		if err != nil {
			report = TickerReport{Ticker: ticker, Error: fmt.Sprintf("failed to fetch data for %s: %v", ticker, err)}
		}
		reports = append(reports, report)
	}

	completed := m.now()
	return respond(req, key, reports, contractx.StatusSuccess, map[string]any{
		"last_market_data_query": completed.Format(time.RFC3339),
	}, completed), nil
}

func (m *MarketData) fetch(ctx context.Context, ticker string) (TickerReport, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		m.baseURL, url.PathEscape(ticker), url.QueryEscape(m.rangeParam))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return TickerReport{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return TickerReport{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return TickerReport{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return TickerReport{}, fmt.Errorf("http status=%d", resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return TickerReport{}, fmt.Errorf("decode chart: %w", err)
	}
	if parsed.Chart.Error != nil {
		return TickerReport{}, fmt.Errorf("%s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return TickerReport{}, fmt.Errorf("no data found for %s", ticker)
	}

	result := parsed.Chart.Result[0]
	closes := make([]float64, 0, len(result.Indicators.Quote[0].Close))
	for _, c := range result.Indicators.Quote[0].Close {
		if c != nil {
			closes = append(closes, *c)
		}
	}
	if len(closes) == 0 {
		return TickerReport{}, fmt.Errorf("no data found for %s", ticker)
	}

	name := result.Meta.LongName
	if name == "" {
		name = result.Meta.ShortName
	}
	if name == "" {
		name = ticker
	}
	stats := ComputeStatistics(closes)
	return TickerReport{
		Ticker:      ticker,
		CompanyName: name,
		Currency:    result.Meta.Currency,
		Exchange:    result.Meta.ExchangeName,
		Period:      m.rangeParam,
		DataPoints:  len(closes),
		Statistics:  &stats,
	}, nil
}

// ComputeStatistics uses sample standard deviations. closes must not be empty.
func ComputeStatistics(closes []float64) Statistics {
	stats := Statistics{
		MinClose:  closes[0],
		MaxClose:  closes[0],
		LastClose: closes[len(closes)-1],
	}
	var sum float64
	for _, c := range closes {
		stats.MinClose = math.Min(stats.MinClose, c)
		stats.MaxClose = math.Max(stats.MaxClose, c)
		sum += c
	}
	stats.MeanClose = sum / float64(len(closes))
	stats.StdDev = sampleStdDev(closes)

	if first := closes[0]; first != 0 {
		stats.PercentChange = (stats.LastClose - first) / first * 100
	}

	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns = append(returns, closes[i]/closes[i-1]-1)
		}
	}
	stats.VolatilityAnnualized = sampleStdDev(returns) * math.Sqrt(tradingDaysPerYear) * 100
	return stats
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
