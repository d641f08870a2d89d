// Package analyst holds the analysis agents and the registry they are served from.
package analyst

import (
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

type Config struct {
	MarketDataURL      string        `envconfig:"MARKET_DATA_URL" split_words:"true" default:"https://query1.finance.yahoo.com"`
	MarketDataRange    string        `envconfig:"MARKET_DATA_RANGE" split_words:"true" default:"1mo"`
	SentimentURL       string        `envconfig:"SENTIMENT_URL" split_words:"true" default:"https://www.reddit.com"`
	SentimentUserAgent string        `envconfig:"SENTIMENT_USER_AGENT" split_words:"true" default:"bankerai/2.0"`
	SentimentLimit     int           `envconfig:"SENTIMENT_LIMIT" split_words:"true" default:"25"`
	FilingsDSN         string        `envconfig:"FILINGS_DSN" split_words:"true"`
	FilingsPerTicker   int           `envconfig:"FILINGS_PER_TICKER" split_words:"true" default:"5"`
	HTTPTimeout        time.Duration `envconfig:"HTTP_TIMEOUT" split_words:"true" default:"15s"`
}

const errNoTickers = "No tickers provided"

func respond(req contractx.Request, key string, data any, status contractx.Status, updates map[string]any, now time.Time) *contractx.Response {
	return &contractx.Response{
		RequestID:      req.ID,
		Results:        map[string]any{key: data},
		ContextUpdates: updates,
		Status:         status,
		Timestamp:      now,
	}
}
