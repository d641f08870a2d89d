package analyst

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/pkg/filingsdb"
)

// FilingSource returns the newest filings of each ticker.
type FilingSource interface {
	LatestFilings(ctx context.Context, tickers []string, perTicker int) ([]filingsdb.Filing, error)
}

type Filings struct {
	source    FilingSource
	perTicker int
	now       func() time.Time
}

func NewFilings(source FilingSource, perTicker int) (*Filings, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: filings source is required", contractx.ErrValidation)
	}
	return &Filings{source: source, perTicker: perTicker, now: time.Now}, nil
}

func (f *Filings) ID() contractx.AgentID { return contractx.AgentFilings }

func (f *Filings) Invoke(ctx context.Context, req contractx.Request) (*contractx.Response, error) {
	key := contractx.AgentFilings.ResultKey()
	if len(req.Context.Tickers) == 0 {
		return respond(req, key, contractx.ErrorEntry(errNoTickers), contractx.StatusFailed, nil, f.now()), nil
	}

	rows, err := f.source.LatestFilings(ctx, req.Context.Tickers, f.perTicker)
	if err != nil {
		return nil, fmt.Errorf("load filings: %w", err)
	}
	if rows == nil {
		rows = []filingsdb.Filing{}
	}

	byForm := make(map[string]int)
	for _, row := range rows {
		byForm[row.FormType]++
	}

	completed := f.now()
	return respond(req, key, map[string]any{
		"tickers":      req.Context.Tickers,
		"filings":      rows,
		"count":        len(rows),
		"by_form_type": byForm,
	}, contractx.StatusSuccess, map[string]any{
		"last_filings_query": completed.Format(time.RFC3339),
	}, completed), nil
}
