package orchestratornode

import (
	"encoding/json"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
	"github.com/tanpawarit/bankerai/agent/router"
)

// AnalyzeQuery never fails. A fault in analysis yields no companies, no
// tickers and the general agent alone.
func AnalyzeQuery(in AnalyzeInput, analyzer Analyzer, mon contractx.Monitor, now func() time.Time) Analyzed {
	mon = monitor.OrNop(mon)
	started := now()

	out := Analyzed{
		RequestID: in.RequestID,
		Query:     in.Query,
		StartedAt: in.StartedAt,
		Companies: []string{},
		Tickers:   []string{},
		Agents:    []contractx.AgentID{contractx.AgentGeneral},
	}

	analysis, err := safeAnalyze(analyzer, in.Query)
	if err != nil {
		mon.LogError(Component, "query analysis failed: "+err.Error(), map[string]any{"request_id": in.RequestID})
		out.AnalysisTime = now().Sub(started)
		return out
	}

	out.Companies = nonNil(analysis.Companies)
	out.Tickers = nonNil(analysis.Tickers)
	out.IsFinance = analysis.IsFinance
	if len(analysis.Agents) > 0 {
		out.Agents = analysis.Agents
	}
	out.AnalysisTime = now().Sub(started)

	detail, _ := json.Marshal(map[string]any{
		"query":           in.Query,
		"companies":       out.Companies,
		"tickers":         out.Tickers,
		"is_finance":      out.IsFinance,
		"selected_agents": out.Agents,
	})
	mon.LogHealth(Component, monitor.EventQueryAnalyzed, string(detail))
	return out
}

func safeAnalyze(analyzer Analyzer, query string) (analysis router.Analysis, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	if analyzer == nil {
		return router.Analysis{}, fmt.Errorf("%w: analyzer is required", contractx.ErrValidation)
	}
	return analyzer.Analyze(query)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
