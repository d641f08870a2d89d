package contract

import (
	"maps"
	"slices"
	"strings"
	"time"
)

type AgentID string

const (
	AgentFinance         AgentID = "finance-agent"
	AgentMarketData      AgentID = "market-data-agent"
	AgentFilings         AgentID = "filings-agent"
	AgentSocialSentiment AgentID = "social-sentiment-agent"
	AgentGeneral         AgentID = "general-agent"
)

// ResultKey is the key an agent's results are reported under: the identifier
// lower-cased, without the "-agent" suffix and with hyphens as underscores.
func (id AgentID) ResultKey() string {
	key := strings.TrimSuffix(strings.ToLower(string(id)), "-agent")
	return strings.ReplaceAll(key, "-", "_")
}

type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailed         Status = "failed"
)

const ContextVersion = "1.0"

// RequestContext is built once per query and never mutated in place.
// Use the With* methods to derive a new value.
type RequestContext struct {
	Query          string         `json:"user_query"`
	Companies      []string       `json:"companies"`
	Tickers        []string       `json:"tickers"`
	ExtractedTerms map[string]any `json:"extracted_terms,omitempty"`
	Version        string         `json:"version"`
}

func NewRequestContext(query string, companies, tickers []string, terms map[string]any) RequestContext {
	return RequestContext{
		Query:          query,
		Companies:      SortedSet(companies),
		Tickers:        SortedSet(tickers),
		ExtractedTerms: maps.Clone(terms),
		Version:        ContextVersion,
	}
}

func (c RequestContext) Clone() RequestContext {
	out := c
	out.Companies = slices.Clone(c.Companies)
	out.Tickers = slices.Clone(c.Tickers)
	out.ExtractedTerms = maps.Clone(c.ExtractedTerms)
	return out
}

func (c RequestContext) WithTerm(key string, value any) RequestContext {
	return c.WithUpdates(map[string]any{key: value})
}

// WithUpdates returns a copy whose extracted terms also hold updates.
// Keys in updates win over existing terms.
func (c RequestContext) WithUpdates(updates map[string]any) RequestContext {
	out := c.Clone()
	if len(updates) == 0 {
		return out
	}
	if out.ExtractedTerms == nil {
		out.ExtractedTerms = make(map[string]any, len(updates))
	}
	maps.Copy(out.ExtractedTerms, updates)
	return out
}

type Request struct {
	ID      string         `json:"request_id"`
	Context RequestContext `json:"context"`
}

func (r Request) Clone() Request {
	return Request{ID: r.ID, Context: r.Context.Clone()}
}

type Response struct {
	RequestID      string         `json:"request_id"`
	Results        map[string]any `json:"data"`
	ContextUpdates map[string]any `json:"context_updates,omitempty"`
	Status         Status         `json:"status"`
	Timestamp      time.Time      `json:"timestamp"`
}

// ExecutionRecord is the outcome of one agent call inside a single dispatch.
type ExecutionRecord struct {
	Agent   AgentID
	Success bool
	Elapsed time.Duration
	Err     string
	Payload *Response
}

// ErrorEntry is the result value stored under an agent key when it has no usable payload.
func ErrorEntry(message string) map[string]any {
	return map[string]any{"error": message}
}

// SortedSet returns the distinct non-empty values of in, sorted.
func SortedSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
