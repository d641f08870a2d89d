package dispatch

import (
	"maps"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
	metricsx "github.com/tanpawarit/bankerai/pkg/metrics"
)

const componentAggregator = "Aggregator"

// RoutingLog is the line appended to the sink for every aggregated request.
type RoutingLog struct {
	Router             string    `json:"router"`
	RequestID          string    `json:"request_id"`
	Timestamp          time.Time `json:"timestamp"`
	CompletedTimestamp time.Time `json:"completed_timestamp"`
	Query              string    `json:"query"`
	Companies          []string  `json:"companies"`
	Tickers            []string  `json:"tickers"`
	Agents             []string  `json:"agents"`
	Status             string    `json:"status"`
	AgentsCompleted    int       `json:"agents_completed"`
}

// Aggregator folds execution records into one Response.
type Aggregator struct {
	name    string
	sink    contractx.Sink
	monitor contractx.Monitor
	metrics *metricsx.Recorder
	now     func() time.Time
}

type AggregatorOption func(*Aggregator)

func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

func WithAggregatorMetrics(r *metricsx.Recorder) AggregatorOption {
	return func(a *Aggregator) { a.metrics = r }
}

func NewAggregator(name string, sink contractx.Sink, mon contractx.Monitor, opts ...AggregatorOption) *Aggregator {
	if sink == nil {
		sink = monitor.NopSink{}
	}
	a := &Aggregator{name: name, sink: sink, monitor: monitor.OrNop(mon), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Aggregate merges records in order. Results that an agent reports are spliced
// into the top level; a failed or empty record leaves an error entry under the
// agent's result key. Later records win on key conflicts.
func (a *Aggregator) Aggregate(req contractx.Request, records []contractx.ExecutionRecord, startedAt time.Time) contractx.Response {
	results := make(map[string]any, len(records))
	updates := make(map[string]any)
	completed := 0

	for _, rec := range records {
		key := rec.Agent.ResultKey()
		switch {
		case !rec.Success:
			results[key] = contractx.ErrorEntry(rec.Err)
		case rec.Payload == nil:
			results[key] = contractx.ErrorEntry(contractx.ErrNoResponse.Error())
		default:
			completed++
			if len(rec.Payload.Results) > 0 {
				maps.Copy(results, rec.Payload.Results)
			} else {
				results[key] = map[string]any{"status": string(rec.Payload.Status)}
			}
			maps.Copy(updates, rec.Payload.ContextUpdates)
		}
	}

	status := Status(records)
	finished := a.now()

	a.writeLog(RoutingLog{
		Router:             a.name,
		RequestID:          req.ID,
		Timestamp:          startedAt,
		CompletedTimestamp: finished,
		Query:              req.Context.Query,
		Companies:          nonNil(req.Context.Companies),
		Tickers:            nonNil(req.Context.Tickers),
		Agents:             agentNames(records),
		Status:             string(status),
		AgentsCompleted:    completed,
	})
	a.metrics.ObserveRoute(string(status))

	return contractx.Response{
		RequestID:      req.ID,
		Results:        results,
		ContextUpdates: updates,
		Status:         status,
		Timestamp:      finished,
	}
}

// Failed builds the response for a request that never reached dispatch.
func (a *Aggregator) Failed(req contractx.Request, message string, startedAt time.Time) contractx.Response {
	finished := a.now()
	a.writeLog(RoutingLog{
		Router:             a.name,
		RequestID:          req.ID,
		Timestamp:          startedAt,
		CompletedTimestamp: finished,
		Query:              req.Context.Query,
		Companies:          []string{},
		Tickers:            []string{},
		Agents:             []string{},
		Status:             string(contractx.StatusFailed),
	})
	a.metrics.ObserveRoute(string(contractx.StatusFailed))

	return contractx.Response{
		RequestID:      req.ID,
		Results:        contractx.ErrorEntry(message),
		ContextUpdates: map[string]any{},
		Status:         contractx.StatusFailed,
		Timestamp:      finished,
	}
}

// Status is success when every record succeeded with a payload, failed when
// there are no records, and partial_failure otherwise.
func Status(records []contractx.ExecutionRecord) contractx.Status {
	if len(records) == 0 {
		return contractx.StatusFailed
	}
	for _, rec := range records {
		if !rec.Success || rec.Payload == nil {
			return contractx.StatusPartialFailure
		}
	}
	return contractx.StatusSuccess
}

func (a *Aggregator) writeLog(entry RoutingLog) {
	if err := a.sink.Append(entry); err != nil {
		a.monitor.LogError(componentAggregator, "logging error", map[string]any{
			"request_id": entry.RequestID,
			"error":      err.Error(),
		})
	}
}

func agentNames(records []contractx.ExecutionRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = string(rec.Agent)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
