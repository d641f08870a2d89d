package router

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/dispatch"
	"github.com/tanpawarit/bankerai/agent/monitor"
)

const (
	Name            = "BankerAIRouter"
	componentRouter = "Router"
	termAgentNames  = "agent_names"
)

// Analysis is a classification plus the agents chosen for it.
type Analysis struct {
	Classification
	Agents []contractx.AgentID `json:"agents"`
}

// Router answers a request in one shot: classify, select, dispatch, aggregate.
type Router struct {
	classifier *Classifier
	selector   *Selector
	dispatcher *dispatch.Dispatcher
	aggregator *dispatch.Aggregator
	monitor    contractx.Monitor
}

func New(classifier *Classifier, dispatcher *dispatch.Dispatcher, aggregator *dispatch.Aggregator, mon contractx.Monitor) *Router {
	mon = monitor.OrNop(mon)
	return &Router{
		classifier: classifier,
		selector:   NewSelector(classifier, mon),
		dispatcher: dispatcher,
		aggregator: aggregator,
		monitor:    mon,
	}
}

func (r *Router) Classifier() *Classifier { return r.classifier }

// Analyze classifies query and selects its agents. A fault inside
// classification is returned as an error.
func (r *Router) Analyze(query string) (analysis Analysis, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: classify query: %v", contractx.ErrValidation, rec)
		}
	}()
	if r.classifier == nil {
		return Analysis{}, fmt.Errorf("%w: classifier is required", contractx.ErrValidation)
	}
	cls := r.classifier.Classify(query)
	return Analysis{
		Classification: cls,
		Agents:         r.selector.Select(query, cls.Tickers),
	}, nil
}

// RoutedRequest is req rebuilt around analysis, keeping req's ID and version.
func RoutedRequest(req contractx.Request, analysis Analysis) contractx.Request {
	names := make([]string, len(analysis.Agents))
	for i, id := range analysis.Agents {
		names[i] = string(id)
	}
	rc := contractx.NewRequestContext(req.Context.Query, analysis.Companies, analysis.Tickers, map[string]any{
		termAgentNames: names,
	})
	if req.Context.Version != "" {
		rc.Version = req.Context.Version
	}
	return contractx.Request{ID: req.ID, Context: rc}
}

// Route always returns a well-formed response. It is failed only when the
// request never reached dispatch.
func (r *Router) Route(ctx context.Context, req contractx.Request) (resp contractx.Response) {
	startedAt := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	defer func() {
		if rec := recover(); rec != nil {
			resp = r.fail(req, fmt.Errorf("%v", rec), startedAt)
		}
	}()

	analysis, err := r.Analyze(req.Context.Query)
	if err != nil {
		return r.fail(req, err, startedAt)
	}

	routed := RoutedRequest(req, analysis)
	records := r.dispatcher.Dispatch(ctx, routed, analysis.Agents)
	return r.aggregator.Aggregate(routed, records, startedAt)
}

func (r *Router) fail(req contractx.Request, cause error, startedAt time.Time) contractx.Response {
	message := "routing failed: " + cause.Error()
	r.monitor.LogError(componentRouter, message, map[string]any{"request_id": req.ID})
	if r.aggregator == nil {
		return contractx.Response{
			RequestID:      req.ID,
			Results:        contractx.ErrorEntry(message),
			ContextUpdates: map[string]any{},
			Status:         contractx.StatusFailed,
			Timestamp:      time.Now(),
		}
	}
	return r.aggregator.Failed(req, message, startedAt)
}
