package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
	nodex "github.com/tanpawarit/bankerai/agent/nodes"
	metricsx "github.com/tanpawarit/bankerai/pkg/metrics"
)

const (
	DefaultTimeout  = 300 * time.Second
	tracerName      = "github.com/tanpawarit/bankerai/agent/agents/orchestrator"
	componentReport = "ReportStore"
)

// OutcomeStatus is the terminal state of one RunAnalysis call.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeTimeout OutcomeStatus = "timeout"
	OutcomeError   OutcomeStatus = "error"
)

type Outcome struct {
	Status    OutcomeStatus   `json:"status"`
	RequestID string          `json:"request_id"`
	Results   map[string]any  `json:"results"`
	Metadata  *nodex.Metadata `json:"metadata,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Deps are the collaborators of the pipeline. Analyzer, Dispatcher and
// Aggregator are required.
type Deps struct {
	Analyzer   nodex.Analyzer
	Dispatcher nodex.Dispatcher
	Aggregator nodex.Aggregator
	Improver   contractx.Improver
	Summarizer contractx.Summarizer
	Reports    []contractx.ReportStore
	Monitor    contractx.Monitor
	Metrics    *metricsx.Recorder
	Tracer     trace.Tracer
}

// Workflow runs the analysis pipeline. It is safe for concurrent use.
type Workflow struct {
	analyzer   nodex.Analyzer
	dispatcher nodex.Dispatcher
	aggregator nodex.Aggregator
	improver   contractx.Improver
	summarizer contractx.Summarizer
	reports    []contractx.ReportStore
	monitor    contractx.Monitor
	metrics    *metricsx.Recorder
	tracer     trace.Tracer

	graphRunner compose.Runnable[nodex.AnalyzeInput, nodex.Final]

	now func() time.Time
}

func New(deps Deps) (*Workflow, error) {
	if deps.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if deps.Aggregator == nil {
		return nil, errors.New("aggregator is required")
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	w := &Workflow{
		analyzer:   deps.Analyzer,
		dispatcher: deps.Dispatcher,
		aggregator: deps.Aggregator,
		improver:   deps.Improver,
		summarizer: deps.Summarizer,
		reports:    deps.Reports,
		monitor:    monitor.OrNop(deps.Monitor),
		metrics:    deps.Metrics,
		tracer:     tracer,
		now:        time.Now,
	}

	graphRunner, err := w.compileAnalysisGraph(context.Background())
	if err != nil {
		return nil, err
	}
	w.graphRunner = graphRunner
	return w, nil
}

type runResult struct {
	final nodex.Final
	err   error
}

// RunAnalysis answers query within timeout. It always returns a well-formed
// outcome. A non-positive timeout means DefaultTimeout.
func (w *Workflow) RunAnalysis(ctx context.Context, query string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	requestID := uuid.NewString()

	ctx, span := w.tracer.Start(ctx, "orchestrator.run_analysis", trace.WithAttributes(
		attribute.String("request_id", requestID),
		attribute.Float64("timeout_seconds", timeout.Seconds()),
	))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- runResult{err: fmt.Errorf("%w: %v", contractx.ErrPipelinePanic, rec)}
			}
		}()
		final, err := w.graphRunner.Invoke(runCtx, nodex.AnalyzeInput{
			RequestID: requestID,
			Query:     query,
			StartedAt: w.now(),
		})
		done <- runResult{final: final, err: err}
	}()

	var out Outcome
	select {
	case res := <-done:
		switch {
		case res.err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
			out = timeoutOutcome(requestID, timeout)
		case res.err != nil:
			out = errorOutcome(requestID, res.err)
		default:
			meta := res.final.Metadata
			out = Outcome{Status: OutcomeSuccess, RequestID: requestID, Results: res.final.Results, Metadata: &meta}
		}
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			out = timeoutOutcome(requestID, timeout)
		} else {
			out = errorOutcome(requestID, runCtx.Err())
		}
	}

	span.SetAttributes(attribute.String("outcome", string(out.Status)))
	if out.Status != OutcomeSuccess {
		w.monitor.LogError(nodex.Component, out.Error, map[string]any{"request_id": requestID, "status": string(out.Status)})
	}
	w.metrics.ObserveAnalysis(string(out.Status))
	w.saveReport(ctx, out)
	return out
}

func (w *Workflow) saveReport(ctx context.Context, out Outcome) {
	if out.Status != OutcomeSuccess {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, store := range w.reports {
		if store == nil {
			continue
		}
		if err := store.SaveReport(ctx, out.RequestID, out); err != nil {
			w.monitor.LogError(componentReport, "failed to save analysis", map[string]any{
				"request_id": out.RequestID,
				"error":      err.Error(),
			})
		}
	}
}

func timeoutOutcome(requestID string, timeout time.Duration) Outcome {
	return Outcome{
		Status:    OutcomeTimeout,
		RequestID: requestID,
		Results:   map[string]any{},
		Error:     fmt.Sprintf("%v: workflow exceeded %s timeout", contractx.ErrTimeout, timeout),
	}
}

func errorOutcome(requestID string, err error) Outcome {
	return Outcome{
		Status:    OutcomeError,
		RequestID: requestID,
		Results:   map[string]any{},
		Error:     err.Error(),
	}
}
