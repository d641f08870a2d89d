package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	nodex "github.com/tanpawarit/bankerai/agent/nodes"
)

const (
	stageAnalyze   = "analyze_query"
	stageExecute   = "execute_agents"
	stageImprove   = "improve_responses"
	stageSummarize = "generate_summary"
	stageFinalize  = "finalize_results"
)

// stage wraps fn with a span, a latency observation and panic recovery.
func stage[I, O any](w *Workflow, name string, fn func(ctx context.Context, in I) (O, error)) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in I) (out O, err error) {
		ctx, span := w.tracer.Start(ctx, "pipeline."+name)
		started := w.now()
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%w: stage %s: %v", contractx.ErrPipelinePanic, name, rec)
			}
			w.metrics.ObserveStage(name, w.now().Sub(started))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
		return fn(ctx, in)
	})
}

func (w *Workflow) compileAnalysisGraph(ctx context.Context) (compose.Runnable[nodex.AnalyzeInput, nodex.Final], error) {
	graph := compose.NewGraph[nodex.AnalyzeInput, nodex.Final]()

	if err := graph.AddLambdaNode(stageAnalyze,
		stage(w, stageAnalyze, func(ctx context.Context, in nodex.AnalyzeInput) (nodex.Analyzed, error) {
			out := nodex.AnalyzeQuery(in, w.analyzer, w.monitor, w.now)
			traceAnalysis(ctx, out)
			return out, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stageAnalyze, err)
	}

	if err := graph.AddLambdaNode(stageExecute,
		stage(w, stageExecute, func(ctx context.Context, in nodex.Analyzed) (nodex.Executed, error) {
			return nodex.ExecuteAgents(ctx, in, w.dispatcher, w.aggregator, w.monitor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stageExecute, err)
	}

	if err := graph.AddLambdaNode(stageImprove,
		stage(w, stageImprove, func(ctx context.Context, in nodex.Executed) (nodex.Improved, error) {
			return nodex.ImproveResponses(ctx, in, w.improver)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stageImprove, err)
	}

	if err := graph.AddLambdaNode(stageSummarize,
		stage(w, stageSummarize, func(ctx context.Context, in nodex.Improved) (nodex.Summarized, error) {
			return nodex.GenerateSummary(ctx, in, w.summarizer, w.monitor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stageSummarize, err)
	}

	if err := graph.AddLambdaNode(stageFinalize,
		stage(w, stageFinalize, func(ctx context.Context, in nodex.Summarized) (nodex.Final, error) {
			return nodex.FinalizeResults(in, w.monitor, w.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stageFinalize, err)
	}

	edges := [][2]string{
		{compose.START, stageAnalyze},
		{stageAnalyze, stageExecute},
		{stageExecute, stageImprove},
		{stageImprove, stageSummarize},
		{stageSummarize, stageFinalize},
		{stageFinalize, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.run_analysis"))
	if err != nil {
		return nil, fmt.Errorf("compile analysis graph: %w", err)
	}
	return runner, nil
}

func traceAnalysis(ctx context.Context, a nodex.Analyzed) {
	names := make([]string, len(a.Agents))
	for i, id := range a.Agents {
		names[i] = string(id)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("analysis.is_finance", a.IsFinance),
		attribute.StringSlice("analysis.tickers", a.Tickers),
		attribute.StringSlice("analysis.agents", names),
	)
}
