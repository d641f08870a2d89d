package orchestratornode

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
)

// FinalizeResults packages the improved texts, the summary and the timing
// metadata. Total time is the sum of agent times plus analysis time.
func FinalizeResults(in Summarized, mon contractx.Monitor, now func() time.Time) (Final, error) {
	mon = monitor.OrNop(mon)

	results := make(map[string]any, len(in.Texts)+1)
	for id, text := range in.Texts {
		results[id.ResultKey()] = map[string]string{"summary": text}
	}
	results[SummaryKey] = map[string]string{"summary": in.Summary}

	order := make([]string, 0, len(in.ExecutionTimes))
	times := make(map[string]float64, len(in.ExecutionTimes))
	total := in.AnalysisTime
	for _, id := range in.Agents {
		elapsed, ok := in.ExecutionTimes[id]
		if !ok {
			continue
		}
		order = append(order, string(id))
		times[string(id)] = elapsed.Seconds()
		total += elapsed
	}

	failed := make([]string, len(in.Failed))
	var agentErrors map[string]string
	for i, id := range in.Failed {
		failed[i] = string(id)
		if msg := in.Errors[id]; msg != "" {
			if agentErrors == nil {
				agentErrors = make(map[string]string)
			}
			agentErrors[string(id)] = msg
		}
	}

	mon.LogHealth(Component, monitor.EventCompleted, fmt.Sprintf("Total time: %.2fs", total.Seconds()))

	return Final{
		RequestID: in.RequestID,
		Status:    string(contractx.StatusSuccess),
		Results:   results,
		Metadata: Metadata{
			WorkflowVersion: WorkflowVersion,
			TotalAgents:     len(times),
			ExecutionTimes:  times,
			AnalysisTime:    in.AnalysisTime.Seconds(),
			TotalTime:       total.Seconds(),
			CompletionTime:  now(),
			AgentOrder:      order,
			DispatchStatus:  in.DispatchStatus,
			FailedAgents:    failed,
			AgentErrors:     agentErrors,
			Companies:       in.Companies,
			Tickers:         in.Tickers,
			SummaryFallback: in.Fallback,
			ContextUpdates:  in.ContextUpdates,
		},
	}, nil
}
