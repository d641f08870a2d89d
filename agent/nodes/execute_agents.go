package orchestratornode

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
	"github.com/tanpawarit/bankerai/agent/router"
)

// ExecuteAgents dispatches the selected agents and waits for all of them.
// Agent faults are recorded in the result, never returned.
func ExecuteAgents(
	ctx context.Context,
	in Analyzed,
	dispatcher Dispatcher,
	aggregator Aggregator,
	mon contractx.Monitor,
) (Executed, error) {
	if dispatcher == nil || aggregator == nil {
		return Executed{}, fmt.Errorf("%w: dispatcher and aggregator are required", contractx.ErrValidation)
	}
	mon = monitor.OrNop(mon)

	req := router.RoutedRequest(
		contractx.Request{ID: in.RequestID, Context: contractx.NewRequestContext(in.Query, nil, nil, nil)},
		router.Analysis{
			Classification: router.Classification{Companies: in.Companies, Tickers: in.Tickers, IsFinance: in.IsFinance},
			Agents:         in.Agents,
		},
	)

	records := dispatcher.Dispatch(ctx, req, in.Agents)
	resp := aggregator.Aggregate(req, records, in.StartedAt)

	out := Executed{
		Analyzed:       in,
		Results:        make(map[contractx.AgentID]any, len(records)),
		Succeeded:      []contractx.AgentID{},
		Failed:         []contractx.AgentID{},
		Errors:         make(map[contractx.AgentID]string),
		ExecutionTimes: make(map[contractx.AgentID]time.Duration, len(records)),
		DispatchStatus: resp.Status,
		ContextUpdates: resp.ContextUpdates,
	}
	for _, rec := range records {
		out.ExecutionTimes[rec.Agent] = rec.Elapsed
		switch {
		case !rec.Success:
			out.Failed = append(out.Failed, rec.Agent)
			out.Errors[rec.Agent] = rec.Err
			mon.LogError(Component, fmt.Sprintf("%s execution failed: %s", rec.Agent, rec.Err), map[string]any{
				"request_id": in.RequestID,
			})
		case rec.Payload == nil:
			out.Failed = append(out.Failed, rec.Agent)
			out.Errors[rec.Agent] = contractx.ErrNoResponse.Error()
		default:
			out.Succeeded = append(out.Succeeded, rec.Agent)
			out.Results[rec.Agent] = agentData(rec.Agent, rec.Payload)
		}
	}

	mon.LogHealth(Component, monitor.EventAgentsExecuted,
		fmt.Sprintf("Success: %d, Failed: %d", len(out.Succeeded), len(out.Failed)))
	return out, nil
}

// agentData unwraps a payload that only carries the agent's own result key.
func agentData(id contractx.AgentID, payload *contractx.Response) any {
	switch len(payload.Results) {
	case 0:
		return map[string]any{"status": string(payload.Status)}
	case 1:
		if v, ok := payload.Results[id.ResultKey()]; ok {
			return v
		}
	}
	return payload.Results
}
