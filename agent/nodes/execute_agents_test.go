package orchestratornode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

func TestExecuteAgentsSplitsOutcomes(t *testing.T) {
	t.Parallel()

	dispatcher := &fakeDispatcher{records: []contractx.ExecutionRecord{
		{Agent: contractx.AgentFinance, Success: true, Elapsed: time.Second, Payload: &contractx.Response{
			Results: map[string]any{"finance": map[string]any{"answer": "up"}},
		}},
		{Agent: contractx.AgentMarketData, Elapsed: 2 * time.Second, Err: "error running market-data-agent: boom"},
		{Agent: contractx.AgentFilings, Success: true, Elapsed: time.Second},
		{Agent: contractx.AgentGeneral, Success: true, Payload: &contractx.Response{Status: contractx.StatusSuccess}},
	}}
	aggregator := fakeAggregator{resp: contractx.Response{
		Status:         contractx.StatusPartialFailure,
		ContextUpdates: map[string]any{"last_finance_query": "t"},
	}}
	mon := &recordingMonitor{}

	in := Analyzed{
		RequestID: "req",
		Query:     "apple",
		Companies: []string{"apple"},
		Tickers:   []string{"AAPL"},
		IsFinance: true,
		Agents:    []contractx.AgentID{contractx.AgentFinance, contractx.AgentMarketData, contractx.AgentFilings, contractx.AgentGeneral},
	}
	out, err := ExecuteAgents(context.Background(), in, dispatcher, aggregator, mon)
	if err != nil {
		t.Fatalf("ExecuteAgents() error = %v", err)
	}

	if dispatcher.gotReq.ID != "req" || dispatcher.gotReq.Context.Query != "apple" {
		t.Fatalf("dispatched request = %#v", dispatcher.gotReq)
	}
	if diff := cmp.Diff([]string{"AAPL"}, dispatcher.gotReq.Context.Tickers); diff != "" {
		t.Fatalf("tickers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]contractx.AgentID{contractx.AgentFinance, contractx.AgentGeneral}, out.Succeeded); diff != "" {
		t.Fatalf("succeeded mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]contractx.AgentID{contractx.AgentMarketData, contractx.AgentFilings}, out.Failed); diff != "" {
		t.Fatalf("failed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"answer": "up"}, out.Results[contractx.AgentFinance]); diff != "" {
		t.Fatalf("finance data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"status": "success"}, out.Results[contractx.AgentGeneral]); diff != "" {
		t.Fatalf("general data mismatch (-want +got):\n%s", diff)
	}
	if out.Errors[contractx.AgentFilings] != contractx.ErrNoResponse.Error() {
		t.Fatalf("filings error = %q", out.Errors[contractx.AgentFilings])
	}
	if out.ExecutionTimes[contractx.AgentMarketData] != 2*time.Second {
		t.Fatalf("execution times = %v", out.ExecutionTimes)
	}
	if out.DispatchStatus != contractx.StatusPartialFailure {
		t.Fatalf("DispatchStatus = %q", out.DispatchStatus)
	}
	if len(mon.errors) != 1 || len(mon.events) != 1 {
		t.Fatalf("monitor errors=%v events=%v", mon.errors, mon.events)
	}
}

func TestExecuteAgentsRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := ExecuteAgents(context.Background(), Analyzed{}, nil, fakeAggregator{}, nil)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestAgentDataKeepsForeignKeys(t *testing.T) {
	t.Parallel()

	payload := &contractx.Response{Results: map[string]any{"a": 1, "b": 2}}
	if diff := cmp.Diff(map[string]any{"a": 1, "b": 2}, agentData(contractx.AgentFinance, payload)); diff != "" {
		t.Fatalf("agentData mismatch (-want +got):\n%s", diff)
	}
}
