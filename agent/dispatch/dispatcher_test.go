package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

func testRequest() contractx.Request {
	return contractx.Request{
		ID: "req-1",
		Context: contractx.NewRequestContext("Tell me about Apple stock", []string{"apple"}, []string{"AAPL"}, map[string]any{
			"agent_names": []string{"finance-agent"},
		}),
	}
}

func TestDispatchMissingAgentIsRecordedNotFatal(t *testing.T) {
	t.Parallel()

	reg := fakeRegistry{}.add(contractx.AgentGeneral, respond(map[string]any{"general": "hi"}, nil))
	mon := &recordingMonitor{}
	d := NewDispatcher(reg, mon)

	records := d.Dispatch(context.Background(), testRequest(), []contractx.AgentID{contractx.AgentFilings, contractx.AgentGeneral})

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Success || !strings.Contains(records[0].Err, contractx.ErrAgentNotFound.Error()) {
		t.Fatalf("expected not-found record, got %+v", records[0])
	}
	if !records[1].Success || records[1].Payload == nil {
		t.Fatalf("expected general agent to succeed, got %+v", records[1])
	}
	if mon.count() != 1 {
		t.Fatalf("expected one monitor error, got %d", mon.count())
	}
}

func TestDispatchIsolatesPanicsAndErrors(t *testing.T) {
	t.Parallel()

	reg := fakeRegistry{}.
		add(contractx.AgentFinance, func(context.Context, contractx.Request) (*contractx.Response, error) {
			panic("index out of range")
		}).
		add(contractx.AgentMarketData, func(context.Context, contractx.Request) (*contractx.Response, error) {
			return nil, errBoom
		}).
		add(contractx.AgentGeneral, respond(map[string]any{"general": map[string]any{"response": "ok"}}, nil))

	d := NewDispatcher(reg, &recordingMonitor{})
	records := d.Dispatch(context.Background(), testRequest(), []contractx.AgentID{
		contractx.AgentFinance, contractx.AgentMarketData, contractx.AgentGeneral,
	})

	got := map[contractx.AgentID]bool{}
	for _, rec := range records {
		got[rec.Agent] = rec.Success
	}
	want := map[contractx.AgentID]bool{
		contractx.AgentFinance:    false,
		contractx.AgentMarketData: false,
		contractx.AgentGeneral:    true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("success map mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(records[0].Err, contractx.ErrAgentPanic.Error()) {
		t.Fatalf("expected panic error, got %q", records[0].Err)
	}
	if !strings.Contains(records[1].Err, "boom") {
		t.Fatalf("expected wrapped agent error, got %q", records[1].Err)
	}
	if records[0].Payload != nil {
		t.Fatalf("failed record must not carry a payload")
	}
}

func TestDispatchWaitsForEveryAgent(t *testing.T) {
	t.Parallel()

	slow := func(delay time.Duration) func(context.Context, contractx.Request) (*contractx.Response, error) {
		return func(_ context.Context, req contractx.Request) (*contractx.Response, error) {
			time.Sleep(delay)
			return &contractx.Response{RequestID: req.ID, Status: contractx.StatusSuccess}, nil
		}
	}
	reg := fakeRegistry{}.
		add(contractx.AgentFinance, slow(60*time.Millisecond)).
		add(contractx.AgentSocialSentiment, slow(5*time.Millisecond)).
		add(contractx.AgentGeneral, slow(0))

	d := NewDispatcher(reg, nil)
	records := d.Dispatch(context.Background(), testRequest(), []contractx.AgentID{
		contractx.AgentFinance, contractx.AgentSocialSentiment, contractx.AgentGeneral,
	})

	for _, rec := range records {
		if !rec.Success {
			t.Fatalf("agent %s did not finish: %+v", rec.Agent, rec)
		}
	}
	if records[0].Elapsed < 60*time.Millisecond {
		t.Fatalf("slow agent elapsed %s, want >= 60ms", records[0].Elapsed)
	}
}

func TestDispatchGivesEachAgentItsOwnRequest(t *testing.T) {
	t.Parallel()

	written := make(chan struct{})
	var seen any
	reg := fakeRegistry{}.
		add(contractx.AgentFinance, func(_ context.Context, req contractx.Request) (*contractx.Response, error) {
			req.Context.ExtractedTerms["agent_names"] = "mutated"
			req.Context.Tickers[0] = "XXXX"
			close(written)
			return &contractx.Response{RequestID: req.ID}, nil
		}).
		add(contractx.AgentGeneral, func(_ context.Context, req contractx.Request) (*contractx.Response, error) {
			<-written
			seen = req.Context.ExtractedTerms["agent_names"]
			if req.Context.Tickers[0] != "AAPL" {
				t.Errorf("ticker leaked between agents: %v", req.Context.Tickers)
			}
			return &contractx.Response{RequestID: req.ID}, nil
		})

	req := testRequest()
	NewDispatcher(reg, nil).Dispatch(context.Background(), req, []contractx.AgentID{contractx.AgentFinance, contractx.AgentGeneral})

	if diff := cmp.Diff([]string{"finance-agent"}, seen); diff != "" {
		t.Fatalf("general agent saw another agent's write (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AAPL"}, req.Context.Tickers); diff != "" {
		t.Fatalf("caller request mutated (-want +got):\n%s", diff)
	}
}

func TestDispatchDedupesRequestedAgents(t *testing.T) {
	t.Parallel()

	reg := fakeRegistry{}.add(contractx.AgentGeneral, respond(nil, nil))
	records := NewDispatcher(reg, nil).Dispatch(context.Background(), testRequest(), []contractx.AgentID{
		contractx.AgentGeneral, contractx.AgentGeneral,
	})
	if len(records) != 1 {
		t.Fatalf("expected a single record, got %d", len(records))
	}
}

func TestDispatchNilRegistry(t *testing.T) {
	t.Parallel()

	records := NewDispatcher(nil, nil).Dispatch(context.Background(), testRequest(), []contractx.AgentID{contractx.AgentGeneral})
	if len(records) != 1 || records[0].Success {
		t.Fatalf("expected one failed record, got %+v", records)
	}
}
