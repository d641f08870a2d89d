package router

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

func TestSelectExamples(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultKnowledgeBase(), "", nil)
	s := NewSelector(c, nil)

	tests := []struct {
		query string
		want  []contractx.AgentID
	}{
		{query: "What is the weather today?", want: []contractx.AgentID{contractx.AgentGeneral}},
		{query: "Tell me about Apple stock", want: []contractx.AgentID{
			contractx.AgentFinance, contractx.AgentMarketData, contractx.AgentFilings,
			contractx.AgentSocialSentiment, contractx.AgentGeneral,
		}},
		{query: "What about bank loans?", want: []contractx.AgentID{
			contractx.AgentFinance, contractx.AgentSocialSentiment, contractx.AgentGeneral,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			got := s.Select(tt.query, c.Classify(tt.query).Tickers)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Select(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestPlanNeverEmpty(t *testing.T) {
	t.Parallel()

	for _, isFinance := range []bool{false, true} {
		for _, tickers := range [][]string{nil, {"AAPL"}} {
			got := Plan(isFinance, tickers)
			if len(got) == 0 {
				t.Fatalf("Plan(%v, %v) is empty", isFinance, tickers)
			}
			if got[len(got)-1] != contractx.AgentGeneral {
				t.Fatalf("Plan(%v, %v) = %v, general agent missing", isFinance, tickers, got)
			}
		}
	}
}

func TestPlanReturnsFreshSlice(t *testing.T) {
	t.Parallel()

	got := Plan(true, []string{"AAPL"})
	got[0] = "mutated"
	if AgentOrder[0] != contractx.AgentFinance {
		t.Fatalf("Plan leaked the shared order slice")
	}
}

func TestSelectRecoversToGeneral(t *testing.T) {
	t.Parallel()

	mon := &recordingMonitor{}
	s := NewSelector(nil, mon)

	got := s.Select("Tell me about Apple stock", []string{"AAPL"})
	if diff := cmp.Diff([]contractx.AgentID{contractx.AgentGeneral}, got); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
	if len(mon.messages) != 1 {
		t.Fatalf("expected the fault to be logged, got %v", mon.messages)
	}
}
