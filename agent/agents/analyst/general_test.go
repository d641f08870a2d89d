package analyst

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	promptx "github.com/tanpawarit/bankerai/agent/prompt"
)

func TestGeneralPicksPromptByQuery(t *testing.T) {
	t.Parallel()

	prompts := promptx.LoadPromptSet()
	tests := []struct {
		query      string
		wantSystem string
		wantType   string
	}{
		{"Hello, how are you today?", prompts.General, "general"},
		{"Should I buy a bond fund?", prompts.GeneralFinance, "finance_related"},
		{"Explain the P/E ratio", prompts.GeneralFinance, "finance_related"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			llm := &fakeCompleter{reply: "answer"}
			agent, err := NewGeneral(llm, prompts, nil)
			require.NoError(t, err)
			agent.now = fixedNow

			resp, err := agent.Invoke(context.Background(), contractx.Request{ID: "g", Context: contractx.NewRequestContext(tt.query, nil, nil, nil)})
			require.NoError(t, err)
			require.Equal(t, contractx.StatusSuccess, resp.Status)
			require.Equal(t, []string{tt.wantSystem}, llm.systems)
			require.Equal(t, []string{tt.query}, llm.users)

			data := resp.Results["general"].(map[string]any)
			require.Equal(t, "answer", data["response"])
			require.Equal(t, tt.wantType, data["query_type"])
			require.Equal(t, []string{}, data["companies_mentioned"])
			require.Equal(t, fixedNow().Format(time.RFC3339), resp.ContextUpdates["last_general_query"])
		})
	}
}

func TestGeneralCompletionErrorIsPayload(t *testing.T) {
	t.Parallel()

	mon := &recordingMonitor{}
	agent, err := NewGeneral(&fakeCompleter{err: errors.New("upstream down")}, promptx.LoadPromptSet(), mon)
	require.NoError(t, err)

	resp, err := agent.Invoke(context.Background(), contractx.Request{Context: contractx.NewRequestContext("hi there", nil, nil, nil)})
	require.NoError(t, err)
	require.Equal(t, contractx.StatusFailed, resp.Status)
	require.Equal(t, map[string]any{"error": "upstream down", "query": "hi there"}, resp.Results["general"])
	require.Equal(t, []string{"upstream down"}, mon.errors)
}

func TestNewGeneralValidates(t *testing.T) {
	t.Parallel()

	_, err := NewGeneral(nil, promptx.LoadPromptSet(), nil)
	require.ErrorIs(t, err, contractx.ErrValidation)

	prompts := promptx.LoadPromptSet()
	prompts.GeneralFinance = " "
	_, err = NewGeneral(&fakeCompleter{}, prompts, nil)
	require.ErrorIs(t, err, contractx.ErrPromptMissing)
}
