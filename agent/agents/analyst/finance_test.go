package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/router"
)

func testCorpus() router.Corpus {
	return router.Corpus{Documents: []router.Document{
		{Name: "apple-10k_2024.pdf"},
		{Name: "tesla-risk-factors.pdf"},
	}}
}

func TestFinanceInvoke(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{content: `{"answer":"Revenue grew 5%.","relevant_documents":["apple-10k_2024.pdf"],"confidence":" High "}`}
	agent, err := NewFinance(context.Background(), model, "finance prompt", testCorpus())
	require.NoError(t, err)
	agent.now = fixedNow

	req := contractx.Request{ID: "f", Context: contractx.NewRequestContext("apple revenue", []string{"apple"}, []string{"AAPL"}, nil)}
	resp, err := agent.Invoke(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, contractx.StatusSuccess, resp.Status)

	data := resp.Results["finance"].(map[string]any)
	require.Equal(t, "Revenue grew 5%.", data["answer"])
	require.Equal(t, "high", data["confidence"])
	require.Equal(t, []string{"apple-10k_2024.pdf"}, data["documents"])
	require.Equal(t, []string{"apple-10k_2024.pdf"}, data["relevant_documents"])

	require.Len(t, model.inputs, 1)
	require.Equal(t, "finance prompt", model.inputs[0][0].Content)
	var payload struct {
		Query     string              `json:"query"`
		Documents []map[string]string `json:"documents"`
	}
	require.NoError(t, json.Unmarshal([]byte(model.inputs[0][1].Content), &payload))
	require.Equal(t, "apple revenue", payload.Query)
	require.Equal(t, []map[string]string{{"name": "apple-10k_2024.pdf", "topic": "apple 10k 2024"}}, payload.Documents)
}

func TestFinanceFallsBackToWholeCorpus(t *testing.T) {
	t.Parallel()

	agent, err := NewFinance(context.Background(), &fakeChatModel{}, "finance prompt", testCorpus())
	require.NoError(t, err)
	require.Len(t, agent.documentsFor([]string{"nvidia"}), 2)
	require.Len(t, agent.documentsFor(nil), 2)
}

func TestFinanceErrors(t *testing.T) {
	t.Parallel()

	req := contractx.Request{Context: contractx.NewRequestContext("q", nil, nil, nil)}

	agent, err := NewFinance(context.Background(), &fakeChatModel{content: `{"answer":"  "}`}, "finance prompt", router.Corpus{})
	require.NoError(t, err)
	_, err = agent.Invoke(context.Background(), req)
	require.ErrorIs(t, err, contractx.ErrSchemaViolation)

	agent, err = NewFinance(context.Background(), &fakeChatModel{err: errors.New("quota")}, "finance prompt", router.Corpus{})
	require.NoError(t, err)
	_, err = agent.Invoke(context.Background(), req)
	require.ErrorIs(t, err, contractx.ErrModelInvoke)

	_, err = NewFinance(context.Background(), &fakeChatModel{}, "", router.Corpus{})
	require.ErrorIs(t, err, contractx.ErrPromptMissing)
}
