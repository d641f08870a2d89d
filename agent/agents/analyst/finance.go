package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	llmx "github.com/tanpawarit/bankerai/agent/llm"
	promptx "github.com/tanpawarit/bankerai/agent/prompt"
	"github.com/tanpawarit/bankerai/agent/router"
)

const maxFinanceDocuments = 20

type financeLLMOutput struct {
	Answer            string   `json:"answer"`
	RelevantDocuments []string `json:"relevant_documents"`
	Confidence        string   `json:"confidence"`
}

// Finance answers from the internal document corpus.
type Finance struct {
	runner compose.Runnable[map[string]any, financeLLMOutput]
	corpus router.Corpus
	now    func() time.Time
}

func NewFinance(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, corpus router.Corpus) (*Finance, error) {
	if err := promptx.Require("finance", systemPrompt); err != nil {
		return nil, err
	}
	runner, err := llmx.CompileStructuredGraph[financeLLMOutput](ctx, chatModel, systemPrompt, "analyst.finance_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile finance graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Finance{runner: runner, corpus: corpus, now: time.Now}, nil
}

func (f *Finance) ID() contractx.AgentID { return contractx.AgentFinance }

func (f *Finance) Invoke(ctx context.Context, req contractx.Request) (*contractx.Response, error) {
	docs := f.documentsFor(req.Context.Companies)
	documents := make([]map[string]string, len(docs))
	names := make([]string, len(docs))
	for i, doc := range docs {
		documents[i] = map[string]string{"name": doc.Name, "topic": doc.Topic()}
		names[i] = doc.Name
	}

	inputBytes, err := json.Marshal(map[string]any{
		"query":     req.Context.Query,
		"companies": req.Context.Companies,
		"tickers":   req.Context.Tickers,
		"documents": documents,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal finance payload: %v", contractx.ErrValidation, err)
	}

	out, err := f.runner.Invoke(ctx, map[string]any{llmx.InputKey: string(inputBytes)})
	if err != nil {
		return nil, fmt.Errorf("%w: finance invoke: %v", contractx.ErrModelInvoke, err)
	}
	answer := strings.TrimSpace(out.Answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: finance answer is empty", contractx.ErrSchemaViolation)
	}
	relevant := out.RelevantDocuments
	if relevant == nil {
		relevant = []string{}
	}

	completed := f.now()
	return respond(req, contractx.AgentFinance.ResultKey(), map[string]any{
		"query":              req.Context.Query,
		"documents":          names,
		"answer":             answer,
		"relevant_documents": relevant,
		"confidence":         strings.ToLower(strings.TrimSpace(out.Confidence)),
	}, contractx.StatusSuccess, map[string]any{
		"last_finance_query": completed.Format(time.RFC3339),
	}, completed), nil
}

// documentsFor prefers documents of the named companies and falls back to the
// whole corpus, capped at maxFinanceDocuments.
func (f *Finance) documentsFor(companies []string) []router.Document {
	docs := f.corpus.ForCompanies(companies)
	if len(docs) == 0 {
		docs = f.corpus.Documents
	}
	if len(docs) > maxFinanceDocuments {
		docs = docs[:maxFinanceDocuments]
	}
	return docs
}
