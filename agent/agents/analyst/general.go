package analyst

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
	promptx "github.com/tanpawarit/bankerai/agent/prompt"
)

// completer sends one system and one user message and returns the reply text.
type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type openAICompleter struct {
	client      *openaisdk.Client
	model       openaisdk.ChatModel
	temperature float64
	maxTokens   int64
}

func newOpenAICompleter(client *openaisdk.Client, model string, temperature float32, maxTokens int) *openAICompleter {
	return &openAICompleter{
		client:      client,
		model:       openaisdk.ChatModel(model),
		temperature: float64(temperature),
		maxTokens:   int64(maxTokens),
	}
}

func (c *openAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		Temperature: openaisdk.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// financeHints marks queries the general agent should answer with the finance prompt.
var financeHints = []string{
	"stock", "invest", "financ", "bank", "loan", "credit", "dividend", "equity", "bond",
	"portfolio", "asset", "liabilit", "revenue", "profit", "earnings", "market", "trading",
	"ticker", "sec", "10-k", "10-q", "filing", "balance sheet", "income statement",
	"cash flow", "valuation", "p/e ratio", "eps", "market cap", "merger", "acquisition", "ipo",
}

// General answers any query with a single completion.
type General struct {
	llm     completer
	prompts promptx.PromptSet
	monitor contractx.Monitor
	now     func() time.Time
}

func NewGeneral(llm completer, prompts promptx.PromptSet, mon contractx.Monitor) (*General, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: general agent needs a completer", contractx.ErrValidation)
	}
	if err := promptx.Require("general", prompts.General); err != nil {
		return nil, err
	}
	if err := promptx.Require("general_finance", prompts.GeneralFinance); err != nil {
		return nil, err
	}
	return &General{llm: llm, prompts: prompts, monitor: monitor.OrNop(mon), now: time.Now}, nil
}

func (g *General) ID() contractx.AgentID { return contractx.AgentGeneral }

// Invoke reports completion failures as a failed payload, not an error.
func (g *General) Invoke(ctx context.Context, req contractx.Request) (*contractx.Response, error) {
	query := req.Context.Query
	queryType := "general"
	system := g.prompts.General
	if looksFinancial(query) {
		queryType = "finance_related"
		system = g.prompts.GeneralFinance
	}

	status := contractx.StatusSuccess
	var data map[string]any

	text, err := g.llm.Complete(ctx, system, query)
	if err != nil {
		status = contractx.StatusFailed
		data = map[string]any{"error": err.Error(), "query": query}
		g.monitor.LogError("GeneralAgent", err.Error(), map[string]any{"query": query})
	} else {
		companies := req.Context.Companies
		if companies == nil {
			companies = []string{}
		}
		data = map[string]any{
			"query":               query,
			"response":            text,
			"query_type":          queryType,
			"companies_mentioned": companies,
			"timestamp":           g.now().Format(time.RFC3339),
		}
	}

	completed := g.now()
	return respond(req, contractx.AgentGeneral.ResultKey(), data, status, map[string]any{
		"last_general_query": completed.Format(time.RFC3339),
	}, completed), nil
}

func looksFinancial(query string) bool {
	lower := strings.ToLower(query)
	for _, hint := range financeHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
