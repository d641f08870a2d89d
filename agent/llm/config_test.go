package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

func TestOpenRouterForRoleOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:                " key ",
		Model:                 "openai/gpt-4o-mini",
		Temperature:           0.3,
		MaxCompletionToken:    1500,
		FinanceModel:          "anthropic/claude-sonnet",
		FinanceTemperature:    0.1,
		ImproverTemperature:   -1,
		SummarizerModel:       "  ",
		SummarizerTemperature: 0.6,
	}

	finance := cfg.OpenRouterFor(RoleFinance)
	if finance.Model != "anthropic/claude-sonnet" || finance.Temperature != 0.1 {
		t.Fatalf("finance = %+v", finance)
	}
	if finance.APIKey != "key" || *finance.MaxCompletionToken != 1500 {
		t.Fatalf("shared settings not copied: %+v", finance)
	}

	improver := cfg.OpenRouterFor(RoleImprover)
	if improver.Model != "openai/gpt-4o-mini" || improver.Temperature != 0.3 {
		t.Fatalf("improver should use defaults, got %+v", improver)
	}

	summarizer := cfg.OpenRouterFor(RoleSummarizer)
	if summarizer.Model != "openai/gpt-4o-mini" || summarizer.Temperature != 0.6 {
		t.Fatalf("summarizer = %+v", summarizer)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
