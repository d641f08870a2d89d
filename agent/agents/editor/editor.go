// Package editor rewrites agent output and writes the final summary with an LLM.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	llmx "github.com/tanpawarit/bankerai/agent/llm"
	promptx "github.com/tanpawarit/bankerai/agent/prompt"
	openrouterx "github.com/tanpawarit/bankerai/pkg/openrouter"
)

var (
	_ contractx.Improver   = (*Improver)(nil)
	_ contractx.Summarizer = (*Summarizer)(nil)
)

type Improver struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func NewImprover(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Improver, error) {
	if err := promptx.Require("improve", systemPrompt); err != nil {
		return nil, err
	}
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "editor.improve_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile improve graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Improver{runner: runner}, nil
}

func (i *Improver) Improve(ctx context.Context, agent contractx.AgentID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is required", contractx.ErrValidation)
	}
	return invokeText(ctx, i.runner, map[string]any{
		"agent":   string(agent),
		"content": content,
	}, "improve")
}

type Summarizer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func NewSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Summarizer, error) {
	if err := promptx.Require("summary", systemPrompt); err != nil {
		return nil, err
	}
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "editor.summary_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile summary graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Summarizer{runner: runner}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, query string, original map[string]any, improved map[string]string) (string, error) {
	return invokeText(ctx, s.runner, map[string]any{
		"query":            query,
		"original_results": original,
		"improved_results": improved,
	}, "summarize")
}

// New builds both collaborators from the LLM config.
func New(ctx context.Context, cfg llmx.Config) (*Improver, *Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	prompts := promptx.LoadPromptSet()

	improverModel, err := openrouterx.NewChatModel(ctx, cfg.OpenRouterFor(llmx.RoleImprover))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create improver model: %v", contractx.ErrModelInvoke, err)
	}
	summarizerModel, err := openrouterx.NewChatModel(ctx, cfg.OpenRouterFor(llmx.RoleSummarizer))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create summarizer model: %v", contractx.ErrModelInvoke, err)
	}

	improver, err := NewImprover(ctx, improverModel, prompts.Improve)
	if err != nil {
		return nil, nil, err
	}
	summarizer, err := NewSummarizer(ctx, summarizerModel, prompts.Summary)
	if err != nil {
		return nil, nil, err
	}
	return improver, summarizer, nil
}

func invokeText(ctx context.Context, runner compose.Runnable[map[string]any, *schema.Message], payload map[string]any, op string) (string, error) {
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal %s payload: %v", contractx.ErrValidation, op, err)
	}

	msg, err := runner.Invoke(ctx, map[string]any{
		llmx.InputKey: string(inputBytes),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s invoke: %v", contractx.ErrModelInvoke, op, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: %s returned empty content", contractx.ErrSchemaViolation, op)
	}
	return strings.TrimSpace(msg.Content), nil
}
