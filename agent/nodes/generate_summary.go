package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/monitor"
)

var rule = strings.Repeat("=", 80)

// GenerateSummary asks summarizer for one overall answer. Any fault produces
// FallbackSummary instead.
func GenerateSummary(ctx context.Context, in Improved, summarizer contractx.Summarizer, mon contractx.Monitor) (Summarized, error) {
	mon = monitor.OrNop(mon)

	original := make(map[string]any, len(in.Results))
	for id, data := range in.Results {
		original[id.ResultKey()] = data
	}
	improved := make(map[string]string, len(in.Texts))
	for id, text := range in.Texts {
		improved[id.ResultKey()] = text
	}

	summary, err := summarize(ctx, summarizer, in.Query, original, improved)
	if err == nil && strings.TrimSpace(summary) == "" {
		err = fmt.Errorf("%w: summary is empty", contractx.ErrSchemaViolation)
	}
	if err != nil {
		mon.LogError(Component, "summary generation failed: "+err.Error(), map[string]any{"request_id": in.RequestID})
		return Summarized{Improved: in, Summary: FallbackSummary(in.Query, len(in.Texts)), Fallback: true}, nil
	}
	return Summarized{Improved: in, Summary: summary}, nil
}

func summarize(
	ctx context.Context,
	summarizer contractx.Summarizer,
	query string,
	original map[string]any,
	improved map[string]string,
) (summary string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: summarizer: %v", contractx.ErrPipelinePanic, rec)
		}
	}()
	if summarizer == nil {
		return "", fmt.Errorf("%w: summarizer is not configured", contractx.ErrValidation)
	}
	return summarizer.Summarize(ctx, query, original, improved)
}

// FallbackSummary is the deterministic summary used when the summarizer fails.
func FallbackSummary(query string, agents int) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("ANALYSIS SUMMARY\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Query: %q\n\n", query)
	fmt.Fprintf(&b, "Analysis completed using %d agents.\n", agents)
	b.WriteString("Please review the detailed responses above for insights.\n\n")
	b.WriteString("Note: Advanced summary generation temporarily unavailable.\n")
	b.WriteString(rule + "\n")
	return b.String()
}
