package orchestratornode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

// ImproveResponses rewrites every successful agent result concurrently. The
// general agent passes through unchanged and any improvement fault falls back
// to the stringified payload of that agent.
func ImproveResponses(ctx context.Context, in Executed, improver contractx.Improver) (Improved, error) {
	texts := make([]string, len(in.Succeeded))

	var g errgroup.Group
	for i, id := range in.Succeeded {
		g.Go(func() error {
			texts[i] = improveOne(ctx, improver, id, in.Results[id])
			return nil
		})
	}
	_ = g.Wait()

	out := Improved{Executed: in, Texts: make(map[contractx.AgentID]string, len(texts))}
	for i, id := range in.Succeeded {
		out.Texts[id] = texts[i]
	}
	return out, nil
}

func improveOne(ctx context.Context, improver contractx.Improver, id contractx.AgentID, data any) (text string) {
	if isEmpty(data) || hasError(data) {
		return stringify(data)
	}
	if id == contractx.AgentGeneral {
		return generalText(data)
	}

	content := stringifyIndent(data)
	if improver == nil {
		return content
	}
	defer func() {
		if rec := recover(); rec != nil {
			text = content
		}
	}()

	improved, err := improver.Improve(ctx, id, content)
	if err != nil || strings.TrimSpace(improved) == "" {
		return content
	}
	return improved
}

// generalText prefers the agent's own response text.
func generalText(data any) string {
	m, ok := data.(map[string]any)
	if !ok {
		return stringify(data)
	}
	if resp, ok := m["response"].(string); ok {
		return resp
	}
	if v, ok := m["general"]; ok && len(m) == 1 {
		if s, ok := v.(string); ok {
			return s
		}
		return stringify(v)
	}
	return stringify(m)
}

func isEmpty(data any) bool {
	switch v := data.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func hasError(data any) bool {
	m, ok := data.(map[string]any)
	if !ok {
		return false
	}
	switch v := m["error"].(type) {
	case nil:
		return false
	case string:
		return v != ""
	default:
		return true
	}
}

func stringify(data any) string {
	if s, ok := data.(string); ok {
		return s
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprint(data)
	}
	return string(raw)
}

func stringifyIndent(data any) string {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprint(data)
	}
	return string(raw)
}
