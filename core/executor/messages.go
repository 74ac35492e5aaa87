package executor

import (
	"context"

	"github.com/leofalp/aigraph/internal/utils"
	"github.com/leofalp/aigraph/providers/ai"
	"github.com/leofalp/aigraph/providers/observability"
)

// normalizeMessages turns an executor input into a conversation.
func normalizeMessages(ctx context.Context, obs observability.Provider, input any) []ai.Message {
	switch v := input.(type) {
	case nil:
		return nil
	case string:
		return []ai.Message{{Role: ai.RoleUser, Content: v}}
	case []ai.Message:
		return v
	case map[string]any:
		return normalizeMessages(ctx, obs, v["messages"])
	case []map[string]any:
		items := make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
		return fromList(ctx, obs, items)
	case []any:
		return fromList(ctx, obs, v)
	default:
		return []ai.Message{{Role: ai.RoleUser, Content: utils.Stringify(v)}}
	}
}

func fromList(ctx context.Context, obs observability.Provider, items []any) []ai.Message {
	out := make([]ai.Message, 0, len(items))
	for i, item := range items {
		if msg, ok := toMessage(item); ok {
			out = append(out, msg)
			continue
		}
		if obs != nil {
			obs.Warn(ctx, "skipping invalid message",
				observability.Int("index", i),
				observability.String("entry", utils.TruncateStringDefault(utils.Stringify(item))),
			)
		}
	}
	return out
}

func toMessage(item any) (ai.Message, bool) {
	switch m := item.(type) {
	case ai.Message:
		return m, m.Role.IsValid()
	case string:
		return ai.Message{Role: ai.RoleUser, Content: m}, true
	case map[string]any:
		role, _ := m["role"].(string)
		content, hasContent := m["content"]
		if !ai.MessageRole(role).IsValid() || !hasContent || content == nil {
			return ai.Message{}, false
		}
		msg := ai.Message{Role: ai.MessageRole(role), Content: utils.Stringify(content)}
		if name, ok := m["name"].(string); ok {
			msg.Name = name
		}
		return msg, true
	}
	return ai.Message{}, false
}
