package workflow

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"

	"github.com/leofalp/aigraph/core/executor"
	"github.com/leofalp/aigraph/core/state"
	"github.com/leofalp/aigraph/internal/utils"
)

const (
	messagesField = "messages"
	outputField   = "output"
)

// extractInput selects the executor input from the state.
func extractInput(st state.State, m *InputMapping) (any, error) {
	if m == nil || m.Source == "" {
		return map[string]any(st.Clone()), nil
	}

	data, ok := st[m.Source]
	if !ok {
		data = []any{}
	}
	list, isList := toList(data)

	switch m.Format {
	case FormatJoin:
		if !isList {
			return utils.Stringify(data), nil
		}
		sep := "\n"
		if m.Separator != nil {
			sep = *m.Separator
		}
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = utils.Stringify(item)
		}
		return strings.Join(parts, sep), nil

	case FormatChatHistory:
		if !isList {
			return utils.Stringify(data), nil
		}
		lines := make([]string, len(list))
		for i, item := range list {
			lines[i] = chatLine(item)
		}
		return strings.Join(lines, "\n"), nil

	case FormatLast:
		if !isList || len(list) == 0 {
			return utils.Stringify(data), nil
		}
		last := list[len(list)-1]
		if msg, ok := last.(map[string]any); ok {
			if content, has := msg["content"]; has {
				return content, nil
			}
		}
		return utils.Stringify(last), nil

	case FormatMarkdown:
		var html string
		if isList {
			parts := make([]string, len(list))
			for i, item := range list {
				parts[i] = utils.Stringify(item)
			}
			html = strings.Join(parts, "\n")
		} else {
			html = utils.Stringify(data)
		}
		md, err := htmltomarkdown.ConvertString(html)
		if err != nil {
			return nil, fmt.Errorf("convert %q to markdown: %w", m.Source, err)
		}
		return md, nil

	default:
		return data, nil
	}
}

func chatLine(item any) string {
	msg, ok := item.(map[string]any)
	if !ok {
		return "user: " + utils.Stringify(item)
	}
	role := "user"
	if r, ok := msg["role"].(string); ok && r != "" {
		role = r
	}
	content := ""
	if c, ok := msg["content"]; ok && c != nil {
		content = utils.Stringify(c)
	}
	return role + ": " + content
}

// mapOutput turns an executor result into state writes. When the state
// declares a messages field, LLM results are also recorded there as an
// assistant message unless the node already wrote messages.
func mapOutput(result any, m *OutputMapping, kind string, hasMessages bool) map[string]any {
	var out map[string]any
	switch {
	case m == nil || m.Target == "":
		if obj, ok := result.(map[string]any); ok {
			out = make(map[string]any, len(obj))
			for k, v := range obj {
				out[k] = v
			}
		} else {
			out = map[string]any{outputField: result}
		}
	case m.Mode == ModeAppend:
		out = map[string]any{m.Target: []any{result}}
	case m.Mode == ModeMessage:
		return map[string]any{
			messagesField: []any{assistantMessage(result)},
			m.Target:      result,
		}
	default:
		out = map[string]any{m.Target: result}
	}

	if hasMessages && kind == executor.KindLLM {
		if _, wrote := out[messagesField]; !wrote {
			out[messagesField] = []any{assistantMessage(result)}
		}
	}
	return out
}

func assistantMessage(result any) map[string]any {
	return map[string]any{
		"id":      uuid.New().String(),
		"role":    "assistant",
		"content": utils.Stringify(result),
	}
}

func toList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
