package langchain

import (
	"encoding/json"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/skosovsky/toolflow"
)

// ErrEmptyResponse is returned when the provider answers without any choice.
var ErrEmptyResponse = errors.New("langchain: empty response (no choices)")

const toolTypeFunction = "function"

// ToMessages converts a conversation to langchaingo messages. Assistant tool calls
// without an id or a name are left out, since they are never answered.
func ToMessages(conv toolflow.Conversation) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(conv))
	for _, m := range conv {
		out = append(out, ToMessage(m))
	}
	return out
}

// ToMessage converts a single message.
func ToMessage(m toolflow.Message) llms.MessageContent {
	switch m.Role {
	case toolflow.RoleAssistant:
		msg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if text := m.Text(); text != "" {
			msg.Parts = append(msg.Parts, llms.TextPart(text))
		}
		for _, call := range m.ToolCalls {
			if call.ID == "" || call.ToolName == "" {
				continue
			}
			args := string(call.Args)
			if args == "" {
				args = "{}"
			}
			msg.Parts = append(msg.Parts, llms.ToolCall{
				ID:   call.ID,
				Type: toolTypeFunction,
				FunctionCall: &llms.FunctionCall{
					Name:      call.ToolName,
					Arguments: args,
				},
			})
		}
		return msg
	case toolflow.RoleTool:
		return llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.ToolName,
					Content:    m.Text(),
				},
			},
		}
	default:
		return llms.TextParts(llms.ChatMessageTypeHuman, m.Text())
	}
}

// ToTools converts tool definitions to langchaingo function tools, keeping order.
func ToTools(tools []toolflow.Tool) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: toolTypeFunction,
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}

// FromContentResponse converts a provider response. Text of every choice is kept:
// a single choice becomes Text, several become Fragments. Tool calls are gathered
// across all choices in order. A call without a function gets an empty name and
// is later skipped as malformed.
func FromContentResponse(resp *llms.ContentResponse) (toolflow.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return toolflow.Response{}, ErrEmptyResponse
	}
	var (
		out   toolflow.Response
		texts toolflow.Fragments
	)
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		if choice.Content != "" {
			texts = append(texts, toolflow.Text(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, fromToolCall(tc))
		}
	}
	switch len(texts) {
	case 0:
		out.Content = toolflow.Text("")
	case 1:
		out.Content = texts[0]
	default:
		out.Content = texts
	}
	return out, nil
}

func fromToolCall(tc llms.ToolCall) toolflow.ToolCall {
	call := toolflow.ToolCall{ID: tc.ID}
	if tc.FunctionCall != nil {
		call.ToolName = tc.FunctionCall.Name
		if tc.FunctionCall.Arguments != "" {
			call.Args = json.RawMessage(tc.FunctionCall.Arguments)
		}
	}
	return call
}
