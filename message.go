package toolflow

import "fmt"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a Conversation.
//
// ToolCalls is only set on assistant messages. ToolCallID and ToolName are only
// set on tool messages and tie the message to the call it answers.
type Message struct {
	Role       Role
	Content    Content
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// UserMessage returns a user message carrying text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: Text(text)}
}

// AssistantMessage returns an assistant message; calls may be empty.
func AssistantMessage(content Content, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage returns the tool message that answers res.CallID.
func ToolMessage(res ToolResult) Message {
	return Message{
		Role:       RoleTool,
		Content:    Text(res.Content),
		ToolCallID: res.CallID,
		ToolName:   res.ToolName,
	}
}

// Text returns the message content as plain text.
func (m Message) Text() string {
	return NormalizeContent(m.Content)
}

// Conversation is the ordered message history of one run.
type Conversation []Message

// Clone returns a copy that shares no message slice with c.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	for i, m := range c {
		if m.ToolCalls != nil {
			m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
		out[i] = m
	}
	return out
}

// CheckCorrelation verifies that every tool message answers a well-formed call of the
// most recent assistant message, that no call is answered twice, and that every
// well-formed call is answered before the next assistant message or the end of c.
// A call id repeated within one assistant message must be answered as many times as it appears.
func (c Conversation) CheckCorrelation() error {
	// outstanding answers per call id of the current assistant message
	pending := map[string]int{}
	flush := func(at int) error {
		for id, n := range pending {
			if n > 0 {
				return fmt.Errorf("message %d: tool call %s has no tool message", at, id)
			}
		}
		clear(pending)
		return nil
	}
	for i, m := range c {
		switch m.Role {
		case RoleAssistant:
			if err := flush(i); err != nil {
				return err
			}
			for _, call := range m.ToolCalls {
				if call.wellFormed() {
					pending[call.ID]++
				}
			}
		case RoleTool:
			n, known := pending[m.ToolCallID]
			if !known {
				return fmt.Errorf("message %d: tool message references unknown call %q", i, m.ToolCallID)
			}
			if n == 0 {
				return fmt.Errorf("message %d: tool call %s answered twice", i, m.ToolCallID)
			}
			pending[m.ToolCallID] = n - 1
		}
	}
	return flush(len(c))
}
