package abapforge

import "strings"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message represents a single message in a conversation.
// Order within a conversation is significant: the system message comes
// first, followed by chronological turns.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Response represents a complete response from a chat provider.
type Response struct {
	Content  string   `json:"content"`
	Usage    Usage    `json:"usage"`
	Model    string   `json:"model"`
	Provider Provider `json:"provider"`
	// CostCents is filled in by the orchestrator from its rate table.
	CostCents int `json:"costCents"`
}

// TokensUsed returns the total number of tokens consumed by the call.
func (r *Response) TokensUsed() int {
	if r == nil {
		return 0
	}
	return r.Usage.Total()
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ValidateMessages checks the constraints every provider shares: the
// conversation must be non-empty and contain at least one non-system
// message with content. A failure is an InvalidRequest ProviderError for p.
func ValidateMessages(p Provider, messages []Message) error {
	if len(messages) == 0 {
		return NewProviderError(p, KindInvalidRequest, "no messages", 0, ErrEmptyInput)
	}
	for _, m := range messages {
		if !m.Role.Valid() {
			return NewProviderError(p, KindInvalidRequest, "unknown message role "+string(m.Role), 0, nil)
		}
	}
	for _, m := range messages {
		if m.Role != RoleSystem && strings.TrimSpace(m.Content) != "" {
			return nil
		}
	}
	return NewProviderError(p, KindInvalidRequest, "conversation has no user or assistant message", 0, ErrEmptyInput)
}

// PromptChars returns the total content length of the conversation.
// Providers use it to pick a model tier when the model is "auto".
func PromptChars(messages []Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}
