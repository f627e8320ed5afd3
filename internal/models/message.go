package models

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ChatMessage is one turn in the visible transcript. Role is fixed at
// creation; Content of an in-flight assistant turn grows until the stream
// finishes and is never mutated afterwards.
type ChatMessage struct {
	Role            MessageRole     `json:"role"`
	Content         string          `json:"content"`
	ToolCalls       []ToolCallInfo  `json:"tool_calls,omitempty"` // append-only, assistant turns only
	Citations       []Citation      `json:"citations,omitempty"`  // attached as one atomic batch
	Confidence      *float64        `json:"confidence,omitempty"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level,omitempty"`
	Error           string          `json:"error,omitempty"` // stream error message, if the turn failed
}

// ToolCallInfo names a retrieval/generation tool the backend reported using
// while answering. The display label/icon lookup lives in the UI layer.
type ToolCallInfo struct {
	Name string `json:"name"`
}

// Citation is one source reference supporting an assistant answer.
type Citation struct {
	DocumentName string  `json:"document_name"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"` // relevance, 0-1
}

func NewUserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// NewAssistantPlaceholder creates the empty assistant turn pushed the moment
// a query is submitted, so the transcript shows a pending answer immediately.
func NewAssistantPlaceholder() ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: "",
	}
}
