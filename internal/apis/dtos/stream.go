package dtos

import "docquery-ai/internal/models"

// SSE event kinds emitted by the query stream endpoint.
const (
	EventToken      = "token"
	EventCitations  = "citations"
	EventConfidence = "confidence"
	EventDone       = "done"
	EventError      = "error"
)

// StreamEventPayload is the JSON carried in an SSE data field. The event
// kind normally arrives as the SSE "event:" line; Type duplicates it inside
// the payload for backends that only set one of the two.
type StreamEventPayload struct {
	Type string `json:"type,omitempty"`

	// token event: some backend versions use "token", others "content"
	Token   string `json:"token,omitempty"`
	Content string `json:"content,omitempty"`

	// citations event
	Citations []models.Citation `json:"citations,omitempty"`

	// confidence event
	Score float64                `json:"score,omitempty"`
	Level models.ConfidenceLevel `json:"level,omitempty"`

	// error event
	Message string `json:"message,omitempty"`
}
