package chat

import (
	"sync"

	"docquery-ai/internal/models"
)

// Store owns the canonical transcript plus the streaming and document-scope
// flags. Mutations are total functions over state: malformed call sequences
// (updating the last message when it is a user turn, or when the transcript
// is empty) silently no-op instead of failing, so a bad event sequence can
// never crash the UI.
//
// Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	messages        []models.ChatMessage
	isStreaming     bool
	activeDocuments []string
}

func NewStore() *Store {
	return &Store{}
}

// AddMessage appends to the end of the transcript; insertion order is
// conversation order and is never rewritten.
func (s *Store) AddMessage(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// UpdateLastMessage replaces (not appends) the content of the last message.
// The caller is responsible for accumulating the full running text; the
// store does not concatenate. No-op unless the last message is an assistant
// turn.
func (s *Store) UpdateLastMessage(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.lastAssistant(); msg != nil {
		msg.Content = content
	}
}

// AddToolCall appends one entry to the last assistant message's tool calls.
func (s *Store) AddToolCall(tc models.ToolCallInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.lastAssistant(); msg != nil {
		msg.ToolCalls = append(msg.ToolCalls, tc)
	}
}

// SetCitations attaches the citation batch to the last assistant message.
// A later batch overwrites an earlier one; batches are never merged.
func (s *Store) SetCitations(citations []models.Citation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.lastAssistant(); msg != nil {
		msg.Citations = citations
	}
}

// SetConfidence attaches the confidence score and level to the last
// assistant message. Last write wins.
func (s *Store) SetConfidence(score float64, level models.ConfidenceLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.lastAssistant(); msg != nil {
		msg.Confidence = &score
		msg.ConfidenceLevel = level
	}
}

// SetLastError records a stream failure on the last assistant message.
func (s *Store) SetLastError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.lastAssistant(); msg != nil {
		msg.Error = message
	}
}

func (s *Store) SetStreaming(streaming bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isStreaming = streaming
}

func (s *Store) SetActiveDocuments(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeDocuments = append([]string(nil), ids...)
}

func (s *Store) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Messages returns a copy of the transcript in conversation order.
func (s *Store) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) IsStreaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isStreaming
}

// ActiveDocuments returns the current retrieval scope; empty means search
// all documents.
func (s *Store) ActiveDocuments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.activeDocuments...)
}

// lastAssistant returns the open assistant turn, or nil when the transcript
// is empty or ends with a user message. Callers must hold mu.
func (s *Store) lastAssistant() *models.ChatMessage {
	if len(s.messages) == 0 {
		return nil
	}
	last := &s.messages[len(s.messages)-1]
	if last.Role != models.RoleAssistant {
		return nil
	}
	return last
}
