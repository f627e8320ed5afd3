package chat

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"docquery-ai/internal/models"
	"docquery-ai/internal/stream"
)

// ErrStreamBusy is returned when Ask is called while a previous answer is
// still streaming. Submissions never overlap: the transcript has at most one
// open assistant turn.
var ErrStreamBusy = errors.New("chat: a query is already streaming")

// Streamer is the slice of the stream consumer the session needs.
type Streamer interface {
	Query(ctx context.Context, question string, cb stream.Callbacks, documentIDs []string) error
}

// Session wires the stream consumer into the store: it opens each turn,
// accumulates tokens into the running answer and replays the full text into
// the store on every update.
type Session struct {
	store    *Store
	streamer Streamer
	logger   *zap.Logger

	onToken func(text string)
}

func NewSession(store *Store, streamer Streamer, logger *zap.Logger) *Session {
	return &Session{
		store:    store,
		streamer: streamer,
		logger:   logger,
	}
}

func (s *Session) Store() *Store { return s.store }

// OnToken registers a tap invoked for every streamed token in addition to
// the store update. The terminal client uses it to echo the answer as it
// arrives.
func (s *Session) OnToken(fn func(text string)) { s.onToken = fn }

// Ask submits one question and blocks until the answer finishes streaming,
// the stream fails, or ctx is cancelled. The user turn and an empty
// assistant placeholder are pushed immediately so the transcript shows a
// pending answer before the first token arrives.
func (s *Session) Ask(ctx context.Context, question string) error {
	if s.store.IsStreaming() {
		return ErrStreamBusy
	}

	s.store.AddMessage(models.NewUserMessage(question))
	s.store.AddMessage(models.NewAssistantPlaceholder())
	s.store.SetStreaming(true)

	// The store replaces content wholesale, so the running text is
	// accumulated here and written back in full on every token.
	var answer strings.Builder

	cb := stream.Callbacks{
		OnToken: func(text string) {
			answer.WriteString(text)
			s.store.UpdateLastMessage(answer.String())
			if s.onToken != nil {
				s.onToken(text)
			}
		},
		OnCitations: func(citations []models.Citation) {
			s.store.SetCitations(citations)
		},
		OnConfidence: func(score float64, level models.ConfidenceLevel) {
			s.store.SetConfidence(score, level)
		},
		OnDone: func() {
			s.store.SetStreaming(false)
		},
		OnError: func(message string) {
			s.logger.Warn("query stream failed", zap.String("message", message))
			s.store.SetLastError(message)
		},
	}

	return s.streamer.Query(ctx, question, cb, s.store.ActiveDocuments())
}
