package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
)

// handleQueryStream answers every query with a canned response so the
// client-side streaming path can be exercised without a real retrieval
// backend. The wire shape matches the production stream: token events,
// one citations event, one confidence event, then done.
func (s *Server) handleQueryStream(c *gin.Context) {
	var req dtos.StreamQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	scoped, unknown := s.scopedDocuments(req.DocumentIDs)
	if unknown {
		s.writeStreamEvent(c, dtos.EventError, dtos.StreamEventPayload{
			Type:    dtos.EventError,
			Message: "Unknown document in scope",
		})
		s.writeStreamEvent(c, dtos.EventDone, dtos.StreamEventPayload{Type: dtos.EventDone})
		return
	}

	answer := cannedAnswer(req.Query, scoped)
	ctx := c.Request.Context()
	for _, token := range tokenize(answer) {
		if ctx.Err() != nil {
			s.logger.Debug("client disconnected mid-stream")
			return
		}
		if !s.writeStreamEvent(c, dtos.EventToken, dtos.StreamEventPayload{
			Type:  dtos.EventToken,
			Token: token,
		}) {
			return
		}
		if s.cfg.TokenDelay > 0 {
			time.Sleep(s.cfg.TokenDelay)
		}
	}

	citations := make([]models.Citation, 0, len(scoped))
	for i, doc := range scoped {
		if i == 3 {
			break
		}
		citations = append(citations, models.Citation{
			DocumentName: doc.Name,
			Text:         fmt.Sprintf("Excerpt from %s relevant to the question.", doc.Name),
			Score:        0.91 - float64(i)*0.07,
		})
	}
	s.writeStreamEvent(c, dtos.EventCitations, dtos.StreamEventPayload{
		Type:      dtos.EventCitations,
		Citations: citations,
	})

	score, level := 0.4, models.ConfidenceLow
	if len(scoped) > 0 {
		score, level = 0.85, models.ConfidenceHigh
	}
	s.writeStreamEvent(c, dtos.EventConfidence, dtos.StreamEventPayload{
		Type:  dtos.EventConfidence,
		Score: score,
		Level: level,
	})

	s.writeStreamEvent(c, dtos.EventDone, dtos.StreamEventPayload{Type: dtos.EventDone})
}

func (s *Server) writeStreamEvent(c *gin.Context, event string, payload dtos.StreamEventPayload) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal stream event", zap.Error(err))
		return false
	}
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
		s.logger.Debug("failed to write stream event", zap.Error(err))
		return false
	}
	c.Writer.Flush()
	return true
}

// scopedDocuments resolves the requested scope against uploaded documents.
// An empty scope means all documents. unknown is true when an id in the
// scope does not exist.
func (s *Server) scopedDocuments(ids []string) (docs []models.Document, unknown bool) {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	if len(ids) == 0 {
		for _, doc := range s.documents {
			docs = append(docs, doc)
		}
		return docs, false
	}
	for _, id := range ids {
		doc, ok := s.documents[id]
		if !ok {
			return nil, true
		}
		docs = append(docs, doc)
	}
	return docs, false
}

func cannedAnswer(query string, scoped []models.Document) string {
	if len(scoped) == 0 {
		return fmt.Sprintf("I could not find any uploaded documents to answer %q. Upload a document and ask again.", query)
	}
	names := make([]string, 0, len(scoped))
	for _, doc := range scoped {
		names = append(names, doc.Name)
	}
	return fmt.Sprintf("Based on %d document(s) (%s), here is a summary relevant to %q. The indexed material covers this topic directly and the passages cited below support the answer.",
		len(scoped), strings.Join(names, ", "), query)
}

// tokenize splits an answer into word chunks, each carrying its trailing
// space so the client can concatenate tokens verbatim.
func tokenize(answer string) []string {
	words := strings.Split(answer, " ")
	tokens := make([]string, 0, len(words))
	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}
		tokens = append(tokens, word)
	}
	return tokens
}
