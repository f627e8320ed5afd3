package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
)

const (
	queryStreamPath = "/api/v1/query/stream"

	// doneSentinel is the plain-text terminator some backend versions emit
	// instead of a structured done event. It is silently ignored.
	doneSentinel = "[DONE]"

	defaultErrorMessage = "Stream error"
)

// Callbacks receives the decoded query stream. Invocations are strictly
// ordered (one read loop, no fan-out). OnDone fires exactly once, after
// every other callback, on every exit path including errors and
// cancellation.
type Callbacks struct {
	OnToken      func(text string)
	OnCitations  func(citations []models.Citation)
	OnConfidence func(score float64, level models.ConfidenceLevel)
	OnDone       func()
	OnError      func(message string)
}

// Streamer consumes the POST-initiated SSE query endpoint. It shares the
// api client's cookie jar so the stream is credentialed, but deliberately
// does not go through the 401 refresh runner: a stream cannot be replayed
// mid-flight, so auth failures surface through OnError instead.
type Streamer struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewStreamer(baseURL string, httpClient *http.Client, logger *zap.Logger) *Streamer {
	return &Streamer{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Query streams one natural-language question and dispatches each event to
// the matching callback. documentIDs restricts retrieval when non-empty and
// is omitted from the request body entirely when empty. Cancelling ctx
// stops the stream without an OnError (cancellation is not a failure).
// The returned error mirrors what OnError already reported; it is nil on
// success and on cancellation.
func (s *Streamer) Query(ctx context.Context, question string, cb Callbacks, documentIDs []string) error {
	// onDone always fires last, whatever path exits the function, so UI
	// streaming-indicator state can never get stuck.
	defer func() {
		if cb.OnDone != nil {
			cb.OnDone()
		}
	}()

	fail := func(msg string) error {
		if cb.OnError != nil {
			cb.OnError(msg)
		}
		return errors.New(msg)
	}

	reqBody := dtos.StreamQueryRequest{Query: question}
	if len(documentIDs) > 0 {
		reqBody.DocumentIDs = documentIDs
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fail(fmt.Sprintf("failed to encode query: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+queryStreamPath, bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Sprintf("failed to build stream request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fail(fmt.Sprintf("stream request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fail(fmt.Sprintf("stream request failed with status %d", resp.StatusCode))
	}

	scanner := newSSEScanner(resp.Body)
	for {
		ev, err := scanner.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			// Cancellation surfaces as a read error on the aborted body;
			// confirm against the context before treating it as a failure.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fail(fmt.Sprintf("stream read failed: %v", err))
		}

		stop, errMsg := s.dispatch(ev, cb)
		if errMsg != "" {
			return fail(errMsg)
		}
		if stop {
			return nil
		}
	}
}

// dispatch interprets one SSE record and invokes at most one callback.
// It reports whether the stream is finished and, for error events, the
// message to surface.
func (s *Streamer) dispatch(ev sseEvent, cb Callbacks) (stop bool, errMsg string) {
	var payload dtos.StreamEventPayload
	if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
		// Tolerate plain-text frames: anything non-JSON is a literal token,
		// except the [DONE] terminator. A data-less record is not a token;
		// it still dispatches on its event line below.
		if ev.Data != "" {
			if ev.Data == doneSentinel {
				return false, ""
			}
			if cb.OnToken != nil {
				cb.OnToken(ev.Data)
			}
			return false, ""
		}
		if ev.Event == "" {
			return false, ""
		}
	}

	// The backend signals the event kind either on the SSE event line or as
	// a type field inside the payload, depending on version. The event line
	// wins when both are present. Compatibility shim, not the contract.
	kind := ev.Event
	if kind == "" || kind == "message" {
		kind = payload.Type
	}

	switch kind {
	case dtos.EventToken:
		text := payload.Token
		if text == "" {
			text = payload.Content
		}
		if cb.OnToken != nil {
			cb.OnToken(text)
		}
	case dtos.EventCitations:
		citations := payload.Citations
		if citations == nil {
			citations = []models.Citation{}
		}
		if cb.OnCitations != nil {
			cb.OnCitations(citations)
		}
	case dtos.EventConfidence:
		level := payload.Level
		if level == "" {
			level = models.ConfidenceLow
		}
		if cb.OnConfidence != nil {
			cb.OnConfidence(payload.Score, level)
		}
	case dtos.EventDone:
		return true, ""
	case dtos.EventError:
		msg := payload.Message
		if msg == "" {
			msg = defaultErrorMessage
		}
		return true, msg
	default:
		s.logger.Debug("ignoring unknown stream event", zap.String("event", kind))
	}
	return false, ""
}
