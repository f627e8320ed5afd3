package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
)

// streamRecorder captures every callback invocation in order. The mutex
// only matters for tests that poll while the stream is still running.
type streamRecorder struct {
	mu         sync.Mutex
	tokens     []string
	citations  [][]models.Citation
	confidence []float64
	levels     []models.ConfidenceLevel
	errors     []string
	doneCount  int
	doneLast   bool
	calls      int
}

func (r *streamRecorder) callbacks() Callbacks {
	mark := func() { r.calls++; r.doneLast = false }
	return Callbacks{
		OnToken: func(text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			mark()
			r.tokens = append(r.tokens, text)
		},
		OnCitations: func(citations []models.Citation) {
			r.mu.Lock()
			defer r.mu.Unlock()
			mark()
			r.citations = append(r.citations, citations)
		},
		OnConfidence: func(score float64, level models.ConfidenceLevel) {
			r.mu.Lock()
			defer r.mu.Unlock()
			mark()
			r.confidence = append(r.confidence, score)
			r.levels = append(r.levels, level)
		},
		OnError: func(message string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			mark()
			r.errors = append(r.errors, message)
		},
		OnDone: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.calls++
			r.doneCount++
			r.doneLast = true
		},
	}
}

func (r *streamRecorder) tokenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

func sseHandler(t *testing.T, frames []string, status int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)

		var body dtos.StreamQueryRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.NotEmpty(t, body.Query)

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
	}
}

func newTestStreamer(url string) *Streamer {
	return NewStreamer(url, &http.Client{}, zap.NewNop())
}

func TestQueryDispatchesFullStream(t *testing.T) {
	frames := []string{
		"event: token\ndata: {\"token\":\"Hello\"}\n\n",
		"event: token\ndata: {\"token\":\" world\"}\n\n",
		"event: citations\ndata: {\"citations\":[{\"document_name\":\"guide.pdf\",\"text\":\"greeting\",\"score\":0.9}]}\n\n",
		"event: confidence\ndata: {\"score\":0.82,\"level\":\"high\"}\n\n",
		"event: done\ndata: {}\n\n",
	}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "say hello", rec.callbacks(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", " world"}, rec.tokens)
	require.Len(t, rec.citations, 1)
	assert.Equal(t, "guide.pdf", rec.citations[0][0].DocumentName)
	assert.Equal(t, []float64{0.82}, rec.confidence)
	assert.Equal(t, []models.ConfidenceLevel{models.ConfidenceHigh}, rec.levels)
	assert.Empty(t, rec.errors)
	assert.Equal(t, 1, rec.doneCount)
	assert.True(t, rec.doneLast, "done must be the final callback")
}

func TestQueryTypeFieldFallback(t *testing.T) {
	// No event: lines at all; the kind rides in the payload.
	frames := []string{
		"data: {\"type\":\"token\",\"content\":\"Hi\"}\n\n",
		"data: {\"type\":\"done\"}\n\n",
	}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi"}, rec.tokens)
	assert.Equal(t, 1, rec.doneCount)
}

func TestQueryPlainTextAndSentinel(t *testing.T) {
	frames := []string{
		"data: raw text chunk\n\n",
		"data: [DONE]\n\n",
	}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.NoError(t, err)

	// Non-JSON data is a literal token; the [DONE] sentinel never reaches
	// any callback.
	assert.Equal(t, []string{"raw text chunk"}, rec.tokens)
	assert.Empty(t, rec.errors)
	assert.Equal(t, 1, rec.doneCount)
}

func TestQueryErrorEventStopsStream(t *testing.T) {
	frames := []string{
		"event: token\ndata: {\"token\":\"partial\"}\n\n",
		"event: error\ndata: {\"message\":\"retrieval backend down\"}\n\n",
		"event: token\ndata: {\"token\":\"never seen\"}\n\n",
	}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.Error(t, err)

	assert.Equal(t, []string{"partial"}, rec.tokens)
	assert.Equal(t, []string{"retrieval backend down"}, rec.errors)
	assert.Equal(t, 1, rec.doneCount)
	assert.True(t, rec.doneLast)
}

func TestQueryErrorEventDefaultMessage(t *testing.T) {
	frames := []string{"event: error\ndata: {}\n\n"}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.Error(t, err)
	assert.Equal(t, []string{"Stream error"}, rec.errors)
}

func TestQueryNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, nil, http.StatusUnauthorized))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.Error(t, err)

	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "401")
	assert.Equal(t, 1, rec.doneCount)
	assert.True(t, rec.doneLast)
}

func TestQueryEOFWithoutDoneEvent(t *testing.T) {
	frames := []string{"event: token\ndata: {\"token\":\"tail\"}\n\n"}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tail"}, rec.tokens)
	assert.Equal(t, 1, rec.doneCount)
}

func TestQueryCancellationIsSilent(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "event: token\ndata: {\"token\":\"first\"}\n\n")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &streamRecorder{}

	done := make(chan error, 1)
	go func() {
		done <- newTestStreamer(srv.URL).Query(ctx, "q", rec.callbacks(), nil)
	}()

	// Let the first token arrive, then abort.
	require.Eventually(t, func() bool { return rec.tokenCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is not a failure")
	case <-time.After(2 * time.Second):
		t.Fatal("query did not return after cancellation")
	}
	assert.Empty(t, rec.errors)
	assert.Equal(t, 1, rec.doneCount)
}

func TestQuerySendsDocumentScope(t *testing.T) {
	var got dtos.StreamQueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
	}))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "scoped", rec.callbacks(), []string{"doc-1", "doc-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-2"}, got.DocumentIDs)
}

func TestQueryDataLessRecordDispatchesOnEventLine(t *testing.T) {
	// A record with an event line but no data field is not a literal
	// token; it is dispatched on its kind like any other record.
	frames := []string{
		"event: token\ndata: {\"token\":\"only\"}\n\n",
		"event: done\n\n",
		"event: token\ndata: {\"token\":\"never seen\"}\n\n",
	}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, rec.tokens)
	assert.Empty(t, rec.errors)
	assert.Equal(t, 1, rec.doneCount)
	assert.True(t, rec.doneLast)
}

func TestQueryOmitsEmptyDocumentScope(t *testing.T) {
	// The scope key must be absent from the wire, not present as an empty
	// array, so the body is captured raw instead of decoded.
	var rawBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		rawBody = string(body)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
	}))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "unscoped", rec.callbacks(), []string{})
	require.NoError(t, err)

	assert.NotContains(t, rawBody, "document_ids")
	assert.Contains(t, rawBody, "unscoped")
}

func TestQueryUnknownEventIgnored(t *testing.T) {
	frames := []string{
		"event: heartbeat\ndata: {\"type\":\"heartbeat\"}\n\n",
		"event: done\ndata: {}\n\n",
	}
	srv := httptest.NewServer(sseHandler(t, frames, http.StatusOK))
	defer srv.Close()

	rec := &streamRecorder{}
	err := newTestStreamer(srv.URL).Query(context.Background(), "q", rec.callbacks(), nil)
	require.NoError(t, err)
	assert.Empty(t, rec.tokens)
	assert.Empty(t, rec.errors)
	assert.Equal(t, 1, rec.doneCount)
}
