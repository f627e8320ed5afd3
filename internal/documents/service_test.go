package documents

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docquery-ai/internal/apiclient"
	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return NewService(client, zap.NewNop())
}

func TestUploadDecodesDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(content))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Document{
			ID:     "doc-1",
			Name:   header.Filename,
			Size:   header.Size,
			Status: "processed",
		})
	})
	service := newTestService(t, mux)

	doc, err := service.Upload(context.Background(), "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, int64(5), doc.Size)
}

func TestUploadRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	service := newTestService(t, mux)

	_, err := service.Upload(context.Background(), "notes.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestListReturnsDocuments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(dtos.DocumentListResponse{
			Documents: []models.Document{
				{ID: "a", Name: "first.pdf"},
				{ID: "b", Name: "second.pdf"},
			},
			Total: 2,
		})
	})
	service := newTestService(t, mux)

	docs, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first.pdf", docs[0].Name)
}

func TestDeleteAcceptsNoContent(t *testing.T) {
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/documents/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = strings.TrimPrefix(r.URL.Path, "/api/v1/documents/")
		w.WriteHeader(http.StatusNoContent)
	})
	service := newTestService(t, mux)

	require.NoError(t, service.Delete(context.Background(), "doc-1"))
	assert.Equal(t, "doc-1", deleted)
}

func TestDeleteMissingDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/documents/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	service := newTestService(t, mux)

	err := service.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
