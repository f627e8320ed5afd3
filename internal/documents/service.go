package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"docquery-ai/internal/apiclient"
	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
)

const documentsPath = "/api/v1/documents"

// Service is the non-streaming sibling of the chat pipeline: document
// upload, listing and deletion over the authenticated api client.
type Service struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewService(client *apiclient.Client, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

func (s *Service) Upload(ctx context.Context, filename string, content io.Reader) (*models.Document, error) {
	resp, err := s.client.Upload(ctx, documentsPath+"/upload", "file", filename, content, nil)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("upload rejected with status %d", resp.StatusCode)
	}

	var doc models.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	s.logger.Info("document uploaded", zap.String("id", doc.ID), zap.String("name", doc.Name))
	return &doc, nil
}

func (s *Service) List(ctx context.Context) ([]models.Document, error) {
	resp, err := s.client.DoJSON(ctx, http.MethodGet, documentsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list rejected with status %d", resp.StatusCode)
	}

	var list dtos.DocumentListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}
	return list.Documents, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	resp, err := s.client.DoJSON(ctx, http.MethodDelete, documentsPath+"/"+id, nil)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete rejected with status %d", resp.StatusCode)
	}
	return nil
}
