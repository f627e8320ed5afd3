package devserver

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
	"docquery-ai/internal/utils"
)

func (s *Server) handleDocumentUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   utils.ToStringPtr("File is required"),
		})
		return
	}

	doc := models.Document{
		ID:         uuid.NewString(),
		Name:       file.Filename,
		Size:       file.Size,
		Status:     "processed",
		UploadedAt: time.Now().UTC(),
	}

	s.docMu.Lock()
	s.documents[doc.ID] = doc
	s.docMu.Unlock()

	s.logger.Info("document uploaded",
		zap.String("id", doc.ID),
		zap.String("name", doc.Name),
		zap.Int64("size", doc.Size))
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleDocumentList(c *gin.Context) {
	s.docMu.Lock()
	docs := make([]models.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	s.docMu.Unlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.Before(docs[j].UploadedAt)
	})

	c.JSON(http.StatusOK, dtos.DocumentListResponse{
		Documents: docs,
		Total:     len(docs),
	})
}

func (s *Server) handleDocumentDelete(c *gin.Context) {
	id := c.Param("id")

	s.docMu.Lock()
	_, ok := s.documents[id]
	if ok {
		delete(s.documents, id)
	}
	s.docMu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, dtos.Response{
			Success: false,
			Error:   utils.ToStringPtr("Document not found"),
		})
		return
	}

	c.JSON(http.StatusOK, dtos.Response{Success: true})
}
