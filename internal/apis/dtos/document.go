package dtos

import "docquery-ai/internal/models"

type DocumentListResponse struct {
	Documents []models.Document `json:"documents"`
	Total     int               `json:"total"`
}
