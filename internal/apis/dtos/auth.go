package dtos

import "docquery-ai/internal/models"

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type SessionResponse struct {
	User            *models.User `json:"user,omitempty"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsAnonymous     bool         `json:"is_anonymous"`
}
