package models

import "time"

type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"` // bytes
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}
