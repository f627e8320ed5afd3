package dtos

// StreamQueryRequest is the body of POST /api/v1/query/stream. DocumentIDs
// is omitted from the wire entirely when the scope is empty, never sent as
// an empty array.
type StreamQueryRequest struct {
	Query       string   `json:"query" binding:"required"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}
