package editable

import (
	"time"

	"github.com/cryptonic-cms/core/internal/models"
)

// Save outcome tags, reported verbatim in the API response.
const (
	StatusSuccess  = "success"
	StatusConflict = "conflict"
	StatusNoChange = "no_change"
	StatusNoAction = "no_action"
)

// SaveDTO is the request body for saving editable content. IsDefaultContent
// marks a seeding write: it may create the first version but never clobbers
// an existing edit.
type SaveDTO struct {
	Context          string `json:"context"    binding:"required"`
	ContextID        string `json:"context_id" binding:"required"`
	Content          string `json:"content"`
	ContentType      string `json:"content_type"`
	Version          *int   `json:"version"`
	IsDefaultContent bool   `json:"is_default_content"`
}

// SaveResult reports what the save did. Entry is the stored row after the
// operation; on conflict it carries the server's current version and content.
type SaveResult struct {
	Status string
	Entry  *models.EditableContentModel
}

type entryResponse struct {
	EditableKey string    `json:"editable_key"`
	Context     string    `json:"context"`
	ContextID   string    `json:"context_id"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	Version     int       `json:"version"`
	Modified    time.Time `json:"modified"`
}

// getResponse wraps a lookup result. The embedded entry fields are flattened
// into the body when present; a miss carries only exists=false.
type getResponse struct {
	Exists bool `json:"exists"`
	*entryResponse
}

func toEntryResponse(e *models.EditableContentModel) entryResponse {
	return entryResponse{
		EditableKey: e.EditableKey,
		Context:     e.Context,
		ContextID:   e.ContextID,
		Content:     e.Content,
		ContentType: e.ContentType,
		Version:     e.Version,
		Modified:    e.UpdatedAt,
	}
}
