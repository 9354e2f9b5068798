package models

// Editable content type tags.
const (
	EditableContentText = "text"
	EditableContentJSON = "json"
)

// EditableContentModel is one editable-content record addressed by a
// (context, context_id) pair. The composite unique index enforces the
// one-live-record-per-address invariant at the storage layer, so a
// lookup-then-insert race surfaces as a duplicate-key error instead of a
// second record. Version is the optimistic-concurrency token: strictly
// increasing, +1 per accepted content change.
type EditableContentModel struct {
	Base
	EditableKey string `json:"editable_key" gorm:"uniqueIndex;size:36;not null"`
	Context     string `json:"context"      gorm:"not null;size:191;index:idx_editable_ctx,unique"`
	ContextID   string `json:"context_id"   gorm:"not null;size:191;index:idx_editable_ctx,unique"`
	Content     string `json:"content"      gorm:"type:longtext"`
	ContentType string `json:"content_type" gorm:"default:text"`
	Version     int    `json:"version"      gorm:"not null;default:1"`
}

func (EditableContentModel) TableName() string { return "editable_contents" }
