package models

// AttachmentModel is a managed media asset ingested from a remote URL.
// SourceURL tags the asset with its origin so a second record referencing the
// same remote image reuses the existing asset instead of re-downloading.
type AttachmentModel struct {
	Base
	FileName    string `json:"file_name" gorm:"not null"`
	MIME        string `json:"mime"`
	Size        int64  `json:"size"`
	URL         string `json:"url"        gorm:"not null"`
	SourceURL   string `json:"source_url" gorm:"index"`
	OwnerType   string `json:"owner_type" gorm:"index"` // drink | cocktail
	OwnerID     uint   `json:"owner_id"   gorm:"index"`
	Description string `json:"description"`
}

func (AttachmentModel) TableName() string { return "attachments" }
