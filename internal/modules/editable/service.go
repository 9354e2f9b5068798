package editable

import (
	"errors"
	"strings"

	"github.com/cryptonic-cms/core/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

var errInvalidAddress = errors.New("context and context_id are required")

// Get looks up the stored content for one (context, context_id) address.
// Returns (nil, nil) when nothing has been saved there yet.
func (s *Service) Get(context, contextID string) (*models.EditableContentModel, error) {
	context, contextID = normalizeAddress(context, contextID)
	if context == "" || contextID == "" {
		return nil, errInvalidAddress
	}

	var e models.EditableContentModel
	if err := s.db.Where("context = ? AND context_id = ?", context, contextID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Save applies one edit with optimistic concurrency. The version counter
// increments only when stored bytes actually change; a stale version in the
// request surfaces as a conflict carrying the server's current row.
func (s *Service) Save(dto SaveDTO) (*SaveResult, error) {
	context, contextID := normalizeAddress(dto.Context, dto.ContextID)
	if context == "" || contextID == "" {
		return nil, errInvalidAddress
	}
	contentType := strings.TrimSpace(dto.ContentType)
	if contentType == "" {
		contentType = models.EditableContentText
	}

	entry, err := s.Get(context, contextID)
	if err != nil {
		return nil, err
	}

	if entry != nil && dto.IsDefaultContent {
		// seeding writes never clobber an existing edit
		return &SaveResult{Status: StatusNoAction, Entry: entry}, nil
	}

	if entry == nil {
		if isDefaultContent(dto.Content) {
			// nothing stored and nothing worth storing
			return &SaveResult{Status: StatusNoAction}, nil
		}

		e := models.EditableContentModel{
			EditableKey: uuid.NewString(),
			Context:     context,
			ContextID:   contextID,
			Content:     dto.Content,
			ContentType: contentType,
			Version:     1,
		}
		if createErr := s.db.Create(&e).Error; createErr != nil {
			// two first writers raced on the unique (context, context_id)
			// index; fall through to the update path against the winner
			entry, err = s.Get(context, contextID)
			if err != nil {
				return nil, err
			}
			if entry == nil {
				return nil, createErr
			}
		} else {
			return &SaveResult{Status: StatusSuccess, Entry: &e}, nil
		}
	}

	if dto.Version != nil && *dto.Version != entry.Version {
		return &SaveResult{Status: StatusConflict, Entry: entry}, nil
	}
	if entry.Content == dto.Content && entry.ContentType == contentType {
		return &SaveResult{Status: StatusNoChange, Entry: entry}, nil
	}

	res := s.db.Model(&models.EditableContentModel{}).
		Where("id = ? AND version = ?", entry.ID, entry.Version).
		Updates(map[string]interface{}{
			"content":      dto.Content,
			"content_type": contentType,
			"version":      gorm.Expr("version + ?", 1),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// someone else bumped the version between our read and write
		current, err := s.Get(context, contextID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, gorm.ErrRecordNotFound
		}
		return &SaveResult{Status: StatusConflict, Entry: current}, nil
	}

	entry.Content = dto.Content
	entry.ContentType = contentType
	entry.Version++
	return &SaveResult{Status: StatusSuccess, Entry: entry}, nil
}

func normalizeAddress(context, contextID string) (string, string) {
	return strings.TrimSpace(context), strings.TrimSpace(contextID)
}

// isDefaultContent reports whether the submitted content is the untouched
// editor placeholder, which never needs a stored row.
func isDefaultContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed == "" || trimmed == "<p></p>" || trimmed == "<p><br></p>"
}
