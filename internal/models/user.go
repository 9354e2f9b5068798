package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is an editor account. Only authenticated editors may trigger
// imports or write editable content.
type UserModel struct {
	Base
	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"        gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

// UserSession is a revocable login session bound into the JWT.
type UserSession struct {
	ID        string     `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	IP        string     `json:"ip"`
	UA        string     `json:"ua"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt time.Time  `json:"modified"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (UserSession) TableName() string { return "user_sessions" }

func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
