package models

import (
	"time"

	"gorm.io/gorm"
)

// Base is the base model for all entities. IDs are storage-assigned
// auto-increment integers; they are the reference currency for relations
// and attachment slots.
type Base struct {
	ID        uint           `json:"id"       gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `json:"created"`
	UpdatedAt time.Time      `json:"modified"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`
}
