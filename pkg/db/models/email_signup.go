package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmailSignup struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Source    string    `gorm:"column:source"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *EmailSignup) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
