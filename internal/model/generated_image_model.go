package model

import (
	"time"

	"github.com/google/uuid"
)

type GeneratedImage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ModelId   uuid.UUID `gorm:"type:uuid;not null;index"`
	ImageURL  string    `gorm:"type:text;not null"`
	Prompt    string    `gorm:"type:text"`
	Seed      string    `gorm:"type:varchar(64)"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (GeneratedImage) TableName() string {
	return "images"
}
