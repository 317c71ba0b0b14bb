package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AIModel struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name           string         `gorm:"type:varchar(255);not null"`
	Description    string         `gorm:"type:text"`
	ZipURL         string         `gorm:"column:zip_url;type:text"`
	Status         string         `gorm:"type:varchar(20);not null;default:'training';index"`
	Type           string         `gorm:"type:varchar(20);not null"`
	FalModelId     string         `gorm:"type:varchar(255)"`
	LoraFile       string         `gorm:"type:text"`
	TrainingLogs   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (AIModel) TableName() string {
	return "models"
}
