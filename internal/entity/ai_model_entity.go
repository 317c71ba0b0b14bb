package entity

import (
	"time"

	"github.com/google/uuid"
)

type ModelStatus string
type ModelType string

const (
	ModelStatusTraining  ModelStatus = "training"
	ModelStatusCompleted ModelStatus = "completed"
	ModelStatusFailed    ModelStatus = "failed"

	ModelTypeCategory   ModelType = "category"
	ModelTypeCollection ModelType = "collection"
	ModelTypeItem       ModelType = "item"
)

func (t ModelType) Valid() bool {
	switch t {
	case ModelTypeCategory, ModelTypeCollection, ModelTypeItem:
		return true
	}
	return false
}

func (s ModelStatus) Valid() bool {
	switch s {
	case ModelStatusTraining, ModelStatusCompleted, ModelStatusFailed:
		return true
	}
	return false
}

type AIModel struct {
	Id             uuid.UUID
	OrganizationId uuid.UUID
	Name           string
	Description    string
	ZipURL         string
	Status         ModelStatus
	Type           ModelType
	FalModelId     string
	LoraFile       string
	TrainingLogs   []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasArtifact reports whether the model can be used for inference.
func (m *AIModel) HasArtifact() bool {
	return m != nil && m.LoraFile != ""
}
