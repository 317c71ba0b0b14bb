package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateModelRequest trains from an archive the caller already uploaded.
type CreateModelRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required,oneof=category collection item"`
	ArchiveURL  string `json:"zip_url" validate:"required"`
}

// UploadedImage is one raw training image from a multipart upload.
type UploadedImage struct {
	FileName    string
	ContentType string
	Data        []byte
}

type CreateModelFromImagesRequest struct {
	Name        string `form:"name" validate:"required,max=255"`
	Description string `form:"description"`
	Type        string `form:"type" validate:"required,oneof=category collection item"`
	Images      []UploadedImage
}

type UpdateModelRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type ListModelsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=training completed failed"`
}

type ModelResponse struct {
	Id           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ZipURL       string    `json:"zip_url"`
	Status       string    `json:"status"`
	Type         string    `json:"type"`
	FalModelId   string    `json:"fal_model_id"`
	LoraFile     string    `json:"lora_file"`
	TrainingLogs []string  `json:"training_logs"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
