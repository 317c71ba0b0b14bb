package dto

import (
	"time"

	"github.com/google/uuid"
)

type GenerateImageRequest struct {
	ModelId uuid.UUID `json:"model_id" validate:"required"`
	Prompt  string    `json:"prompt"`
}

type GenerateImageResponse struct {
	Id       *uuid.UUID `json:"id,omitempty"`
	ModelId  uuid.UUID  `json:"model_id"`
	ImageURL string     `json:"image_url"`
	Prompt   string     `json:"prompt"`
	Seed     string     `json:"seed"`
	// Saved is false when the image was produced but its record could not be written.
	Saved bool `json:"saved"`
}

type ListImagesQuery struct {
	ModelId string `query:"model_id" validate:"omitempty,uuid"`
	Limit   int    `query:"limit"`
	Offset  int    `query:"offset"`
}

type ImageResponse struct {
	Id        uuid.UUID `json:"id"`
	ModelId   uuid.UUID `json:"model_id"`
	ImageURL  string    `json:"image_url"`
	Prompt    string    `json:"prompt"`
	Seed      string    `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
}
