package entity

import (
	"time"

	"github.com/google/uuid"
)

type GeneratedImage struct {
	Id        uuid.UUID
	ModelId   uuid.UUID
	ImageURL  string
	Prompt    string
	Seed      string
	CreatedAt time.Time
}
