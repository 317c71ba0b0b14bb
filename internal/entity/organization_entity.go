package entity

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	Id              uuid.UUID
	Name            string
	BrandGuidelines *string
	Tokens          int
	OwnerId         uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
