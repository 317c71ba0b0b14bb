package entity

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the auth identity of an organization member. Id doubles as the user id.
type Profile struct {
	Id             uuid.UUID
	Email          string
	PasswordHash   string
	FullName       *string
	AvatarURL      *string
	OrganizationId uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
