package dto

import (
	"time"

	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8"`
	OrganizationName string `json:"organization_name" validate:"required,max=255"`
	FullName         string `json:"full_name" validate:"omitempty,max=255"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Profile     ProfileResponse `json:"profile"`
}

type OrganizationResponse struct {
	Id              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	BrandGuidelines *string   `json:"brand_guidelines,omitempty"`
	Tokens          int       `json:"tokens"`
	CreatedAt       time.Time `json:"created_at"`
}

type ProfileResponse struct {
	Id           uuid.UUID            `json:"id"`
	Email        string               `json:"email"`
	FullName     *string              `json:"full_name,omitempty"`
	AvatarURL    *string              `json:"avatar_url,omitempty"`
	Organization OrganizationResponse `json:"organization"`
	CreatedAt    time.Time            `json:"created_at"`
}

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=255"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}
