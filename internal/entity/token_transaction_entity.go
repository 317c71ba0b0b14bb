package entity

import (
	"time"

	"github.com/google/uuid"
)

type TokenAction string

const (
	TokenActionModelCreation   TokenAction = "model_creation"
	TokenActionImageGeneration TokenAction = "image_generation"
	TokenActionTokenPurchase   TokenAction = "token_purchase"
)

func (a TokenAction) Valid() bool {
	switch a {
	case TokenActionModelCreation, TokenActionImageGeneration, TokenActionTokenPurchase:
		return true
	}
	return false
}

// TokenTransaction is an immutable ledger row. Amount is negative for debits.
type TokenTransaction struct {
	Id             uuid.UUID
	OrganizationId uuid.UUID
	Amount         int
	ActionType     TokenAction
	ReferenceId    *uuid.UUID
	CreatedAt      time.Time
}
