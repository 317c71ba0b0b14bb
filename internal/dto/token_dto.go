package dto

import (
	"time"

	"github.com/google/uuid"
)

type BalanceResponse struct {
	OrganizationId uuid.UUID `json:"organization_id"`
	Tokens         int       `json:"tokens"`
}

type TokenTransactionResponse struct {
	Id          uuid.UUID  `json:"id"`
	Amount      int        `json:"amount"`
	ActionType  string     `json:"action_type"`
	ReferenceId *uuid.UUID `json:"reference_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PageQuery struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}
