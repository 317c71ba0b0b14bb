package model

import (
	"time"

	"github.com/google/uuid"
)

type TokenTransaction struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID  `gorm:"type:uuid;not null;index:idx_token_transactions_org_created,priority:1"`
	Amount         int        `gorm:"not null"`
	ActionType     string     `gorm:"type:varchar(50);not null;index"`
	ReferenceId    *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_token_transactions_reference"`
	CreatedAt      time.Time  `gorm:"not null;index:idx_token_transactions_org_created,priority:2,sort:desc"`
}

func (TokenTransaction) TableName() string {
	return "token_transactions"
}
