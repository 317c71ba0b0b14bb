package mapper

import (
	"chromir-be/internal/entity"
	"chromir-be/internal/model"
)

type TokenTransactionMapper struct{}

func NewTokenTransactionMapper() *TokenTransactionMapper {
	return &TokenTransactionMapper{}
}

func (m *TokenTransactionMapper) ToEntity(t *model.TokenTransaction) *entity.TokenTransaction {
	if t == nil {
		return nil
	}
	return &entity.TokenTransaction{
		Id:             t.Id,
		OrganizationId: t.OrganizationId,
		Amount:         t.Amount,
		ActionType:     entity.TokenAction(t.ActionType),
		ReferenceId:    t.ReferenceId,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *TokenTransactionMapper) ToModel(t *entity.TokenTransaction) *model.TokenTransaction {
	if t == nil {
		return nil
	}
	return &model.TokenTransaction{
		Id:             t.Id,
		OrganizationId: t.OrganizationId,
		Amount:         t.Amount,
		ActionType:     string(t.ActionType),
		ReferenceId:    t.ReferenceId,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *TokenTransactionMapper) ToEntities(rows []*model.TokenTransaction) []*entity.TokenTransaction {
	entities := make([]*entity.TokenTransaction, len(rows))
	for i, t := range rows {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
