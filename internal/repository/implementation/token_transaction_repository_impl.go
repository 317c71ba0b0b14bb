package implementation

import (
	"context"
	"time"

	"chromir-be/internal/entity"
	"chromir-be/internal/mapper"
	"chromir-be/internal/model"
	"chromir-be/internal/repository/contract"
	"chromir-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TokenTransactionMapper
}

func NewTokenTransactionRepository(db *gorm.DB) contract.TokenTransactionRepository {
	return &TokenTransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTokenTransactionMapper(),
	}
}

func (r *TokenTransactionRepositoryImpl) Create(ctx context.Context, tx *entity.TokenTransaction) error {
	m := r.mapper.ToModel(tx)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*tx = *r.mapper.ToEntity(m)
	return nil
}

func (r *TokenTransactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TokenTransaction, error) {
	var rows []*model.TokenTransaction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows), nil
}

func (r *TokenTransactionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.TokenTransaction{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
