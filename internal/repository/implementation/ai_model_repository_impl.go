package implementation

import (
	"context"
	"errors"

	"chromir-be/internal/entity"
	"chromir-be/internal/mapper"
	"chromir-be/internal/model"
	"chromir-be/internal/repository/contract"
	"chromir-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AIModelRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AIModelMapper
}

func NewAIModelRepository(db *gorm.DB) contract.AIModelRepository {
	return &AIModelRepositoryImpl{
		db:     db,
		mapper: mapper.NewAIModelMapper(),
	}
}

func (r *AIModelRepositoryImpl) Create(ctx context.Context, m *entity.AIModel) error {
	row := r.mapper.ToModel(m)
	if row.Id == uuid.Nil {
		row.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	*m = *r.mapper.ToEntity(row)
	return nil
}

func (r *AIModelRepositoryImpl) Update(ctx context.Context, m *entity.AIModel) error {
	row := r.mapper.ToModel(m)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	*m = *r.mapper.ToEntity(row)
	return nil
}

func (r *AIModelRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AIModel{}).Error
}

func (r *AIModelRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AIModel, error) {
	var row model.AIModel
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&row), nil
}

func (r *AIModelRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AIModel, error) {
	var rows []*model.AIModel
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows), nil
}
