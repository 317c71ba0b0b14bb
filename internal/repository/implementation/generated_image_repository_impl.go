package implementation

import (
	"context"

	"chromir-be/internal/entity"
	"chromir-be/internal/mapper"
	"chromir-be/internal/model"
	"chromir-be/internal/repository/contract"
	"chromir-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GeneratedImageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GeneratedImageMapper
}

func NewGeneratedImageRepository(db *gorm.DB) contract.GeneratedImageRepository {
	return &GeneratedImageRepositoryImpl{
		db:     db,
		mapper: mapper.NewGeneratedImageMapper(),
	}
}

func (r *GeneratedImageRepositoryImpl) Create(ctx context.Context, img *entity.GeneratedImage) error {
	m := r.mapper.ToModel(img)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*img = *r.mapper.ToEntity(m)
	return nil
}

func (r *GeneratedImageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GeneratedImage, error) {
	var rows []*model.GeneratedImage
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.GeneratedImage{}), specs...)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows), nil
}

func (r *GeneratedImageRepositoryImpl) DeleteByModelId(ctx context.Context, modelId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("model_id = ?", modelId).Delete(&model.GeneratedImage{}).Error
}
