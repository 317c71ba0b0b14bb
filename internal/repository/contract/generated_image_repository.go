package contract

import (
	"context"

	"chromir-be/internal/entity"
	"chromir-be/internal/repository/specification"

	"github.com/google/uuid"
)

type GeneratedImageRepository interface {
	Create(ctx context.Context, img *entity.GeneratedImage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GeneratedImage, error)
	DeleteByModelId(ctx context.Context, modelId uuid.UUID) error
}
