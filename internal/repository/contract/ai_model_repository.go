package contract

import (
	"context"

	"chromir-be/internal/entity"
	"chromir-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AIModelRepository interface {
	Create(ctx context.Context, m *entity.AIModel) error
	Update(ctx context.Context, m *entity.AIModel) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AIModel, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AIModel, error)
}
