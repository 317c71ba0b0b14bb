package contract

import (
	"context"

	"chromir-be/internal/entity"
	"chromir-be/internal/repository/specification"

	"github.com/google/uuid"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *entity.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Organization, error)
	// DecrementTokens subtracts amount only when the balance covers it.
	// It reports whether a row was changed.
	DecrementTokens(ctx context.Context, id uuid.UUID, amount int) (bool, error)
	IncrementTokens(ctx context.Context, id uuid.UUID, amount int) (bool, error)
}
