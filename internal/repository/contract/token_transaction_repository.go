package contract

import (
	"context"

	"chromir-be/internal/entity"
	"chromir-be/internal/repository/specification"
)

// TokenTransactionRepository is append-only.
type TokenTransactionRepository interface {
	Create(ctx context.Context, tx *entity.TokenTransaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TokenTransaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
