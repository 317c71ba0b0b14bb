package unitofwork

import (
	"context"

	"chromir-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrganizationRepository() contract.OrganizationRepository
	ProfileRepository() contract.ProfileRepository
	TokenTransactionRepository() contract.TokenTransactionRepository
	AIModelRepository() contract.AIModelRepository
	GeneratedImageRepository() contract.GeneratedImageRepository
}
