package service

import (
	"context"
	"fmt"

	"chromir-be/internal/config"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/pkg/events"

	"github.com/google/uuid"
)

// ILedgerService owns organization token balances. Balances only move through
// Debit and Credit, and every move writes a transaction row in the same
// database transaction.
type ILedgerService interface {
	Cost(action entity.TokenAction) int
	Balance(ctx context.Context, orgId uuid.UUID) (int, error)
	HasEnoughTokens(ctx context.Context, orgId uuid.UUID, action entity.TokenAction) (bool, error)
	Debit(ctx context.Context, orgId uuid.UUID, amount int, action entity.TokenAction, referenceId *uuid.UUID) error
	// DebitWith runs on a unit of work the caller has begun and will commit.
	DebitWith(ctx context.Context, uow unitofwork.UnitOfWork, orgId uuid.UUID, amount int, action entity.TokenAction, referenceId *uuid.UUID) error
	Credit(ctx context.Context, orgId uuid.UUID, amount int, referenceId *uuid.UUID) error
	CreditWith(ctx context.Context, uow unitofwork.UnitOfWork, orgId uuid.UUID, amount int, referenceId *uuid.UUID) error
	ListTransactions(ctx context.Context, orgId uuid.UUID, limit, offset int) ([]*entity.TokenTransaction, error)
}

type ledgerService struct {
	uowFactory unitofwork.RepositoryFactory
	costs      config.LedgerConfig
	events     *events.Publisher
}

func NewLedgerService(uowFactory unitofwork.RepositoryFactory, costs config.LedgerConfig, publisher *events.Publisher) ILedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		costs:      costs,
		events:     publisher,
	}
}

func (s *ledgerService) Cost(action entity.TokenAction) int {
	switch action {
	case entity.TokenActionModelCreation:
		return s.costs.ModelCreationCost
	case entity.TokenActionImageGeneration:
		return s.costs.ImageGenerationCost
	default:
		return 0
	}
}

func (s *ledgerService) Balance(ctx context.Context, orgId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	org, err := uow.OrganizationRepository().FindOne(ctx, specification.ByID{ID: orgId})
	if err != nil {
		return 0, apperror.Persistence("read balance", err)
	}
	if org == nil {
		return 0, apperror.NotFound("organization")
	}
	return org.Tokens, nil
}

func (s *ledgerService) HasEnoughTokens(ctx context.Context, orgId uuid.UUID, action entity.TokenAction) (bool, error) {
	balance, err := s.Balance(ctx, orgId)
	if err != nil {
		return false, err
	}
	return balance >= s.Cost(action), nil
}

func (s *ledgerService) Debit(ctx context.Context, orgId uuid.UUID, amount int, action entity.TokenAction, referenceId *uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Persistence("begin debit", err)
	}
	defer uow.Rollback()

	if err := s.DebitWith(ctx, uow, orgId, amount, action, referenceId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return apperror.Persistence("commit debit", err)
	}

	s.events.PublishTokensDebited(ctx, orgId, amount, string(action), referenceId)
	return nil
}

func (s *ledgerService) DebitWith(ctx context.Context, uow unitofwork.UnitOfWork, orgId uuid.UUID, amount int, action entity.TokenAction, referenceId *uuid.UUID) error {
	if amount <= 0 {
		return apperror.InvalidInput("debit amount must be positive, got %d", amount)
	}
	if !action.Valid() || action == entity.TokenActionTokenPurchase {
		return apperror.InvalidInput("unknown debit action %q", action)
	}

	orgs := uow.OrganizationRepository()
	changed, err := orgs.DecrementTokens(ctx, orgId, amount)
	if err != nil {
		return apperror.Persistence("decrement tokens", err)
	}
	if !changed {
		org, err := orgs.FindOne(ctx, specification.ByID{ID: orgId})
		if err != nil {
			return apperror.Persistence("read balance", err)
		}
		if org == nil {
			return apperror.NotFound("organization")
		}
		return fmt.Errorf("%w: balance %d, required %d", apperror.ErrInsufficientFunds, org.Tokens, amount)
	}

	tx := &entity.TokenTransaction{
		OrganizationId: orgId,
		Amount:         -amount,
		ActionType:     action,
		ReferenceId:    referenceId,
	}
	if err := uow.TokenTransactionRepository().Create(ctx, tx); err != nil {
		return apperror.Persistence("record debit", err)
	}
	return nil
}

func (s *ledgerService) Credit(ctx context.Context, orgId uuid.UUID, amount int, referenceId *uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Persistence("begin credit", err)
	}
	defer uow.Rollback()

	if err := s.CreditWith(ctx, uow, orgId, amount, referenceId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return apperror.Persistence("commit credit", err)
	}

	s.events.PublishTokensCredited(ctx, orgId, amount, referenceId)
	return nil
}

func (s *ledgerService) CreditWith(ctx context.Context, uow unitofwork.UnitOfWork, orgId uuid.UUID, amount int, referenceId *uuid.UUID) error {
	if amount <= 0 {
		return apperror.InvalidInput("credit amount must be positive, got %d", amount)
	}

	changed, err := uow.OrganizationRepository().IncrementTokens(ctx, orgId, amount)
	if err != nil {
		return apperror.Persistence("increment tokens", err)
	}
	if !changed {
		return apperror.NotFound("organization")
	}

	tx := &entity.TokenTransaction{
		OrganizationId: orgId,
		Amount:         amount,
		ActionType:     entity.TokenActionTokenPurchase,
		ReferenceId:    referenceId,
	}
	if err := uow.TokenTransactionRepository().Create(ctx, tx); err != nil {
		return apperror.Persistence("record credit", err)
	}
	return nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, orgId uuid.UUID, limit, offset int) ([]*entity.TokenTransaction, error) {
	limit, offset = normalizePage(limit, offset)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	txs, err := uow.TokenTransactionRepository().FindAll(ctx,
		specification.ByOrganizationID{OrganizationID: orgId},
		specification.NewestFirst{},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, apperror.Persistence("list transactions", err)
	}
	return txs, nil
}
