package service

import (
	"context"
	"strings"

	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/pkg/session"

	"github.com/google/uuid"
)

type IModelService interface {
	List(ctx context.Context, sess session.Session, status string) ([]*dto.ModelResponse, error)
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*dto.ModelResponse, error)
	Update(ctx context.Context, sess session.Session, id uuid.UUID, req *dto.UpdateModelRequest) (*dto.ModelResponse, error)
	Delete(ctx context.Context, sess session.Session, id uuid.UUID) error
}

type modelService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewModelService(uowFactory unitofwork.RepositoryFactory) IModelService {
	return &modelService{uowFactory: uowFactory}
}

func toModelResponse(m *entity.AIModel) *dto.ModelResponse {
	logs := m.TrainingLogs
	if logs == nil {
		logs = []string{}
	}
	return &dto.ModelResponse{
		Id:           m.Id,
		Name:         m.Name,
		Description:  m.Description,
		ZipURL:       m.ZipURL,
		Status:       string(m.Status),
		Type:         string(m.Type),
		FalModelId:   m.FalModelId,
		LoraFile:     m.LoraFile,
		TrainingLogs: logs,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// findOwnedModel returns NotFound for models of other organizations.
func findOwnedModel(ctx context.Context, uow unitofwork.UnitOfWork, orgId, id uuid.UUID) (*entity.AIModel, error) {
	m, err := uow.AIModelRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByOrganizationID{OrganizationID: orgId},
	)
	if err != nil {
		return nil, apperror.Persistence("find model", err)
	}
	if m == nil {
		return nil, apperror.NotFound("model")
	}
	return m, nil
}

func (s *modelService) List(ctx context.Context, sess session.Session, status string) ([]*dto.ModelResponse, error) {
	specs := []specification.Specification{
		specification.ByOrganizationID{OrganizationID: sess.OrganizationId},
		specification.NewestFirst{},
	}
	if status != "" {
		if !entity.ModelStatus(status).Valid() {
			return nil, apperror.InvalidInput("unknown model status %q", status)
		}
		specs = append(specs, specification.ByStatus{Status: status})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	models, err := uow.AIModelRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, apperror.Persistence("list models", err)
	}

	res := make([]*dto.ModelResponse, 0, len(models))
	for _, m := range models {
		res = append(res, toModelResponse(m))
	}
	return res, nil
}

func (s *modelService) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*dto.ModelResponse, error) {
	m, err := findOwnedModel(ctx, s.uowFactory.NewUnitOfWork(ctx), sess.OrganizationId, id)
	if err != nil {
		return nil, err
	}
	return toModelResponse(m), nil
}

func (s *modelService) Update(ctx context.Context, sess session.Session, id uuid.UUID, req *dto.UpdateModelRequest) (*dto.ModelResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	m, err := findOwnedModel(ctx, uow, sess.OrganizationId, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.InvalidInput("model name is required")
		}
		m.Name = name
	}
	if req.Description != nil {
		m.Description = *req.Description
	}

	if err := uow.AIModelRepository().Update(ctx, m); err != nil {
		return nil, apperror.Persistence("update model", err)
	}
	return toModelResponse(m), nil
}

func (s *modelService) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Persistence("begin delete model", err)
	}
	defer uow.Rollback()

	if _, err := findOwnedModel(ctx, uow, sess.OrganizationId, id); err != nil {
		return err
	}
	if err := uow.GeneratedImageRepository().DeleteByModelId(ctx, id); err != nil {
		return apperror.Persistence("delete model images", err)
	}
	if err := uow.AIModelRepository().Delete(ctx, id); err != nil {
		return apperror.Persistence("delete model", err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.Persistence("commit delete model", err)
	}
	return nil
}
