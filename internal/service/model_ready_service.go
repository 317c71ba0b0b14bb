package service

import (
	"context"
	"fmt"

	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/pkg/mailer"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/pkg/events"

	"github.com/google/uuid"
)

// IModelReadyService mails the organization owner when a model finishes training.
type IModelReadyService interface {
	HandleModelCreated(ctx context.Context, event events.Event) error
}

type modelReadyService struct {
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewModelReadyService(uowFactory unitofwork.RepositoryFactory, emailService mailer.IEmailService, log logger.ILogger) IModelReadyService {
	return &modelReadyService{uowFactory: uowFactory, emailService: emailService, logger: log}
}

func payloadUUID(payload map[string]interface{}, key string) (uuid.UUID, error) {
	raw, _ := payload[key].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("event field %s: %w", key, err)
	}
	return id, nil
}

func (s *modelReadyService) HandleModelCreated(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	orgId, err := payloadUUID(payload, "organization_id")
	if err != nil {
		// Redelivery cannot fix a malformed payload.
		s.logger.Warn("MODEL_READY", "Dropping malformed event", map[string]interface{}{"error": err.Error()})
		return nil
	}
	modelId, err := payloadUUID(payload, "model_id")
	if err != nil {
		s.logger.Warn("MODEL_READY", "Dropping malformed event", map[string]interface{}{"error": err.Error()})
		return nil
	}
	name, _ := payload["name"].(string)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	org, err := uow.OrganizationRepository().FindOne(ctx, specification.ByID{ID: orgId})
	if err != nil {
		return apperror.Persistence("find organization", err)
	}
	if org == nil {
		s.logger.Warn("MODEL_READY", "Organization no longer exists", map[string]interface{}{"organization_id": orgId})
		return nil
	}

	owner, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: org.OwnerId})
	if err != nil {
		return apperror.Persistence("find owner profile", err)
	}
	if owner == nil {
		s.logger.Warn("MODEL_READY", "Organization owner has no profile", map[string]interface{}{"organization_id": orgId})
		return nil
	}

	if err := s.emailService.SendModelReady(owner.Email, name, modelId.String()); err != nil {
		return fmt.Errorf("send model ready mail: %w", err)
	}
	s.logger.Info("MODEL_READY", "Model ready mail sent", map[string]interface{}{
		"organization_id": orgId,
		"model_id":        modelId,
	})
	return nil
}
