package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"chromir-be/internal/config"
	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/pkg/archive"
	"chromir-be/pkg/events"
	"chromir-be/pkg/session"
	"chromir-be/pkg/storage"

	"github.com/google/uuid"
)

const flowModelCreation = "model_creation"

// IModelFlowService trains a LoRA model and records it once training succeeds.
// The caller's tokens are debited in the same transaction that inserts the model.
type IModelFlowService interface {
	CreateFromArchive(ctx context.Context, sess session.Session, req *dto.CreateModelRequest) (*dto.ModelResponse, error)
	CreateFromImages(ctx context.Context, sess session.Session, req *dto.CreateModelFromImagesRequest) (*dto.ModelResponse, error)
}

type modelFlowService struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     ILedgerService
	jobs       IJobAdapter
	store      storage.ObjectStore
	storageCfg config.StorageConfig
	progress   IProgressService
	events     *events.Publisher
	logger     logger.ILogger
	now        func() time.Time
}

func NewModelFlowService(
	uowFactory unitofwork.RepositoryFactory,
	ledger ILedgerService,
	jobs IJobAdapter,
	store storage.ObjectStore,
	storageCfg config.StorageConfig,
	progress IProgressService,
	publisher *events.Publisher,
	log logger.ILogger,
) IModelFlowService {
	return &modelFlowService{
		uowFactory: uowFactory,
		ledger:     ledger,
		jobs:       jobs,
		store:      store,
		storageCfg: storageCfg,
		progress:   progress,
		events:     publisher,
		logger:     log,
		now:        time.Now,
	}
}

// requireTokens fails with ErrInsufficientFunds when the balance does not cover action.
func requireTokens(ctx context.Context, ledger ILedgerService, orgId uuid.UUID, action entity.TokenAction) error {
	ok, err := ledger.HasEnoughTokens(ctx, orgId, action)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d tokens required for %s", apperror.ErrInsufficientFunds, ledger.Cost(action), action)
	}
	return nil
}

func validateModelFields(name, modelType string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.InvalidInput("model name is required")
	}
	if !entity.ModelType(modelType).Valid() {
		return apperror.InvalidInput("unknown model type %q", modelType)
	}
	return nil
}

func (s *modelFlowService) CreateFromArchive(ctx context.Context, sess session.Session, req *dto.CreateModelRequest) (*dto.ModelResponse, error) {
	ctx = context.WithoutCancel(ctx)
	progress := newFlowProgress(s.progress, sess.OrganizationId, flowModelCreation)

	if err := validateModelFields(req.Name, req.Type); err != nil {
		return nil, err
	}
	if err := ValidateArchiveURL(req.ArchiveURL); err != nil {
		return nil, err
	}
	if err := requireTokens(ctx, s.ledger, sess.OrganizationId, entity.TokenActionModelCreation); err != nil {
		return nil, err
	}

	m, err := s.trainAndRecord(ctx, sess, progress, req.Name, req.Description, entity.ModelType(req.Type), req.ArchiveURL)
	if err != nil {
		progress.step(ctx, dto.StageFailed, "Failed to create model, please try again")
		return nil, err
	}
	return toModelResponse(m), nil
}

func (s *modelFlowService) CreateFromImages(ctx context.Context, sess session.Session, req *dto.CreateModelFromImagesRequest) (*dto.ModelResponse, error) {
	ctx = context.WithoutCancel(ctx)
	progress := newFlowProgress(s.progress, sess.OrganizationId, flowModelCreation)

	if err := validateModelFields(req.Name, req.Type); err != nil {
		return nil, err
	}
	if len(req.Images) == 0 {
		return nil, apperror.InvalidInput("at least one image is required")
	}
	if err := requireTokens(ctx, s.ledger, sess.OrganizationId, entity.TokenActionModelCreation); err != nil {
		return nil, err
	}

	m, err := s.createFromImages(ctx, sess, progress, req)
	if err != nil {
		progress.step(ctx, dto.StageFailed, "Failed to create model, please try again")
		return nil, err
	}
	return toModelResponse(m), nil
}

func (s *modelFlowService) createFromImages(ctx context.Context, sess session.Session, progress *flowProgress, req *dto.CreateModelFromImagesRequest) (*entity.AIModel, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		generated, err := s.describe(ctx, progress, req.Images)
		if err != nil {
			return nil, err
		}
		description = generated
	}

	progress.step(ctx, dto.StageArchiving, "Creating training archive...")
	images := make([]archive.Image, len(req.Images))
	for i, img := range req.Images {
		images[i] = archive.Image{Name: img.FileName, Data: img.Data}
	}
	zipped, err := archive.ZipImages(images)
	if err != nil {
		return nil, apperror.InvalidInput("build archive: %v", err)
	}
	archiveKey := path.Join(s.storageCfg.ArchivePrefix, archive.ArchiveName(s.now()))
	archiveURL, err := s.upload(ctx, archiveKey, zipped, "application/zip")
	if err != nil {
		return nil, err
	}

	return s.trainAndRecord(ctx, sess, progress, req.Name, description, entity.ModelType(req.Type), archiveURL)
}

// describe uploads the images under the transient prefix, captions them and
// removes the transient objects again. They are only needed by the captioner.
func (s *modelFlowService) describe(ctx context.Context, progress *flowProgress, images []dto.UploadedImage) (string, error) {
	progress.step(ctx, dto.StageUploading, "Uploading images...")
	keys := make([]string, 0, len(images))
	defer func() { s.removeTransient(ctx, keys) }()

	imageURLs := make([]string, 0, len(images))
	for i, img := range images {
		key := storage.DatedKey(s.storageCfg.TransientPrefix, filepath.Ext(img.FileName), s.now())
		keys = append(keys, key)
		url, err := s.upload(ctx, key, img.Data, img.ContentType)
		if err != nil {
			return "", fmt.Errorf("image %d: %w", i+1, err)
		}
		imageURLs = append(imageURLs, url)
	}

	progress.step(ctx, dto.StageDescribing, "Generating image descriptions...")
	return s.jobs.DescribeImages(ctx, imageURLs)
}

// removeTransient is best effort.
func (s *modelFlowService) removeTransient(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("MODEL_FLOW", "Failed to remove transient image", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
}

func (s *modelFlowService) upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", apperror.Persistence("upload "+key, err)
	}
	url, err := s.store.PresignGet(ctx, key, s.storageCfg.PresignExpiry)
	if err != nil {
		return "", apperror.Persistence("presign "+key, err)
	}
	return url, nil
}

func (s *modelFlowService) trainAndRecord(ctx context.Context, sess session.Session, progress *flowProgress, name, description string, modelType entity.ModelType, archiveURL string) (*entity.AIModel, error) {
	orgId := sess.OrganizationId

	progress.step(ctx, dto.StageTraining, "Training model...")
	trained, err := s.jobs.SubmitTraining(ctx, archiveURL, func(line string) {
		progress.log(ctx, line)
	})
	if err != nil {
		s.logger.Error("MODEL_FLOW", "Training failed", map[string]interface{}{"organization_id": orgId, "error": err})
		return nil, err
	}

	m := &entity.AIModel{
		Id:             uuid.New(),
		OrganizationId: orgId,
		Name:           strings.TrimSpace(name),
		Description:    description,
		ZipURL:         archiveURL,
		Status:         entity.ModelStatusCompleted,
		Type:           modelType,
		FalModelId:     trained.JobId,
		LoraFile:       trained.ArtifactURL,
		TrainingLogs:   trained.Logs,
	}
	cost := s.ledger.Cost(entity.TokenActionModelCreation)

	if err := s.record(ctx, progress, m, cost); err != nil {
		// The provider already did the work; nothing is refunded or retried.
		s.logger.Error("MODEL_FLOW", "Training job orphaned", map[string]interface{}{
			"organization_id": orgId,
			"job_id":          trained.JobId,
			"artifact_url":    trained.ArtifactURL,
			"error":           err,
		})
		s.events.PublishTrainingOrphaned(ctx, orgId, trained.JobId, trained.ArtifactURL, err.Error())
		return nil, err
	}

	progress.step(ctx, dto.StageCompleted, "Model created successfully")
	s.events.PublishTokensDebited(ctx, orgId, cost, string(entity.TokenActionModelCreation), &m.Id)
	s.events.PublishModelCreated(ctx, orgId, m.Id, m.Name, m.FalModelId)
	s.logger.Info("MODEL_FLOW", "Model created", map[string]interface{}{"organization_id": orgId, "model_id": m.Id})
	return m, nil
}

func (s *modelFlowService) record(ctx context.Context, progress *flowProgress, m *entity.AIModel, cost int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Persistence("begin model record", err)
	}
	defer uow.Rollback()

	progress.step(ctx, dto.StageDebiting, "Deducting tokens...")
	if err := s.ledger.DebitWith(ctx, uow, m.OrganizationId, cost, entity.TokenActionModelCreation, &m.Id); err != nil {
		return err
	}

	progress.step(ctx, dto.StageRecording, "Saving model...")
	if err := uow.AIModelRepository().Create(ctx, m); err != nil {
		return apperror.Persistence("insert model", err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.Persistence("commit model record", err)
	}
	return nil
}
