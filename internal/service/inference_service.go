package service

import (
	"context"
	"fmt"
	"strings"

	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/pkg/events"
	"chromir-be/pkg/session"

	"github.com/google/uuid"
)

const flowImageGeneration = "image_generation"

type IInferenceService interface {
	// Generate returns a response together with ErrMetadataNotSaved when the
	// image was produced but could not be recorded.
	Generate(ctx context.Context, sess session.Session, req *dto.GenerateImageRequest) (*dto.GenerateImageResponse, error)
	ListImages(ctx context.Context, sess session.Session, query *dto.ListImagesQuery) ([]*dto.ImageResponse, error)
}

type inferenceService struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     ILedgerService
	jobs       IJobAdapter
	progress   IProgressService
	events     *events.Publisher
	logger     logger.ILogger
}

func NewInferenceService(
	uowFactory unitofwork.RepositoryFactory,
	ledger ILedgerService,
	jobs IJobAdapter,
	progress IProgressService,
	publisher *events.Publisher,
	log logger.ILogger,
) IInferenceService {
	return &inferenceService{
		uowFactory: uowFactory,
		ledger:     ledger,
		jobs:       jobs,
		progress:   progress,
		events:     publisher,
		logger:     log,
	}
}

func (s *inferenceService) Generate(ctx context.Context, sess session.Session, req *dto.GenerateImageRequest) (*dto.GenerateImageResponse, error) {
	ctx = context.WithoutCancel(ctx)
	orgId := sess.OrganizationId
	progress := newFlowProgress(s.progress, orgId, flowImageGeneration)

	m, err := findOwnedModel(ctx, s.uowFactory.NewUnitOfWork(ctx), orgId, req.ModelId)
	if err != nil {
		return nil, err
	}
	if !m.HasArtifact() {
		return nil, apperror.InvalidState("model %s has no trained artifact", m.Id)
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = m.Description
	}
	if err := requireTokens(ctx, s.ledger, orgId, entity.TokenActionImageGeneration); err != nil {
		return nil, err
	}

	progress.step(ctx, dto.StageGenerating, "Generating image...")
	result, err := s.jobs.SubmitInference(ctx, m.LoraFile, prompt)
	if err != nil {
		progress.step(ctx, dto.StageFailed, "Failed to generate image")
		return nil, err
	}

	img := &entity.GeneratedImage{
		Id:       uuid.New(),
		ModelId:  m.Id,
		ImageURL: result.ImageURL,
		Prompt:   result.Prompt,
		Seed:     result.Seed,
	}
	res := &dto.GenerateImageResponse{
		ModelId:  m.Id,
		ImageURL: result.ImageURL,
		Prompt:   result.Prompt,
		Seed:     result.Seed,
	}

	cost := s.ledger.Cost(entity.TokenActionImageGeneration)
	if err := s.record(ctx, progress, orgId, img, cost); err != nil {
		s.logger.Error("INFERENCE", "Image generated but not recorded", map[string]interface{}{
			"organization_id": orgId,
			"model_id":        m.Id,
			"job_id":          result.JobId,
			"image_url":       result.ImageURL,
			"error":           err,
		})
		progress.step(ctx, dto.StageFailed, apperror.ErrMetadataNotSaved.Error())
		return res, fmt.Errorf("%w: %w", apperror.ErrMetadataNotSaved, err)
	}

	res.Id = &img.Id
	res.Saved = true
	progress.step(ctx, dto.StageCompleted, "Image generated successfully")
	s.events.PublishTokensDebited(ctx, orgId, cost, string(entity.TokenActionImageGeneration), &img.Id)
	s.events.PublishImageGenerated(ctx, orgId, m.Id, img.Id, img.ImageURL)
	return res, nil
}

func (s *inferenceService) record(ctx context.Context, progress *flowProgress, orgId uuid.UUID, img *entity.GeneratedImage, cost int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Persistence("begin image record", err)
	}
	defer uow.Rollback()

	progress.step(ctx, dto.StageDebiting, "Deducting tokens...")
	if err := s.ledger.DebitWith(ctx, uow, orgId, cost, entity.TokenActionImageGeneration, &img.Id); err != nil {
		return err
	}

	progress.step(ctx, dto.StageRecording, "Saving image...")
	if err := uow.GeneratedImageRepository().Create(ctx, img); err != nil {
		return apperror.Persistence("insert image", err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.Persistence("commit image record", err)
	}
	return nil
}

func (s *inferenceService) ListImages(ctx context.Context, sess session.Session, query *dto.ListImagesQuery) ([]*dto.ImageResponse, error) {
	limit, offset := normalizePage(query.Limit, query.Offset)
	specs := []specification.Specification{
		specification.ImagesOfOrganization{OrganizationID: sess.OrganizationId},
	}
	if query.ModelId != "" {
		modelId, err := uuid.Parse(query.ModelId)
		if err != nil {
			return nil, apperror.InvalidInput("model_id must be a uuid")
		}
		specs = append(specs, specification.ByModelID{ModelID: modelId})
	}
	specs = append(specs, specification.NewestFirst{}, specification.Pagination{Limit: limit, Offset: offset})

	uow := s.uowFactory.NewUnitOfWork(ctx)
	images, err := uow.GeneratedImageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, apperror.Persistence("list images", err)
	}

	res := make([]*dto.ImageResponse, 0, len(images))
	for _, img := range images {
		res = append(res, &dto.ImageResponse{
			Id:        img.Id,
			ModelId:   img.ModelId,
			ImageURL:  img.ImageURL,
			Prompt:    img.Prompt,
			Seed:      img.Seed,
			CreatedAt: img.CreatedAt,
		})
	}
	return res, nil
}
