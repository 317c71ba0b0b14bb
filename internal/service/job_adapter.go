package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"chromir-be/internal/config"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/logger"
	"chromir-be/pkg/fal"

	"golang.org/x/sync/errgroup"
)

const (
	captionPrompt = "Caption this image for a text-to-image model with as much detail as possible."

	loraScale     = 1.5
	guidanceScale = 5
)

// FalClient is the part of *fal.Client the adapter needs.
type FalClient interface {
	Train(ctx context.Context, input fal.TrainingInput, onLog func(string)) (*fal.TrainingOutput, string, error)
	Infer(ctx context.Context, input fal.InferenceInput) (*fal.InferenceOutput, string, error)
	Caption(ctx context.Context, input fal.VisionInput) (string, error)
}

type TrainingResult struct {
	JobId       string
	ArtifactURL string
	Logs        []string
}

type InferenceResult struct {
	JobId    string
	ImageURL string
	Seed     string
	Prompt   string
}

type IJobAdapter interface {
	// SubmitTraining blocks until the provider finishes. onLog may be nil.
	SubmitTraining(ctx context.Context, archiveURL string, onLog func(string)) (*TrainingResult, error)
	SubmitInference(ctx context.Context, artifactURL, prompt string) (*InferenceResult, error)
	// DescribeImages captions every image concurrently and joins the captions in input order.
	DescribeImages(ctx context.Context, imageURLs []string) (string, error)
}

type jobAdapter struct {
	client FalClient
	cfg    config.FalConfig
	logger logger.ILogger
}

func NewJobAdapter(client FalClient, cfg config.FalConfig, log logger.ILogger) IJobAdapter {
	if cfg.TrainingSteps <= 0 {
		cfg.TrainingSteps = 10
	}
	return &jobAdapter{client: client, cfg: cfg, logger: log}
}

// ValidateArchiveURL accepts absolute http(s) URLs whose path ends in .zip.
// The query string is ignored so presigned URLs pass.
func ValidateArchiveURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperror.InvalidInput("archive url must be an absolute http(s) url")
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), ".zip") {
		return apperror.InvalidInput("archive url must point to a .zip file")
	}
	return nil
}

func (a *jobAdapter) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (a *jobAdapter) SubmitTraining(ctx context.Context, archiveURL string, onLog func(string)) (*TrainingResult, error) {
	if err := ValidateArchiveURL(archiveURL); err != nil {
		return nil, err
	}

	ctx, cancel := a.withTimeout(ctx, a.cfg.TrainingTimeout)
	defer cancel()

	var logs []string
	out, jobId, err := a.client.Train(ctx, fal.TrainingInput{
		ImagesDataURL: archiveURL,
		Steps:         a.cfg.TrainingSteps,
	}, func(line string) {
		logs = append(logs, line)
		if onLog != nil {
			onLog(line)
		}
	})
	if err != nil {
		a.logger.Error("JOB", "Training request failed", map[string]interface{}{"job_id": jobId, "error": err})
		return nil, apperror.Provider("training", err)
	}
	if out == nil || out.DiffusersLoraFile.URL == "" {
		return nil, apperror.Provider("training", &fal.APIError{StatusCode: 200, Message: "no artifact in training result"})
	}

	a.logger.Info("JOB", "Training completed", map[string]interface{}{"job_id": jobId, "log_lines": len(logs)})
	return &TrainingResult{JobId: jobId, ArtifactURL: out.DiffusersLoraFile.URL, Logs: logs}, nil
}

func (a *jobAdapter) SubmitInference(ctx context.Context, artifactURL, prompt string) (*InferenceResult, error) {
	if artifactURL == "" {
		return nil, apperror.InvalidState("model has no trained artifact")
	}

	ctx, cancel := a.withTimeout(ctx, a.cfg.InferenceTimeout)
	defer cancel()

	out, jobId, err := a.client.Infer(ctx, fal.InferenceInput{
		Loras:               []fal.LoraWeight{{Path: artifactURL, Scale: loraScale}},
		Prompt:              prompt,
		GuidanceScale:       guidanceScale,
		EnableSafetyChecker: true,
	})
	if err != nil {
		return nil, apperror.Provider("inference", err)
	}
	if out == nil || len(out.Images) == 0 || out.Images[0].URL == "" {
		return nil, apperror.Provider("inference", &fal.APIError{StatusCode: 200, Message: "no images generated"})
	}

	echoed := out.Prompt
	if echoed == "" {
		echoed = prompt
	}
	return &InferenceResult{
		JobId:    jobId,
		ImageURL: out.Images[0].URL,
		Seed:     out.Seed.String(),
		Prompt:   echoed,
	}, nil
}

func (a *jobAdapter) DescribeImages(ctx context.Context, imageURLs []string) (string, error) {
	if len(imageURLs) == 0 {
		return "", apperror.InvalidInput("no images to describe")
	}

	ctx, cancel := a.withTimeout(ctx, a.cfg.InferenceTimeout)
	defer cancel()

	captions := make([]string, len(imageURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, imageURL := range imageURLs {
		g.Go(func() error {
			caption, err := a.client.Caption(gctx, fal.VisionInput{Prompt: captionPrompt, ImageURL: imageURL})
			if err != nil {
				return err
			}
			captions[i] = caption
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", apperror.Provider("describe images", err)
	}
	return strings.Join(captions, " "), nil
}
