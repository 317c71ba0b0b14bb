package events

import (
	"context"
	"time"

	"chromir-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Sink delivers a single event. The NATS publisher is one.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher emits the domain events of the service. A nil sink drops events
// with a warning, so the service runs without a broker.
type Publisher struct {
	sink   Sink
	logger logger.ILogger
	now    func() time.Time
}

func NewPublisher(sink Sink, log logger.ILogger) *Publisher {
	return &Publisher{sink: sink, logger: log, now: time.Now}
}

func (p *Publisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p == nil {
		return
	}
	if p.sink == nil {
		p.logger.Warn("EVENTS", "No event publisher configured, skipping event", map[string]interface{}{"type": eventType})
		return
	}

	evt := BaseEvent{Type: eventType, Data: data, OccurredAt: p.now().UTC()}
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (p *Publisher) PublishModelCreated(ctx context.Context, orgId, modelId uuid.UUID, name, falModelId string) {
	p.publish(ctx, TypeModelCreated, map[string]interface{}{
		"organization_id": orgId.String(),
		"model_id":        modelId.String(),
		"name":            name,
		"fal_model_id":    falModelId,
	})
}

func (p *Publisher) PublishImageGenerated(ctx context.Context, orgId, modelId, imageId uuid.UUID, imageURL string) {
	p.publish(ctx, TypeImageGenerated, map[string]interface{}{
		"organization_id": orgId.String(),
		"model_id":        modelId.String(),
		"image_id":        imageId.String(),
		"image_url":       imageURL,
	})
}

func (p *Publisher) PublishTokensDebited(ctx context.Context, orgId uuid.UUID, amount int, action string, referenceId *uuid.UUID) {
	data := map[string]interface{}{
		"organization_id": orgId.String(),
		"amount":          amount,
		"action_type":     action,
	}
	if referenceId != nil {
		data["reference_id"] = referenceId.String()
	}
	p.publish(ctx, TypeTokensDebited, data)
}

func (p *Publisher) PublishTokensCredited(ctx context.Context, orgId uuid.UUID, amount int, referenceId *uuid.UUID) {
	data := map[string]interface{}{
		"organization_id": orgId.String(),
		"amount":          amount,
	}
	if referenceId != nil {
		data["reference_id"] = referenceId.String()
	}
	p.publish(ctx, TypeTokensCredited, data)
}

// PublishTrainingOrphaned reports a trained artifact that has no model row.
func (p *Publisher) PublishTrainingOrphaned(ctx context.Context, orgId uuid.UUID, jobId, artifactURL, reason string) {
	p.publish(ctx, TypeTrainingOrphaned, map[string]interface{}{
		"organization_id": orgId.String(),
		"fal_model_id":    jobId,
		"lora_file":       artifactURL,
		"reason":          reason,
	})
}

func (p *Publisher) PublishUserSignedUp(ctx context.Context, userId, orgId uuid.UUID, email string) {
	p.publish(ctx, TypeUserSignedUp, map[string]interface{}{
		"user_id":         userId.String(),
		"organization_id": orgId.String(),
		"email":           email,
	})
}
