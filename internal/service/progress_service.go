package service

import (
	"context"
	"encoding/json"
	"time"

	"chromir-be/internal/dto"
	"chromir-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IProgressService publishes flow progress to the in-process bus.
type IProgressService interface {
	Emit(ctx context.Context, msg dto.ProgressMessage)
}

type progressService struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
	now       func() time.Time
}

func NewProgressService(publisher message.Publisher, topic string, log logger.ILogger) IProgressService {
	return &progressService{publisher: publisher, topic: topic, logger: log, now: time.Now}
}

func (s *progressService) Emit(ctx context.Context, msg dto.ProgressMessage) {
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = s.now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("PROGRESS", "Failed to encode progress message", map[string]interface{}{"error": err})
		return
	}
	if err := s.publisher.Publish(s.topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Warn("PROGRESS", "Failed to publish progress message", map[string]interface{}{"error": err.Error(), "flow_id": msg.FlowId})
	}
}

// flowProgress stamps every message of one flow run with its ids.
type flowProgress struct {
	svc    IProgressService
	orgId  uuid.UUID
	flowId uuid.UUID
	flow   string
}

func newFlowProgress(svc IProgressService, orgId uuid.UUID, flow string) *flowProgress {
	return &flowProgress{svc: svc, orgId: orgId, flowId: uuid.New(), flow: flow}
}

func (p *flowProgress) emit(ctx context.Context, stage dto.FlowStage, text, line string) {
	if p == nil || p.svc == nil {
		return
	}
	p.svc.Emit(ctx, dto.ProgressMessage{
		OrganizationId: p.orgId,
		FlowId:         p.flowId,
		Flow:           p.flow,
		Stage:          stage,
		Message:        text,
		Log:            line,
	})
}

func (p *flowProgress) step(ctx context.Context, stage dto.FlowStage, text string) {
	p.emit(ctx, stage, text, "")
}

func (p *flowProgress) log(ctx context.Context, line string) {
	p.emit(ctx, dto.StageTraining, "Training model...", line)
}

// ProgressDelivery pushes an encoded message to every socket of an organization.
type ProgressDelivery interface {
	SendToOrganization(orgId uuid.UUID, payload []byte)
}

type IProgressConsumer interface {
	Consume(ctx context.Context) error
}

type progressConsumer struct {
	subscriber message.Subscriber
	topic      string
	delivery   ProgressDelivery
	logger     logger.ILogger
}

func NewProgressConsumer(subscriber message.Subscriber, topic string, delivery ProgressDelivery, log logger.ILogger) IProgressConsumer {
	return &progressConsumer{subscriber: subscriber, topic: topic, delivery: delivery, logger: log}
}

func (c *progressConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(msg)
		}
	}()
	return nil
}

func (c *progressConsumer) processMessage(msg *message.Message) {
	// Progress is best effort; malformed messages are acked and dropped.
	var progress dto.ProgressMessage
	if err := json.Unmarshal(msg.Payload, &progress); err != nil {
		c.logger.Warn("PROGRESS", "Dropping malformed progress message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	data, _ := json.Marshal(map[string]interface{}{
		"type": "progress",
		"data": progress,
	})
	c.delivery.SendToOrganization(progress.OrganizationId, data)
	msg.Ack()
}
