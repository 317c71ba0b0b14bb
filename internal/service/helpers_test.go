package service

import (
	"context"
	"sync"
	"testing"

	"chromir-be/internal/config"
	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/internal/testutil"
	"chromir-be/pkg/events"
	"chromir-be/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testLedgerConfig = config.LedgerConfig{
	StartingTokens:      100,
	ModelCreationCost:   20,
	ImageGenerationCost: 5,
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Publish(ctx context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.EventType()
	}
	return out
}

type testEnv struct {
	db      *gorm.DB
	factory unitofwork.RepositoryFactory
	sink    *recordingSink
	events  *events.Publisher
	ledger  ILedgerService
	log     logger.ILogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	sink := &recordingSink{}
	log := logger.NewNopLogger()
	pub := events.NewPublisher(sink, log)
	factory := unitofwork.NewRepositoryFactory(db)
	return &testEnv{
		db:      db,
		factory: factory,
		sink:    sink,
		events:  pub,
		ledger:  NewLedgerService(factory, testLedgerConfig, pub),
		log:     log,
	}
}

func (e *testEnv) createOrg(t *testing.T, tokens int) *entity.Organization {
	t.Helper()
	org := &entity.Organization{Name: "Acme", Tokens: tokens, OwnerId: uuid.New()}
	require.NoError(t, e.factory.NewUnitOfWork(context.Background()).OrganizationRepository().Create(context.Background(), org))
	return org
}

func (e *testEnv) balance(t *testing.T, orgId uuid.UUID) int {
	t.Helper()
	balance, err := e.ledger.Balance(context.Background(), orgId)
	require.NoError(t, err)
	return balance
}

func (e *testEnv) transactions(t *testing.T, orgId uuid.UUID) []*entity.TokenTransaction {
	t.Helper()
	txs, err := e.factory.NewUnitOfWork(context.Background()).TokenTransactionRepository().FindAll(context.Background(),
		specification.ByOrganizationID{OrganizationID: orgId}, specification.NewestFirst{})
	require.NoError(t, err)
	return txs
}

func (e *testEnv) models(t *testing.T, orgId uuid.UUID) []*entity.AIModel {
	t.Helper()
	models, err := e.factory.NewUnitOfWork(context.Background()).AIModelRepository().FindAll(context.Background(),
		specification.ByOrganizationID{OrganizationID: orgId})
	require.NoError(t, err)
	return models
}

type recordingProgress struct {
	mu       sync.Mutex
	messages []dto.ProgressMessage
}

func (p *recordingProgress) Emit(ctx context.Context, msg dto.ProgressMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

// stages lists the distinct stages in emission order.
func (p *recordingProgress) stages() []dto.FlowStage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []dto.FlowStage
	for _, m := range p.messages {
		if len(out) == 0 || out[len(out)-1] != m.Stage {
			out = append(out, m.Stage)
		}
	}
	return out
}

func (p *recordingProgress) logs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.messages {
		if m.Log != "" {
			out = append(out, m.Log)
		}
	}
	return out
}

func sessionFor(org *entity.Organization) session.Session {
	return session.Session{UserId: org.OwnerId, OrganizationId: org.Id, Email: "owner@acme.test", TokenId: uuid.NewString()}
}

func messageOf(payload string) *message.Message {
	return message.NewMessage(watermill.NewUUID(), []byte(payload))
}
