package service

import (
	"context"
	"testing"

	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/model"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inferenceFixture struct {
	*testEnv
	fal       *fakeFal
	progress  *recordingProgress
	inference IInferenceService
}

func newInferenceFixture(t *testing.T) *inferenceFixture {
	env := newTestEnv(t)
	fake := newFakeFal()
	progress := &recordingProgress{}
	svc := NewInferenceService(env.factory, env.ledger, newTestAdapter(fake), progress, env.events, env.log)
	return &inferenceFixture{testEnv: env, fal: fake, progress: progress, inference: svc}
}

func (f *inferenceFixture) createModel(t *testing.T, org *entity.Organization, loraFile string) *entity.AIModel {
	t.Helper()
	m := &entity.AIModel{
		OrganizationId: org.Id,
		Name:           "Chairs",
		Description:    "a wooden chair",
		Status:         entity.ModelStatusCompleted,
		Type:           entity.ModelTypeItem,
		LoraFile:       loraFile,
	}
	require.NoError(t, f.factory.NewUnitOfWork(context.Background()).AIModelRepository().Create(context.Background(), m))
	return m
}

func TestInference_GenerateDebitsAndRecords(t *testing.T) {
	f := newInferenceFixture(t)
	org := f.createOrg(t, 100)
	m := f.createModel(t, org, "https://cdn/x.lora")

	res, err := f.inference.Generate(context.Background(), sessionFor(org), &dto.GenerateImageRequest{ModelId: m.Id, Prompt: "a red chair"})
	require.NoError(t, err)

	assert.True(t, res.Saved)
	require.NotNil(t, res.Id)
	assert.Equal(t, "https://cdn.fal.test/image.png", res.ImageURL)
	assert.Equal(t, "424242", res.Seed)
	assert.Equal(t, 95, f.balance(t, org.Id))

	txs := f.transactions(t, org.Id)
	require.Len(t, txs, 1)
	assert.Equal(t, -5, txs[0].Amount)
	assert.Equal(t, entity.TokenActionImageGeneration, txs[0].ActionType)
	assert.Equal(t, *res.Id, *txs[0].ReferenceId)

	images, err := f.inference.ListImages(context.Background(), sessionFor(org), &dto.ListImagesQuery{})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, *res.Id, images[0].Id)

	assert.Equal(t, "https://cdn/x.lora", f.fal.inferCalls[0].Loras[0].Path)
	assert.Equal(t, []string{events.TypeTokensDebited, events.TypeImageGenerated}, f.sink.types())
}

func TestInference_EmptyPromptFallsBackToDescription(t *testing.T) {
	f := newInferenceFixture(t)
	org := f.createOrg(t, 100)
	m := f.createModel(t, org, "https://cdn/x.lora")

	_, err := f.inference.Generate(context.Background(), sessionFor(org), &dto.GenerateImageRequest{ModelId: m.Id, Prompt: "   "})
	require.NoError(t, err)

	assert.Equal(t, "a wooden chair", f.fal.inferCalls[0].Prompt)
}

func TestInference_ModelWithoutArtifactRejectedBeforeProvider(t *testing.T) {
	f := newInferenceFixture(t)
	org := f.createOrg(t, 100)
	m := f.createModel(t, org, "")

	_, err := f.inference.Generate(context.Background(), sessionFor(org), &dto.GenerateImageRequest{ModelId: m.Id, Prompt: "x"})

	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Zero(t, f.fal.inferCount())
	assert.Equal(t, 100, f.balance(t, org.Id))
}

func TestInference_ModelOfAnotherOrganizationIsNotFound(t *testing.T) {
	f := newInferenceFixture(t)
	org := f.createOrg(t, 100)
	stranger := f.createOrg(t, 100)
	m := f.createModel(t, org, "https://cdn/x.lora")

	_, err := f.inference.Generate(context.Background(), sessionFor(stranger), &dto.GenerateImageRequest{ModelId: m.Id})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.inference.Generate(context.Background(), sessionFor(org), &dto.GenerateImageRequest{ModelId: uuid.New()})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, f.fal.inferCount())
}

func TestInference_InsufficientBalanceSkipsProvider(t *testing.T) {
	f := newInferenceFixture(t)
	org := f.createOrg(t, 4)
	m := f.createModel(t, org, "https://cdn/x.lora")

	_, err := f.inference.Generate(context.Background(), sessionFor(org), &dto.GenerateImageRequest{ModelId: m.Id, Prompt: "x"})

	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
	assert.Zero(t, f.fal.inferCount())
}

func TestInference_MetadataFailureKeepsImageURL(t *testing.T) {
	f := newInferenceFixture(t)
	org := f.createOrg(t, 100)
	m := f.createModel(t, org, "https://cdn/x.lora")
	f.fal.beforeReturn = func() {
		require.NoError(t, f.db.Migrator().DropTable(&model.GeneratedImage{}))
	}

	res, err := f.inference.Generate(context.Background(), sessionFor(org), &dto.GenerateImageRequest{ModelId: m.Id, Prompt: "x"})

	require.ErrorIs(t, err, apperror.ErrMetadataNotSaved)
	require.NotNil(t, res)
	assert.False(t, res.Saved)
	assert.Nil(t, res.Id)
	assert.Equal(t, "https://cdn.fal.test/image.png", res.ImageURL)
	// The debit rolled back with the failed insert.
	assert.Equal(t, 100, f.balance(t, org.Id))
	assert.Empty(t, f.transactions(t, org.Id))
}

func TestInference_ListImagesScopesAndPages(t *testing.T) {
	f := newInferenceFixture(t)
	org := f.createOrg(t, 1000)
	other := f.createOrg(t, 1000)
	a := f.createModel(t, org, "https://cdn/a.lora")
	b := f.createModel(t, org, "https://cdn/b.lora")
	foreign := f.createModel(t, other, "https://cdn/c.lora")

	generate := func(orgSess *entity.Organization, modelId uuid.UUID, n int) {
		for i := 0; i < n; i++ {
			_, err := f.inference.Generate(context.Background(), sessionFor(orgSess), &dto.GenerateImageRequest{ModelId: modelId, Prompt: "x"})
			require.NoError(t, err)
		}
	}
	generate(org, a.Id, 3)
	generate(org, b.Id, 2)
	generate(other, foreign.Id, 1)

	all, err := f.inference.ListImages(context.Background(), sessionFor(org), &dto.ListImagesQuery{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	onlyA, err := f.inference.ListImages(context.Background(), sessionFor(org), &dto.ListImagesQuery{ModelId: a.Id.String()})
	require.NoError(t, err)
	assert.Len(t, onlyA, 3)
	for _, img := range onlyA {
		assert.Equal(t, a.Id, img.ModelId)
	}

	page, err := f.inference.ListImages(context.Background(), sessionFor(org), &dto.ListImagesQuery{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = f.inference.ListImages(context.Background(), sessionFor(org), &dto.ListImagesQuery{ModelId: "nope"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
