package service

import (
	"context"
	"testing"

	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelService_ListNewestFirstWithStatusFilter(t *testing.T) {
	f := newInferenceFixture(t)
	svc := NewModelService(f.factory)
	org := f.createOrg(t, 100)
	other := f.createOrg(t, 100)

	first := f.createModel(t, org, "https://cdn/a.lora")
	second := f.createModel(t, org, "https://cdn/b.lora")
	failed := &entity.AIModel{OrganizationId: org.Id, Name: "Broken", Status: entity.ModelStatusFailed, Type: entity.ModelTypeItem}
	require.NoError(t, f.factory.NewUnitOfWork(context.Background()).AIModelRepository().Create(context.Background(), failed))
	f.createModel(t, other, "https://cdn/c.lora")

	all, err := svc.List(context.Background(), sessionFor(org), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	ids := []any{all[0].Id, all[1].Id, all[2].Id}
	assert.Contains(t, ids, first.Id)
	assert.Contains(t, ids, second.Id)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	completed, err := svc.List(context.Background(), sessionFor(org), "completed")
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	_, err = svc.List(context.Background(), sessionFor(org), "queued")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestModelService_UpdateOnlyNameAndDescription(t *testing.T) {
	f := newInferenceFixture(t)
	svc := NewModelService(f.factory)
	org := f.createOrg(t, 100)
	m := f.createModel(t, org, "https://cdn/a.lora")

	name := "Armchairs"
	res, err := svc.Update(context.Background(), sessionFor(org), m.Id, &dto.UpdateModelRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Armchairs", res.Name)
	assert.Equal(t, "a wooden chair", res.Description)
	assert.Equal(t, "https://cdn/a.lora", res.LoraFile)

	got, err := svc.Get(context.Background(), sessionFor(org), m.Id)
	require.NoError(t, err)
	assert.Equal(t, "Armchairs", got.Name)

	blank := " "
	_, err = svc.Update(context.Background(), sessionFor(org), m.Id, &dto.UpdateModelRequest{Name: &blank})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestModelService_DeleteRemovesImagesAndStaysScoped(t *testing.T) {
	f := newInferenceFixture(t)
	svc := NewModelService(f.factory)
	org := f.createOrg(t, 100)
	stranger := f.createOrg(t, 100)
	m := f.createModel(t, org, "https://cdn/a.lora")

	_, err := f.inference.Generate(context.Background(), sessionFor(org), &dto.GenerateImageRequest{ModelId: m.Id, Prompt: "x"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), sessionFor(stranger), m.Id), apperror.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), sessionFor(org), m.Id))

	_, err = svc.Get(context.Background(), sessionFor(org), m.Id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	images, err := f.factory.NewUnitOfWork(context.Background()).GeneratedImageRepository().FindAll(context.Background(),
		specification.ByModelID{ModelID: m.Id})
	require.NoError(t, err)
	assert.Empty(t, images)
	// Ledger history survives the model.
	assert.Len(t, f.transactions(t, org.Id), 1)
}
