package mapper

import (
	"encoding/json"

	"chromir-be/internal/entity"
	"chromir-be/internal/model"

	"gorm.io/datatypes"
)

type AIModelMapper struct{}

func NewAIModelMapper() *AIModelMapper {
	return &AIModelMapper{}
}

func (m *AIModelMapper) ToEntity(a *model.AIModel) *entity.AIModel {
	if a == nil {
		return nil
	}

	logs := []string{}
	if len(a.TrainingLogs) > 0 {
		// A malformed column reads back as no logs rather than failing the whole row.
		_ = json.Unmarshal(a.TrainingLogs, &logs)
	}

	return &entity.AIModel{
		Id:             a.Id,
		OrganizationId: a.OrganizationId,
		Name:           a.Name,
		Description:    a.Description,
		ZipURL:         a.ZipURL,
		Status:         entity.ModelStatus(a.Status),
		Type:           entity.ModelType(a.Type),
		FalModelId:     a.FalModelId,
		LoraFile:       a.LoraFile,
		TrainingLogs:   logs,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (m *AIModelMapper) ToModel(a *entity.AIModel) *model.AIModel {
	if a == nil {
		return nil
	}

	logs := a.TrainingLogs
	if logs == nil {
		logs = []string{}
	}
	raw, _ := json.Marshal(logs)

	return &model.AIModel{
		Id:             a.Id,
		OrganizationId: a.OrganizationId,
		Name:           a.Name,
		Description:    a.Description,
		ZipURL:         a.ZipURL,
		Status:         string(a.Status),
		Type:           string(a.Type),
		FalModelId:     a.FalModelId,
		LoraFile:       a.LoraFile,
		TrainingLogs:   datatypes.JSON(raw),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (m *AIModelMapper) ToEntities(models []*model.AIModel) []*entity.AIModel {
	entities := make([]*entity.AIModel, len(models))
	for i, a := range models {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
