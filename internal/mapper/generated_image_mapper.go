package mapper

import (
	"chromir-be/internal/entity"
	"chromir-be/internal/model"
)

type GeneratedImageMapper struct{}

func NewGeneratedImageMapper() *GeneratedImageMapper {
	return &GeneratedImageMapper{}
}

func (m *GeneratedImageMapper) ToEntity(i *model.GeneratedImage) *entity.GeneratedImage {
	if i == nil {
		return nil
	}
	return &entity.GeneratedImage{
		Id:        i.Id,
		ModelId:   i.ModelId,
		ImageURL:  i.ImageURL,
		Prompt:    i.Prompt,
		Seed:      i.Seed,
		CreatedAt: i.CreatedAt,
	}
}

func (m *GeneratedImageMapper) ToModel(i *entity.GeneratedImage) *model.GeneratedImage {
	if i == nil {
		return nil
	}
	return &model.GeneratedImage{
		Id:        i.Id,
		ModelId:   i.ModelId,
		ImageURL:  i.ImageURL,
		Prompt:    i.Prompt,
		Seed:      i.Seed,
		CreatedAt: i.CreatedAt,
	}
}

func (m *GeneratedImageMapper) ToEntities(images []*model.GeneratedImage) []*entity.GeneratedImage {
	entities := make([]*entity.GeneratedImage, len(images))
	for i, img := range images {
		entities[i] = m.ToEntity(img)
	}
	return entities
}
