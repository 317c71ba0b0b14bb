package mapper

import (
	"chromir-be/internal/entity"
	"chromir-be/internal/model"
)

type OrganizationMapper struct{}

func NewOrganizationMapper() *OrganizationMapper {
	return &OrganizationMapper{}
}

func (m *OrganizationMapper) ToEntity(o *model.Organization) *entity.Organization {
	if o == nil {
		return nil
	}
	return &entity.Organization{
		Id:              o.Id,
		Name:            o.Name,
		BrandGuidelines: o.BrandGuidelines,
		Tokens:          o.Tokens,
		OwnerId:         o.OwnerId,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (m *OrganizationMapper) ToModel(o *entity.Organization) *model.Organization {
	if o == nil {
		return nil
	}
	return &model.Organization{
		Id:              o.Id,
		Name:            o.Name,
		BrandGuidelines: o.BrandGuidelines,
		Tokens:          o.Tokens,
		OwnerId:         o.OwnerId,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
