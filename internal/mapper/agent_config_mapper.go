package mapper

import (
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type AgentConfigMapper struct{}

func NewAgentConfigMapper() *AgentConfigMapper {
	return &AgentConfigMapper{}
}

func (m *AgentConfigMapper) ToEntity(a *model.AgentConfig) *entity.AgentConfig {
	if a == nil {
		return nil
	}
	return &entity.AgentConfig{
		Id:                 a.Id,
		Name:               a.Name,
		Instructions:       a.Instructions,
		AllowedCollections: []string(a.AllowedCollections),
		DefaultCollection:  a.DefaultCollection,
		IsActive:           a.IsActive,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          optionalTime(a.UpdatedAt),
		DeletedAt:          fromDeletedAt(a.DeletedAt),
		IsDeleted:          a.DeletedAt.Valid,
	}
}

func (m *AgentConfigMapper) ToModel(a *entity.AgentConfig) *model.AgentConfig {
	if a == nil {
		return nil
	}
	return &model.AgentConfig{
		Id:                 a.Id,
		Name:               a.Name,
		Instructions:       a.Instructions,
		AllowedCollections: datatypes.JSONSlice[string](a.AllowedCollections),
		DefaultCollection:  a.DefaultCollection,
		IsActive:           a.IsActive,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          derefTime(a.UpdatedAt),
		DeletedAt:          toDeletedAt(a.DeletedAt, a.IsDeleted),
	}
}

func (m *AgentConfigMapper) UserSettingsToEntity(s *model.UserSettings) *entity.UserSettings {
	if s == nil {
		return nil
	}
	return &entity.UserSettings{
		UserId:           s.UserId,
		Locale:           s.Locale,
		DefaultNotebooks: []string(s.DefaultNotebooks),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        optionalTime(s.UpdatedAt),
	}
}

func (m *AgentConfigMapper) UserSettingsToModel(s *entity.UserSettings) *model.UserSettings {
	if s == nil {
		return nil
	}
	return &model.UserSettings{
		UserId:           s.UserId,
		Locale:           s.Locale,
		DefaultNotebooks: datatypes.JSONSlice[string](s.DefaultNotebooks),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        derefTime(s.UpdatedAt),
	}
}
