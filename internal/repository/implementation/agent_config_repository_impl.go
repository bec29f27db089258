package implementation

import (
	"context"
	"errors"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/mapper"
	"ai-assistant-be/internal/model"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AgentConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AgentConfigMapper
}

func NewAgentConfigRepository(db *gorm.DB) contract.AgentConfigRepository {
	return &AgentConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewAgentConfigMapper(),
	}
}

func (r *AgentConfigRepositoryImpl) Create(ctx context.Context, agent *entity.AgentConfig) error {
	m := r.mapper.ToModel(agent)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*agent = *r.mapper.ToEntity(m)
	return nil
}

func (r *AgentConfigRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AgentConfig, error) {
	var m model.AgentConfig
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

type UserSettingsRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AgentConfigMapper
}

func NewUserSettingsRepository(db *gorm.DB) contract.UserSettingsRepository {
	return &UserSettingsRepositoryImpl{
		db:     db,
		mapper: mapper.NewAgentConfigMapper(),
	}
}

func (r *UserSettingsRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error) {
	var m model.UserSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.UserSettingsToEntity(&m), nil
}

func (r *UserSettingsRepositoryImpl) Upsert(ctx context.Context, settings *entity.UserSettings) error {
	m := r.mapper.UserSettingsToModel(settings)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"locale", "default_notebooks", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*settings = *r.mapper.UserSettingsToEntity(m)
	return nil
}
