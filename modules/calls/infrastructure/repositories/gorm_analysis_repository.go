package repositories

import (
	"context"

	"transcriptai/server/modules/calls/domain/repositories"
	"transcriptai/server/seedwork/infrastructure/database"

	"gorm.io/gorm"
)

// GormAnalysisRepository implements AnalysisRepository using GORM.
type GormAnalysisRepository struct {
	db *gorm.DB
}

// NewGormAnalysisRepository creates a new GORM analysis repository.
func NewGormAnalysisRepository() *GormAnalysisRepository {
	return &GormAnalysisRepository{db: database.GetDB()}
}

func (r *GormAnalysisRepository) Save(ctx context.Context, analysis *repositories.Analysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

func (r *GormAnalysisRepository) FindByCallID(ctx context.Context, callID string) ([]*repositories.Analysis, error) {
	var rows []*repositories.Analysis
	err := r.db.WithContext(ctx).Where("call_id = ?", callID).Order("created_at asc, id asc").Find(&rows).Error
	return rows, err
}

func (r *GormAnalysisRepository) FindLatestByCallID(ctx context.Context, callID string) (*repositories.Analysis, error) {
	var row repositories.Analysis
	err := r.db.WithContext(ctx).Where("call_id = ?", callID).Order("created_at desc, id desc").First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormAnalysisRepository) DeleteByCallID(ctx context.Context, callID string) error {
	return r.db.WithContext(ctx).Where("call_id = ?", callID).Delete(&repositories.Analysis{}).Error
}

func (r *GormAnalysisRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&repositories.Analysis{}).Error
}
