package repositories

import (
	"context"
	"fmt"
	"time"

	"transcriptai/server/modules/calls/domain/repositories"
	"transcriptai/server/seedwork/infrastructure/database"

	"gorm.io/gorm"
)

// GormCallRepository implements CallRepository using GORM.
type GormCallRepository struct {
	db *gorm.DB
}

// NewGormCallRepository creates a new GORM call repository.
func NewGormCallRepository() *GormCallRepository {
	return &GormCallRepository{db: database.GetDB()}
}

func (r *GormCallRepository) Save(ctx context.Context, call *repositories.Call) error {
	return r.db.WithContext(ctx).Save(call).Error
}

func (r *GormCallRepository) FindByID(ctx context.Context, id string) (*repositories.Call, error) {
	var call repositories.Call
	if err := r.db.WithContext(ctx).First(&call, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

func (r *GormCallRepository) Update(ctx context.Context, call *repositories.Call) error {
	result := r.db.WithContext(ctx).Save(call)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("call not found: %s", call.ID)
	}
	return nil
}

func (r *GormCallRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&repositories.Call{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("call not found: %s", id)
	}
	return nil
}

func (r *GormCallRepository) FindByStatus(ctx context.Context, status string) ([]*repositories.Call, error) {
	var calls []*repositories.Call
	err := r.db.WithContext(ctx).Where("status = ?", status).Find(&calls).Error
	return calls, err
}

func (r *GormCallRepository) FindByTimeRange(ctx context.Context, startTime, endTime time.Time) ([]*repositories.Call, error) {
	var calls []*repositories.Call
	err := r.db.WithContext(ctx).Where("created_at BETWEEN ? AND ?", startTime, endTime).Find(&calls).Error
	return calls, err
}

// List applies the Results Query Layer's filter/sort/pagination contract.
// Sort is always on created_at (the only supported field); ordering adds
// id as a secondary tiebreaker in the same direction so pagination across
// calls with identical timestamps stays stable.
func (r *GormCallRepository) List(ctx context.Context, filter repositories.ListFilter) ([]*repositories.Call, int64, error) {
	q := r.db.WithContext(ctx).Model(&repositories.Call{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "desc"
	if filter.Direction == "asc" {
		direction = "asc"
	}

	var calls []*repositories.Call
	err := q.Order(fmt.Sprintf("created_at %s, id %s", direction, direction)).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&calls).Error
	return calls, total, err
}

func (r *GormCallRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&repositories.Call{}).Error
}
