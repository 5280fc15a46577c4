package repositories

import (
	"context"
	"errors"

	"transcriptai/server/modules/transcription/domain/repositories"
	"transcriptai/server/seedwork/infrastructure/database"

	"gorm.io/gorm"
)

// GormTranscriptRepository implements TranscriptRepository using GORM.
type GormTranscriptRepository struct {
	db *gorm.DB
}

// NewGormTranscriptRepository creates a new GORM transcript repository.
func NewGormTranscriptRepository() *GormTranscriptRepository {
	return &GormTranscriptRepository{db: database.GetDB()}
}

func (r *GormTranscriptRepository) Save(ctx context.Context, t *repositories.Transcript) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *GormTranscriptRepository) FindByCallID(ctx context.Context, callID string) (*repositories.Transcript, error) {
	var t repositories.Transcript
	if err := r.db.WithContext(ctx).First(&t, "call_id = ?", callID).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert replaces any existing transcript for callID with t.
func (r *GormTranscriptRepository) Upsert(ctx context.Context, t *repositories.Transcript) error {
	existing, err := r.FindByCallID(ctx, t.CallID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.db.WithContext(ctx).Create(t).Error
	}
	t.SetID(existing.GetID())
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *GormTranscriptRepository) DeleteByCallID(ctx context.Context, callID string) error {
	return r.db.WithContext(ctx).Where("call_id = ?", callID).Delete(&repositories.Transcript{}).Error
}

func (r *GormTranscriptRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&repositories.Transcript{}).Error
}
