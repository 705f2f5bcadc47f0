package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRecord is one serialized blob stored under a unique key.
type StateRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"column:state_key;uniqueIndex;not null"`
	Data      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StateRepository stores blobs in SQLite through gorm.
type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var record StateRecord
	err := r.db.WithContext(ctx).Where("state_key = ?", key).First(&record).Error
	switch {
	case err == nil:
		return []byte(record.Data), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("find state: %w", err)
	}
}

func (r *StateRepository) Save(ctx context.Context, key string, data []byte) error {
	record := StateRecord{Key: key, Data: string(data)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (r *StateRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("state_key = ?", key).Delete(&StateRecord{}).Error; err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (r *StateRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ BlobStore = (*StateRepository)(nil)
