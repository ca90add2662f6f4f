package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"accessible_travel/internal/adapters/observability"
)

// Entry is one row of kv_entries.
type Entry struct {
	K         string    `gorm:"primaryKey;size:255"`
	V         string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Entry) TableName() string { return "kv_entries" }

// Store is a domain.KVStore persisted in a local SQLite file (pure Go driver).
type Store struct{ db *gorm.DB }

// Open opens (or creates) the database at path and migrates kv_entries.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("k = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.ObserveCache("sqlite", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("sqlite", "hit")
	if err := json.Unmarshal([]byte(e.V), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	observability.ObserveCache("sqlite", "set")
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v", "updated_at"}),
	}).Create(&Entry{K: key, V: string(b)}).Error
}

func (s *Store) Del(ctx context.Context, key string) error {
	observability.ObserveCache("sqlite", "del")
	return s.db.WithContext(ctx).Where("k = ?", key).Delete(&Entry{}).Error
}
