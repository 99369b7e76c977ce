package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is a single key-value row.
type Entry struct {
	Key       string    `gorm:"column:entry_key;primarykey;size:255"`
	Value     string    `gorm:"column:entry_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name for Entry.
func (Entry) TableName() string {
	return "kv_entries"
}

// SQLiteFacility stores entries in a SQLite table through GORM.
type SQLiteFacility struct {
	db *gorm.DB
}

var _ Facility = (*SQLiteFacility)(nil)

// OpenSQLite opens the database file at path and migrates the entries table.
func OpenSQLite(path string, debug bool) (*SQLiteFacility, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection; SQLite has a single writer.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return NewSQLiteFacility(db)
}

// NewSQLiteFacility uses an already opened database.
func NewSQLiteFacility(db *gorm.DB) (*SQLiteFacility, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteFacility{db: db}, nil
}

// Get retrieves a value.
func (f *SQLiteFacility) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	if err := f.db.WithContext(ctx).First(&e, "entry_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get entry: %w", err)
	}
	return e.Value, true, nil
}

// Set upserts a value.
func (f *SQLiteFacility) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := f.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to set entry: %w", err)
	}
	return nil
}

// Remove deletes a key.
func (f *SQLiteFacility) Remove(ctx context.Context, key string) error {
	if err := f.db.WithContext(ctx).Delete(&Entry{}, "entry_key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// ListKeys returns all keys in ascending order.
func (f *SQLiteFacility) ListKeys(ctx context.Context) ([]string, error) {
	keys := []string{}
	if err := f.db.WithContext(ctx).Model(&Entry{}).Order("entry_key").Pluck("entry_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Ping verifies the database connection.
func (f *SQLiteFacility) Ping(ctx context.Context) error {
	sqlDB, err := f.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database.
func (f *SQLiteFacility) Close() error {
	sqlDB, err := f.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
