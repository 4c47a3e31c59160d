package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Record is the row layout of SQLAdapter.
type Record struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName pins the table name.
func (Record) TableName() string { return "scholar_kv" }

// SQLAdapter stores values in a single key/value table through gorm.
type SQLAdapter struct {
	db *gorm.DB
}

// OpenSQL opens a database by driver name ("sqlite" or "postgres") and
// migrates the table.
func OpenSQL(driver, dsn string) (*SQLAdapter, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported SQL driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	return NewSQLAdapter(db)
}

// NewSQLAdapter wraps db and migrates the table.
func NewSQLAdapter(db *gorm.DB) (*SQLAdapter, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("store: failed to auto migrate: %w", err)
	}
	return &SQLAdapter{db: db}, nil
}

// Get retrieves a value by key.
func (s *SQLAdapter) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("kv_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: sql get %q: %w", key, err)
	}
	return rec.Value, nil
}

// Set upserts a value by key.
func (s *SQLAdapter) Set(ctx context.Context, key string, value json.RawMessage) error {
	rec := Record{Key: key, Value: []byte(value), UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store: sql set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *SQLAdapter) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("kv_key = ?", key).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("store: sql delete %q: %w", key, err)
	}
	return nil
}

// Keys returns the keys with the given prefix.
func (s *SQLAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&Record{}).
		Where("kv_key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Order("kv_key").
		Pluck("kv_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("store: sql keys: %w", err)
	}
	return keys, nil
}

// Close closes the underlying connection pool.
func (s *SQLAdapter) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
