// Package remote reads the authoritative profile row from Postgres.
// The engine only ever reads xp and level; writes belong to the backend.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/squadplanner/squadxp/internal/domain"
)

// Profile maps the columns of the profiles table the engine needs.
// Both columns are nullable.
type Profile struct {
	ID    string `gorm:"column:id;primaryKey"`
	XP    *int64 `gorm:"column:xp"`
	Level *int   `gorm:"column:level"`
}

// TableName pins the table name.
func (Profile) TableName() string { return "profiles" }

// Remote converts the row to the engine's reconciliation input.
func (p Profile) Remote() domain.RemoteProfile {
	var out domain.RemoteProfile
	if p.XP != nil {
		xp := *p.XP
		out.XP = &xp
	}
	if p.Level != nil {
		lvl := *p.Level
		out.Level = &lvl
	}
	return out
}

// Store fetches profiles through gorm.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// Open connects to Postgres with dsn. An empty dsn returns
// domain.ErrRemoteDisabled.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, domain.ErrRemoteDisabled
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db), nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db, timeout: 5 * time.Second}
}

// FetchProfile reads xp and level for profileID.
// Returns domain.ErrProfileNotFound when no row matches.
func (s *Store) FetchProfile(ctx context.Context, profileID string) (domain.RemoteProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var p Profile
	err := s.db.WithContext(ctx).
		Select("id", "xp", "level").
		Where("id = ?", profileID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RemoteProfile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.RemoteProfile{}, err
	}
	return p.Remote(), nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
