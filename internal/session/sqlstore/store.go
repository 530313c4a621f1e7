package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rentalx-dev/rentalx/internal/session"
)

const busyTimeout = 5000 // 5 seconds

// userRecord is the persisted form of a session in the local "users" table
type userRecord struct {
	ID            string    `gorm:"primaryKey;type:varchar(26)"`
	UserID        string    `gorm:"not null"`
	Name          string
	Email         string
	DriverLicense string
	Avatar        string
	Token         string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (userRecord) TableName() string {
	return "users"
}

// BeforeCreate generates a ULID row id if it's empty
func (r *userRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	return nil
}

func (r *userRecord) toSession() *session.Session {
	return &session.Session{
		UserID:        r.UserID,
		Name:          r.Name,
		Email:         r.Email,
		DriverLicense: r.DriverLicense,
		Avatar:        r.Avatar,
		Token:         r.Token,
	}
}

// Store keeps the session in an embedded SQLite database
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the SQLite database at path, creating its directory if needed
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// The store is owned by a single process; one connection keeps writes serial
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout)).Error; err != nil {
		return nil, fmt.Errorf("failed to apply pragma: %w", err)
	}

	if err := db.AutoMigrate(&userRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the first stored session
func (s *Store) Get(ctx context.Context) (*session.Session, error) {
	var record userRecord
	err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return record.toSession(), nil
}

// Put replaces the stored session in a single transaction
func (s *Store) Put(ctx context.Context, sess session.Session) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&userRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}

		record := &userRecord{
			UserID:        sess.UserID,
			Name:          sess.Name,
			Email:         sess.Email,
			DriverLicense: sess.DriverLicense,
			Avatar:        sess.Avatar,
			Token:         sess.Token,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to write session: %w", err)
		}
		return nil
	})
}

// Delete removes the stored session
func (s *Store) Delete(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&userRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&userRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
