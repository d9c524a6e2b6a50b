package store

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	ErrEmptyKey   = errors.New("empty key")
	ErrInvalidTTL = errors.New("ttl must be at least one day")
)

// KV is a string store where every key carries its own expiration.
// Get never fails: a missing, expired or unreadable key reads as absent.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string, ttlDays int) error
}

// Expiry returns the expiration moment for a ttl given in days.
func Expiry(now time.Time, ttlDays int) time.Time {
	return now.Add(time.Duration(ttlDays) * 24 * time.Hour)
}

// CheckEntry validates a key and ttl before any backend stores them.
func CheckEntry(key string, ttlDays int) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttlDays <= 0 {
		return fmt.Errorf("%s: %w", key, ErrInvalidTTL)
	}
	return nil
}

type Database struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newDatabase(db)
}

func newDatabase(db *gorm.DB) (*Database, error) {
	if err := db.AutoMigrate(&Preference{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Database{db: db, now: time.Now}, nil
}

// SetClock replaces the time source used for expiry checks.
func (d *Database) SetClock(now func() time.Time) {
	d.now = now
}

func (d *Database) Get(key string) (string, bool) {
	if key == "" {
		return "", false
	}

	var pref Preference
	result := d.db.Where(&Preference{Key: key}).
		Where("expires_at > ?", d.now().UTC()).
		Limit(1).
		Find(&pref)
	if result.Error != nil {
		log.Printf("Preference %q read failed: %v", key, result.Error)
		return "", false
	}
	if result.RowsAffected == 0 {
		return "", false
	}
	return pref.Value, true
}

func (d *Database) Set(key, value string, ttlDays int) error {
	if err := CheckEntry(key, ttlDays); err != nil {
		return err
	}

	now := d.now().UTC()
	pref := &Preference{
		Key:       key,
		Value:     value,
		ExpiresAt: Expiry(now, ttlDays),
		UpdatedAt: now,
	}

	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

// CleanExpired removes every preference whose expiration has passed.
func (d *Database) CleanExpired() (int64, error) {
	result := d.db.Where("expires_at <= ?", d.now().UTC()).Delete(&Preference{})
	return result.RowsAffected, result.Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
