// Package catalog keeps a local index of completed runs so listing meetings
// does not require walking the vault.
package catalog

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is one completed pipeline run.
type Entry struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Date        string // YYYY-MM-DD
	NotePath    string
	AudioPath   string
	DurationSec float64
	Fallback    bool // extraction came from the fallback constructor
	CreatedAt   time.Time
}

// Catalog is a SQLite-backed run index.
type Catalog struct {
	db *gorm.DB
}

// Open opens (or creates) the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Record stores one completed run.
func (c *Catalog) Record(e Entry) error {
	if err := c.db.Create(&e).Error; err != nil {
		return fmt.Errorf("recording run %s: %w", e.ID, err)
	}
	return nil
}

// List returns the most recent entries, newest first. limit <= 0 means all.
func (c *Catalog) List(limit int) ([]Entry, error) {
	q := c.db.Order("date DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return entries, nil
}
