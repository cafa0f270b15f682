package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

// DB is the local audit store.
type DB interface {
	HistoryDB
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SortOrder represents the order of a sorted query.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// New opens the sqlite database at dbpath and performs migrations.
// The parent directory is created if it does not exist.
func New(dbpath string) (*Client, error) {
	if dbpath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbpath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbpath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&HistoryEvent{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats holds row counts of the audit tables.
type Stats struct {
	HistoryEvents int64            `json:"historyEvents"`
	ByType        map[string]int64 `json:"byType"`
}

// GetStats counts the stored history events.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByType: make(map[string]int64)}
	if err := c.db.WithContext(ctx).Model(&HistoryEvent{}).Count(&stats.HistoryEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to count history events: %w", err)
	}

	var rows []struct {
		EventType string
		Count     int64
	}
	if err := c.db.WithContext(ctx).
		Model(&HistoryEvent{}).
		Select("event_type, count(*) as count").
		Group("event_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group history events: %w", err)
	}
	for _, r := range rows {
		stats.ByType[r.EventType] = r.Count
	}
	return stats, nil
}
