package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	Severity  Severity
	EventType string
	StartAt   *time.Time
	EndAt     *time.Time
	After     *time.Time
	Limit     int
	Offset    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *SystemLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*SystemLog, int64, error)
	ListAfter(ctx context.Context, db *gorm.DB, after time.Time, eventTypes []string, limit int) ([]*SystemLog, error)
	DeleteOlderThan(ctx context.Context, db *gorm.DB, before time.Time) (int64, error)
}
