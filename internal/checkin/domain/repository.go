package domain

import (
	"context"
	"time"

	"github.com/gymgate/gymgate/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CustomerID string
	StartAt    *time.Time
	EndAt      *time.Time
	// After restricts to rows strictly newer than the given instant, with
	// AfterID breaking ties for rows sharing it.
	After   *time.Time
	AfterID int64
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, checkIn *CheckIn) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*CheckIn, int64, error)
	ListAfter(ctx context.Context, db *gorm.DB, filter ListFilter, limit int) ([]*CheckIn, error)
	CountSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
	DeleteAll(ctx context.Context, db *gorm.DB) (int64, error)
}
