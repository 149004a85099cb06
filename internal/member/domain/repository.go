package domain

import (
	"context"
	"time"

	"github.com/gymgate/gymgate/pkg/db/pagination"
	"gorm.io/gorm"
)

// MemberWithActivity is a Member joined with its check-in activity, used by
// the directory listing.
type MemberWithActivity struct {
	Member       `gorm:"embedded"`
	CheckInCount int64      `json:"check_in_count"`
	LastCheckIn  *time.Time `json:"last_check_in,omitempty"`
}

// Stats is the aggregate shape backing the directory dashboard. Active
// counts members with at least one check-in after the cutoff the caller
// supplies.
type Stats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Subscription int64 `json:"subscription"`
	Cash         int64 `json:"cash"`
	Unknown      int64 `json:"unknown"`
}

type ListFilter struct {
	// Search matches name or phone number, case-insensitive substring.
	Search         string
	MembershipType MembershipType
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Member, error)
	FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*Member, error)
	FindAllWithPhone(ctx context.Context, db *gorm.DB) ([]*Member, error)
	Upsert(ctx context.Context, db *gorm.DB, member *Member) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*MemberWithActivity, int64, error)
	Stats(ctx context.Context, db *gorm.DB, activeSince time.Time) (Stats, error)
	DeleteAll(ctx context.Context, db *gorm.DB) (int64, error)
}
