package domain

import (
	"context"
	"errors"
	"time"

	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	"github.com/gymgate/gymgate/pkg/db/pagination"
)

type RecordRequest struct {
	CustomerID     string
	CustomerName   string
	PhoneNumber    string
	MembershipType memberdomain.MembershipType
}

type ListRequest struct {
	pagination.Pagination
	CustomerID string     `form:"customer_id"`
	StartAt    *time.Time `form:"start_at" time_format:"2006-01-02T15:04:05Z07:00"`
	EndAt      *time.Time `form:"end_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

type ListResponse struct {
	CheckIns   []*CheckIn `json:"check_ins"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
}

type Service interface {
	// Record appends one admitted entry to the ledger. Only the admission
	// engine calls this, and only after the audit log row is written.
	Record(ctx context.Context, req RecordRequest) (*CheckIn, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// ListAfter returns entries strictly newer than the given instant in
	// ascending order, for incremental feeds.
	ListAfter(ctx context.Context, after time.Time, afterID int64, limit int) ([]*CheckIn, error)
	Stats(ctx context.Context) (Stats, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeAll(ctx context.Context) (int64, error)
}

var (
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
