package domain

import (
	"context"
	"errors"
	"time"

	"github.com/gymgate/gymgate/pkg/db/pagination"
)

type Entry struct {
	Message   string
	EventType string
	Severity  Severity
	Details   map[string]any
}

type ListRequest struct {
	pagination.Pagination
	Severity  Severity   `form:"severity"`
	EventType string     `form:"event_type"`
	StartAt   *time.Time `form:"start_at" time_format:"2006-01-02T15:04:05Z07:00"`
	EndAt     *time.Time `form:"end_at" time_format:"2006-01-02T15:04:05Z07:00"`
	After     *time.Time `form:"after" time_format:"2006-01-02T15:04:05Z07:00"`
}

type ListResponse struct {
	Logs       []SystemLog `json:"logs"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

type Service interface {
	Log(ctx context.Context, entry Entry) error
	Error(ctx context.Context, cause error, eventType string) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	ListAfter(ctx context.Context, after time.Time, eventTypes []string, limit int) ([]SystemLog, error)
	PurgeOlderThan(ctx context.Context, before time.Time) (int64, error)
}

var (
	ErrInvalidMessage   = errors.New("invalid_message")
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
