package domain

import (
	"context"
	"errors"
	"time"

	"github.com/gymgate/gymgate/pkg/db/pagination"
)

type UpsertRequest struct {
	ID             string
	Name           string
	PhoneNumber    string
	MembershipType MembershipType
	NextPayment    *time.Time
}

type ListRequest struct {
	pagination.Pagination
	Search         string         `form:"search"`
	MembershipType MembershipType `form:"membership_type"`
}

type ListResponse struct {
	Members    []*MemberWithActivity `json:"members"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

type Service interface {
	// ResolveByPhone normalizes the raw phone input and looks up the member
	// behind it. Returns ErrNotFound when no member carries that number.
	ResolveByPhone(ctx context.Context, rawPhone string) (*Member, error)
	GetByID(ctx context.Context, id string) (*Member, error)
	// Upsert records the latest reconciled identity and coverage for a
	// member, creating the row on first sight.
	Upsert(ctx context.Context, req UpsertRequest) (*Member, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// ListWithPhone returns every member reachable by phone, for
	// reconciliation sweeps.
	ListWithPhone(ctx context.Context) ([]*Member, error)
	Stats(ctx context.Context) (Stats, error)
	PurgeAll(ctx context.Context) (int64, error)
}

var (
	ErrInvalidPhone          = errors.New("invalid_phone")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidMembershipType = errors.New("invalid_membership_type")
	ErrDuplicatePhone        = errors.New("duplicate_phone")
	ErrNotFound              = errors.New("not_found")
)
