package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gymgate/gymgate/internal/checkin/domain"
	"github.com/gymgate/gymgate/internal/clock"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	"github.com/gymgate/gymgate/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("checkin.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.CheckIn, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	membershipType := req.MembershipType
	if !membershipType.Valid() {
		membershipType = memberdomain.MembershipUnknown
	}

	checkIn := domain.CheckIn{
		ID:             s.genID.Generate(),
		CustomerID:     customerID,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		PhoneNumber:    req.PhoneNumber,
		MembershipType: membershipType,
		CheckInTime:    s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &checkIn); err != nil {
		return nil, err
	}

	return &checkIn, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.EndAt.Before(*req.StartAt) {
		return domain.ListResponse{}, domain.ErrInvalidTimeRange
	}

	page := req.Pagination.Normalize()
	checkIns, total, err := s.repo.List(ctx, s.db, domain.ListFilter{
		CustomerID: strings.TrimSpace(req.CustomerID),
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	}, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	return domain.ListResponse{
		CheckIns:   checkIns,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

func (s *Service) ListAfter(ctx context.Context, after time.Time, afterID int64, limit int) ([]*domain.CheckIn, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListAfter(ctx, s.db, domain.ListFilter{
		After:   &after,
		AfterID: afterID,
	}, limit)
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	now := s.clock.Now()
	dayStart := now.Truncate(24 * time.Hour)
	weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var stats domain.Stats
	var err error
	if stats.Total, err = s.repo.CountSince(ctx, s.db, time.Time{}); err != nil {
		return domain.Stats{}, err
	}
	if stats.Today, err = s.repo.CountSince(ctx, s.db, dayStart); err != nil {
		return domain.Stats{}, err
	}
	if stats.ThisWeek, err = s.repo.CountSince(ctx, s.db, weekStart); err != nil {
		return domain.Stats{}, err
	}
	if stats.ThisMonth, err = s.repo.CountSince(ctx, s.db, monthStart); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (s *Service) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}

	s.log.Info("check-in ledger trimmed",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

func (s *Service) PurgeAll(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx, s.db)
	if err != nil {
		return 0, err
	}

	s.log.Info("check-in ledger purged", zap.Int64("deleted", deleted))
	return deleted, nil
}
