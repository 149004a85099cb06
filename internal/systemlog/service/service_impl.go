package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/systemlog/domain"
	"github.com/gymgate/gymgate/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("systemlog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Log(ctx context.Context, entry domain.Entry) error {
	message := strings.TrimSpace(entry.Message)
	if message == "" {
		return domain.ErrInvalidMessage
	}
	eventType := strings.TrimSpace(entry.EventType)
	if eventType == "" {
		return domain.ErrInvalidEventType
	}

	severity := entry.Severity
	if severity == "" {
		severity = domain.SeverityInfo
	}

	var details datatypes.JSONMap
	if len(entry.Details) > 0 {
		details = datatypes.JSONMap{}
		for key, value := range entry.Details {
			if key == "" {
				continue
			}
			details[key] = value
		}
	}

	row := domain.SystemLog{
		ID:        s.genID.Generate(),
		Timestamp: s.clock.Now(),
		EventType: eventType,
		Message:   message,
		Severity:  severity,
		Details:   details,
	}

	if err := s.repo.Insert(ctx, s.db, &row); err != nil {
		s.log.Warn("failed to write system log", zap.String("event_type", eventType), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) Error(ctx context.Context, cause error, eventType string) error {
	if cause == nil {
		return domain.ErrInvalidMessage
	}
	if strings.TrimSpace(eventType) == "" {
		eventType = domain.EventSystemError
	}
	return s.Log(ctx, domain.Entry{
		Message:   cause.Error(),
		EventType: eventType,
		Severity:  domain.SeverityError,
		Details: map[string]any{
			"error": cause.Error(),
		},
	})
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return domain.ListResponse{}, domain.ErrInvalidTimeRange
	}

	page := req.Pagination.Normalize()

	items, total, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Severity:  req.Severity,
		EventType: strings.TrimSpace(req.EventType),
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		After:     req.After,
		Limit:     page.Limit,
		Offset:    page.Offset(),
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	logs := make([]domain.SystemLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return domain.ListResponse{
		Logs:       logs,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

func (s *Service) ListAfter(ctx context.Context, after time.Time, eventTypes []string, limit int) ([]domain.SystemLog, error) {
	items, err := s.repo.ListAfter(ctx, s.db, after, eventTypes, limit)
	if err != nil {
		return nil, err
	}

	logs := make([]domain.SystemLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}
	return logs, nil
}

func (s *Service) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, s.db, before)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("purged system logs", zap.Int64("deleted", deleted), zap.Time("before", before))
	}
	return deleted, nil
}
