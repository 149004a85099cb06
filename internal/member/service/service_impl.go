package service

import (
	"context"
	"strings"

	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/member/domain"
	"github.com/gymgate/gymgate/pkg/db"
	"github.com/gymgate/gymgate/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("member.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ResolveByPhone(ctx context.Context, rawPhone string) (*domain.Member, error) {
	phone := domain.NormalizePhone(rawPhone)
	if phone == "" {
		return nil, domain.ErrInvalidPhone
	}

	member, err := s.repo.FindByPhone(ctx, s.db, phone)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	member, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Member, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	membershipType := req.MembershipType
	if membershipType == "" {
		membershipType = domain.MembershipUnknown
	}
	if !membershipType.Valid() {
		return nil, domain.ErrInvalidMembershipType
	}

	now := s.clock.Now()
	member := domain.Member{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		PhoneNumber:    domain.NormalizePhone(req.PhoneNumber),
		MembershipType: membershipType,
		NextPayment:    req.NextPayment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Upsert(ctx, s.db, &member); err != nil {
		// ux_members_phone: two directory entries must never share a
		// normalized number.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicatePhone
		}
		return nil, err
	}

	return &member, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	page := req.Pagination.Normalize()

	membershipType := req.MembershipType
	if membershipType != "" && !membershipType.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidMembershipType
	}

	members, total, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Search:         strings.TrimSpace(req.Search),
		MembershipType: membershipType,
	}, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	return domain.ListResponse{
		Members:    members,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

func (s *Service) ListWithPhone(ctx context.Context) ([]*domain.Member, error) {
	return s.repo.FindAllWithPhone(ctx, s.db)
}

// activityWindow bounds the "active member" figure on the dashboard.
const activityWindow = 30

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	return s.repo.Stats(ctx, s.db, s.clock.Now().AddDate(0, 0, -activityWindow))
}

func (s *Service) PurgeAll(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx, s.db)
	if err != nil {
		return 0, err
	}

	s.log.Info("member directory purged", zap.Int64("deleted", deleted))
	return deleted, nil
}
