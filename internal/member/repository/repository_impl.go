package repository

import (
	"context"
	"strings"
	"time"

	"github.com/gymgate/gymgate/internal/member/domain"
	"github.com/gymgate/gymgate/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, phone_number, membership_type, next_payment, created_at, updated_at
		 FROM members WHERE id = ?`,
		id,
	).Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == "" {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, phone_number, membership_type, next_payment, created_at, updated_at
		 FROM members WHERE phone_number = ?`,
		phone,
	).Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == "" {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) FindAllWithPhone(ctx context.Context, db *gorm.DB) ([]*domain.Member, error) {
	var members []*domain.Member
	err := db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("phone_number <> ''").
		Order("id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "phone_number", "membership_type", "next_payment", "updated_at",
			}),
		}).
		Create(member).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.MemberWithActivity, int64, error) {
	base := db.WithContext(ctx).Model(&domain.Member{})
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR phone_number LIKE ?", needle, "%"+filter.Search+"%")
	}
	if filter.MembershipType != "" {
		base = base.Where("membership_type = ?", filter.MembershipType)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []*domain.MemberWithActivity
	err := base.
		Select("members.*, COALESCE(activity.check_in_count, 0) AS check_in_count, activity.last_check_in").
		Joins(`LEFT JOIN (
			SELECT customer_id, COUNT(*) AS check_in_count, MAX(check_in_time) AS last_check_in
			FROM check_ins GROUP BY customer_id
		) activity ON activity.customer_id = members.id`).
		Order("members.name asc, members.id asc").
		Offset(page.Offset()).
		Limit(page.Limit).
		Scan(&members).Error
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *repo) Stats(ctx context.Context, db *gorm.DB, activeSince time.Time) (domain.Stats, error) {
	var stats domain.Stats
	err := db.WithContext(ctx).Raw(
		`SELECT
			COUNT(*) AS total,
			(SELECT COUNT(DISTINCT customer_id) FROM check_ins WHERE check_in_time >= ?) AS active,
			SUM(CASE WHEN membership_type = ? THEN 1 ELSE 0 END) AS subscription,
			SUM(CASE WHEN membership_type = ? THEN 1 ELSE 0 END) AS cash,
			SUM(CASE WHEN membership_type = ? THEN 1 ELSE 0 END) AS unknown
		 FROM members`,
		activeSince,
		domain.MembershipSubscription,
		domain.MembershipCash,
		domain.MembershipUnknown,
	).Scan(&stats).Error
	if err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM members`)
	return res.RowsAffected, res.Error
}
