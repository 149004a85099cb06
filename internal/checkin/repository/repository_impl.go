package repository

import (
	"context"
	"time"

	"github.com/gymgate/gymgate/internal/checkin/domain"
	"github.com/gymgate/gymgate/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, checkIn *domain.CheckIn) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO check_ins (id, customer_id, customer_name, phone_number, membership_type, check_in_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		checkIn.ID,
		checkIn.CustomerID,
		checkIn.CustomerName,
		checkIn.PhoneNumber,
		checkIn.MembershipType,
		checkIn.CheckInTime,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.CheckIn, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.CheckIn{})
	if filter.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("check_in_time >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("check_in_time <= ?", *filter.EndAt)
	}

	var total int64
	if err := stmt.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var checkIns []*domain.CheckIn
	err := stmt.
		Order("check_in_time desc, id desc").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&checkIns).Error
	if err != nil {
		return nil, 0, err
	}
	return checkIns, total, nil
}

func (r *repo) ListAfter(ctx context.Context, db *gorm.DB, filter domain.ListFilter, limit int) ([]*domain.CheckIn, error) {
	stmt := db.WithContext(ctx).Model(&domain.CheckIn{})
	if filter.After != nil {
		stmt = stmt.Where(
			"check_in_time > ? OR (check_in_time = ? AND id > ?)",
			*filter.After, *filter.After, filter.AfterID,
		)
	}

	var checkIns []*domain.CheckIn
	err := stmt.
		Order("check_in_time asc, id asc").
		Limit(limit).
		Find(&checkIns).Error
	if err != nil {
		return nil, err
	}
	return checkIns, nil
}

func (r *repo) CountSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.CheckIn{}).
		Where("check_in_time >= ?", since).
		Count(&total).Error
	return total, err
}

func (r *repo) DeleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM check_ins WHERE check_in_time < ?`, cutoff)
	return res.RowsAffected, res.Error
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM check_ins`)
	return res.RowsAffected, res.Error
}
