package repository

import (
	"context"
	"time"

	"github.com/gymgate/gymgate/internal/systemlog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.SystemLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO system_logs (id, timestamp, event_type, message, severity, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		entry.EventType,
		entry.Message,
		entry.Severity,
		entry.Details,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.SystemLog, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.SystemLog{})
	if filter.Severity != "" {
		stmt = stmt.Where("severity = ?", filter.Severity)
	}
	if filter.EventType != "" {
		stmt = stmt.Where("event_type = ?", filter.EventType)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("timestamp >= ?", *filter.StartAt)
	}
	if filter.After != nil {
		stmt = stmt.Where("timestamp > ?", *filter.After)
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("timestamp <= ?", *filter.EndAt)
	}

	var total int64
	if err := stmt.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []*domain.SystemLog
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}
	err := stmt.
		Order("timestamp desc, id desc").
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListAfter reads oldest-first past a feed cursor so incremental consumers
// never leave a gap behind their high-water mark.
func (r *repo) ListAfter(ctx context.Context, db *gorm.DB, after time.Time, eventTypes []string, limit int) ([]*domain.SystemLog, error) {
	var logs []*domain.SystemLog
	err := db.WithContext(ctx).Model(&domain.SystemLog{}).
		Where("event_type IN ?", eventTypes).
		Where("timestamp > ?", after).
		Order("timestamp asc, id asc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) DeleteOlderThan(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM system_logs WHERE timestamp < ?`, before)
	return result.RowsAffected, result.Error
}
