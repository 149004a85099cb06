// Package domain contains the membership directory models.
package domain

import (
	"time"
)

// MembershipType is the closed set of ways a member pays for coverage.
type MembershipType string

const (
	MembershipSubscription MembershipType = "Subscription Based"
	MembershipCash         MembershipType = "Cash Payment Based"
	MembershipUnknown      MembershipType = "Unknown"
)

func (t MembershipType) Valid() bool {
	switch t {
	case MembershipSubscription, MembershipCash, MembershipUnknown:
		return true
	default:
		return false
	}
}

// Member is a gym membership identity. ID is the Square customer id and is
// immutable once created; PhoneNumber is the sole kiosk-facing lookup key.
// MembershipType and NextPayment are set by the last reconciliation pass and
// are replaced wholesale, never partially updated.
type Member struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null;default:''" json:"name"`
	PhoneNumber    string         `gorm:"uniqueIndex:ux_members_phone,where:phone_number <> ''" json:"phone_number"`
	MembershipType MembershipType `gorm:"type:text;not null;default:'Unknown'" json:"membership_type"`
	NextPayment    *time.Time     `gorm:"" json:"next_payment,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

// CoverageValid reports whether the locally stored reconciliation still
// grants entry on the given day.
func (m Member) CoverageValid(today time.Time) bool {
	if m.NextPayment == nil {
		return false
	}
	day := today.UTC().Truncate(24 * time.Hour)
	return !m.NextPayment.UTC().Truncate(24 * time.Hour).Before(day)
}
