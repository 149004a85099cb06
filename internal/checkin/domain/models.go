// Package domain contains the check-in ledger models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
)

// CheckIn is one admitted entry through the door. Rows are append-only;
// identity fields are denormalized at admission time so the ledger stays
// readable even after the member row changes or is purged.
type CheckIn struct {
	ID             snowflake.ID                `gorm:"primaryKey" json:"id"`
	CustomerID     string                      `gorm:"index;not null" json:"customer_id"`
	CustomerName   string                      `gorm:"not null;default:''" json:"customer_name"`
	PhoneNumber    string                      `gorm:"not null;default:''" json:"phone_number"`
	MembershipType memberdomain.MembershipType `gorm:"type:text;not null;default:'Unknown'" json:"membership_type"`
	CheckInTime    time.Time                   `gorm:"index;not null" json:"check_in_time"`
}

// TableName sets the database table name.
func (CheckIn) TableName() string { return "check_ins" }

// Stats is the ledger rollup served to the dashboard.
type Stats struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"this_week"`
	ThisMonth int64 `json:"this_month"`
}
