// Package domain contains the append-only system audit trail.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event types recorded in the trail. check_in rows are the audit side of the
// ledger; check_in_error rows exist only here, never in the ledger.
const (
	EventCheckIn             = "check_in"
	EventCheckInError        = "check_in_error"
	EventCustomerWebhook     = "customer_webhook"
	EventSubscriptionWebhook = "subscription_webhook"
	EventWebhookReceived     = "webhook_received"
	EventWebhookError        = "webhook_error"
	EventSystemError         = "system_error"
	EventSync                = "sync"
)

type SystemLog struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time         `gorm:"not null;index" json:"timestamp"`
	EventType string            `gorm:"not null;index" json:"event_type"`
	Message   string            `gorm:"not null" json:"message"`
	Severity  Severity          `gorm:"type:text;not null" json:"severity"`
	Details   datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
}

// TableName sets the database table name.
func (SystemLog) TableName() string { return "system_logs" }
