// Package domain contains the admission verdict types handed back to the
// kiosk.
package domain

import "time"

// Reason is the closed set of rejection reason codes. Empty on admission.
type Reason string

const (
	ReasonMissingPhone       Reason = "MISSING_PHONE_NUMBER"
	ReasonCustomerNotFound   Reason = "CUSTOMER_NOT_FOUND"
	ReasonNoActiveMembership Reason = "NO_ACTIVE_MEMBERSHIP"
	ReasonUnexpectedError    Reason = "UNEXPECTED_ERROR"
)

// Snapshot is the denormalized customer view attached to a verdict. It
// reflects the moment of decision and is never updated retroactively.
type Snapshot struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	MembershipStatus string     `json:"membership_status"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`
	PaymentStatus    string     `json:"payment_status"`
}

// Verdict is the single outcome of a check-in attempt. Success carries a
// populated Customer; rejection carries a Reason and a kiosk-safe Message.
type Verdict struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Reason   Reason    `json:"error,omitempty"`
	Customer *Snapshot `json:"customer_data,omitempty"`
}
