// Package square is the client for the Square platform, the system's only
// upstream source of subscription and payment facts.
package square

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable marks a transport-level failure (network error, non-2xx,
// timeout, missing credentials). Callers must treat it as "no facts found"
// rather than failing the operation: a degraded upstream degrades the
// quality of a decision, never its availability.
var ErrUnavailable = errors.New("square_unavailable")

type SubscriptionStatus string

const (
	SubscriptionActive      SubscriptionStatus = "ACTIVE"
	SubscriptionPending     SubscriptionStatus = "PENDING"
	SubscriptionCanceled    SubscriptionStatus = "CANCELED"
	SubscriptionDeactivated SubscriptionStatus = "DEACTIVATED"
	SubscriptionPaused      SubscriptionStatus = "PAUSED"
)

// SubscriptionFact is a point-in-time view of a customer's subscription.
// Never cached beyond a single decision.
type SubscriptionFact struct {
	CustomerID         string
	Status             SubscriptionStatus
	ChargedThroughDate *time.Time
}

// CashPaymentFact is a point-in-time view of a one-off payment.
type CashPaymentFact struct {
	CustomerID string
	Amount     int64 // minor units
	Currency   string
	CreatedAt  time.Time
	SourceType string
	Canceled   bool
	Refunded   bool
}

type CustomerProfile struct {
	ID          string
	GivenName   string
	FamilyName  string
	PhoneNumber string
}

func (p CustomerProfile) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// Client fetches facts from Square. No caching, no retries beyond the
// transport's own. Zero results are (nil, nil) / empty slice; only
// transport failures return an error, always wrapping ErrUnavailable.
type Client interface {
	SearchCustomerByPhone(ctx context.Context, phoneNumber string) (*CustomerProfile, error)
	ListCustomers(ctx context.Context) ([]CustomerProfile, error)
	FetchSubscription(ctx context.Context, customerID string) (*SubscriptionFact, error)
	FetchRecentPayments(ctx context.Context, customerID string, since time.Time) ([]CashPaymentFact, error)
	Ping(ctx context.Context) error
}
