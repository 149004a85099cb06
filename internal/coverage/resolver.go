// Package coverage derives membership coverage from fresh payment-source
// facts. All reconciliation paths share this one derivation so a member is
// never classified two different ways in the same release.
package coverage

import (
	"context"
	"errors"
	"time"

	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/config"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	"github.com/gymgate/gymgate/internal/square"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	PaymentStatusSubscription = "Subscription Active"
	PaymentStatusCash         = "Recent Cash Payment"
	PaymentStatusNone         = "No Recent Payment"
)

// Result is one consistent snapshot of a member's coverage. When Valid,
// NextPayment is the last day entry is granted, inclusive.
type Result struct {
	Valid          bool
	MembershipType memberdomain.MembershipType
	PaymentStatus  string
	NextPayment    *time.Time
	// Degraded marks a result derived with at least one upstream fetch
	// failing. An invalid degraded result means "unknown", not "lapsed".
	Degraded bool
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Square square.Client
	Policy *config.MembershipPolicyHolder
	Logs   logdomain.Service
}

type Resolver struct {
	log    *zap.Logger
	clock  clock.Clock
	square square.Client
	policy *config.MembershipPolicyHolder
	logs   logdomain.Service
}

func New(p Params) *Resolver {
	return &Resolver{
		log:    p.Log.Named("coverage.resolver"),
		clock:  p.Clock,
		square: p.Square,
		policy: p.Policy,
		logs:   p.Logs,
	}
}

// Resolve fetches facts for one customer and reduces them to a Result.
// Subscription coverage always takes precedence over cash coverage. An
// unavailable upstream degrades to fewer facts: each failed fetch is logged
// and treated as having returned nothing.
func (r *Resolver) Resolve(ctx context.Context, customerID string) Result {
	today := day(r.clock.Now())
	policy := r.policy.Get()

	sub, subDegraded := r.subscription(ctx, customerID)
	if sub != nil && sub.ChargedThroughDate != nil &&
		!day(*sub.ChargedThroughDate).Before(today) {
		next := *sub.ChargedThroughDate
		return Result{
			Valid:          true,
			MembershipType: memberdomain.MembershipSubscription,
			PaymentStatus:  PaymentStatusSubscription,
			NextPayment:    &next,
			Degraded:       subDegraded,
		}
	}

	payment, payDegraded := r.latestValidCash(ctx, customerID, policy, today)
	if payment != nil {
		next := payment.CreatedAt.Add(policy.Lookback())
		return Result{
			Valid:          true,
			MembershipType: memberdomain.MembershipCash,
			PaymentStatus:  PaymentStatusCash,
			NextPayment:    &next,
			Degraded:       subDegraded,
		}
	}

	return Result{
		MembershipType: memberdomain.MembershipUnknown,
		PaymentStatus:  PaymentStatusNone,
		Degraded:       subDegraded || payDegraded,
	}
}

func (r *Resolver) subscription(ctx context.Context, customerID string) (*square.SubscriptionFact, bool) {
	sub, err := r.square.FetchSubscription(ctx, customerID)
	if err != nil {
		r.degrade(ctx, "subscription lookup failed", customerID, err)
		return nil, true
	}
	if sub == nil {
		return nil, false
	}
	switch sub.Status {
	case square.SubscriptionActive, square.SubscriptionPending:
		return sub, false
	default:
		return nil, false
	}
}

func (r *Resolver) latestValidCash(ctx context.Context, customerID string, policy config.MembershipPolicy, today time.Time) (*square.CashPaymentFact, bool) {
	since := today.Add(-policy.Lookback())
	payments, err := r.square.FetchRecentPayments(ctx, customerID, since)
	if err != nil {
		r.degrade(ctx, "payment lookup failed", customerID, err)
		return nil, true
	}

	var latest *square.CashPaymentFact
	for i := range payments {
		p := payments[i]
		if p.Canceled || p.Refunded {
			continue
		}
		if !policy.AcceptsCurrency(p.Currency) || !policy.AmountInBand(p.Amount) {
			continue
		}
		if day(p.CreatedAt).Before(since) {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = &payments[i]
		}
	}
	return latest, false
}

// degrade records an upstream failure and moves on. Unavailability must
// never surface as a caller-visible error from Resolve.
func (r *Resolver) degrade(ctx context.Context, msg, customerID string, err error) {
	r.log.Error(msg, zap.String("customer_id", customerID), zap.Error(err))
	if errors.Is(err, square.ErrUnavailable) {
		_ = r.logs.Error(ctx, err, logdomain.EventSystemError)
	}
}

func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
