package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gymgate/gymgate/internal/admission/domain"
	checkindomain "github.com/gymgate/gymgate/internal/checkin/domain"
	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/coverage"
	"github.com/gymgate/gymgate/internal/health"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	"github.com/gymgate/gymgate/internal/metrics"
	"github.com/gymgate/gymgate/internal/square"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Square   square.Client
	Resolver *coverage.Resolver
	Members  memberdomain.Service
	CheckIns checkindomain.Service
	Logs     logdomain.Service
	Tracker  *health.Tracker
	Metrics  *metrics.Metrics
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	square   square.Client
	resolver *coverage.Resolver
	members  memberdomain.Service
	checkIns checkindomain.Service
	logs     logdomain.Service
	tracker  *health.Tracker
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("admission.service"),
		clock:    p.Clock,
		square:   p.Square,
		resolver: p.Resolver,
		members:  p.Members,
		checkIns: p.CheckIns,
		logs:     p.Logs,
		tracker:  p.Tracker,
		metrics:  p.Metrics,
	}
}

// identity is what the engine knows about the person at the door before
// coverage is decided.
type identity struct {
	customerID   string
	name         string
	phone        string
	fromUpstream bool
}

func (s *Service) CheckIn(ctx context.Context, rawPhone string) (verdict domain.Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("admission panicked", zap.Any("panic", rec))
			verdict = s.reject(ctx, identity{}, domain.ReasonUnexpectedError,
				fmt.Errorf("admission panic: %v", rec))
		}
	}()

	phone := memberdomain.NormalizePhone(rawPhone)
	if phone == "" {
		return s.reject(ctx, identity{}, domain.ReasonMissingPhone, nil)
	}

	who, member, err := s.resolve(ctx, phone)
	if err != nil {
		return s.reject(ctx, identity{phone: phone}, domain.ReasonUnexpectedError, err)
	}
	if who == nil {
		return s.reject(ctx, identity{phone: phone}, domain.ReasonCustomerNotFound, nil)
	}

	// Fast path: a directory member whose stored reconciliation still
	// grants entry needs no upstream calls.
	if member != nil && member.MembershipType != memberdomain.MembershipUnknown &&
		member.CoverageValid(s.clock.Now()) {
		return s.admit(ctx, *who, coverage.Result{
			Valid:          true,
			MembershipType: member.MembershipType,
			PaymentStatus:  paymentStatusFor(member.MembershipType),
			NextPayment:    member.NextPayment,
		})
	}

	cov := s.resolver.Resolve(ctx, who.customerID)
	if cov.Valid {
		return s.admit(ctx, *who, cov)
	}

	if who.fromUpstream {
		// Cache the identity so the directory knows this person even
		// though they were turned away.
		if _, err := s.members.Upsert(ctx, memberdomain.UpsertRequest{
			ID:             who.customerID,
			Name:           who.name,
			PhoneNumber:    who.phone,
			MembershipType: cov.MembershipType,
		}); err != nil {
			s.log.Error("member cache upsert failed", zap.Error(err))
		}
	}

	return s.rejectKnown(ctx, *who, domain.ReasonNoActiveMembership)
}

// resolve finds the identity behind a normalized phone number: directory
// first, upstream search as fallback. A missing identity is (nil, nil, nil).
func (s *Service) resolve(ctx context.Context, phone string) (*identity, *memberdomain.Member, error) {
	member, err := s.members.ResolveByPhone(ctx, phone)
	switch {
	case err == nil:
		return &identity{
			customerID: member.ID,
			name:       member.Name,
			phone:      phone,
		}, member, nil
	case errors.Is(err, memberdomain.ErrNotFound):
	default:
		return nil, nil, err
	}

	profile, err := s.square.SearchCustomerByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, square.ErrUnavailable) {
			_ = s.logs.Error(ctx, err, logdomain.EventSystemError)
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, nil
	}

	return &identity{
		customerID:   profile.ID,
		name:         profile.FullName(),
		phone:        phone,
		fromUpstream: true,
	}, nil, nil
}

func (s *Service) admit(ctx context.Context, who identity, cov coverage.Result) domain.Verdict {
	entry := logdomain.Entry{
		Message:   fmt.Sprintf("%s checked in", displayName(who.name)),
		EventType: logdomain.EventCheckIn,
		Severity:  logdomain.SeverityInfo,
		Details: map[string]any{
			"customer_id":     who.customerID,
			"customer_name":   who.name,
			"phone_number":    who.phone,
			"membership_type": string(cov.MembershipType),
			"payment_status":  cov.PaymentStatus,
		},
	}
	// Audit entry strictly before the ledger row: a ledger row without a
	// matching log entry must never exist.
	if err := s.logs.Log(ctx, entry); err != nil {
		return s.reject(ctx, who, domain.ReasonUnexpectedError, err)
	}

	if _, err := s.checkIns.Record(ctx, checkindomain.RecordRequest{
		CustomerID:     who.customerID,
		CustomerName:   who.name,
		PhoneNumber:    who.phone,
		MembershipType: cov.MembershipType,
	}); err != nil {
		return s.reject(ctx, who, domain.ReasonUnexpectedError, err)
	}

	if _, err := s.members.Upsert(ctx, memberdomain.UpsertRequest{
		ID:             who.customerID,
		Name:           who.name,
		PhoneNumber:    who.phone,
		MembershipType: cov.MembershipType,
		NextPayment:    cov.NextPayment,
	}); err != nil {
		s.log.Error("member upsert after admission failed",
			zap.String("customer_id", who.customerID),
			zap.Error(err),
		)
	}

	s.tracker.RecordCheckIn(who.name, true)
	s.metrics.IncAdmission(true, "")

	return domain.Verdict{
		Success: true,
		Message: fmt.Sprintf("Welcome, %s!", displayName(who.name)),
		Customer: &domain.Snapshot{
			ID:               who.customerID,
			Name:             who.name,
			MembershipStatus: "Active",
			ExpirationDate:   cov.NextPayment,
			PaymentStatus:    cov.PaymentStatus,
		},
	}
}

// rejectKnown rejects someone whose identity resolved but whose coverage did
// not, attaching the snapshot so the kiosk can name them.
func (s *Service) rejectKnown(ctx context.Context, who identity, reason domain.Reason) domain.Verdict {
	verdict := s.reject(ctx, who, reason, nil)
	verdict.Customer = &domain.Snapshot{
		ID:               who.customerID,
		Name:             who.name,
		MembershipStatus: "Inactive",
		PaymentStatus:    coverage.PaymentStatusNone,
	}
	return verdict
}

func (s *Service) reject(ctx context.Context, who identity, reason domain.Reason, cause error) domain.Verdict {
	severity := logdomain.SeverityWarning
	if reason == domain.ReasonUnexpectedError {
		severity = logdomain.SeverityError
	}

	details := map[string]any{
		"reason":       string(reason),
		"phone_number": who.phone,
	}
	if who.customerID != "" {
		details["customer_id"] = who.customerID
	}
	if cause != nil {
		details["error"] = cause.Error()
		s.log.Error("admission failed", zap.String("reason", string(reason)), zap.Error(cause))
	}

	if err := s.logs.Log(ctx, logdomain.Entry{
		Message:   rejectionMessage(reason),
		EventType: logdomain.EventCheckInError,
		Severity:  severity,
		Details:   details,
	}); err != nil {
		s.log.Error("rejection audit write failed", zap.Error(err))
	}

	s.tracker.RecordCheckIn(who.name, false)
	s.metrics.IncAdmission(false, string(reason))

	return domain.Verdict{
		Success: false,
		Message: rejectionMessage(reason),
		Reason:  reason,
	}
}

func rejectionMessage(reason domain.Reason) string {
	switch reason {
	case domain.ReasonMissingPhone:
		return "Phone number is required"
	case domain.ReasonCustomerNotFound:
		return "No member found for this phone number"
	case domain.ReasonNoActiveMembership:
		return "No active membership or recent payment found"
	default:
		return "Something went wrong, please try again"
	}
}

func paymentStatusFor(t memberdomain.MembershipType) string {
	if t == memberdomain.MembershipSubscription {
		return coverage.PaymentStatusSubscription
	}
	return coverage.PaymentStatusCash
}

func displayName(name string) string {
	if name == "" {
		return "member"
	}
	return name
}
