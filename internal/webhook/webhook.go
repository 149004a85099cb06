// Package webhook applies payment-platform event notifications to the
// member directory.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gymgate/gymgate/internal/coverage"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Event is one decoded webhook notification. Signature verification happens
// at the HTTP boundary before an Event is constructed.
type Event struct {
	ID   string          `json:"event_id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type customerPayload struct {
	Object struct {
		Customer struct {
			ID          string `json:"id"`
			GivenName   string `json:"given_name"`
			FamilyName  string `json:"family_name"`
			PhoneNumber string `json:"phone_number"`
		} `json:"customer"`
	} `json:"object"`
}

type subscriptionPayload struct {
	Object struct {
		Subscription struct {
			ID         string `json:"id"`
			CustomerID string `json:"customer_id"`
			Status     string `json:"status"`
		} `json:"subscription"`
	} `json:"object"`
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Members  memberdomain.Service
	Resolver *coverage.Resolver
	Logs     logdomain.Service
}

type Service struct {
	log      *zap.Logger
	members  memberdomain.Service
	resolver *coverage.Resolver
	logs     logdomain.Service
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("webhook.service"),
		members:  p.Members,
		resolver: p.Resolver,
		logs:     p.Logs,
	}
}

// Handle applies one event. Every delivery is recorded before any routing so
// the trail shows exactly what arrived, handled or not.
func (s *Service) Handle(ctx context.Context, event Event) error {
	_ = s.logs.Log(ctx, logdomain.Entry{
		Message:   fmt.Sprintf("webhook received: %s", event.Type),
		EventType: logdomain.EventWebhookReceived,
		Severity:  logdomain.SeverityInfo,
		Details: map[string]any{
			"event_id": event.ID,
			"type":     event.Type,
		},
	})

	switch {
	case strings.HasPrefix(event.Type, "customer."):
		return s.handleCustomer(ctx, event)
	case strings.HasPrefix(event.Type, "subscription."):
		return s.handleSubscription(ctx, event)
	default:
		s.log.Warn("unhandled webhook type", zap.String("type", event.Type))
		_ = s.logs.Log(ctx, logdomain.Entry{
			Message:   fmt.Sprintf("unhandled webhook type: %s", event.Type),
			EventType: logdomain.EventWebhookError,
			Severity:  logdomain.SeverityWarning,
			Details:   map[string]any{"type": event.Type},
		})
		return nil
	}
}

func (s *Service) handleCustomer(ctx context.Context, event Event) error {
	var payload customerPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return s.fail(ctx, event, fmt.Errorf("decode customer payload: %w", err))
	}
	c := payload.Object.Customer
	if c.ID == "" {
		return s.fail(ctx, event, fmt.Errorf("customer payload without id"))
	}

	// Customer events carry identity only. Coverage stays whatever the
	// last reconciliation derived; overwriting it here would lapse a
	// covered member on a routine profile edit.
	req := memberdomain.UpsertRequest{
		ID:          c.ID,
		Name:        strings.TrimSpace(c.GivenName + " " + c.FamilyName),
		PhoneNumber: c.PhoneNumber,
	}
	if existing, err := s.members.GetByID(ctx, c.ID); err == nil {
		req.MembershipType = existing.MembershipType
		req.NextPayment = existing.NextPayment
	}

	member, err := s.members.Upsert(ctx, req)
	if err != nil {
		return s.fail(ctx, event, err)
	}

	return s.logs.Log(ctx, logdomain.Entry{
		Message:   fmt.Sprintf("customer %s synced from webhook", member.ID),
		EventType: logdomain.EventCustomerWebhook,
		Severity:  logdomain.SeverityInfo,
		Details: map[string]any{
			"customer_id":   member.ID,
			"customer_name": member.Name,
			"type":          event.Type,
		},
	})
}

func (s *Service) handleSubscription(ctx context.Context, event Event) error {
	var payload subscriptionPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return s.fail(ctx, event, fmt.Errorf("decode subscription payload: %w", err))
	}
	sub := payload.Object.Subscription
	if sub.CustomerID == "" {
		return s.fail(ctx, event, fmt.Errorf("subscription payload without customer_id"))
	}

	member, err := s.members.GetByID(ctx, sub.CustomerID)
	if err != nil {
		// Not in the directory yet; a later check-in or sync pass will
		// pick the customer up.
		s.log.Info("subscription webhook for unknown member",
			zap.String("customer_id", sub.CustomerID))
		return nil
	}

	cov := s.resolver.Resolve(ctx, member.ID)
	if cov.Degraded && !cov.Valid {
		return s.fail(ctx, event, fmt.Errorf("coverage for %s unavailable", member.ID))
	}

	if _, err := s.members.Upsert(ctx, memberdomain.UpsertRequest{
		ID:             member.ID,
		Name:           member.Name,
		PhoneNumber:    member.PhoneNumber,
		MembershipType: cov.MembershipType,
		NextPayment:    cov.NextPayment,
	}); err != nil {
		return s.fail(ctx, event, err)
	}

	return s.logs.Log(ctx, logdomain.Entry{
		Message:   fmt.Sprintf("subscription for %s reconciled from webhook", member.ID),
		EventType: logdomain.EventSubscriptionWebhook,
		Severity:  logdomain.SeverityInfo,
		Details: map[string]any{
			"customer_id":     member.ID,
			"customer_name":   member.Name,
			"membership_type": string(cov.MembershipType),
			"type":            event.Type,
		},
	})
}

func (s *Service) fail(ctx context.Context, event Event, err error) error {
	s.log.Error("webhook handling failed",
		zap.String("type", event.Type),
		zap.Error(err),
	)
	_ = s.logs.Log(ctx, logdomain.Entry{
		Message:   err.Error(),
		EventType: logdomain.EventWebhookError,
		Severity:  logdomain.SeverityError,
		Details: map[string]any{
			"event_id": event.ID,
			"type":     event.Type,
		},
	})
	return err
}
