package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/config"
	"github.com/gymgate/gymgate/internal/coverage"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	memberrepo "github.com/gymgate/gymgate/internal/member/repository"
	memberservice "github.com/gymgate/gymgate/internal/member/service"
	"github.com/gymgate/gymgate/internal/square"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	logrepo "github.com/gymgate/gymgate/internal/systemlog/repository"
	logservice "github.com/gymgate/gymgate/internal/systemlog/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type upstreamStub struct {
	sub *square.SubscriptionFact
}

func (s *upstreamStub) SearchCustomerByPhone(ctx context.Context, phoneNumber string) (*square.CustomerProfile, error) {
	return nil, nil
}

func (s *upstreamStub) ListCustomers(ctx context.Context) ([]square.CustomerProfile, error) {
	return nil, nil
}

func (s *upstreamStub) FetchSubscription(ctx context.Context, customerID string) (*square.SubscriptionFact, error) {
	return s.sub, nil
}

func (s *upstreamStub) FetchRecentPayments(ctx context.Context, customerID string, since time.Time) ([]square.CashPaymentFact, error) {
	return nil, nil
}

func (s *upstreamStub) Ping(ctx context.Context) error { return nil }

type webhookFixture struct {
	svc     *Service
	db      *gorm.DB
	members memberdomain.Service
}

func setupWebhook(t *testing.T, sq *upstreamStub) webhookFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&memberdomain.Member{}, &logdomain.SystemLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	policy := config.StaticMembershipPolicyHolder(config.DefaultMembershipPolicy())

	members := memberservice.New(memberservice.Params{
		DB: db, Log: log, Clock: clk, Repo: memberrepo.Provide(),
	})
	logs := logservice.New(logservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: logrepo.Provide(),
	})
	resolver := coverage.New(coverage.Params{
		Log: log, Clock: clk, Square: sq, Policy: policy, Logs: logs,
	})

	svc := New(Params{Log: log, Members: members, Resolver: resolver, Logs: logs})
	return webhookFixture{svc: svc, db: db, members: members}
}

func (f webhookFixture) logCount(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&logdomain.SystemLog{}).
		Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func customerEvent(t *testing.T, eventType, id, givenName, phone string) Event {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"object": map[string]any{
			"customer": map[string]any{
				"id":           id,
				"given_name":   givenName,
				"family_name":  "Reeves",
				"phone_number": phone,
			},
		},
	})
	require.NoError(t, err)
	return Event{ID: "evt-1", Type: eventType, Data: data}
}

func TestHandleCustomerUpserts(t *testing.T) {
	f := setupWebhook(t, &upstreamStub{})

	event := customerEvent(t, "customer.updated", "CUST-1", "Jordan", "07123456789")
	require.NoError(t, f.svc.Handle(context.Background(), event))

	member, err := f.members.GetByID(context.Background(), "CUST-1")
	require.NoError(t, err)
	assert.Equal(t, "Jordan Reeves", member.Name)
	assert.Equal(t, "+447123456789", member.PhoneNumber)

	assert.EqualValues(t, 1, f.logCount(t, logdomain.EventWebhookReceived))
	assert.EqualValues(t, 1, f.logCount(t, logdomain.EventCustomerWebhook))
}

func TestHandleCustomerKeepsCoverage(t *testing.T) {
	f := setupWebhook(t, &upstreamStub{})

	nextPayment := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	_, err := f.members.Upsert(context.Background(), memberdomain.UpsertRequest{
		ID:             "CUST-1",
		Name:           "Jordan Reeves",
		PhoneNumber:    "07123456789",
		MembershipType: memberdomain.MembershipSubscription,
		NextPayment:    &nextPayment,
	})
	require.NoError(t, err)

	// A profile edit carries no coverage facts and must not lapse the
	// member.
	event := customerEvent(t, "customer.updated", "CUST-1", "Jordan B", "07123456789")
	require.NoError(t, f.svc.Handle(context.Background(), event))

	member, err := f.members.GetByID(context.Background(), "CUST-1")
	require.NoError(t, err)
	assert.Equal(t, "Jordan B Reeves", member.Name)
	assert.Equal(t, memberdomain.MembershipSubscription, member.MembershipType)
	require.NotNil(t, member.NextPayment)
	assert.WithinDuration(t, nextPayment, *member.NextPayment, time.Second)
}

func TestHandleSubscriptionReconciles(t *testing.T) {
	chargedThrough := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	f := setupWebhook(t, &upstreamStub{
		sub: &square.SubscriptionFact{
			Status:             square.SubscriptionActive,
			ChargedThroughDate: &chargedThrough,
		},
	})

	_, err := f.members.Upsert(context.Background(), memberdomain.UpsertRequest{
		ID:          "CUST-1",
		Name:        "Jordan Reeves",
		PhoneNumber: "07123456789",
	})
	require.NoError(t, err)

	data, err := json.Marshal(map[string]any{
		"object": map[string]any{
			"subscription": map[string]any{
				"id":          "sub-1",
				"customer_id": "CUST-1",
				"status":      "ACTIVE",
			},
		},
	})
	require.NoError(t, err)

	err = f.svc.Handle(context.Background(), Event{ID: "evt-2", Type: "subscription.updated", Data: data})
	require.NoError(t, err)

	member, err := f.members.GetByID(context.Background(), "CUST-1")
	require.NoError(t, err)
	assert.Equal(t, memberdomain.MembershipSubscription, member.MembershipType)
	require.NotNil(t, member.NextPayment)
	assert.WithinDuration(t, chargedThrough, *member.NextPayment, time.Second)

	assert.EqualValues(t, 1, f.logCount(t, logdomain.EventSubscriptionWebhook))
}

func TestHandleUnknownTypeLogsWarning(t *testing.T) {
	f := setupWebhook(t, &upstreamStub{})

	err := f.svc.Handle(context.Background(), Event{ID: "evt-3", Type: "payment.created", Data: []byte(`{}`)})
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.logCount(t, logdomain.EventWebhookReceived))
	assert.EqualValues(t, 1, f.logCount(t, logdomain.EventWebhookError))
}

func TestHandleMalformedPayloadFails(t *testing.T) {
	f := setupWebhook(t, &upstreamStub{})

	err := f.svc.Handle(context.Background(), Event{ID: "evt-4", Type: "customer.updated", Data: []byte(`{"object":`)})
	assert.Error(t, err)
	assert.EqualValues(t, 1, f.logCount(t, logdomain.EventWebhookError))
}
