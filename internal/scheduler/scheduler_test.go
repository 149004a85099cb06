package scheduler

import (
	"context"
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

type factsByCustomer struct {
	subs map[string]*square.SubscriptionFact
	errs map[string]error
}

func (f *factsByCustomer) SearchCustomerByPhone(ctx context.Context, phoneNumber string) (*square.CustomerProfile, error) {
	return nil, nil
}

func (f *factsByCustomer) ListCustomers(ctx context.Context) ([]square.CustomerProfile, error) {
	return nil, nil
}

func (f *factsByCustomer) FetchSubscription(ctx context.Context, customerID string) (*square.SubscriptionFact, error) {
	if err, ok := f.errs[customerID]; ok {
		return nil, err
	}
	return f.subs[customerID], nil
}

func (f *factsByCustomer) FetchRecentPayments(ctx context.Context, customerID string, since time.Time) ([]square.CashPaymentFact, error) {
	if err, ok := f.errs[customerID]; ok {
		return nil, err
	}
	return nil, nil
}

func (f *factsByCustomer) Ping(ctx context.Context) error { return nil }

func TestRunOnceReconcilesDirectory(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&memberdomain.Member{}, &logdomain.SystemLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	policy := config.StaticMembershipPolicyHolder(config.DefaultMembershipPolicy())

	chargedThrough := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	fake := &factsByCustomer{
		subs: map[string]*square.SubscriptionFact{
			"CUST-1": {Status: square.SubscriptionActive, ChargedThroughDate: &chargedThrough},
		},
		errs: map[string]error{
			"CUST-2": fmt.Errorf("search subscriptions: %w", square.ErrUnavailable),
		},
	}

	members := memberservice.New(memberservice.Params{
		DB: db, Log: log, Clock: clk, Repo: memberrepo.Provide(),
	})
	logs := logservice.New(logservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: logrepo.Provide(),
	})
	resolver := coverage.New(coverage.Params{
		Log: log, Clock: clk, Square: fake, Policy: policy, Logs: logs,
	})

	for i, id := range []string{"CUST-1", "CUST-2"} {
		_, err := members.Upsert(context.Background(), memberdomain.UpsertRequest{
			ID:          id,
			Name:        fmt.Sprintf("Member %d", i+1),
			PhoneNumber: fmt.Sprintf("0712345678%d", i),
		})
		require.NoError(t, err)
	}

	s := New(Params{
		Cfg: config.Config{SyncIntervalSecs: 60}, Log: log, Clock: clk,
		Members: members, Resolver: resolver, Logs: logs,
	})
	require.Equal(t, time.Minute, s.interval)
	require.NoError(t, s.RunOnce(context.Background()))

	synced, err := members.GetByID(context.Background(), "CUST-1")
	require.NoError(t, err)
	assert.Equal(t, memberdomain.MembershipSubscription, synced.MembershipType)
	require.NotNil(t, synced.NextPayment)
	assert.WithinDuration(t, chargedThrough, *synced.NextPayment, time.Second)

	// Facts for CUST-2 were unreachable; stored state stays untouched.
	skipped, err := members.GetByID(context.Background(), "CUST-2")
	require.NoError(t, err)
	assert.Equal(t, memberdomain.MembershipUnknown, skipped.MembershipType)
	assert.Nil(t, skipped.NextPayment)

	var syncLogs int64
	require.NoError(t, db.Model(&logdomain.SystemLog{}).
		Where("event_type = ?", logdomain.EventSync).Count(&syncLogs).Error)
	assert.EqualValues(t, 1, syncLogs)
}
