package events

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	checkindomain "github.com/gymgate/gymgate/internal/checkin/domain"
	checkinrepo "github.com/gymgate/gymgate/internal/checkin/repository"
	checkinservice "github.com/gymgate/gymgate/internal/checkin/service"
	"github.com/gymgate/gymgate/internal/clock"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	logrepo "github.com/gymgate/gymgate/internal/systemlog/repository"
	logservice "github.com/gymgate/gymgate/internal/systemlog/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type feedFixture struct {
	feed     *Feed
	checkIns checkindomain.Service
	logs     logdomain.Service
	clock    *clock.FakeClock
}

func setupFeed(t *testing.T) feedFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&checkindomain.CheckIn{}, &logdomain.SystemLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))

	checkIns := checkinservice.New(checkinservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: checkinrepo.Provide(),
	})
	logs := logservice.New(logservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: logrepo.Provide(),
	})
	feed := New(Params{Log: log, Clock: clk, CheckIns: checkIns, Logs: logs})

	return feedFixture{feed: feed, checkIns: checkIns, logs: logs, clock: clk}
}

func (f feedFixture) recordCheckIn(t *testing.T, customerID string) {
	t.Helper()
	_, err := f.checkIns.Record(context.Background(), checkindomain.RecordRequest{
		CustomerID:     customerID,
		CustomerName:   "Jordan Reeves",
		MembershipType: memberdomain.MembershipSubscription,
	})
	require.NoError(t, err)
}

func (f feedFixture) recordWebhookLog(t *testing.T, eventType string) {
	t.Helper()
	err := f.logs.Log(context.Background(), logdomain.Entry{
		Message:   "synced from webhook",
		EventType: eventType,
		Severity:  logdomain.SeverityInfo,
	})
	require.NoError(t, err)
}

func TestPollMergesSourcesNewestFirst(t *testing.T) {
	f := setupFeed(t)

	f.recordCheckIn(t, "CUST-1")
	f.clock.Advance(time.Minute)
	f.recordWebhookLog(t, logdomain.EventCustomerWebhook)
	f.clock.Advance(time.Minute)
	f.recordCheckIn(t, "CUST-2")

	events, cursor, err := f.feed.Poll(context.Background(), "", 50)
	require.NoError(t, err)
	require.NotEmpty(t, cursor)

	require.Len(t, events, 3)
	assert.Equal(t, TypeCheckIn, events[0].Type)
	assert.Equal(t, TypeCustomerWebhook, events[1].Type)
	assert.Equal(t, TypeCheckIn, events[2].Type)
	assert.True(t, events[0].Timestamp.After(events[2].Timestamp))
}

func TestPollCursorAdvances(t *testing.T) {
	f := setupFeed(t)

	f.recordCheckIn(t, "CUST-1")
	events, cursor, err := f.feed.Poll(context.Background(), "", 50)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Nothing new: cursor echoes back, no events.
	events, next, err := f.feed.Poll(context.Background(), cursor, 50)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, cursor, next)

	f.clock.Advance(time.Minute)
	f.recordCheckIn(t, "CUST-2")

	events, next, err = f.feed.Poll(context.Background(), cursor, 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "CUST-2", events[0].Details["customer_id"])
	assert.NotEqual(t, cursor, next)
}

func TestPollOverfullWindowSpillsToNextPoll(t *testing.T) {
	f := setupFeed(t)

	for _, eventType := range []string{
		logdomain.EventCustomerWebhook,
		logdomain.EventSubscriptionWebhook,
		logdomain.EventCustomerWebhook,
	} {
		f.recordWebhookLog(t, eventType)
		f.clock.Advance(time.Second)
	}

	// More events than the limit: the oldest two come first, the cursor
	// stops at the newest delivered one.
	events, cursor, err := f.feed.Poll(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, TypeSubscriptionWebhook, events[0].Type)
	assert.Equal(t, TypeCustomerWebhook, events[1].Type)

	events, next, err := f.feed.Poll(context.Background(), cursor, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, TypeCustomerWebhook, events[0].Type)
	assert.NotEqual(t, cursor, next)

	events, _, err = f.feed.Poll(context.Background(), next, 2)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPollIgnoresExcludedLogTypes(t *testing.T) {
	f := setupFeed(t)

	f.recordWebhookLog(t, logdomain.EventSystemError)
	f.recordWebhookLog(t, logdomain.EventSubscriptionWebhook)

	events, _, err := f.feed.Poll(context.Background(), "", 50)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, TypeSubscriptionWebhook, events[0].Type)
}

func TestPollMalformedCursorFallsBack(t *testing.T) {
	f := setupFeed(t)

	// Ten minutes old: outside the default window a bad cursor falls
	// back to.
	f.recordCheckIn(t, "CUST-OLD")
	f.clock.Advance(10 * time.Minute)
	f.recordCheckIn(t, "CUST-NEW")

	events, _, err := f.feed.Poll(context.Background(), "not base64", 50)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "CUST-NEW", events[0].Details["customer_id"])
}
