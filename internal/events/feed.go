// Package events projects recent activity into the incremental feed polled
// by the dashboard.
package events

import (
	"context"
	"sort"
	"strconv"
	"time"

	checkindomain "github.com/gymgate/gymgate/internal/checkin/domain"
	"github.com/gymgate/gymgate/internal/clock"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	"github.com/gymgate/gymgate/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	TypeCheckIn             = "check_in"
	TypeCustomerWebhook     = "customer_webhook"
	TypeSubscriptionWebhook = "subscription_webhook"
)

// defaultWindow bounds the first poll when no cursor is presented.
const defaultWindow = 5 * time.Minute

// Event is one feed item. ID is unique per source row; Timestamp drives the
// cursor.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	CheckIns checkindomain.Service
	Logs     logdomain.Service
}

type Feed struct {
	log      *zap.Logger
	clock    clock.Clock
	checkIns checkindomain.Service
	logs     logdomain.Service
}

func New(p Params) *Feed {
	return &Feed{
		log:      p.Log.Named("events.feed"),
		clock:    p.Clock,
		checkIns: p.CheckIns,
		logs:     p.Logs,
	}
}

// Poll returns events newer than the cursor, newest first, plus the cursor
// for the next poll. A missing or malformed cursor falls back to the default
// window; an empty poll echoes the cursor back unchanged.
func (f *Feed) Poll(ctx context.Context, cursor string, limit int) ([]Event, string, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	after, afterID := f.decodeCursor(cursor)

	events, err := f.collect(ctx, after, afterID, limit)
	if err != nil {
		return nil, "", err
	}

	// Every source reads oldest-first past the cursor, so keeping the
	// oldest of the merged set and advancing the cursor to the newest item
	// actually delivered means an overfull window spills into the next
	// poll instead of falling behind the cursor.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}

	if len(events) == 0 {
		return events, cursor, nil
	}

	newest := events[len(events)-1]
	next, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        newest.ID,
		Timestamp: newest.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, "", err
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, next, nil
}

func (f *Feed) collect(ctx context.Context, after time.Time, afterID int64, limit int) ([]Event, error) {
	checkIns, err := f.checkIns.ListAfter(ctx, after, afterID, limit)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(checkIns))
	for _, c := range checkIns {
		events = append(events, Event{
			ID:        c.ID.String(),
			Type:      TypeCheckIn,
			Timestamp: c.CheckInTime,
			Message:   c.CustomerName + " checked in",
			Details: map[string]any{
				"customer_id":     c.CustomerID,
				"customer_name":   c.CustomerName,
				"membership_type": string(c.MembershipType),
			},
		})
	}

	logs, err := f.logs.ListAfter(ctx, after,
		[]string{logdomain.EventCustomerWebhook, logdomain.EventSubscriptionWebhook}, limit)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		events = append(events, Event{
			ID:        l.ID.String(),
			Type:      l.EventType,
			Timestamp: l.Timestamp,
			Message:   l.Message,
			Details:   l.Details,
		})
	}
	return events, nil
}

// decodeCursor recovers the high-water mark from an opaque token. Any
// malformed token degrades to the default window rather than an error so a
// stale dashboard can always resync.
func (f *Feed) decodeCursor(token string) (time.Time, int64) {
	fallback := f.clock.Now().Add(-defaultWindow)
	if token == "" {
		return fallback, 0
	}

	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		f.log.Debug("malformed feed cursor", zap.Error(err))
		return fallback, 0
	}
	ts, err := time.Parse(time.RFC3339Nano, cursor.Timestamp)
	if err != nil {
		return fallback, 0
	}

	var id int64
	if cursor.ID != "" {
		id, _ = strconv.ParseInt(cursor.ID, 10, 64)
	}
	return ts, id
}
