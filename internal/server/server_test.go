package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	admissionservice "github.com/gymgate/gymgate/internal/admission/service"
	checkindomain "github.com/gymgate/gymgate/internal/checkin/domain"
	checkinrepo "github.com/gymgate/gymgate/internal/checkin/repository"
	checkinservice "github.com/gymgate/gymgate/internal/checkin/service"
	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/config"
	"github.com/gymgate/gymgate/internal/coverage"
	"github.com/gymgate/gymgate/internal/events"
	"github.com/gymgate/gymgate/internal/health"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	memberrepo "github.com/gymgate/gymgate/internal/member/repository"
	memberservice "github.com/gymgate/gymgate/internal/member/service"
	"github.com/gymgate/gymgate/internal/metrics"
	"github.com/gymgate/gymgate/internal/renewal"
	"github.com/gymgate/gymgate/internal/square"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	logrepo "github.com/gymgate/gymgate/internal/systemlog/repository"
	logservice "github.com/gymgate/gymgate/internal/systemlog/service"
	"github.com/gymgate/gymgate/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type upstreamFake struct {
	profile  *square.CustomerProfile
	sub      *square.SubscriptionFact
	payments []square.CashPaymentFact
}

func (f *upstreamFake) SearchCustomerByPhone(ctx context.Context, phoneNumber string) (*square.CustomerProfile, error) {
	return f.profile, nil
}

func (f *upstreamFake) ListCustomers(ctx context.Context) ([]square.CustomerProfile, error) {
	return nil, nil
}

func (f *upstreamFake) FetchSubscription(ctx context.Context, customerID string) (*square.SubscriptionFact, error) {
	return f.sub, nil
}

func (f *upstreamFake) FetchRecentPayments(ctx context.Context, customerID string, since time.Time) ([]square.CashPaymentFact, error) {
	return f.payments, nil
}

func (f *upstreamFake) Ping(ctx context.Context) error { return nil }

type serverFixture struct {
	srv     *Server
	db      *gorm.DB
	members memberdomain.Service
}

func setupServer(t *testing.T, fake *upstreamFake, cfg config.Config) serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Member{},
		&checkindomain.CheckIn{},
		&logdomain.SystemLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	tracker := health.NewTracker(clk)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	policy := config.StaticMembershipPolicyHolder(config.DefaultMembershipPolicy())

	members := memberservice.New(memberservice.Params{
		DB: db, Log: log, Clock: clk, Repo: memberrepo.Provide(),
	})
	checkIns := checkinservice.New(checkinservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: checkinrepo.Provide(),
	})
	logs := logservice.New(logservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: logrepo.Provide(),
	})
	resolver := coverage.New(coverage.Params{
		Log: log, Clock: clk, Square: fake, Policy: policy, Logs: logs,
	})
	admission := admissionservice.New(admissionservice.Params{
		Log:      log,
		Clock:    clk,
		Square:   fake,
		Resolver: resolver,
		Members:  members,
		CheckIns: checkIns,
		Logs:     logs,
		Tracker:  tracker,
		Metrics:  m,
	})
	renewals := renewal.New(renewal.Params{
		Log: log, Clock: clk, Members: members, Resolver: resolver, Policy: policy,
	})
	feed := events.New(events.Params{
		Log: log, Clock: clk, CheckIns: checkIns, Logs: logs,
	})
	hooks := webhook.New(webhook.Params{
		Log: log, Members: members, Resolver: resolver, Logs: logs,
	})

	srv := NewServer(ServerParams{
		Gin:          NewEngine(log),
		Cfg:          cfg,
		Log:          log,
		Clock:        clk,
		AdmissionSvc: admission,
		MemberSvc:    members,
		CheckinSvc:   checkIns,
		LogSvc:       logs,
		RenewalSvc:   renewals,
		Feed:         feed,
		WebhookSvc:   hooks,
		SquareClient: fake,
		Tracker:      tracker,
	})

	return serverFixture{srv: srv, db: db, members: members}
}

func (f serverFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.srv.Engine().ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCheckInRejectionKeepsHTTPOK(t *testing.T) {
	f := setupServer(t, &upstreamFake{}, config.Config{})

	w := f.do(jsonRequest(t, http.MethodPost, "/api/checkin", gin.H{"phone_number": "07123456789"}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "CUSTOMER_NOT_FOUND", resp["error"])
}

func TestCheckInAdmitsKnownMember(t *testing.T) {
	chargedThrough := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	fake := &upstreamFake{
		profile: &square.CustomerProfile{
			ID:          "CUST-1",
			GivenName:   "Jordan",
			FamilyName:  "Reeves",
			PhoneNumber: "+447123456789",
		},
		sub: &square.SubscriptionFact{
			Status:             square.SubscriptionActive,
			ChargedThroughDate: &chargedThrough,
		},
	}
	f := setupServer(t, fake, config.Config{})

	w := f.do(jsonRequest(t, http.MethodPost, "/api/checkin", gin.H{"phone_number": "07123456789"}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/checkins", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list["total"])
}

func TestCheckInMalformedBody(t *testing.T) {
	f := setupServer(t, &upstreamFake{}, config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/checkin", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func signBody(key string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookSignatureRequired(t *testing.T) {
	f := setupServer(t, &upstreamFake{}, config.Config{SquareWebhookKey: "secret"})
	body := []byte(`{"event_id":"evt-1","type":"customer.updated","data":{"object":{"customer":{"id":"CUST-1","given_name":"Jordan","phone_number":"07123456789"}}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/square", bytes.NewReader(body))
	req.Header.Set(signatureHeader, "bogus")
	w := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/square", bytes.NewReader(body))
	req.Header.Set(signatureHeader, signBody("secret", body))
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	member, err := f.members.GetByID(context.Background(), "CUST-1")
	require.NoError(t, err)
	assert.Equal(t, "+447123456789", member.PhoneNumber)
}

func TestWebhookSignatureSkippedWhenUnset(t *testing.T) {
	f := setupServer(t, &upstreamFake{}, config.Config{})
	body := []byte(`{"event_id":"evt-1","type":"customer.created","data":{"object":{"customer":{"id":"CUST-2","given_name":"Sam"}}}}`)

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/webhooks/square", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRejectsEmptyType(t *testing.T) {
	f := setupServer(t, &upstreamFake{}, config.Config{})

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/webhooks/square", strings.NewReader(`{"event_id":"evt-1"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusAndReset(t *testing.T) {
	f := setupServer(t, &upstreamFake{}, config.Config{})

	f.do(jsonRequest(t, http.MethodPost, "/api/checkin", gin.H{"phone_number": ""}))

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.NotNil(t, status["last_check_in"])

	w = f.do(httptest.NewRequest(http.MethodDelete, "/api/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(httptest.NewRequest(http.MethodDelete, "/api/admin/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Nil(t, status["last_check_in"])
}
