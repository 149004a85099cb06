package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gymgate/gymgate/internal/health"
	"github.com/gymgate/gymgate/internal/metrics"
	"go.uber.org/zap"
)

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	apiVersion        = "2025-03-19"
)

type Config struct {
	AccessToken string
	Environment string // "production" or "sandbox"
	LocationID  string
	Timeout     time.Duration
}

func (c Config) baseURL() string {
	if c.Environment == "production" {
		return productionBaseURL
	}
	return sandboxBaseURL
}

type apiClient struct {
	cfg     Config
	httpc   *http.Client
	log     *zap.Logger
	tracker *health.Tracker
	metrics *metrics.Metrics
}

// NewAPIClient builds the REST client. A missing access token is not fatal:
// every call degrades to ErrUnavailable so the kiosk keeps answering.
func NewAPIClient(cfg Config, log *zap.Logger, tracker *health.Tracker, m *metrics.Metrics) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.AccessToken == "" {
		log.Warn("square access token not provided; upstream lookups disabled")
		tracker.SetUpstreamStatus(health.UpstreamNotConfigured)
	}
	return &apiClient{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		log:     log.Named("square.client"),
		tracker: tracker,
		metrics: m,
	}
}

func (c *apiClient) SearchCustomerByPhone(ctx context.Context, phoneNumber string) (*CustomerProfile, error) {
	body := map[string]any{
		"query": map[string]any{
			"filter": map[string]any{
				"phone_number": map[string]any{"exact": phoneNumber},
			},
		},
	}

	var out struct {
		Customers []customerPayload `json:"customers"`
	}
	if err := c.post(ctx, "/v2/customers/search", body, &out); err != nil {
		return nil, c.unavailable("customers", err)
	}
	c.connected()
	if len(out.Customers) == 0 {
		return nil, nil
	}
	profile := out.Customers[0].profile()
	return &profile, nil
}

func (c *apiClient) ListCustomers(ctx context.Context) ([]CustomerProfile, error) {
	var out struct {
		Customers []customerPayload `json:"customers"`
	}
	if err := c.get(ctx, "/v2/customers", nil, &out); err != nil {
		return nil, c.unavailable("customers", err)
	}
	c.connected()
	profiles := make([]CustomerProfile, 0, len(out.Customers))
	for _, customer := range out.Customers {
		profiles = append(profiles, customer.profile())
	}
	return profiles, nil
}

func (c *apiClient) FetchSubscription(ctx context.Context, customerID string) (*SubscriptionFact, error) {
	filter := map[string]any{
		"customer_ids": []string{customerID},
	}
	if c.cfg.LocationID != "" {
		filter["location_ids"] = []string{c.cfg.LocationID}
	}
	body := map[string]any{
		"query": map[string]any{"filter": filter},
	}

	var out struct {
		Subscriptions []subscriptionPayload `json:"subscriptions"`
	}
	if err := c.post(ctx, "/v2/subscriptions/search", body, &out); err != nil {
		return nil, c.unavailable("subscriptions", err)
	}
	c.connected()

	// Prefer an ACTIVE subscription, then a PENDING one; anything else
	// does not grant coverage and is reported as none.
	var pending *subscriptionPayload
	for i := range out.Subscriptions {
		sub := out.Subscriptions[i]
		switch SubscriptionStatus(sub.Status) {
		case SubscriptionActive:
			fact := sub.fact(customerID)
			return &fact, nil
		case SubscriptionPending:
			if pending == nil {
				pending = &out.Subscriptions[i]
			}
		}
	}
	if pending != nil {
		fact := pending.fact(customerID)
		return &fact, nil
	}
	return nil, nil
}

func (c *apiClient) FetchRecentPayments(ctx context.Context, customerID string, since time.Time) ([]CashPaymentFact, error) {
	params := url.Values{}
	params.Set("begin_time", since.UTC().Format(time.RFC3339))
	params.Set("customer_id", customerID)

	var out struct {
		Payments []paymentPayload `json:"payments"`
	}
	if err := c.get(ctx, "/v2/payments", params, &out); err != nil {
		return nil, c.unavailable("payments", err)
	}
	c.connected()

	facts := make([]CashPaymentFact, 0, len(out.Payments))
	for _, payment := range out.Payments {
		facts = append(facts, payment.fact(customerID))
	}
	return facts, nil
}

func (c *apiClient) Ping(ctx context.Context) error {
	var out struct {
		Locations []json.RawMessage `json:"locations"`
	}
	if err := c.get(ctx, "/v2/locations", nil, &out); err != nil {
		return c.unavailable("locations", err)
	}
	c.connected()
	return nil
}

func (c *apiClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.baseURL()+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *apiClient) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.cfg.baseURL() + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	if c.cfg.AccessToken == "" {
		return errNotConfigured
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Square-Version", apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("square responded %d: %s", resp.StatusCode, string(detail))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// unavailable normalizes any transport failure to the ErrUnavailable
// contract: log, count, mark the tracker, wrap.
func (c *apiClient) unavailable(capability string, cause error) error {
	c.log.Error("square request failed",
		zap.String("capability", capability),
		zap.Error(cause),
	)
	c.metrics.IncUpstreamFailure(capability)
	if errors.Is(cause, errNotConfigured) {
		c.tracker.SetUpstreamStatus(health.UpstreamNotConfigured)
	} else {
		c.tracker.SetUpstreamStatus(health.UpstreamError)
	}
	c.tracker.RecordError(cause.Error())
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, capability, cause)
}

func (c *apiClient) connected() {
	c.tracker.SetUpstreamStatus(health.UpstreamConnected)
}

var errNotConfigured = errors.New("access token not configured")

type customerPayload struct {
	ID          string `json:"id"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	PhoneNumber string `json:"phone_number"`
}

func (p customerPayload) profile() CustomerProfile {
	return CustomerProfile{
		ID:          p.ID,
		GivenName:   p.GivenName,
		FamilyName:  p.FamilyName,
		PhoneNumber: p.PhoneNumber,
	}
}

type subscriptionPayload struct {
	Status             string `json:"status"`
	ChargedThroughDate string `json:"charged_through_date"`
}

func (p subscriptionPayload) fact(customerID string) SubscriptionFact {
	fact := SubscriptionFact{
		CustomerID: customerID,
		Status:     SubscriptionStatus(p.Status),
	}
	if p.ChargedThroughDate != "" {
		if parsed, err := time.Parse("2006-01-02", p.ChargedThroughDate); err == nil {
			fact.ChargedThroughDate = &parsed
		}
	}
	return fact
}

type paymentPayload struct {
	SourceType  string `json:"source_type"`
	Status      string `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	RefundIDs   []string `json:"refund_ids"`
	AmountMoney struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"amount_money"`
	RefundedMoney *struct {
		Amount int64 `json:"amount"`
	} `json:"refunded_money"`
}

func (p paymentPayload) fact(customerID string) CashPaymentFact {
	return CashPaymentFact{
		CustomerID: customerID,
		Amount:     p.AmountMoney.Amount,
		Currency:   p.AmountMoney.Currency,
		CreatedAt:  p.CreatedAt,
		SourceType: p.SourceType,
		Canceled:   p.Status == "CANCELED",
		Refunded:   len(p.RefundIDs) > 0 || p.RefundedMoney != nil,
	}
}
