// Package renewal produces the expiring-memberships report for the admin
// dashboard.
package renewal

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/config"
	"github.com/gymgate/gymgate/internal/coverage"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusExpired      Status = "Expired"
	StatusExpiringSoon Status = "Expiring Soon"
)

// Entry is one member whose coverage has lapsed or is about to.
type Entry struct {
	ID             string                      `json:"id"`
	Name           string                      `json:"name"`
	PhoneNumber    string                      `json:"phone_number"`
	MembershipType memberdomain.MembershipType `json:"membership_type"`
	ExpiryDate     *time.Time                  `json:"expiry_date,omitempty"`
	Status         Status                      `json:"status"`
	Initials       string                      `json:"initials"`
}

const maxConcurrentLookups = 4

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Members  memberdomain.Service
	Resolver *coverage.Resolver
	Policy   *config.MembershipPolicyHolder
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	members  memberdomain.Service
	resolver *coverage.Resolver
	policy   *config.MembershipPolicyHolder
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("renewal.service"),
		clock:    p.Clock,
		members:  p.Members,
		resolver: p.Resolver,
		policy:   p.Policy,
	}
}

// Report derives fresh coverage for every phone-reachable member and returns
// those expired or expiring within the policy horizon, expired first. Members
// whose facts could not be fetched are skipped rather than misreported.
func (s *Service) Report(ctx context.Context) ([]Entry, error) {
	members, err := s.members.ListWithPhone(ctx)
	if err != nil {
		return nil, err
	}

	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	horizon := s.policy.Get().RenewalHorizonDays

	results := make([]*Entry, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, m := range members {
		g.Go(func() error {
			results[i] = s.classify(gctx, m, today, horizon)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Status != entries[j].Status {
			return entries[i].Status == StatusExpired
		}
		a, b := entries[i].ExpiryDate, entries[j].ExpiryDate
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return entries, nil
}

func (s *Service) classify(ctx context.Context, m *memberdomain.Member, today time.Time, horizon int) *Entry {
	cov := s.resolver.Resolve(ctx, m.ID)

	if !cov.Valid {
		if cov.Degraded {
			s.log.Warn("skipping member with unreachable facts",
				zap.String("customer_id", m.ID))
			return nil
		}
		return &Entry{
			ID:             m.ID,
			Name:           m.Name,
			PhoneNumber:    m.PhoneNumber,
			MembershipType: m.MembershipType,
			ExpiryDate:     m.NextPayment,
			Status:         StatusExpired,
			Initials:       initials(m.Name),
		}
	}

	days := int(cov.NextPayment.UTC().Truncate(24*time.Hour).Sub(today).Hours() / 24)
	if days > horizon {
		return nil
	}

	status := StatusExpiringSoon
	if days < 0 {
		status = StatusExpired
	}
	return &Entry{
		ID:             m.ID,
		Name:           m.Name,
		PhoneNumber:    m.PhoneNumber,
		MembershipType: cov.MembershipType,
		ExpiryDate:     cov.NextPayment,
		Status:         status,
		Initials:       initials(m.Name),
	}
}

// initials returns up to two uppercase initials from the name, "UN" when the
// name yields none.
func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "UN"
	}
	return strings.ToUpper(string(out))
}
