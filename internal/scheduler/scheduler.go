// Package scheduler runs the periodic directory reconciliation that keeps
// stored coverage aligned with upstream facts.
package scheduler

import (
	"context"
	"time"

	"github.com/gymgate/gymgate/internal/clock"
	"github.com/gymgate/gymgate/internal/config"
	"github.com/gymgate/gymgate/internal/coverage"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultInterval = 15 * time.Minute

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Members  memberdomain.Service
	Resolver *coverage.Resolver
	Logs     logdomain.Service
}

type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	members  memberdomain.Service
	resolver *coverage.Resolver
	logs     logdomain.Service
	interval time.Duration
	done     chan struct{}
}

func New(p Params) *Scheduler {
	interval := defaultInterval
	if p.Cfg.SyncIntervalSecs > 0 {
		interval = time.Duration(p.Cfg.SyncIntervalSecs) * time.Second
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler"),
		clock:    p.Clock,
		members:  p.Members,
		resolver: p.Resolver,
		logs:     p.Logs,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// RunOnce reconciles every phone-reachable member against fresh facts.
// Members whose facts are unreachable keep their stored coverage.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	started := s.clock.Now()
	members, err := s.members.ListWithPhone(ctx)
	if err != nil {
		return err
	}

	var synced, skipped int
	for _, m := range members {
		cov := s.resolver.Resolve(ctx, m.ID)
		if cov.Degraded && !cov.Valid {
			skipped++
			continue
		}

		if _, err := s.members.Upsert(ctx, memberdomain.UpsertRequest{
			ID:             m.ID,
			Name:           m.Name,
			PhoneNumber:    m.PhoneNumber,
			MembershipType: cov.MembershipType,
			NextPayment:    cov.NextPayment,
		}); err != nil {
			s.log.Error("member sync failed",
				zap.String("customer_id", m.ID),
				zap.Error(err),
			)
			skipped++
			continue
		}
		synced++
	}

	s.log.Info("directory sync finished",
		zap.Int("synced", synced),
		zap.Int("skipped", skipped),
		zap.Duration("took", s.clock.Now().Sub(started)),
	)
	return s.logs.Log(ctx, logdomain.Entry{
		Message:   "directory sync finished",
		EventType: logdomain.EventSync,
		Severity:  logdomain.SeverityInfo,
		Details: map[string]any{
			"synced":  synced,
			"skipped": skipped,
		},
	})
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(context.Background()); err != nil {
				s.log.Error("directory sync failed", zap.Error(err))
			}
		case <-s.done:
			return
		}
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(runScheduler),
)

func runScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(s.done)
			return nil
		},
	})
}
