package square

import (
	"time"

	"github.com/gymgate/gymgate/internal/config"
	"github.com/gymgate/gymgate/internal/health"
	"github.com/gymgate/gymgate/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideClient(cfg config.Config, log *zap.Logger, tracker *health.Tracker, m *metrics.Metrics) Client {
	return NewAPIClient(Config{
		AccessToken: cfg.SquareAccessToken,
		Environment: cfg.SquareEnvironment,
		LocationID:  cfg.SquareLocationID,
		Timeout:     time.Duration(cfg.SquareTimeoutSecs) * time.Second,
	}, log, tracker, m)
}

var Module = fx.Module("square.client",
	fx.Provide(provideClient),
)
