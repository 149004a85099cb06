package checkin

import (
	"github.com/gymgate/gymgate/internal/checkin/repository"
	"github.com/gymgate/gymgate/internal/checkin/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkin.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
