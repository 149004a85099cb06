package systemlog

import (
	"github.com/gymgate/gymgate/internal/systemlog/repository"
	"github.com/gymgate/gymgate/internal/systemlog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("systemlog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
