package member

import (
	"github.com/gymgate/gymgate/internal/member/repository"
	"github.com/gymgate/gymgate/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
