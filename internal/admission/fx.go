package admission

import (
	"github.com/gymgate/gymgate/internal/admission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("admission.service",
	fx.Provide(service.New),
)
