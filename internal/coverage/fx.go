package coverage

import "go.uber.org/fx"

var Module = fx.Module("coverage.resolver",
	fx.Provide(New),
)
