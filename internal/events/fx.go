package events

import "go.uber.org/fx"

var Module = fx.Module("events.feed",
	fx.Provide(New),
)
