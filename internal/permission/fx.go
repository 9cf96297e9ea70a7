package permission

import "go.uber.org/fx"

// Module provides the static permission table.
var Module = fx.Module("permission",
	fx.Provide(NewTable),
)
