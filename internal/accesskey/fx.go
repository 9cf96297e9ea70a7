package accesskey

import (
	"go.uber.org/fx"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
)

// Module provides the shared keyring built from configuration.
var Module = fx.Module("accesskey",
	fx.Provide(func(cfg config.Config) *Keyring {
		return NewKeyring(cfg.KeyTag, cfg.APIKeys)
	}),
)
