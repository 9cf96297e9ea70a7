package lmp

import (
	"go.uber.org/fx"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
	"github.com/ClemmensSES/SESSalesResources/internal/lmp/gateway"
	"github.com/ClemmensSES/SESSalesResources/internal/lmp/pricing"
	"github.com/ClemmensSES/SESSalesResources/internal/lmp/service"
)

var Module = fx.Module("lmp.sync",
	fx.Provide(func(cfg config.Config) service.DocumentClient {
		return gateway.NewClient(cfg.Sync)
	}),
	fx.Provide(func(cfg config.Config) service.PriceSource {
		return pricing.NewClient(cfg.Sync)
	}),
	fx.Provide(service.New),
)
