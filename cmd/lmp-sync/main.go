package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
	"github.com/ClemmensSES/SESSalesResources/internal/lmp"
	"github.com/ClemmensSES/SESSalesResources/internal/lmp/service"
	"github.com/ClemmensSES/SESSalesResources/internal/observability"
)

// lmp-sync is a one-shot batch job: it fetches upstream pricing data,
// merges it into the portal's LMP documents through the data API, and
// exits. A failed run exits non-zero without writing anything.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		lmp.Module,
		fx.Invoke(runOnce),
	)
	app.Run()
}

func runOnce(lc fx.Lifecycle, svc *service.Service, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				report, err := svc.Run(context.Background())
				if err != nil {
					log.Error("lmp sync failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				log.Info("lmp sync complete",
					zap.Any("monthly", report.Monthly),
					zap.Any("hourly", report.Hourly),
				)
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}
