package document

import (
	"go.uber.org/fx"

	"github.com/ClemmensSES/SESSalesResources/internal/document/service"
)

var Module = fx.Module("document.service",
	fx.Provide(service.New),
)
