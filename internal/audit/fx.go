package audit

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/ClemmensSES/SESSalesResources/internal/audit/domain"
	"github.com/ClemmensSES/SESSalesResources/internal/audit/repository"
	"github.com/ClemmensSES/SESSalesResources/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(migrate),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.AuditLog{})
}
