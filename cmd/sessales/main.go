package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/ClemmensSES/SESSalesResources/internal/accesskey"
	"github.com/ClemmensSES/SESSalesResources/internal/audit"
	"github.com/ClemmensSES/SESSalesResources/internal/blobstore"
	"github.com/ClemmensSES/SESSalesResources/internal/clock"
	"github.com/ClemmensSES/SESSalesResources/internal/config"
	"github.com/ClemmensSES/SESSalesResources/internal/document"
	"github.com/ClemmensSES/SESSalesResources/internal/observability"
	"github.com/ClemmensSES/SESSalesResources/internal/permission"
	"github.com/ClemmensSES/SESSalesResources/internal/server"
	"github.com/ClemmensSES/SESSalesResources/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Gateway domains
		accesskey.Module,
		permission.Module,
		blobstore.Module,
		document.Module,
		audit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
