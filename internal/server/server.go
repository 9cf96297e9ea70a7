package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ClemmensSES/SESSalesResources/internal/accesskey"
	auditdomain "github.com/ClemmensSES/SESSalesResources/internal/audit/domain"
	"github.com/ClemmensSES/SESSalesResources/internal/clock"
	"github.com/ClemmensSES/SESSalesResources/internal/config"
	docdomain "github.com/ClemmensSES/SESSalesResources/internal/document/domain"
	"github.com/ClemmensSES/SESSalesResources/internal/observability"
	obsmiddleware "github.com/ClemmensSES/SESSalesResources/internal/observability/logger"
	obsmetrics "github.com/ClemmensSES/SESSalesResources/internal/observability/metrics"
	obstracing "github.com/ClemmensSES/SESSalesResources/internal/observability/tracing"
	"github.com/ClemmensSES/SESSalesResources/internal/permission"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obsCfg.ServiceName))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	keyring         *accesskey.Keyring
	table           *permission.Table
	docSvc          docdomain.Service
	auditSvc        auditdomain.Service
	origins         *config.OriginsHolder
	clock           clock.Clock
	mutationLimiter *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	Keyring  *accesskey.Keyring
	Table    *permission.Table
	DocSvc   docdomain.Service
	AuditSvc auditdomain.Service `optional:"true"`
	Origins  *config.OriginsHolder
	Clock    clock.Clock
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		log:      p.Log.Named("server"),
		keyring:  p.Keyring,
		table:    p.Table,
		docSvc:   p.DocSvc,
		auditSvc: p.AuditSvc,
		origins:  p.Origins,
		clock:    p.Clock,
	}
	s.mutationLimiter = newRateLimiter(p.Cfg.MutationRateLimit, time.Minute, p.Clock.Now)
	return s
}

// RegisterDataRoutes mounts the data API. CORS runs first so that
// preflight requests short-circuit before authentication.
func (s *Server) RegisterDataRoutes() {
	data := s.engine.Group("/api/data")
	data.Use(s.CORSMiddleware())
	data.Use(s.APIKeyRequired())
	data.Use(s.Authorize())
	data.Use(s.MutationRateLimit())

	data.GET("/:filename", s.GetDocument)
	data.GET("/:filename/:id", s.GetRecord)
	data.POST("/:filename", s.CreateRecord)
	data.PUT("/:filename", s.ReplaceDocument)
	data.PUT("/:filename/:id", s.UpdateRecord)
	data.PATCH("/:filename/:id", s.UpdateRecord)
	data.DELETE("/:filename", s.DeleteDocument)
	data.DELETE("/:filename/:id", s.DeleteRecord)

	// Preflight never reaches the auth chain. gin matches OPTIONS
	// separately, so the group's CORS middleware is mounted for it
	// explicitly.
	preflight := s.engine.Group("/api/data")
	preflight.Use(s.CORSMiddleware())
	preflight.OPTIONS("/:filename", func(c *gin.Context) {})
	preflight.OPTIONS("/:filename/:id", func(c *gin.Context) {})
}

// RegisterAuditRoutes mounts the audit trail. Admin only; absent
// entirely when no audit service is wired.
func (s *Server) RegisterAuditRoutes() {
	if s.auditSvc == nil {
		return
	}
	audit := s.engine.Group("/api/audit")
	audit.Use(s.CORSMiddleware())
	audit.Use(s.APIKeyRequired())
	audit.Use(s.RequireRole(permission.RoleAdmin))
	audit.GET("", s.ListAuditLogs)
}

func registerRoutes(s *Server) {
	s.RegisterDataRoutes()
	s.RegisterAuditRoutes()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
