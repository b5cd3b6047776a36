package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appfiscal "github.com/fiscalhub/backend/internal/application/fiscal"
	"github.com/fiscalhub/backend/internal/infrastructure/authority"
	"github.com/fiscalhub/backend/internal/infrastructure/config"
	"github.com/fiscalhub/backend/internal/infrastructure/event"
	"github.com/fiscalhub/backend/internal/infrastructure/logger"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence"
	"github.com/fiscalhub/backend/internal/infrastructure/rendering"
	"github.com/fiscalhub/backend/internal/interfaces/http/handler"
	"github.com/fiscalhub/backend/internal/interfaces/http/middleware"
	"github.com/fiscalhub/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting FiscalHub",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	gateway, err := authority.NewGateway(cfg.Authority, log)
	if err != nil {
		log.Fatal("Failed to initialize tax authority gateway", zap.Error(err))
	}

	// Without a Chrome binary the generators fall back to plain HTML output.
	var renderer rendering.PDFRenderer
	if cfg.Rendering.Enabled {
		chromeRenderer, err := rendering.NewChromedpRenderer(cfg.Rendering, log)
		if err != nil {
			log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
		}
		defer func() {
			_ = chromeRenderer.Close()
		}()
		renderer = chromeRenderer
	}

	registry, err := rendering.NewRegistry(renderer)
	if err != nil {
		log.Fatal("Failed to build auxiliary document registry", zap.Error(err))
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewAuditLogHandler(log))

	repo := persistence.NewGormDocumentRepository(db.DB)
	documentService := appfiscal.NewDocumentService(repo, appfiscal.WithEventPublisher(bus))
	transmissionService := appfiscal.NewTransmissionService(repo, gateway, log, appfiscal.WithEventPublisher(bus))
	renderingService := appfiscal.NewRenderingService(repo, registry, log)

	mode := gin.ReleaseMode
	if !cfg.IsProduction() {
		mode = gin.DebugMode
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}

	engine := router.NewEngine(router.EngineConfig{
		Mode:   mode,
		CORS:   corsCfg,
		Logger: log,
	})
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	router.NewRouter(engine).
		Register(handler.NewHealthHandler()).
		Register(handler.NewDocumentHandler(documentService, renderingService)).
		Register(handler.NewTransmissionHandler(transmissionService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
