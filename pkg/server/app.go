package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VesselPulse/internal/engine"
	"VesselPulse/internal/handler/api"
	"VesselPulse/internal/handler/ws"
	"VesselPulse/internal/usecase"
	"VesselPulse/pkg/cache"
	pkgch "VesselPulse/pkg/clickhouse"
	"VesselPulse/pkg/config"
	xhttp "VesselPulse/pkg/http"
	pkgkafka "VesselPulse/pkg/kafka"
	applogger "VesselPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	eng         *engine.Engine
	collector   *usecase.TelemetryCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	hub         *ws.Hub
	cache       cache.Service
	logShipper  applogger.Publisher
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	Proc        *usecase.TelemetryProcessor
}

// New creates a new App instance with all dependencies. Nil is allowed for
// everything except cfg and eng: a nil collector means no live stream, a nil
// consumer means the engine is fed directly, a nil hub disables push.
func New(
	cfg *config.Config,
	eng *engine.Engine,
	collector *usecase.TelemetryCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	hub *ws.Hub,
) *App {
	return &App{
		cfg:       cfg,
		eng:       eng,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		hub:       hub,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetCache injects the fleet snapshot cache.
func (a *App) SetCache(c cache.Service) { a.cache = c }

// SetLogShipper enables aggregated log shipping to the broker.
func (a *App) SetLogShipper(p applogger.Publisher) { a.logShipper = p }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	if a.logShipper != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "vesselpulse.logs",
			Publisher:      a.logShipper,
		})
		defer l.RemoveCollector()
	}

	// Time-driven eviction; insert-driven eviction alone would leave idle
	// vessels stale.
	a.eng.StartSweeper()

	httpHandler := a.httpHandler
	if httpHandler == nil {
		vh := api.NewVesselsEchoHandler(l, a.eng)
		if a.cache != nil {
			vh.SetCache(a.cache, a.cfg.Cache.FleetTTL)
		}
		httpHandler = vh
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// WebSocket push of fleet and vessel snapshots
	if a.hub != nil {
		a.httpServer.Echo().GET("/ws/vessels", echo.WrapHandler(a.hub))
		go a.hub.Run(ctx)
		l.Info("ws hub started", applogger.Any("interval", a.cfg.Push.Interval))
	}

	// Start collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.String("url", a.cfg.Stream.WebSocketURL))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := a.consumer.Stop(stopCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.eng.StopSweeper()

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/archive)
	if a.Proc != nil {
		a.Proc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
