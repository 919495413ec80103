package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"msgrelay/internal/api"
	"msgrelay/internal/broker"
	"msgrelay/internal/config"
	"msgrelay/internal/constants"
	"msgrelay/internal/consumer"
	"msgrelay/internal/display"
	"msgrelay/internal/logger"
	"msgrelay/internal/publisher"
	"msgrelay/pkg/bootstrap"
	"msgrelay/pkg/health"
	"msgrelay/pkg/middleware"
	"msgrelay/pkg/ratelimit"
	"msgrelay/pkg/tracing"
)

type App struct {
	config    *config.Config
	logger    logger.Logger
	base      *bootstrap.Base
	publisher *publisher.Publisher
	sink      *display.Sink
	server    *http.Server
	router    *gin.Engine

	shutdownOnce sync.Once
	shutdownErr  error
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
		base:   bootstrap.NewBase(cfg, log),
		sink:   display.Stdout(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.base.InitTelemetry(ctx, constants.ServiceNameRelay); err != nil {
		return err
	}

	if err := a.base.InitBroker(constants.ServiceNameRelay); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.publisher = publisher.New(
		a.base.Producer,
		a.config.Broker.Kafka.Topic,
		a.logger,
		publisher.WithCircuitBreaker(a.config.Publisher.CircuitBreaker),
	)

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.initServer()
	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.RequestSpans(constants.ServiceNameRelay))
	}

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RecoveryMiddleware(a.logger))

	if a.config.API.RateLimit.Enabled {
		rateLimitConfig := ratelimit.FromConfig(a.config.API.RateLimit)
		router.Use(ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
		a.logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	api.NewHandler(a.publisher, a.config.Service.Name, a.logger).RegisterRoutes(router)

	router.GET("/ready", health.Handler(a.base.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) initServer() {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.config.Server.WriteTimeoutSeconds,
	}
}

// Run serves HTTP and consumes the relay topic until ctx is canceled or
// either side fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(gctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		handler := consumer.NewHandler(a.sink, a.logger)
		a.logger.InfowCtx(gctx, "Consumer started", "topic", a.publisher.Topic())
		err := consumer.Run(gctx, a.base.Consumer, a.publisher.Topic(), handler)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, broker.ErrClosed) {
			return fmt.Errorf("consumer error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.shutdown(ctx)
	})
	return a.shutdownErr
}

func (a *App) shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	return a.base.Shutdown(shutdownCtx, func(ctx context.Context) []error {
		if a.server == nil {
			return nil
		}
		if err := a.server.Shutdown(ctx); err != nil {
			return []error{fmt.Errorf("server shutdown error: %w", err)}
		}
		return nil
	})
}
