package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/handler"
	"github.com/prperemyshlev/pettracker-client/internal/tracker"
	"github.com/prperemyshlev/pettracker-client/pkg/observability"
)

// NewTracker builds the position tracker configured for this app
func (a *App) NewTracker() *tracker.Tracker {
	return tracker.New(a.Devices, a.Session, tracker.Config{
		DeviceIDs:    a.config.Tracker.DeviceIDs,
		PollInterval: a.config.Tracker.PollInterval.Duration,
		Concurrency:  a.config.Tracker.Concurrency,
	}, a.logger, tracker.WithClock(a.clock))
}

// StatusRouter builds the status server routes over positions
func (a *App) StatusRouter(positions handler.PositionSource) *gin.Engine {
	if a.config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(a.logger, "/health", "/metrics"))
	router.Use(handler.CORSMiddleware(a.config.CORS.AllowedOrigins, a.config.CORS.AllowedMethods, a.config.CORS.AllowedHeaders))

	health := NewHealthChecker(a.infra.Backend(), a.Session)
	router.GET("/health", health.Handler)
	router.GET("/metrics", observability.MetricsRoute(a.infra.MetricsHandler()))

	handler.NewStatusHandler(a.Session, a.Events, positions).Register(router)

	return router
}

// Watch tracks device positions and serves the status API until ctx is
// done or the session ends. A session that ends returns tracker.ErrSessionEnded.
func (a *App) Watch(ctx context.Context) error {
	if err := a.RequireSession(ctx); err != nil {
		return err
	}

	tr := a.NewTracker()
	server := &http.Server{
		Addr:         a.config.Status.Address(),
		Handler:      a.StatusRouter(tr),
		ReadTimeout:  a.config.Status.ReadTimeout.Duration,
		WriteTimeout: a.config.Status.WriteTimeout.Duration,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Status server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Status server error", zap.Error(err))
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return tr.Run(gctx)
	})

	g.Go(func() error {
		err := authevents.Notify(gctx, a.Events, func(code authevents.Code) {
			a.logger.Warn("Auth event",
				zap.Int("code", int(code)),
				zap.String("message", code.Message()),
			)
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})

	err := g.Wait()
	a.logger.Info("Watch stopped", zap.Error(err))
	return err
}
