package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/api"
	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/config"
	"github.com/prperemyshlev/pettracker-client/internal/repository"
	"github.com/prperemyshlev/pettracker-client/internal/service"
	"github.com/prperemyshlev/pettracker-client/internal/session"
	"github.com/prperemyshlev/pettracker-client/internal/transport"
	"github.com/prperemyshlev/pettracker-client/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

var (
	// ErrLoginRequired is returned by views that need a session
	ErrLoginRequired = errors.New("login required")
	// ErrAlreadyLoggedIn is returned by views reserved for anonymous users
	ErrAlreadyLoggedIn = errors.New("already logged in")
)

// App wires the session lifecycle, the authenticated HTTP pipeline and the
// REST wrappers used by the shell.
type App struct {
	infra  Infrastructure
	config *config.Config
	logger *zap.Logger
	clock  clockwork.Clock

	Events  *authevents.Channel
	Session *session.Manager
	Auth    service.AuthService
	Nav     *RouteState

	Pets    *api.PetsService
	Breeds  *api.PetBreedsService
	Devices *api.DevicesService
	Ping    *api.PingService
}

type Option func(*options)

type options struct {
	clock      clockwork.Clock
	base       http.RoundTripper
	onNavigate func(path string)
}

// WithClock replaces the wall clock of the session and the tracker
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithBaseTransport sets the transport under the auth pipeline
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// WithNavigateHook is called whenever the session navigates the shell
func WithNavigateHook(fn func(path string)) Option {
	return func(o *options) {
		o.onNavigate = fn
	}
}

func NewApp(infra Infrastructure, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	logger := infra.Logger()

	metrics, err := observability.NewAuthMetrics(infra.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth metrics: %w", err)
	}

	classifier, err := transport.NewClassifier(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	store := repository.NewCredentialStore(infra.Backend(), cfg.Store.Namespace, logger)
	events := authevents.NewChannel(metrics)
	nav := NewRouteState(HomePath, o.onNavigate)

	manager := session.NewManager(store, events, nav,
		session.WithClock(o.clock),
		session.WithLogger(logger),
		session.WithMetrics(metrics),
	)

	httpClient := &http.Client{Timeout: cfg.API.Timeout.Duration}
	client := api.NewClient(cfg.API.BaseURL, httpClient,
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithLogger(logger),
	)
	authAPI := api.NewAuthService(client)

	coordinator := service.NewRefreshCoordinator(manager, authAPI, cfg.API.RefreshTimeout.Duration, metrics, logger)
	httpClient.Transport = transport.NewPipeline(o.base, classifier, manager, coordinator,
		transport.WithRetryRecorder(metrics),
		transport.WithLogger(logger),
	)

	return &App{
		infra:   infra,
		config:  cfg,
		logger:  logger,
		clock:   o.clock,
		Events:  events,
		Session: manager,
		Auth:    service.NewAuthService(authAPI, manager, logger),
		Nav:     nav,
		Pets:    api.NewPetsService(client),
		Breeds:  api.NewPetBreedsService(client),
		Devices: api.NewDevicesService(client),
		Ping:    api.NewPingService(client),
	}, nil
}

// Start reconciles persisted credentials with the clock. Call once before
// serving any view.
func (a *App) Start(ctx context.Context) {
	a.Session.InitializeSessionLifecycle(ctx)
}

// RequireSession guards views that need authentication and sends the shell
// to the login view otherwise
func (a *App) RequireSession(ctx context.Context) error {
	if a.Session.HasActiveSession(ctx) {
		return nil
	}
	a.Nav.Navigate(session.LoginPath)
	return ErrLoginRequired
}

// RequireAnonymous guards the login and register views
func (a *App) RequireAnonymous(ctx context.Context) error {
	if !a.Session.HasActiveSession(ctx) {
		return nil
	}
	a.Nav.Navigate(HomePath)
	return ErrAlreadyLoggedIn
}

// Close stops the session timer and releases infrastructure
func (a *App) Close() error {
	a.Session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.infra.Shutdown(ctx); err != nil {
		a.logger.Error("Shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
