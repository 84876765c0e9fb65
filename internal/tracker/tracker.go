// Package tracker polls device telemetry and keeps the latest known
// position of every tracked device.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prperemyshlev/pettracker-client/internal/api"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
)

// ErrSessionEnded stops Run when requests can no longer be authenticated
var ErrSessionEnded = errors.New("session ended")

const (
	DefaultPollInterval = 10 * time.Second
	defaultConcurrency  = 4
)

// Devices is the part of the devices API the tracker reads
type Devices interface {
	List(ctx context.Context, petID int64) (*dto.DeviceListResponse, error)
	Info(ctx context.Context, deviceID int64) (*dto.DeviceInfoResponse, error)
}

// SessionChecker reports whether the session can still authenticate requests
type SessionChecker interface {
	HasActiveSession(ctx context.Context) bool
}

// Position is the last GPS fix of a device
type Position struct {
	DeviceID       int64
	DeviceName     string
	PetName        string
	Latitude       float64
	Longitude      float64
	Speed          *float64
	Address        string
	FixTime        string
	BatteryPercent *float64
	ObservedAt     time.Time
}

// NavigationURL links to turn-by-turn directions to the position
func (p Position) NavigationURL(ios bool) string {
	return api.NavigationURL(p.Latitude, p.Longitude, ios)
}

// Config configures a Tracker. An empty DeviceIDs tracks every listed device.
type Config struct {
	DeviceIDs    []int64
	PollInterval time.Duration
	Concurrency  int
}

type Option func(*Tracker)

func WithClock(clock clockwork.Clock) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// Tracker polls device info and caches positions for the status server
type Tracker struct {
	devices Devices
	session SessionChecker
	cfg     Config
	clock   clockwork.Clock
	logger  *zap.Logger

	mu        sync.RWMutex
	positions map[int64]Position
}

// New creates a new tracker
func New(devices Devices, session SessionChecker, cfg Config, logger *zap.Logger, opts ...Option) *Tracker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Tracker{
		devices:   devices,
		session:   session,
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
		logger:    logger.Named("tracker"),
		positions: make(map[int64]Position),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run polls until ctx is done or the session ends.
// It returns nil on cancellation and ErrSessionEnded otherwise.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := t.clock.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	t.logger.Info("tracking started",
		zap.Int("devices", len(t.cfg.DeviceIDs)),
		zap.Duration("interval", t.cfg.PollInterval),
	)

	if err := t.tick(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracking stopped")
			return nil
		case <-ticker.Chan():
			if err := t.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (t *Tracker) tick(ctx context.Context) error {
	if !t.session.HasActiveSession(ctx) {
		t.logger.Info("tracking stopped: no active session")
		return ErrSessionEnded
	}

	err := t.Poll(ctx)
	switch {
	case err == nil, ctx.Err() != nil:
		return nil
	case api.IsSessionEnded(err):
		t.logger.Info("tracking stopped: session ended", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSessionEnded, err)
	default:
		t.logger.Warn("poll failed", zap.Error(err))
		return nil
	}
}

// Poll fetches the info of every tracked device once.
// Per-device failures are logged; only a failed device listing or an
// ended session is returned.
func (t *Tracker) Poll(ctx context.Context) error {
	ids, err := t.deviceIDs(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)

	for _, id := range ids {
		g.Go(func() error {
			info, err := t.devices.Info(gctx, id)
			if err != nil {
				if api.IsSessionEnded(err) {
					return err
				}
				t.logger.Warn("device info failed",
					zap.Int64("device_id", id),
					zap.Error(err),
				)
				return nil
			}

			if !info.LastPosition.HasFix() {
				t.logger.Debug("device has no fix", zap.Int64("device_id", id))
				return nil
			}
			t.store(positionFromInfo(info, t.clock.Now()))
			return nil
		})
	}

	return g.Wait()
}

func (t *Tracker) deviceIDs(ctx context.Context) ([]int64, error) {
	if len(t.cfg.DeviceIDs) > 0 {
		return t.cfg.DeviceIDs, nil
	}

	list, err := t.devices.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	ids := make([]int64, 0, len(list.Items))
	for _, item := range list.Items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func (t *Tracker) store(p Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.positions[p.DeviceID] = p
}

// Positions returns the cached positions ordered by device id
func (t *Tracker) Positions() []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Position, 0, len(t.positions))
	for _, p := range t.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

func positionFromInfo(info *dto.DeviceInfoResponse, now time.Time) Position {
	last := info.LastPosition
	p := Position{
		DeviceID:       info.ID,
		DeviceName:     info.DisplayName,
		Latitude:       *last.Latitude,
		Longitude:      *last.Longitude,
		Speed:          last.Speed,
		BatteryPercent: info.BatteryPercent,
		ObservedAt:     now,
	}
	if info.AssignedPet != nil {
		p.PetName = info.AssignedPet.Name
	}
	if last.Address != nil {
		p.Address = *last.Address
	}
	if last.FixTime != nil {
		p.FixTime = *last.FixTime
	}
	return p
}
