package system

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/KevinKickass/RoverLink/internal/api/rest"
	"github.com/KevinKickass/RoverLink/internal/api/websocket"
	"github.com/KevinKickass/RoverLink/internal/auth"
	"github.com/KevinKickass/RoverLink/internal/command"
	"github.com/KevinKickass/RoverLink/internal/config"
	"github.com/KevinKickass/RoverLink/internal/display"
	"github.com/KevinKickass/RoverLink/internal/interfaces"
	"github.com/KevinKickass/RoverLink/internal/layout"
	"github.com/KevinKickass/RoverLink/internal/link"
	"github.com/KevinKickass/RoverLink/internal/media"
	"github.com/KevinKickass/RoverLink/internal/session"
	"go.uber.org/zap"
)

// LifecycleManager owns one operator console: both platform links, the
// session loop, the display targets and the operator surface.
type LifecycleManager struct {
	config *config.Config
	layout *layout.Layout
	logger *zap.Logger

	quality    *display.Target
	video      *display.Target
	dispatcher *media.Dispatcher

	session     *session.Controller
	commandLink *link.Link
	mediaLink   *link.Link

	jwt        *auth.JWTHandler
	wsHub      *websocket.Hub
	restServer *rest.Server

	cancel context.CancelFunc

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(cfg *config.Config, lay *layout.Layout, logger *zap.Logger) (*LifecycleManager, error) {
	lm := &LifecycleManager{
		config:       cfg,
		layout:       lay,
		logger:       logger,
		quality:      display.NewTarget(display.KindQuality),
		video:        display.NewTarget(display.KindVideo),
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}

	dispatcher, err := media.NewDispatcher(lm.quality, lm.video, logger)
	if err != nil {
		return nil, err
	}
	lm.dispatcher = dispatcher

	if cfg.Auth.Enabled {
		jwt, err := auth.NewJWTHandler(cfg.Auth.GetJWTSecret(), cfg.Auth.AccessTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize auth: %w", err)
		}
		lm.jwt = jwt
	}

	// The link callbacks only enqueue into the session loop.
	lm.commandLink = link.New("command", cfg.Remote.CommandURL(), logger,
		link.WithSendBuffer(cfg.Sampler.SendBuffer),
		link.WithDialTimeout(cfg.Remote.DialTimeout),
		link.WithOnOpen(func() { lm.session.CommandLinkOpened() }),
		link.WithOnClose(func(error) {
			lm.session.CommandLinkClosed()
			lm.linkLost("command")
		}),
	)

	lm.mediaLink = link.New("media", cfg.Remote.MediaURL(), logger,
		link.WithReadLimit(cfg.Media.MaxMessageSize),
		link.WithDialTimeout(cfg.Remote.DialTimeout),
		link.WithOnMessage(lm.dispatcher.Dispatch),
		link.WithOnClose(func(error) { lm.linkLost("media") }),
	)

	if cfg.Sampler.Interval != command.DefaultInterval {
		logger.Warn("Sampler interval differs from the platform command cadence",
			zap.Duration("interval", cfg.Sampler.Interval),
			zap.Duration("platform", command.DefaultInterval))
	}

	lm.session = session.NewController(lm.commandLink, session.Config{
		SampleInterval: cfg.Sampler.Interval,
		StickMaxOffset: cfg.Stick.MaxOffset,
	}, logger)

	lm.wsHub = websocket.NewHub(logger, lm.jwt, lm.session, lay)
	lm.wsHub.Watch(lm.quality)
	lm.wsHub.Watch(lm.video)

	lm.restServer = rest.NewServer(cfg, lm, logger, lm.wsHub, lm.jwt)

	return lm, nil
}

// Start starts the session loop, the operator surface and both links.
// Link failures are logged, not returned: the console stays up without
// a platform.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting RoverLink",
		zap.String("session_id", lm.session.ID().String()),
		zap.Bool("auth_enabled", lm.jwt != nil))

	ctx, cancel := context.WithCancel(context.Background())
	lm.cancel = cancel

	go lm.session.Run(ctx)
	go lm.wsHub.Run(ctx)

	if err := lm.restServer.Start(); err != nil {
		lm.setState(StateError)
		cancel()
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	// RUNNING before dialing, so a failed dial can degrade it
	lm.setState(StateRunning)

	go lm.connect(ctx, lm.commandLink)
	go lm.connect(ctx, lm.mediaLink)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.String("command_url", lm.config.Remote.CommandURL()),
		zap.String("media_url", lm.config.Remote.MediaURL()))

	return nil
}

func (lm *LifecycleManager) connect(ctx context.Context, l *link.Link) {
	if err := l.Connect(ctx); err != nil {
		lm.logger.Error("Platform link unavailable",
			zap.String("link", l.Name()),
			zap.Error(err))
		lm.linkLost(l.Name())
	}
}

// linkLost degrades a running console. Losses during shutdown are expected
// and leave the state alone.
func (lm *LifecycleManager) linkLost(name string) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	if lm.currentState != StateRunning {
		return
	}
	lm.currentState = StateDegraded
	lm.logger.Warn("Console degraded, platform link lost", zap.String("link", name))
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)

		ctx, cancel := context.WithTimeout(ctx, lm.config.Server.ShutdownTimeout)
		defer cancel()

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	// 1. REST API Server graceful shutdown
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := lm.restServer.Shutdown(ctx); err != nil {
			errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
		}
	}()

	// 2. Platform links; the command link close reaches the session first
	wg.Add(2)
	go func() {
		defer wg.Done()
		lm.commandLink.Close()
	}()
	go func() {
		defer wg.Done()
		lm.mediaLink.Close()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		err = fmt.Errorf("shutdown timeout exceeded")
	}
	select {
	case err = <-errChan:
	default:
	}

	// 3. Session loop and hub
	if lm.cancel != nil {
		lm.cancel()
		select {
		case <-lm.session.Done():
		case <-time.After(time.Second):
			lm.logger.Warn("Session loop did not stop in time")
		}
	}

	if err == nil {
		lm.logger.Info("Graceful shutdown completed")
	}
	return err
}

// Done is closed once Shutdown has completed.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("State change refused", zap.Error(err))
		return
	}
	lm.currentState = state
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	return interfaces.SystemStatus{
		State:           lm.State().String(),
		Session:         lm.session.Status(),
		CommandLink:     string(lm.commandLink.State()),
		MediaLink:       string(lm.mediaLink.State()),
		OperatorClients: lm.wsHub.GetClientCount(),
		Media:           lm.dispatcher.Stats(),
	}
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

func (lm *LifecycleManager) Layout() *layout.Layout {
	return lm.layout
}

func (lm *LifecycleManager) Session() interfaces.Session {
	return lm.session
}

// Target returns the display target for kind.
func (lm *LifecycleManager) Target(kind display.Kind) (*display.Target, bool) {
	switch kind {
	case display.KindQuality:
		return lm.quality, true
	case display.KindVideo:
		return lm.video, true
	default:
		return nil, false
	}
}

// Handler exposes the operator HTTP surface without starting a listener.
func (lm *LifecycleManager) Handler() http.Handler {
	return lm.restServer.Handler()
}
