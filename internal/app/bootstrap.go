package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"fitbridge/internal/config"
	"fitbridge/pkg/logging"
)

// Application bootstraps and runs the fitbridge server.
//
// Example usage:
//
//	cfg := app.NewConfig(false, "/etc/fitbridge.yaml", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services

	ready    chan struct{}
	addrOnce sync.Once
	addr     net.Addr
}

// NewApplication loads the configuration, initializes logging and wires
// all services. It fails on invalid configuration.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	// Logging for the loader until the configured level is known.
	logging.InitForCLI(logging.LevelInfo, logOutput)

	if cfg.FitbridgeConfig == nil {
		var (
			loaded config.Config
			err    error
		)
		if cfg.Environ != nil {
			loaded, err = config.LoadConfigWithEnv(cfg.ConfigPath, cfg.Environ)
		} else {
			loaded, err = config.LoadConfig(cfg.ConfigPath)
		}
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.FitbridgeConfig = &loaded
	}

	fbCfg := cfg.FitbridgeConfig
	if cfg.ListenAddr != "" {
		fbCfg.Server.ListenAddr = cfg.ListenAddr
	}

	level, err := logging.ParseLevel(fbCfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}
	format, err := logging.ParseFormat(fbCfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	logging.Init(level, format, logOutput)

	services, err := InitializeServices(fbCfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logging.Info("Bootstrap", "Initialized with client %s, redirect %s", fbCfg.OAuth.ClientID, fbCfg.OAuth.RedirectURL)

	return &Application{
		config:   cfg,
		services: services,
		ready:    make(chan struct{}),
	}, nil
}

// Services returns the wired components.
func (a *Application) Services() *Services {
	return a.services
}

// Ready is closed once the listener is bound.
func (a *Application) Ready() <-chan struct{} {
	return a.ready
}

// Addr returns the bound listen address. It is nil before Ready is closed.
func (a *Application) Addr() net.Addr {
	select {
	case <-a.ready:
		return a.addr
	default:
		return nil
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM is received, then
// shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	return runServer(ctx, a)
}

func (a *Application) markReady(addr net.Addr) {
	a.addrOnce.Do(func() {
		a.addr = addr
		close(a.ready)
	})
}
