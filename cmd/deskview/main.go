package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/api"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/commands"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/interaction"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/session"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/transport"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	configPath string
	desktopID  string
	url        string
	appsPath   string
	open       string
	list       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML or TOML config file")
	flag.StringVar(&opts.desktopID, "desktop", "", "Desktop to mirror (overrides DESKTOP_ID)")
	flag.StringVar(&opts.url, "url", "", "Desktop server endpoint (overrides DESKTOP_URL)")
	flag.StringVar(&opts.appsPath, "apps", "", "YAML or TOML file of apps to register on startup")
	flag.StringVar(&opts.open, "open", "", "Comma-separated app ids to open once connected")
	flag.BoolVar(&opts.list, "list", false, "Print the server's apps and windows as JSON and exit")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "deskview: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.desktopID != "" {
		cfg.Desktop.ID = opts.desktopID
	}
	if opts.url != "" {
		cfg.Desktop.URL = opts.url
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.FromConfig(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Output:      cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	viewerID := id.NewViewerID().String()
	logger = logger.With(zap.String("viewer_id", viewerID))
	logger.Info("Starting deskview",
		zap.String("desktop_id", cfg.Desktop.ID),
		zap.String("url", cfg.Desktop.URL),
		zap.String("api_base", cfg.Desktop.APIBase),
	)

	metrics := monitoring.NewMetrics(nil)

	cmds := commands.New(commands.Config{
		BaseURL:  cfg.Desktop.APIBase,
		Timeout:  cfg.Commands.Timeout.Std(),
		Retries:  cfg.Commands.Retries,
		RPS:      cfg.Commands.RPS,
		Burst:    cfg.Commands.Burst,
		ViewerID: viewerID,
		Logger:   logger,
		Observer: metrics,
	})

	sess := session.New(session.Config{
		DesktopID:    cfg.Desktop.ID,
		ViewerID:     viewerID,
		Viewport:     interaction.Size{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
		PingInterval: cfg.Transport.PingInterval.Std(),
		Transport: transport.Config{
			URL:         cfg.Desktop.URL,
			BaseBackoff: cfg.Transport.ReconnectBase.Std(),
			MaxBackoff:  cfg.Transport.ReconnectMax.Std(),
			Dialer: &transport.WebSocketDialer{
				HandshakeTimeout: cfg.Transport.HandshakeTimeout.Std(),
				WriteTimeout:     cfg.Transport.WriteTimeout.Std(),
				Header:           http.Header{commands.HeaderViewerID: {viewerID}},
			},
		},
		Commands: cmds,
		Metrics:  metrics,
		Logger:   logger,
	})
	defer sess.Close()

	sess.OnNotice(func(n session.Notice) {
		logger.Warn("Notice",
			zap.String("source", string(n.Source)),
			zap.String("op", n.Op),
			zap.String("window_id", n.WindowID),
			zap.String("message", n.Message),
		)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.appsPath != "" {
		apps, err := config.LoadApps(opts.appsPath)
		if err != nil {
			return err
		}
		registered, err := cmds.RegisterApps(ctx, cfg.Desktop.ID, apps)
		if err != nil {
			logger.Warn("App registration failed", zap.Error(err))
		} else {
			logger.Info("Registered apps", zap.Int("registered", registered), zap.Int("requested", len(apps)))
		}
	}

	if opts.list {
		return printInventory(ctx, sess)
	}

	if err := sess.Bootstrap(ctx); err != nil {
		logger.Warn("Bootstrap failed, waiting for the socket snapshot", zap.Error(err))
	}
	for _, appID := range splitList(opts.open) {
		if _, err := sess.OpenApp(ctx, appID, "", nil); err != nil {
			logger.Warn("Open app failed", zap.String("app_id", appID), zap.Error(err))
		}
	}

	var srv *api.Server
	if cfg.Inspect.Enabled {
		srv = api.New(api.Config{
			Addr: cfg.Inspect.ListenAddr,
			RateLimit: middleware.RateLimitConfig{
				RequestsPerSecond: cfg.Inspect.RPS,
				Burst:             cfg.Inspect.Burst,
			},
			Development: cfg.Logging.Development,
			Viewer:      sess,
			Metrics:     metrics,
			Logger:      logger,
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Error("Inspection server failed", zap.Error(err))
				stop()
			}
		}()
	}

	runErr := sess.Run(ctx)
	logger.Info("Shutting down gracefully...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Inspection server shutdown", zap.Error(err))
		}
	}
	return runErr
}

func printInventory(ctx context.Context, sess *session.Session) error {
	inv, err := sess.Inventory(ctx)
	if err != nil {
		return err
	}
	data, err := sonic.ConfigStd.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
