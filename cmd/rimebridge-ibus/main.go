//go:build linux

// rimebridge-ibus is the IBus input method engine backed by librime.
//
// ibus-daemon starts it with --ibus after reading the component XML.
//
// Installation:
//  1. Copy the binary to /usr/local/bin/rimebridge-ibus
//  2. Run rimebridge-ibus --install (writes ibus.component_path)
//  3. Restart IBus: ibus restart
//  4. Enable via ibus-setup or GNOME Settings > Keyboard > Input Sources
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"rimebridge/internal/config"
	"rimebridge/internal/ibus"
	"rimebridge/internal/logging"
	"rimebridge/internal/metrics"
	"rimebridge/internal/native"
	"rimebridge/internal/schema"
	"rimebridge/internal/session"
	"rimebridge/internal/store"
)

var version = "0.1.0-dev"

type flags struct {
	configPath string
	address    string
	install    bool
	uninstall  bool
	ibus       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "rimebridge-ibus",
		Short:         "Rime input method engine for IBus",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := f.configPath
			if path == "" {
				path = config.ConfigPath()
			}
			cfg, _, err := config.LoadOrCreate(path)
			if err != nil {
				return err
			}

			switch {
			case f.install:
				if err := installComponent(cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Installed %s. Run 'ibus restart' to load.\n", cfg.IBus.ComponentPath)
				return nil
			case f.uninstall:
				if err := os.Remove(cfg.IBus.ComponentPath); err != nil {
					return fmt.Errorf("remove component: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Uninstalled.")
				return nil
			}
			return serve(path, cfg, f.address)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/rimebridge/config.toml)")
	cmd.Flags().StringVar(&f.address, "address", "", "IBus bus address (default $IBUS_ADDRESS, then the session bus)")
	cmd.Flags().BoolVar(&f.install, "install", false, "install the IBus component XML")
	cmd.Flags().BoolVar(&f.uninstall, "uninstall", false, "remove the IBus component XML")
	cmd.Flags().BoolVar(&f.ibus, "ibus", false, "started by ibus-daemon")
	cmd.MarkFlagsMutuallyExclusive("install", "uninstall")
	return cmd
}

func installComponent(cfg *config.Config) error {
	exe, err := os.Executable()
	if err != nil {
		exe = "/usr/local/bin/rimebridge-ibus"
	}
	c := ibus.NewComponent(ibus.ComponentOptions{
		BusName:    cfg.IBus.BusName,
		EngineName: cfg.IBus.EngineName,
		Exec:       exe,
		Version:    version,
		Layout:     cfg.IBus.Layout,
		Icon:       filepath.Join(cfg.Rime.SharedDataDir, "rime.png"),
	})
	return c.Install(cfg.IBus.ComponentPath)
}

func serve(path string, cfg *config.Config, address string) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logOpts, err := cfg.Logging.LoggingOptions("ibus")
	if err != nil {
		return err
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer logger.Close()
	logging.SetDefault(logger)

	crash := logging.NewCrashHandler("", "rimebridge-ibus", version)
	var runErr error
	crash.Guard(map[string]any{"config": path}, func() {
		runErr = run(path, cfg, address, logger.Logger)
	})
	return runErr
}

func run(path string, cfg *config.Config, address string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	traits := cfg.Rime.Traits()
	pid, err := acquirePIDFile(filepath.Join(traits.UserDataDir, "rimebridge-ibus.pid"))
	if err != nil {
		return err
	}
	defer pid.Release()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		m = metrics.Default()
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, metrics.Handler()); err != nil {
				logger.Error("metrics server failed", "listen", cfg.Metrics.Listen, "error", err)
			}
		}()
	}

	// Notifications arrive on the engine's thread, possibly before the
	// manager exists.
	var mgrRef atomic.Pointer[session.Manager]
	engine, err := native.Open(traits, func(n native.Notification) {
		if mgr := mgrRef.Load(); mgr != nil {
			mgr.Dispatch(n)
		}
	})
	if err != nil {
		if errors.Is(err, native.ErrUnavailable) {
			return fmt.Errorf("%w: rebuild with -tags librime", err)
		}
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	opts := []session.Option{session.WithLogger(logger), session.WithMetrics(m)}

	catalog, err := schema.Open(traits.SharedDataDir, traits.UserDataDir, schema.WithLogger(logger))
	switch {
	case err == nil:
		opts = append(opts, session.WithCatalog(catalog))
	case errors.Is(err, schema.ErrNoSchemas):
		logger.Warn("no schemas installed", "shared_data_dir", traits.SharedDataDir)
		catalog = nil
	default:
		return err
	}

	var history *store.Store
	if cfg.History.Enabled {
		history, err = store.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer history.Close()
		pruneHistory(history, cfg.History.Limit, logger)
		opts = append(opts, session.WithHistory(history))
	}

	mgr := session.NewManager(engine, opts...)
	mgrRef.Store(mgr)
	defer mgr.Close()

	if catalog != nil {
		err := catalog.Watch(ctx, func(*schema.Catalog) {
			if err := mgr.Deploy(false); err != nil {
				logger.Warn("redeploy failed", "error", err)
			}
		})
		if err != nil {
			logger.Warn("schema watch unavailable", "error", err)
		}
	}

	loader := config.NewLoader(path)
	if _, err := loader.Load(); err == nil {
		loader.OnChange(func(_, next *config.Config, sections []string) {
			if config.NeedsRestart(sections) {
				logger.Info("config changed; restart to apply", "sections", sections)
			}
			if history != nil {
				pruneHistory(history, next.History.Limit, logger)
			}
		})
		if err := loader.Watch(ctx); err != nil {
			logger.Warn("config watch unavailable", "error", err)
		}
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case err := <-loader.Errors():
					logger.Warn("config reload failed", "error", err)
				}
			}
		}()
		defer loader.Close()
	}

	svc := ibus.NewService(ibus.ServiceConfig{
		Address:     address,
		BusName:     cfg.IBus.BusName,
		EngineName:  cfg.IBus.EngineName,
		Orientation: ibus.OrientationSystem,
	}, mgr, logger)
	if err := svc.Start(); err != nil {
		return err
	}
	defer svc.Stop()

	<-ctx.Done()
	logger.Info("shutting down", "engines", svc.Factory().Engines(), "sessions", mgr.Len())
	return nil
}

func pruneHistory(s *store.Store, limit int, logger *slog.Logger) {
	if limit <= 0 {
		return
	}
	n, err := s.Prune(limit)
	if err != nil {
		logger.Warn("prune history failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("history pruned", "deleted", n, "limit", limit)
	}
}
