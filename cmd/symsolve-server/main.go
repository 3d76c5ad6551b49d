// Command symsolve-server exposes the solver tools and the growth
// derivations over HTTP.
//
// Usage:
//
//	symsolve-server --addr :8080 --config symsolve.yaml
//
// Every flag can also be set in the YAML file or through SYMSOLVE_
// environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/symsolve"
	"github.com/njchilds90/symsolve/internal/config"
	"github.com/njchilds90/symsolve/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("symsolve-server", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfgFile, _ := flags.GetString("config")
	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	solver := symsolve.NewSolver(
		symsolve.WithLogger(logger.Named("solver")),
		symsolve.WithMaxDegree(cfg.MaxDegree),
	)
	srv := server.New(solver, logger, server.NewMetrics("symsolve"),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithReference(cfg.Reference),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, egctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		BaseContext:       func(net.Listener) context.Context { return egctx },
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	eg.Go(func() error {
		logger.Info("symsolve server listening", zap.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}
