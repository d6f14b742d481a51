package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/RoverLink/internal/config"
	"github.com/KevinKickass/RoverLink/internal/layout"
	"github.com/KevinKickass/RoverLink/internal/system"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Run the operator console",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Config loaded successfully", zap.String("path", configPath))

	lay, err := layout.Load(cfg.Layout.Path)
	if err != nil {
		logger.Error("Failed to load layout", zap.Error(err))
		return err
	}
	if len(lay.Ignored) > 0 {
		logger.Warn("Layout names unknown controls", zap.Strings("ignored", lay.Ignored))
	}

	lifecycle, err := system.NewLifecycleManager(cfg, lay, logger)
	if err != nil {
		logger.Error("Failed to create system", zap.Error(err))
		return err
	}

	if err := lifecycle.Start(); err != nil {
		logger.Error("Failed to start system", zap.Error(err))
		return err
	}

	logger.Info("RoverLink started successfully")

	// Graceful Shutdown auf Signal oder per API
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case <-lifecycle.Done():
	}

	if err := lifecycle.Shutdown(context.Background()); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		return err
	}

	logger.Info("RoverLink stopped successfully")
	return nil
}
