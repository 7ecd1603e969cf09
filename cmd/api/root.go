package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"projectsync/internal/config"
	"projectsync/internal/logging"
)

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:          "projectsync",
		Short:        "Realtime presence, direct messages and meeting admission",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	load := func() (*config.Config, *slog.Logger, error) {
		// a missing .env is fine; real deployments use the process environment
		envErr := godotenv.Load(envFile)
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		logger := logging.New(cfg.LogLevel, cfg.LogFormat)
		if envErr != nil {
			logger.Warn("env file not loaded", "path", envFile, "err", envErr)
		}
		return cfg, logger, nil
	}

	rootCmd.AddCommand(newServeCmd(load), newWorkerCmd(load))
	return rootCmd
}
