package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"projectsync/internal/app"
	qadapter "projectsync/internal/infrastructure/queue/adapter"
	"projectsync/internal/pkg/meeting/application/task"
)

func newWorkerCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume background mail tasks from Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return errors.New("worker: REDIS_URL is required")
			}
			mailer, err := app.NewMailer(cfg, logger)
			if err != nil {
				return err
			}
			srv, err := qadapter.NewAsynqServer(cfg.RedisURL, cfg.AsynqConcurrency, logger)
			if err != nil {
				return err
			}
			task.RegisterSendInviteTask(srv, mailer, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Info("worker started", "concurrency", cfg.AsynqConcurrency)
			return srv.Run(ctx)
		},
	}
}
