package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/landdiv/landflow/pkg/cmd"
	"github.com/landdiv/landflow/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "landflow-engine",
		EnableShellCompletion: true,
		Usage:                 "Start the workflow advancement engine worker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (file://, postgres:// or mongodb://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (gochannel, kafka)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "engine-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("landflow-engine").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Landflow engine worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "landflow-engine", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			documentStore := cmd.MustNewStore(ctx, command.String("database-url"))
			defer func() {
				err := documentStore.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close store", "error", err)
				}
			}()

			manager := NewEngineManager(workerID, documentStore, eventBus, logger)

			err := manager.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start engine worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
