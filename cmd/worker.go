package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storyreel/internal/app"
	"storyreel/internal/pkg/queue"
	"storyreel/internal/service"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run queued generation tasks",
	Long: `Consume generation tasks from the redis queue and run the pipeline.
The worker must share the task store and redis with the API server.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	flags := workerCmd.Flags()
	flags.Int("concurrency", 2, "number of tasks processed in parallel")
	flags.String("queue-name", "default", "queue to consume")

	_ = viper.BindPFlag("queue.concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("queue.queue", flags.Lookup("queue-name"))
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := validConfig()
	if err != nil {
		return err
	}
	if cfg.Redis.Addr == "" {
		return errors.New("worker requires redis.addr")
	}
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("memory task store is not shared with the API server")
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to init app: %w", err)
	}
	defer a.Close(context.Background())

	srv := queue.NewServer(&cfg.Redis, &cfg.Queue, service.QueueHandler(a.Orchestrator))
	log.Info().
		Int("concurrency", cfg.Queue.Concurrency).
		Str("queue", cfg.Queue.Queue).
		Msg("starting worker")

	// asynq 自行处理 SIGINT/SIGTERM
	return srv.Run()
}
