package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyreel/internal/app"
	"storyreel/internal/model/task"
	"storyreel/internal/service"
	"storyreel/internal/service/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one video in the foreground",
	Long: `Run the whole pipeline for a single topic without starting the server
and print the finished task as JSON.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringP("topic", "t", "", "story topic (required)")
	flags.String("art-style", "", "art style for the scene images (required)")
	flags.String("duration", "short", "story length (short/long)")
	flags.String("language", "English", "story language")
	flags.String("voice", "alloy", "narrator voice")
	flags.String("db-driver", "memory", "task store (mongo/mysql/memory)")
	_ = generateCmd.MarkFlagRequired("topic")
	_ = generateCmd.MarkFlagRequired("art-style")
}

// syncDispatcher 在调用方协程内直接执行
type syncDispatcher struct {
	runner service.Runner
}

func (d syncDispatcher) Dispatch(ctx context.Context, req pipeline.Request) error {
	d.runner.Run(ctx, req)
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// 前台运行默认用内存存储，不与 serve 共享 database.driver
	flags := cmd.Flags()
	GetConfig().Database.Driver, _ = flags.GetString("db-driver")

	cfg, err := validConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init app: %w", err)
	}
	defer a.Close(context.Background())

	in := service.CreateTaskInput{}
	in.StoryTopic, _ = flags.GetString("topic")
	in.ArtStyle, _ = flags.GetString("art-style")
	in.Duration, _ = flags.GetString("duration")
	in.Language, _ = flags.GetString("language")
	in.Voice, _ = flags.GetString("voice")

	svc := service.NewTaskService(a.Tasks, a.Images, syncDispatcher{runner: a.Orchestrator}, nil, a.Hub, cfg.Story.Languages)
	created, err := svc.CreateTask(ctx, in)
	if err != nil {
		return err
	}

	detail, err := svc.GetTask(context.Background(), created.ID)
	if err != nil {
		return err
	}

	out := struct {
		*task.Task
		Images []*task.SceneImage `json:"images"`
	}{detail.Task, detail.Images}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if detail.Task.Status != task.StatusCompleted {
		return fmt.Errorf("task %s %s: %s", detail.Task.ID, detail.Task.Status, detail.Task.ErrorMessage)
	}
	return nil
}
