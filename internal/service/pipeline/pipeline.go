// Package pipeline 视频生成任务的状态机编排
//
// 一个任务由一个 goroutine 顺序执行：故事 → 角色 → 分镜 → 图片 → 入库 → 合成与上传。
// 每个检查点把进度推进 1/6（保留一位小数），完成时写入 1.0。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"storyreel/internal/model/task"
	"storyreel/internal/pkg/events"
	"storyreel/internal/pkg/logger"
	taskrepo "storyreel/internal/repository/task"
	"storyreel/internal/service/story"
	"storyreel/internal/service/upload"
)

// 阶段性致命错误，写入任务的 error_message
var (
	ErrEmptyStory      = errors.New("story generation returned no text")
	ErrEmptyStoryboard = errors.New("storyboard has no scenes")
	ErrNoImages        = errors.New("no scene image could be generated")
	ErrPersistImages   = errors.New("failed to persist scene images")
	ErrNoVideo         = errors.New("video assembly produced no output")
	ErrUpload          = errors.New("video upload failed")
)

const (
	checkpoints        = 6
	terminalRetryDelay = 500 * time.Millisecond
)

// StoryGenerator 故事、角色与分镜
type StoryGenerator interface {
	GenerateStory(ctx context.Context, topic, language, duration string) (*story.Story, error)
	GenerateCharacters(ctx context.Context, storyText string) ([]task.Character, error)
	GenerateStoryboard(ctx context.Context, storyType, title, storyText string, characterNames []string) (*task.Storyboard, error)
}

// ImageGenerator 分镜图片并发生成
type ImageGenerator interface {
	GenerateImages(ctx context.Context, taskID string, sb *task.Storyboard, artStyle string) []*string
}

// VideoAssembler 视频合成
type VideoAssembler interface {
	Assemble(ctx context.Context, sb *task.Storyboard, storyDir, voice string) (string, bool)
}

// Uploader 成片上传
type Uploader interface {
	Upload(ctx context.Context, localPath, objectName string) (string, error)
}

// Request 一次任务执行的输入
type Request struct {
	TaskID     string `json:"task_id"`
	StoryTopic string `json:"story_topic"`
	ArtStyle   string `json:"art_style"`
	Duration   string `json:"duration"`
	Language   string `json:"language"`
	Voice      string `json:"voice"`
}

// Deps 编排器依赖，Hub 可以为空
type Deps struct {
	Tasks    taskrepo.TaskRepository
	Images   taskrepo.ImageRepository
	Story    StoryGenerator
	Scenes   ImageGenerator
	Video    VideoAssembler
	Uploader Uploader
	Hub      events.Hub
	StoryDir string
}

// Orchestrator 任务编排器
type Orchestrator struct {
	Deps
	now   func() time.Time
	sleep func(time.Duration)
}

// NewOrchestrator 创建任务编排器
func NewOrchestrator(d Deps) *Orchestrator {
	if d.StoryDir == "" {
		d.StoryDir = "stories"
	}
	return &Orchestrator{Deps: d, now: time.Now, sleep: time.Sleep}
}

// Run 执行一个任务，不返回错误
//
// 所有失败（包括 panic）都落到任务的 failed 状态上，调用方只需轮询任务。
func (o *Orchestrator) Run(ctx context.Context, req Request) {
	ctx = logger.WithTask(context.WithoutCancel(ctx), req.TaskID)
	r := &run{o: o, req: req, log: logger.FromContext(ctx)}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Str("stack", string(debug.Stack())).Msg("pipeline panicked")
			r.fail(ctx, fmt.Errorf("internal error: %v", p))
		}
	}()

	if _, err := r.update(ctx, task.Update{Status: task.Ptr(task.StatusProcessing), Progress: task.Ptr(0.0)}); err != nil {
		if errors.Is(err, taskrepo.ErrNotFound) || errors.Is(err, taskrepo.ErrInvalidTransition) {
			r.log.Error().Err(err).Msg("task cannot be started")
			return
		}
		r.log.Warn().Err(err).Msg("failed to mark task processing")
	}

	start := time.Now()
	if err := r.execute(ctx); err != nil {
		r.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("task failed")
		r.fail(ctx, err)
		return
	}
	r.log.Info().Dur("elapsed", time.Since(start)).Msg("task completed")
}

// run 单次执行的状态
type run struct {
	o        *Orchestrator
	req      Request
	log      *zerolog.Logger
	progress float64
}

func (r *run) execute(ctx context.Context) error {
	o := r.o

	st, err := o.Story.GenerateStory(ctx, r.req.StoryTopic, r.req.Language, r.req.Duration)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyStory, err)
	}
	if st == nil || st.Text == "" {
		return ErrEmptyStory
	}
	r.log.Info().Str("story_type", st.Type).Str("title", st.Title).Msg("story generated")
	r.checkpointWith(ctx, 1, task.Update{
		StoryTitle:       &st.Title,
		StoryDescription: &st.Description,
		StoryText:        &st.Text,
	})

	var characters []task.Character
	if !story.SkipsCharacters(st.Type) {
		characters, err = o.Story.GenerateCharacters(ctx, st.Text)
		if err != nil {
			r.log.Warn().Err(err).Msg("character extraction failed, continuing without characters")
			characters = nil
		}
	}
	r.checkpoint(ctx, 2)

	names := make([]string, 0, len(characters))
	for _, c := range characters {
		names = append(names, c.Name)
	}
	sb, err := o.Story.GenerateStoryboard(ctx, st.Type, st.Title, st.Text, names)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyStoryboard, err)
	}
	if sb == nil || len(sb.Scenes) == 0 {
		return ErrEmptyStoryboard
	}
	sb.Characters = characters
	r.log.Info().Int("scenes", len(sb.Scenes)).Int("characters", len(characters)).Msg("storyboard generated")
	r.checkpoint(ctx, 3)

	urls := o.Scenes.GenerateImages(ctx, r.req.TaskID, sb, r.req.ArtStyle)
	ok := 0
	for _, u := range urls {
		if u != nil && *u != "" {
			ok++
		}
	}
	if ok == 0 {
		return ErrNoImages
	}
	r.log.Info().Int("images", ok).Int("scenes", len(sb.Scenes)).Msg("images generated")
	r.checkpoint(ctx, 4)

	if err := o.Images.BatchCreate(ctx, sceneImages(r.req.TaskID, sb, o.now())); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistImages, err)
	}
	r.checkpoint(ctx, 5)

	dir := filepath.Join(o.StoryDir, ResourceDirName(o.now(), st.Type, st.Title))
	videoPath, done := o.Video.Assemble(ctx, sb, dir, r.req.Voice)
	if !done || videoPath == "" {
		return ErrNoVideo
	}
	url, err := o.Uploader.Upload(ctx, videoPath, upload.ObjectName(r.req.TaskID, videoPath))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}

	r.terminal(ctx, task.Update{
		Status:           task.Ptr(task.StatusCompleted),
		Progress:         task.Ptr(1.0),
		URL:              &url,
		StoryTitle:       &st.Title,
		StoryDescription: &st.Description,
		StoryText:        &st.Text,
	})
	return nil
}

// checkpoint 推进到第 k 个检查点，进度不会回退
func (r *run) checkpoint(ctx context.Context, k int) {
	r.checkpointWith(ctx, k, task.Update{})
}

// checkpointWith 推进进度并顺带写入阶段产物
func (r *run) checkpointWith(ctx context.Context, k int, u task.Update) {
	p := task.RoundProgress(float64(k) / checkpoints)
	if p < r.progress {
		p = r.progress
	}
	u.Progress = &p
	if _, err := r.update(ctx, u); err != nil {
		r.log.Warn().Err(err).Float64("progress", p).Msg("failed to persist progress")
	}
}

func (r *run) fail(ctx context.Context, cause error) {
	msg := cause.Error()
	r.terminal(ctx, task.Update{Status: task.Ptr(task.StatusFailed), ErrorMessage: &msg})
}

// terminal 终态写入失败时重试一次
func (r *run) terminal(ctx context.Context, u task.Update) {
	_, err := r.update(ctx, u)
	if err == nil {
		return
	}
	r.log.Warn().Err(err).Msg("terminal update failed, retrying")
	r.o.sleep(terminalRetryDelay)
	if _, err := r.update(ctx, u); err != nil {
		r.log.Error().Err(err).Msg("terminal update failed")
	}
}

// update 持久化并发布事件
func (r *run) update(ctx context.Context, u task.Update) (*task.Task, error) {
	t, err := r.o.Tasks.Update(ctx, r.req.TaskID, u)
	if err != nil {
		return nil, err
	}
	r.progress = t.Progress
	r.publish(ctx, t)
	return t, nil
}

func (r *run) publish(ctx context.Context, t *task.Task) {
	if r.o.Hub == nil {
		return
	}
	err := r.o.Hub.Publish(ctx, events.Event{
		Kind:         events.KindTask,
		TaskID:       t.ID,
		Status:       string(t.Status),
		Progress:     t.Progress,
		URL:          t.URL,
		ErrorMessage: t.ErrorMessage,
	})
	if err != nil {
		r.log.Debug().Err(err).Msg("publish task event failed")
	}
}
