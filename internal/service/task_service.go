package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"storyreel/internal/model/task"
	"storyreel/internal/pkg/events"
	"storyreel/internal/pkg/id"
	taskrepo "storyreel/internal/repository/task"
	"storyreel/internal/service/imagegen"
	"storyreel/internal/service/pipeline"
)

var (
	// ErrInvalidInput 请求参数不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrTaskBusy 任务仍在执行
	ErrTaskBusy = errors.New("task is still running")
	// ErrDispatch 任务派发失败
	ErrDispatch = errors.New("failed to dispatch task")
)

// Voices 可选的旁白音色
var Voices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// DefaultLanguages 未配置时允许的语言
var DefaultLanguages = []string{
	"English", "Spanish", "French", "German", "Italian", "Portuguese",
	"Chinese", "Japanese", "Korean", "Hindi", "Arabic", "Russian",
}

// ImageGenerator 单张图片生成
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, onStart imagegen.StatusFunc) imagegen.Result
}

// TaskService 视频任务服务接口
type TaskService interface {
	CreateTask(ctx context.Context, in CreateTaskInput) (*task.Task, error)
	GetTask(ctx context.Context, taskID string) (*TaskDetail, error)
	ListTasks(ctx context.Context, status task.Status, limit, offset int) (*TaskListResult, error)
	RegenerateImage(ctx context.Context, imageID string) (*task.SceneImage, error)
	GetImage(ctx context.Context, imageID string) (*task.SceneImage, error)
	DeleteImage(ctx context.Context, imageID string) error
}

// CreateTaskInput 创建任务参数
type CreateTaskInput struct {
	StoryTopic string
	ArtStyle   string
	Duration   string
	Language   string
	Voice      string
}

// TaskDetail 任务及其场景图片
type TaskDetail struct {
	Task   *task.Task
	Images []*task.SceneImage
}

// TaskListResult 任务列表
type TaskListResult struct {
	Tasks  []*task.Task
	Total  int64
	Limit  int
	Offset int
}

type taskService struct {
	tasks      taskrepo.TaskRepository
	images     taskrepo.ImageRepository
	dispatcher Dispatcher
	generator  ImageGenerator
	hub        events.Hub
	languages  []string
	spawn      func(func())
}

// NewTaskService 创建任务服务，generator 与 hub 可以为 nil
func NewTaskService(tasks taskrepo.TaskRepository, images taskrepo.ImageRepository, dispatcher Dispatcher,
	generator ImageGenerator, hub events.Hub, languages []string) TaskService {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &taskService{
		tasks:      tasks,
		images:     images,
		dispatcher: dispatcher,
		generator:  generator,
		hub:        hub,
		languages:  languages,
		spawn:      func(f func()) { go f() },
	}
}

func (s *taskService) validate(in *CreateTaskInput) error {
	in.StoryTopic = strings.TrimSpace(in.StoryTopic)
	in.ArtStyle = strings.TrimSpace(in.ArtStyle)
	in.Voice = strings.ToLower(strings.TrimSpace(in.Voice))
	in.Duration = strings.ToLower(strings.TrimSpace(in.Duration))

	if in.StoryTopic == "" {
		return fmt.Errorf("%w: story_topic is required", ErrInvalidInput)
	}
	if in.ArtStyle == "" {
		return fmt.Errorf("%w: art_style is required", ErrInvalidInput)
	}
	if in.Duration != task.DurationShort && in.Duration != task.DurationLong {
		return fmt.Errorf("%w: duration must be short or long", ErrInvalidInput)
	}
	if !contains(Voices, in.Voice) {
		return fmt.Errorf("%w: voice must be one of %s", ErrInvalidInput, strings.Join(Voices, ", "))
	}
	for _, l := range s.languages {
		if strings.EqualFold(l, strings.TrimSpace(in.Language)) {
			in.Language = l
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, in.Language)
}

func (s *taskService) CreateTask(ctx context.Context, in CreateTaskInput) (*task.Task, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	t := &task.Task{
		ID:         id.New(),
		Status:     task.StatusQueued,
		Progress:   0,
		StoryTopic: in.StoryTopic,
		ArtStyle:   in.ArtStyle,
		Duration:   in.Duration,
		Language:   in.Language,
		Voice:      in.Voice,
	}
	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	req := pipeline.Request{
		TaskID:     created.ID,
		StoryTopic: created.StoryTopic,
		ArtStyle:   created.ArtStyle,
		Duration:   created.Duration,
		Language:   created.Language,
		Voice:      created.Voice,
	}
	if err := s.dispatcher.Dispatch(ctx, req); err != nil {
		log.Error().Err(err).Str("task_id", created.ID).Msg("dispatch failed")
		return nil, fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	log.Info().Str("task_id", created.ID).Str("topic", created.StoryTopic).Msg("task created")
	return created, nil
}

func (s *taskService) GetTask(ctx context.Context, taskID string) (*TaskDetail, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	imgs, err := s.images.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list scene images: %w", err)
	}
	return &TaskDetail{Task: t, Images: imgs}, nil
}

func (s *taskService) ListTasks(ctx context.Context, status task.Status, limit, offset int) (*TaskListResult, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	tasks, total, err := s.tasks.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &TaskListResult{Tasks: tasks, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *taskService) GetImage(ctx context.Context, imageID string) (*task.SceneImage, error) {
	img, err := s.images.Get(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("get scene image: %w", err)
	}
	return img, nil
}

func (s *taskService) DeleteImage(ctx context.Context, imageID string) error {
	if err := s.images.Delete(ctx, imageID); err != nil {
		return fmt.Errorf("delete scene image: %w", err)
	}
	return nil
}

// RegenerateImage 用保存的增强提示词重新生成单张场景图
//
// 只允许在任务结束后调用，生成在后台进行，返回 processing 状态的记录。
func (s *taskService) RegenerateImage(ctx context.Context, imageID string) (*task.SceneImage, error) {
	if s.generator == nil {
		return nil, errors.New("image generation is not configured")
	}
	img, err := s.images.Get(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("get scene image: %w", err)
	}
	t, err := s.tasks.Get(ctx, img.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if !t.Status.IsTerminal() {
		return nil, ErrTaskBusy
	}
	if strings.TrimSpace(img.EnhancedPrompt) == "" {
		return nil, fmt.Errorf("%w: image has no stored prompt", ErrInvalidInput)
	}

	updated, err := s.images.Update(ctx, imageID, task.ImageUpdate{
		Status:       task.Ptr(task.StatusProcessing),
		ErrorMessage: task.Ptr(""),
	})
	if err != nil {
		return nil, fmt.Errorf("update scene image: %w", err)
	}

	bg := context.WithoutCancel(ctx)
	s.spawn(func() { s.regenerate(bg, updated) })
	return updated, nil
}

func (s *taskService) regenerate(ctx context.Context, img *task.SceneImage) {
	logger := log.With().Str("task_id", img.TaskID).Int("scene", img.SceneNumber).Logger()
	start := time.Now()

	res := s.generator.Generate(ctx, img.EnhancedPrompt, nil)
	u := task.ImageUpdate{}
	ev := events.Event{Kind: events.KindScene, TaskID: img.TaskID, Scene: img.SceneNumber}
	if res.OK() {
		u.URLs = &[]string{res.URL}
		u.Status = task.Ptr(task.StatusCompleted)
		ev.Status, ev.URL = string(task.StatusCompleted), res.URL
		logger.Info().Int("attempts", res.Attempts).Dur("elapsed", time.Since(start)).Msg("scene image regenerated")
	} else {
		msg := "image generation failed"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		u.URLs = &[]string{}
		u.Status = task.Ptr(task.StatusFailed)
		u.ErrorMessage = &msg
		ev.Status, ev.ErrorMessage = string(task.StatusFailed), msg
		logger.Warn().Str("error", msg).Msg("scene image regeneration failed")
	}

	if _, err := s.images.Update(ctx, img.ID, u); err != nil {
		logger.Error().Err(err).Msg("failed to persist regenerated image")
		return
	}
	if s.hub != nil {
		if err := s.hub.Publish(ctx, ev); err != nil {
			logger.Debug().Err(err).Msg("publish scene event failed")
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
