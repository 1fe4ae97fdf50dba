// Package app 按配置组装存储、事件、AI 与流水线组件
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"storyreel/internal/ai"
	"storyreel/internal/config"
	"storyreel/internal/model/task"
	"storyreel/internal/pkg/cache"
	"storyreel/internal/pkg/captions"
	"storyreel/internal/pkg/events"
	"storyreel/internal/pkg/ffmpeg"
	"storyreel/internal/pkg/mongodb"
	"storyreel/internal/pkg/mysql"
	"storyreel/internal/pkg/storage"
	"storyreel/internal/pkg/storagefactory"
	"storyreel/internal/pkg/tts"
	taskrepo "storyreel/internal/repository/task"
	"storyreel/internal/service/audio"
	"storyreel/internal/service/imagegen"
	"storyreel/internal/service/images"
	"storyreel/internal/service/pipeline"
	"storyreel/internal/service/story"
	"storyreel/internal/service/upload"
	"storyreel/internal/service/video"
)

// App 运行期依赖
type App struct {
	Config       *config.Config
	Tasks        taskrepo.TaskRepository
	Images       taskrepo.ImageRepository
	Hub          events.Hub
	Storage      storage.Storage
	ImageGen     *imagegen.Generator
	Orchestrator *pipeline.Orchestrator

	Mongo *mongodb.Client
	MySQL *mysql.Client
	Redis *cache.RedisCache
}

// New 组装全部组件，失败时释放已建立的连接
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			if cerr := a.Close(context.Background()); cerr != nil {
				log.Warn().Err(cerr).Msg("release connections failed")
			}
		}
	}()

	if err = a.initStores(ctx); err != nil {
		return nil, err
	}
	a.initHub()

	a.Storage, err = storagefactory.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	llm, err := ai.NewLLM(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}

	a.ImageGen, err = imagegen.New(&cfg.Image)
	if err != nil {
		return nil, fmt.Errorf("init image provider: %w", err)
	}

	speech, err := tts.NewProvider(&cfg.TTS)
	if err != nil {
		return nil, fmt.Errorf("init tts: %w", err)
	}

	ff := ffmpeg.NewClient(cfg.Video.FFmpegPath, cfg.Video.FFprobePath)
	narrator := audio.NewService(speech, cfg.TTS.VoiceID, ff, aligner(&cfg.Captions))
	assembler := video.NewAssembler(
		narrator,
		video.NewHTTPFetcher(cfg.Video.Width, cfg.Video.Height),
		ff,
		captions.NewASSGenerator(cfg.Captions.Font, cfg.Captions.FontSize, cfg.Video.Width, cfg.Video.Height, cfg.Captions.MaxWordsPerLine),
		video.Options{FPS: cfg.Video.FPS, Width: cfg.Video.Width, Height: cfg.Video.Height},
	)

	a.Orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Tasks:    a.Tasks,
		Images:   a.Images,
		Story:    story.NewService(llm, cfg.Story),
		Scenes:   images.NewOrchestrator(a.ImageGen, a.Hub),
		Video:    assembler,
		Uploader: upload.NewService(a.Storage, cfg.Storage.PublicBaseURL),
		Hub:      a.Hub,
		StoryDir: cfg.Video.StoryDir,
	})

	log.Info().
		Str("database", cfg.Database.Driver).
		Str("llm", cfg.AI.Provider).
		Str("image", cfg.Image.Provider).
		Str("tts", cfg.TTS.Provider).
		Str("storage", cfg.Storage.Type).
		Msg("application initialized")
	return a, nil
}

// aligner 供应商不返回时间戳时的对齐链：Whisper 优先，按字长比例兜底
func aligner(cfg *config.CaptionsConfig) captions.Aligner {
	proportional := captions.NewProportionalAligner(captions.NewSegmenter())
	if cfg.WhisperURL == "" {
		return proportional
	}
	return captions.Chain{
		captions.NewWhisperAligner(cfg.WhisperURL, cfg.WhisperAPIKey, cfg.WhisperModel),
		proportional,
	}
}

func (a *App) initStores(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Database.Driver {
	case "mongo":
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		a.Mongo = client
		if err := mongodb.EnsureIndexes(ctx, client.Database()); err != nil {
			log.Warn().Err(err).Msg("failed to ensure indexes")
		}
		a.Tasks = taskrepo.NewMongoTaskRepo(client.Database())
		a.Images = taskrepo.NewMongoImageRepo(client.Database())
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
	case "mysql":
		client, err := mysql.New(&cfg.MySQL)
		if err != nil {
			return fmt.Errorf("connect mysql: %w", err)
		}
		a.MySQL = client
		if err := client.Migrate(&task.Task{}, &task.SceneImage{}); err != nil {
			return fmt.Errorf("migrate mysql: %w", err)
		}
		a.Tasks = taskrepo.NewSQLTaskRepo(client.DB())
		a.Images = taskrepo.NewSQLImageRepo(client.DB())
		log.Info().Msg("connected to MySQL")
	case "memory":
		a.Tasks = taskrepo.NewMemoryTaskRepo()
		a.Images = taskrepo.NewMemoryImageRepo()
		log.Warn().Msg("using in-memory task store, state is lost on exit")
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	return nil
}

// initHub 配置了 Redis 时使用 Redis 发布订阅，否则退回进程内分发
func (a *App) initHub() {
	if a.Config.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&a.Config.Redis)
		if err == nil {
			a.Redis = rc
			a.Hub = events.NewRedisHub(rc)
			log.Info().Str("addr", a.Config.Redis.Addr).Msg("connected to Redis")
			return
		}
		log.Warn().Err(err).Msg("failed to connect to Redis, using in-process event hub")
	}
	a.Hub = events.NewMemoryHub()
}

// Close 关闭数据库与缓存连接
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Close(ctx))
	}
	if a.MySQL != nil {
		errs = append(errs, a.MySQL.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
