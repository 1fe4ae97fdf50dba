package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storyreel/internal/config"
	"storyreel/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "storyreel",
	Short: "StoryReel - AI short story video generator",
	Long: `StoryReel turns a story topic into a narrated vertical short video.
It writes the story with an LLM, draws every scene, narrates it, adds
word-level captions and uploads the result.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 只补充未设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.storyreel")
	}

	// 环境变量设置
	viper.SetEnvPrefix("STORYREEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	// AI
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.options.temperature", 0.7)
	viper.SetDefault("ai.options.max_tokens", 4096)
	viper.SetDefault("ai.options.top_p", 1.0)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// Database
	viper.SetDefault("database.driver", "memory")

	// MongoDB
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "storyreel")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)

	// MySQL
	viper.SetDefault("mysql.max_open_conns", 20)
	viper.SetDefault("mysql.max_idle_conns", 5)
	viper.SetDefault("mysql.conn_max_lifetime", "1h")

	// Redis
	viper.SetDefault("redis.db", 0)

	// Queue
	viper.SetDefault("queue.enabled", false)
	viper.SetDefault("queue.concurrency", 2)
	viper.SetDefault("queue.queue", "default")
	viper.SetDefault("queue.timeout", "2h")

	// Auth
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.access_token_expiry", "24h")
	viper.SetDefault("auth.admin_username", "admin")

	// Storage
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_path", "./data/files")
	viper.SetDefault("storage.local.base_url", "http://localhost:8080/files")
	viper.SetDefault("storage.local.presign_expiry", 604800)

	// Image
	viper.SetDefault("image.provider", "ark")
	viper.SetDefault("image.max_attempts", 3)
	viper.SetDefault("image.retry_delay", "1s")
	viper.SetDefault("image.ark.model", "doubao-seedream-3-0-t2i-250415")
	viper.SetDefault("image.ark.size", "720x1280")
	viper.SetDefault("image.replicate.base_url", "https://api.replicate.com/v1")
	viper.SetDefault("image.replicate.model", "black-forest-labs/flux-schnell")
	viper.SetDefault("image.replicate.aspect_ratio", "9:16")
	viper.SetDefault("image.replicate.poll_interval", "2s")
	viper.SetDefault("image.replicate.max_wait", "5m")

	// TTS
	viper.SetDefault("tts.provider", "openai")
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("tts.openai.model", "tts-1")
	viper.SetDefault("tts.volcano.cluster", "volcano_tts")
	viper.SetDefault("tts.volcano.endpoint", "https://openspeech.bytedance.com/api/v1/tts")

	// Captions
	viper.SetDefault("captions.whisper_model", "whisper-1")
	viper.SetDefault("captions.font", "Arial")
	viper.SetDefault("captions.font_size", 64)
	viper.SetDefault("captions.max_words_per_line", 3)

	// Video
	viper.SetDefault("video.story_dir", "./stories")
	viper.SetDefault("video.fps", 24)
	viper.SetDefault("video.width", 720)
	viper.SetDefault("video.height", 1280)
	viper.SetDefault("video.ffmpeg_path", "ffmpeg")
	viper.SetDefault("video.ffprobe_path", "ffprobe")

	// Story
	viper.SetDefault("story.max_scenes", 12)
	viper.SetDefault("story.strict_coverage", false)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}

// validConfig 校验配置，供各子命令共用
func validConfig() (*config.Config, error) {
	c := GetConfig()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
