package config

import (
	"errors"
	"fmt"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AI       AIConfig       `mapstructure:"ai"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Image    ImageConfig    `mapstructure:"image"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Captions CaptionsConfig `mapstructure:"captions"`
	Video    VideoConfig    `mapstructure:"video"`
	Story    StoryConfig    `mapstructure:"story"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig AI 服务配置
type AIConfig struct {
	Provider string          `mapstructure:"provider"`
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// DatabaseConfig 选择任务存储后端
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mongo, mysql, memory
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// MySQLConfig MySQL 配置 (gorm)
type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QueueConfig asynq 任务队列配置
type QueueConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Concurrency int           `mapstructure:"concurrency"`
	Queue       string        `mapstructure:"queue"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	JWTSecret         string        `mapstructure:"jwt_secret"`          // JWT密钥
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"` // Access Token过期时间
	AdminUsername     string        `mapstructure:"admin_username"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt, 由 passwd 子命令生成
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type          string       `mapstructure:"type"`            // local, oss, minio
	PublicBaseURL string       `mapstructure:"public_base_url"` // 非空时对外URL = public_base_url/object
	Local         *LocalConfig `mapstructure:"local,omitempty"`
	OSS           *OSSConfig   `mapstructure:"oss,omitempty"`
	Minio         *MinioConfig `mapstructure:"minio,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`      // 基础路径
	BaseURL       string `mapstructure:"base_url"`       // 基础URL（用于生成访问URL）
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

// MinioConfig S3 兼容存储配置 (MinIO / R2)
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Region          string `mapstructure:"region"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	PresignExpiry   int    `mapstructure:"presign_expiry"`
}

// ImageConfig 图片生成配置
type ImageConfig struct {
	Provider    string          `mapstructure:"provider"` // ark, replicate
	MaxAttempts int             `mapstructure:"max_attempts"`
	RetryDelay  time.Duration   `mapstructure:"retry_delay"`
	Ark         ArkImageConfig  `mapstructure:"ark"`
	Replicate   ReplicateConfig `mapstructure:"replicate"`
}

// ArkImageConfig 火山方舟图片模型
type ArkImageConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
}

// ReplicateConfig Replicate 托管推理
type ReplicateConfig struct {
	APIToken     string        `mapstructure:"api_token"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	AspectRatio  string        `mapstructure:"aspect_ratio"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// TTSConfig 语音合成配置
type TTSConfig struct {
	Provider string            `mapstructure:"provider"` // volcano, openai
	Speed    float64           `mapstructure:"speed"`
	Voices   map[string]string `mapstructure:"voices"` // 对外 voice 名 -> 供应商音色ID
	Volcano  VolcanoTTSConfig  `mapstructure:"volcano"`
	OpenAI   OpenAITTSConfig   `mapstructure:"openai"`
}

// VolcanoTTSConfig 火山引擎 TTS
type VolcanoTTSConfig struct {
	AppID    string `mapstructure:"app_id"`
	Token    string `mapstructure:"token"`
	Cluster  string `mapstructure:"cluster"`
	Endpoint string `mapstructure:"endpoint"`
}

// OpenAITTSConfig OpenAI 兼容 speech 接口
type OpenAITTSConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// CaptionsConfig 字幕配置
type CaptionsConfig struct {
	WhisperURL      string `mapstructure:"whisper_url"`
	WhisperAPIKey   string `mapstructure:"whisper_api_key"`
	WhisperModel    string `mapstructure:"whisper_model"`
	Font            string `mapstructure:"font"`
	FontSize        int    `mapstructure:"font_size"`
	MaxWordsPerLine int    `mapstructure:"max_words_per_line"`
}

// VideoConfig 视频合成配置
type VideoConfig struct {
	StoryDir    string `mapstructure:"story_dir"`
	FPS         int    `mapstructure:"fps"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
}

// StoryConfig 故事与分镜生成配置
type StoryConfig struct {
	MaxScenes      int                   `mapstructure:"max_scenes"`
	Hashtag        string                `mapstructure:"hashtag"`
	StrictCoverage bool                  `mapstructure:"strict_coverage"`
	Languages      []string              `mapstructure:"languages"`
	Limits         map[string]LengthSpec `mapstructure:"limits"` // short / long
}

// LengthSpec 故事正文字符数范围
type LengthSpec struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

var (
	validModes     = map[string]bool{"debug": true, "release": true, "test": true}
	validDrivers   = map[string]bool{"mongo": true, "mysql": true, "memory": true}
	validImage     = map[string]bool{"ark": true, "replicate": true}
	validTTS       = map[string]bool{"volcano": true, "openai": true}
	validStorage   = map[string]bool{"local": true, "oss": true, "minio": true}
	errInvalidPort = errors.New("invalid server port")
)

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errInvalidPort
	}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("invalid database driver %q, must be mongo/mysql/memory", c.Database.Driver)
	}
	if !validImage[c.Image.Provider] {
		return fmt.Errorf("invalid image provider %q, must be ark/replicate", c.Image.Provider)
	}
	if c.Image.MaxAttempts < 1 {
		return errors.New("image.max_attempts must be at least 1")
	}
	if !validTTS[c.TTS.Provider] {
		return fmt.Errorf("invalid tts provider %q, must be volcano/openai", c.TTS.Provider)
	}
	if !validStorage[c.Storage.Type] {
		return fmt.Errorf("invalid storage type %q, must be local/oss/minio", c.Storage.Type)
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if c.Story.MaxScenes <= 0 {
		return errors.New("story.max_scenes must be positive")
	}
	return nil
}

// VoiceID 返回供应商音色ID，未配置映射时原样返回
func (c *TTSConfig) VoiceID(voice string) string {
	if id, ok := c.Voices[voice]; ok && id != "" {
		return id
	}
	return voice
}

// Limit 返回指定时长档位的长度范围
func (c *StoryConfig) Limit(duration string) LengthSpec {
	if l, ok := c.Limits[duration]; ok && l.Max > 0 {
		return l
	}
	if duration == "long" {
		return LengthSpec{Min: 1500, Max: 2000}
	}
	return LengthSpec{Min: 700, Max: 800}
}
