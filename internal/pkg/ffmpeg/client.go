package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Effect 图片片段的镜头运动
type Effect string

const (
	EffectZoomIn  Effect = "zoom-in"
	EffectZoomOut Effect = "zoom-out"
	EffectNone    Effect = "none"
)

const maxZoom = 1.3

// Client FFmpeg 客户端
// 用于封装 FFmpeg 命令调用
type Client struct {
	ffmpegPath  string // FFmpeg 可执行文件路径（默认: ffmpeg）
	ffprobePath string // FFprobe 可执行文件路径（默认: ffprobe）
}

// NewClient 创建 FFmpeg 客户端，路径为空时使用 PATH 中的命令
func NewClient(ffmpegPath, ffprobePath string) *Client {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// AudioInfo 音频信息
type AudioInfo struct {
	Duration float64 // 时长（秒）
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetAudioInfo 获取音频信息
func (c *Client) GetAudioInfo(ctx context.Context, audioPath string) (*AudioInfo, error) {
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		audioPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseAudioInfo(output)
}

func parseAudioInfo(output []byte) (*AudioInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	d, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}
	return &AudioInfo{Duration: d}, nil
}

// ClipOptions 单个场景片段参数
type ClipOptions struct {
	ImagePath  string
	AudioPath  string
	OutputPath string
	Duration   float64
	Effect     Effect
	Width      int
	Height     int
	FPS        int
}

// CreateImageClip 由静态图片和旁白音频生成场景片段，片段时长等于音频时长
func (c *Client) CreateImageClip(ctx context.Context, opts ClipOptions) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("invalid clip duration %.2f", opts.Duration)
	}
	frames := int(opts.Duration*float64(opts.FPS) + 0.5)

	args := []string{
		"-y",
		"-loop", "1",
		"-i", opts.ImagePath,
		"-i", opts.AudioPath,
		"-t", fmt.Sprintf("%.3f", opts.Duration),
		"-vf", VideoFilter(opts.Effect, frames, opts.Width, opts.Height, opts.FPS),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(opts.FPS),
		"-c:a", "aac",
		"-b:a", "160k",
		"-shortest",
		opts.OutputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg clip failed: %w", err)
	}

	log.Debug().
		Str("image", opts.ImagePath).
		Str("output", opts.OutputPath).
		Str("effect", string(opts.Effect)).
		Float64("duration", opts.Duration).
		Msg("scene clip created")
	return nil
}

// VideoFilter 构建缩放裁剪与镜头运动滤镜
//
// zoom-in 从 1.0 放大到 maxZoom，zoom-out 反向，none 为静止画面。
func VideoFilter(effect Effect, frames, width, height, fps int) string {
	base := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
		width, height, width, height)
	if frames < 1 {
		frames = 1
	}
	step := (maxZoom - 1.0) / float64(frames)

	var z string
	switch effect {
	case EffectZoomIn:
		z = fmt.Sprintf("min(1.0+on*%.6f,%.2f)", step, maxZoom)
	case EffectZoomOut:
		z = fmt.Sprintf("max(%.2f-on*%.6f,1.0)", maxZoom, step)
	default:
		return base + fmt.Sprintf(",fps=%d", fps)
	}
	return base + fmt.Sprintf(",zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		z, frames, width, height, fps)
}

// ConcatVideos 按顺序合并片段，重新编码为固定帧率
// 使用 concat demuxer（需要创建 concat list 文件）
func (c *Client) ConcatVideos(ctx context.Context, videoPaths []string, outputPath string, fps int) error {
	if len(videoPaths) == 0 {
		return fmt.Errorf("no videos to concat")
	}

	concatListFile := filepath.Join(filepath.Dir(outputPath), "concat_list.txt")
	if err := os.WriteFile(concatListFile, []byte(ConcatList(videoPaths)), 0o644); err != nil {
		return fmt.Errorf("create concat list file: %w", err)
	}
	defer os.Remove(concatListFile)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListFile,
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "160k",
		"-movflags", "+faststart",
		outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}

	log.Info().
		Int("count", len(videoPaths)).
		Str("output", outputPath).
		Msg("clips concatenated")
	return nil
}

// ConcatList 生成 concat demuxer 列表内容
func ConcatList(videoPaths []string) string {
	var b strings.Builder
	for _, p := range videoPaths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}

// AddSubtitles 添加字幕到视频（ASS 格式）
func (c *Client) AddSubtitles(ctx context.Context, videoPath, assPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("ass=%s", escapeFilterPath(assPath)),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg add subtitles failed: %w", err)
	}

	log.Info().
		Str("video", videoPath).
		Str("subtitle", assPath).
		Str("output", outputPath).
		Msg("subtitles burned in")
	return nil
}

// run 执行 ffmpeg，失败时附带 stderr 末尾
func (c *Client) run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.ffmpegPath, append([]string{"-hide_banner", "-loglevel", "error"}, args...)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 512 {
			tail = tail[len(tail)-512:]
		}
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(tail))
	}
	return nil
}

// escapeFilterPath 转义滤镜参数中的特殊字符
func escapeFilterPath(p string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`)
	return r.Replace(p)
}
