// Package video 场景片段合成、拼接与字幕烧录
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"storyreel/internal/model/task"
	"storyreel/internal/pkg/captions"
	"storyreel/internal/pkg/ffmpeg"
	"storyreel/internal/pkg/logger"
	"storyreel/internal/service/audio"
)

const (
	videoFile    = "story_video.mp4"
	captionFile  = "captions.ass"
	subtitleFile = "story_video_subtitle.mp4"
)

// Narrator 旁白合成
type Narrator interface {
	Narrate(ctx context.Context, text, voice, outPath string) (*audio.Narration, error)
}

// Renderer 视频编码
type Renderer interface {
	CreateImageClip(ctx context.Context, opts ffmpeg.ClipOptions) error
	ConcatVideos(ctx context.Context, videoPaths []string, outputPath string, fps int) error
	AddSubtitles(ctx context.Context, videoPath, assPath, outputPath string) error
}

// Options 输出参数
type Options struct {
	FPS    int
	Width  int
	Height int
}

// Assembler 把分镜合成为带字幕的视频
type Assembler struct {
	narrator Narrator
	fetcher  ImageFetcher
	renderer Renderer
	ass      *captions.ASSGenerator
	opts     Options
}

// NewAssembler 创建视频合成器
func NewAssembler(narrator Narrator, fetcher ImageFetcher, renderer Renderer, ass *captions.ASSGenerator, opts Options) *Assembler {
	if opts.FPS <= 0 {
		opts.FPS = 24
	}
	if opts.Width <= 0 {
		opts.Width = 720
	}
	if opts.Height <= 0 {
		opts.Height = 1280
	}
	return &Assembler{narrator: narrator, fetcher: fetcher, renderer: renderer, ass: ass, opts: opts}
}

type clip struct {
	path     string
	duration float64
	words    []captions.Word
}

// Assemble 按场景顺序生成片段并拼接，返回成片路径
//
// 单个场景的音频或图片失败只会跳过该场景；没有任何片段时返回 ("", false)。
// 字幕失败时返回未加字幕的视频。
func (a *Assembler) Assemble(ctx context.Context, sb *task.Storyboard, storyDir, voice string) (string, bool) {
	log := logger.FromContext(ctx)

	for _, dir := range []string{"audio", "clips"} {
		if err := os.MkdirAll(filepath.Join(storyDir, dir), 0o755); err != nil {
			log.Error().Err(err).Str("dir", storyDir).Msg("failed to create artifact dirs")
			return "", false
		}
	}

	var clips []clip
	for _, scene := range sb.Scenes {
		c, err := a.sceneClip(ctx, scene, storyDir, voice)
		if err != nil {
			log.Error().Err(err).Int("scene", scene.SceneNumber).Msg("scene skipped")
			continue
		}
		clips = append(clips, *c)
	}
	if len(clips) == 0 {
		log.Error().Msg("no valid clips generated")
		return "", false
	}

	paths := make([]string, len(clips))
	for i, c := range clips {
		paths[i] = c.path
	}
	videoPath := filepath.Join(storyDir, videoFile)
	if err := a.renderer.ConcatVideos(ctx, paths, videoPath, a.opts.FPS); err != nil {
		log.Error().Err(err).Msg("concat failed")
		return "", false
	}

	captioned, err := a.addCaptions(ctx, clips, storyDir, videoPath, sb.ProjectInfo.Title)
	if err != nil {
		log.Warn().Err(err).Msg("caption pass failed, returning video without captions")
		return videoPath, true
	}
	return captioned, true
}

func (a *Assembler) sceneClip(ctx context.Context, scene *task.Scene, storyDir, voice string) (*clip, error) {
	if scene.Image == nil || *scene.Image == "" {
		return nil, fmt.Errorf("scene has no image")
	}
	n := scene.SceneNumber

	narration, err := a.narrator.Narrate(ctx, scene.Subtitles, voice, filepath.Join(storyDir, "audio", fmt.Sprintf("scene_%d.mp3", n)))
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	imagePath := filepath.Join(storyDir, fmt.Sprintf("scene_%d.png", n))
	if err := a.fetcher.Fetch(ctx, *scene.Image, imagePath); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	clipPath := filepath.Join(storyDir, "clips", fmt.Sprintf("scene_%d.mp4", n))
	err = a.renderer.CreateImageClip(ctx, ffmpeg.ClipOptions{
		ImagePath:  imagePath,
		AudioPath:  narration.Path,
		OutputPath: clipPath,
		Duration:   narration.Duration,
		Effect:     ffmpeg.Effect(scene.TransitionType),
		Width:      a.opts.Width,
		Height:     a.opts.Height,
		FPS:        a.opts.FPS,
	})
	if err != nil {
		return nil, fmt.Errorf("clip: %w", err)
	}
	return &clip{path: clipPath, duration: narration.Duration, words: narration.Words}, nil
}

// addCaptions 按片段偏移词级时间，生成 ASS 并烧录
func (a *Assembler) addCaptions(ctx context.Context, clips []clip, storyDir, videoPath, title string) (string, error) {
	if a.ass == nil {
		return "", fmt.Errorf("caption generator not configured")
	}

	var words []captions.Word
	offset := 0.0
	for _, c := range clips {
		words = append(words, captions.Offset(c.words, offset)...)
		offset += c.duration
	}
	if len(words) == 0 {
		return "", captions.ErrNoWords
	}

	assPath := filepath.Join(storyDir, captionFile)
	if err := os.WriteFile(assPath, []byte(a.ass.Generate(words, title)), 0o644); err != nil {
		return "", fmt.Errorf("write ass: %w", err)
	}

	out := filepath.Join(storyDir, subtitleFile)
	if err := a.renderer.AddSubtitles(ctx, videoPath, assPath, out); err != nil {
		return "", err
	}
	return out, nil
}
