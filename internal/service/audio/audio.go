// Package audio 场景旁白合成
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"storyreel/internal/pkg/captions"
	"storyreel/internal/pkg/ffmpeg"
	"storyreel/internal/pkg/tts"
)

// Prober 测量音频时长
type Prober interface {
	GetAudioInfo(ctx context.Context, audioPath string) (*ffmpeg.AudioInfo, error)
}

// Narration 一段旁白
type Narration struct {
	Path     string
	Duration float64
	Words    []captions.Word
}

// Service 旁白合成服务
type Service struct {
	provider tts.Provider
	voiceID  func(string) string
	prober   Prober
	aligner  captions.Aligner
}

// NewService 创建旁白服务
//
// voiceID 把对外的 voice 名映射为供应商音色，aligner 在供应商不返回时间戳时使用。
func NewService(provider tts.Provider, voiceID func(string) string, prober Prober, aligner captions.Aligner) *Service {
	if voiceID == nil {
		voiceID = func(v string) string { return v }
	}
	return &Service{provider: provider, voiceID: voiceID, prober: prober, aligner: aligner}
}

// Narrate 合成 text 并写入 outPath，返回时长与词级时间
func (s *Service) Narrate(ctx context.Context, text, voice, outPath string) (*Narration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty narration text")
	}

	speech, err := s.provider.Synthesize(ctx, text, s.voiceID(voice))
	if err != nil {
		return nil, fmt.Errorf("synthesize with %s: %w", s.provider.Name(), err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	if err := os.WriteFile(outPath, speech.Audio, 0o644); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}

	duration := speech.Duration
	if s.prober != nil {
		info, err := s.prober.GetAudioInfo(ctx, outPath)
		switch {
		case err == nil && info.Duration > 0:
			duration = info.Duration
		case duration <= 0 && err != nil:
			return nil, fmt.Errorf("measure audio duration: %w", err)
		case duration <= 0:
			return nil, fmt.Errorf("measure audio duration: ffprobe reported no duration for %s", outPath)
		default:
			log.Warn().Err(err).Str("path", outPath).Msg("ffprobe failed, using provider duration")
		}
	}
	if duration <= 0 {
		return nil, fmt.Errorf("unknown audio duration for %s", outPath)
	}

	n := &Narration{Path: outPath, Duration: duration}
	if len(speech.Words) > 0 {
		n.Words = make([]captions.Word, 0, len(speech.Words))
		for _, w := range speech.Words {
			n.Words = append(n.Words, captions.Word{Text: w.Text, Start: w.Start, End: w.End})
		}
		return n, nil
	}

	if s.aligner != nil {
		words, err := s.aligner.Align(ctx, outPath, text, duration)
		if err != nil {
			log.Warn().Err(err).Str("path", outPath).Msg("word alignment failed, captions skipped for this scene")
		}
		n.Words = words
	}
	return n, nil
}
