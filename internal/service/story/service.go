// Package story 故事、角色与分镜生成
package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"storyreel/internal/ai"
	"storyreel/internal/config"
	"storyreel/internal/model/task"
)

// ErrCoverage 严格模式下字幕未完整覆盖正文
var ErrCoverage = errors.New("storyboard subtitles do not cover the story")

const (
	defaultHashtag   = "#facelessvideos.app"
	defaultMaxScenes = 12
	storyboardUser   = "AI Generated"
	timestampLayout  = "2006-01-02 03:04:05 PM"
)

// Story 生成的故事
type Story struct {
	Type        string
	Title       string
	Description string
	Text        string
}

// Service 故事与分镜生成服务
type Service struct {
	llm ai.LLM
	cfg config.StoryConfig
	now func() time.Time
}

// NewService 创建故事服务
func NewService(llm ai.LLM, cfg config.StoryConfig) *Service {
	if cfg.MaxScenes <= 0 {
		cfg.MaxScenes = defaultMaxScenes
	}
	if cfg.Hashtag == "" {
		cfg.Hashtag = defaultHashtag
	}
	return &Service{llm: llm, cfg: cfg, now: time.Now}
}

// GenerateStory 根据主题生成标题、描述与正文
func (s *Service) GenerateStory(ctx context.Context, topic, language, duration string) (*Story, error) {
	storyType := MapTopic(topic)
	limit := s.cfg.Limit(duration)

	system := fmt.Sprintf(storySystemPrompt, language, s.cfg.Hashtag)
	reply, err := s.llm.Generate(ctx, system, storyPrompt(storyType, language, s.cfg.Hashtag, limit))
	if err != nil {
		return nil, fmt.Errorf("generate story: %w", err)
	}

	title, description, text, err := parseStoryReply(reply, s.cfg.Hashtag)
	if err != nil {
		return nil, err
	}

	if n := len([]rune(text)); n < limit.Min || n > limit.Max {
		log.Warn().
			Str("story_type", storyType).
			Int("length", n).
			Int("min", limit.Min).
			Int("max", limit.Max).
			Msg("story length outside configured range")
	}

	return &Story{
		Type:        storyType,
		Title:       title,
		Description: description,
		Text:        text,
	}, nil
}

// GenerateCharacters 提取角色外观描述，解析失败返回空列表
func (s *Service) GenerateCharacters(ctx context.Context, storyText string) ([]task.Character, error) {
	reply, err := s.llm.Generate(ctx, characterSystemPrompt, fmt.Sprintf(characterPrompt, storyText))
	if err != nil {
		return nil, fmt.Errorf("generate characters: %w", err)
	}

	characters, err := parseCharacters(reply)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse characters, continuing without")
		return []task.Character{}, nil
	}
	return characters, nil
}

// GenerateStoryboard 生成分镜
//
// 回复无法解析时返回空分镜；严格覆盖模式下覆盖不完整同样返回空分镜并附带 ErrCoverage。
func (s *Service) GenerateStoryboard(ctx context.Context, storyType, title, storyText string, characterNames []string) (*task.Storyboard, error) {
	sb := &task.Storyboard{
		ProjectInfo: task.ProjectInfo{
			Title:     title,
			User:      storyboardUser,
			Timestamp: s.now().Format(timestampLayout),
		},
		Scenes: []*task.Scene{},
	}

	prompt := storyboardPrompt(storyType, title, storyText, characterNames, s.cfg.MaxScenes, sb.ProjectInfo.Timestamp)
	reply, err := s.llm.Generate(ctx, storyboardSystemPrompt, prompt)
	if err != nil {
		return sb, fmt.Errorf("generate storyboard: %w", err)
	}

	raw, err := parseStoryboard(reply)
	if err != nil {
		log.Error().Err(err).Str("story_type", storyType).Msg("failed to parse storyboard")
		return sb, nil
	}

	scenes, report := normalizeScenes(raw, s.cfg.MaxScenes)
	if report.DroppedEmpty > 0 || report.DroppedDuplicate > 0 || report.Truncated > 0 {
		log.Warn().
			Int("dropped_empty", report.DroppedEmpty).
			Int("dropped_duplicate", report.DroppedDuplicate).
			Int("truncated", report.Truncated).
			Int("max_scenes", s.cfg.MaxScenes).
			Msg("storyboard normalized")
	}
	sb.Scenes = scenes

	cov := CheckCoverage(storyText, sb)
	if !cov.Exact {
		log.Warn().
			Float64("coverage", cov.Ratio).
			Int("missing_words", cov.Missing).
			Int("duplicated_words", cov.Duplicated).
			Bool("strict", s.cfg.StrictCoverage).
			Msg("storyboard subtitles do not fully cover the story")
		if s.cfg.StrictCoverage {
			sb.Scenes = []*task.Scene{}
			return sb, fmt.Errorf("%w: %.0f%% covered", ErrCoverage, cov.Ratio*100)
		}
	}
	return sb, nil
}
