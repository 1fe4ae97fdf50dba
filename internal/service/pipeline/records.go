package pipeline

import (
	"strings"
	"time"
	"unicode"

	"storyreel/internal/model/task"
	"storyreel/internal/pkg/id"
)

const maxTitleLen = 50

// sceneImages 按场景顺序构造图片记录
func sceneImages(taskID string, sb *task.Storyboard, now time.Time) []*task.SceneImage {
	imgs := make([]*task.SceneImage, 0, len(sb.Scenes))
	for _, s := range sb.Scenes {
		img := &task.SceneImage{
			ID:             id.New(),
			TaskID:         taskID,
			SceneNumber:    s.SceneNumber,
			URLs:           []string{},
			Subtitles:      s.Subtitles,
			EnhancedPrompt: s.EnhancedPrompt,
			Status:         task.StatusFailed,
			ErrorMessage:   s.ErrorMessage,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if s.Image != nil && *s.Image != "" {
			img.URLs = []string{*s.Image}
			img.Status = task.StatusCompleted
			img.ErrorMessage = ""
		}
		imgs = append(imgs, img)
	}
	return imgs
}

// ResourceDirName 产物目录名 {时间}_{类型}_{标题}
func ResourceDirName(now time.Time, storyType, title string) string {
	return now.Format("20060102_150405") + "_" + storyType + "_" + SafeTitle(title)
}

// SafeTitle 只保留字母数字、空格和下划线，最多 50 个字符
func SafeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := []rune(strings.TrimSpace(b.String()))
	if len(safe) > maxTitleLen {
		safe = safe[:maxTitleLen]
	}
	return strings.TrimRight(string(safe), " ")
}
