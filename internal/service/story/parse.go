package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"storyreel/internal/model/task"
)

var (
	// ErrMalformedReply 模型回复不符合约定格式
	ErrMalformedReply = errors.New("malformed model reply")

	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// parseStoryReply 解析 "Title / Description / 正文" 三段式回复
func parseStoryReply(reply, hashtag string) (title, description, content string, err error) {
	parts := strings.SplitN(strings.TrimSpace(reply), "\n\n", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 3:
		title, description, content = parts[0], parts[1], parts[2]
		if !strings.HasPrefix(description, "Description:") && !strings.Contains(description, "#") {
			// 没有描述段，第二段起都是正文
			content = description + "\n\n" + content
			description = ""
		}
	case 2:
		title, content = parts[0], parts[1]
	default:
		return "", "", "", fmt.Errorf("%w: expected title and content", ErrMalformedReply)
	}

	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))
	description = strings.TrimSpace(strings.TrimPrefix(description, "Description:"))
	if title == "" || content == "" {
		return "", "", "", fmt.Errorf("%w: empty title or content", ErrMalformedReply)
	}
	return title, withHashtag(description, hashtag), content, nil
}

// withHashtag 用配置的标签替换描述中的最后一个标签
func withHashtag(description, hashtag string) string {
	if hashtag == "" {
		return description
	}
	if i := strings.LastIndex(description, "#"); i >= 0 {
		description = strings.TrimRight(description[:i], " \t\n")
	}
	if description == "" {
		return hashtag
	}
	return description + " " + hashtag
}

type rawCamera struct {
	Angle           string `json:"angle"`
	CompositionType string `json:"composition_type"`
	ShotSize        string `json:"shot_size"`
}

type rawScene struct {
	Description    string    `json:"description"`
	Subtitles      string    `json:"subtitles"`
	Camera         rawCamera `json:"camera"`
	Lighting       string    `json:"lighting"`
	TransitionType string    `json:"transition_type"`
}

type rawStoryboard struct {
	Storyboards []rawScene `json:"storyboards"`
}

// parseStoryboard 从回复中抽取分镜 JSON
//
// scene_number 不参与解析，场景在规整时重新编号。
func parseStoryboard(reply string) ([]rawScene, error) {
	match := objectPattern.FindString(reply)
	if match == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}
	var raw rawStoryboard
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return raw.Storyboards, nil
}

// NormalizeReport 规整分镜时丢弃的内容
type NormalizeReport struct {
	DroppedEmpty     int
	DroppedDuplicate int
	Truncated        int
}

// normalizeScenes 丢弃空字幕与重复字幕，截断到 maxScenes，并从 1 重新编号
func normalizeScenes(raw []rawScene, maxScenes int) ([]*task.Scene, NormalizeReport) {
	var report NormalizeReport
	seen := make(map[string]bool, len(raw))
	scenes := make([]*task.Scene, 0, len(raw))

	for _, r := range raw {
		subtitles := strings.TrimSpace(r.Subtitles)
		if subtitles == "" {
			report.DroppedEmpty++
			continue
		}
		if seen[subtitles] {
			report.DroppedDuplicate++
			continue
		}
		seen[subtitles] = true

		if maxScenes > 0 && len(scenes) == maxScenes {
			report.Truncated++
			continue
		}

		transition := task.ParseTransition(strings.ToLower(strings.TrimSpace(r.TransitionType)))
		shot := strings.ToLower(strings.TrimSpace(r.Camera.ShotSize))
		if transition == task.TransitionZoomIn && strings.HasSuffix(shot, "close-up") {
			transition = task.TransitionZoomOut
		}

		scenes = append(scenes, &task.Scene{
			SceneNumber: len(scenes) + 1,
			Description: strings.TrimSpace(r.Description),
			Subtitles:   subtitles,
			Camera: task.Camera{
				Angle:           strings.TrimSpace(r.Camera.Angle),
				CompositionType: strings.TrimSpace(r.Camera.CompositionType),
				ShotSize:        strings.TrimSpace(r.Camera.ShotSize),
			},
			Lighting:       strings.TrimSpace(r.Lighting),
			TransitionType: transition,
		})
	}
	return scenes, report
}

// parseCharacters 解析角色数组，字段可能不是字符串
func parseCharacters(reply string) ([]task.Character, error) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &items); err != nil {
		match := arrayPattern.FindString(reply)
		if match == "" {
			return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedReply)
		}
		if err := json.Unmarshal([]byte(match), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
		}
	}

	characters := make([]task.Character, 0, len(items))
	for _, it := range items {
		c := task.Character{
			Name:           field(it, "name"),
			Ethnicity:      field(it, "ethnicity"),
			Gender:         field(it, "gender"),
			Age:            field(it, "age"),
			FacialFeatures: field(it, "facial_features"),
			BodyType:       field(it, "body_type"),
			HairStyle:      field(it, "hair_style"),
			Accessories:    field(it, "accessories"),
		}
		if c.Name == "" {
			continue
		}
		characters = append(characters, c)
	}
	return characters, nil
}

func field(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
