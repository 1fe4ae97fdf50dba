// Package images 场景图片并发生成
package images

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"storyreel/internal/model/task"
	"storyreel/internal/pkg/events"
	"storyreel/internal/pkg/logger"
	"storyreel/internal/service/imagegen"
)

var bracedPattern = regexp.MustCompile(`\{\{.*?\}\}`)

// Generator 单张图片生成
type Generator interface {
	Generate(ctx context.Context, prompt string, onStart imagegen.StatusFunc) imagegen.Result
}

// Orchestrator 为分镜中的每个场景并发生成图片
type Orchestrator struct {
	gen Generator
	hub events.Hub
}

// NewOrchestrator 创建图片编排器，hub 可以为 nil
func NewOrchestrator(gen Generator, hub events.Hub) *Orchestrator {
	return &Orchestrator{gen: gen, hub: hub}
}

// GenerateImages 每个场景一个 goroutine，等待全部完成
//
// 返回值与场景一一对应，失败的场景为 nil，错误写入场景的 ErrorMessage。
func (o *Orchestrator) GenerateImages(ctx context.Context, taskID string, sb *task.Storyboard, artStyle string) []*string {
	urls := make([]*string, len(sb.Scenes))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for i, scene := range sb.Scenes {
		prompt := BuildPrompt(scene, artStyle, sb.Characters)

		wg.Add(1)
		go func(i int, scene *task.Scene, prompt string) {
			defer wg.Done()
			log := logger.ForScene(taskID, scene.SceneNumber)

			res := o.gen.Generate(ctx, prompt, o.sceneStarted(taskID, scene.SceneNumber))

			mu.Lock()
			defer mu.Unlock()
			scene.EnhancedPrompt = prompt
			if !res.OK() {
				scene.Image = nil
				scene.ErrorMessage = errorMessage(res)
				log.Error().Err(res.Err).Int("attempts", res.Attempts).Msg("scene image failed")
				return
			}
			url := res.URL
			scene.Image = &url
			scene.ErrorMessage = ""
			urls[i] = &url
			log.Info().Int("attempts", res.Attempts).Msg("scene image generated")
		}(i, scene, prompt)
	}

	wg.Wait()
	return urls
}

func (o *Orchestrator) sceneStarted(taskID string, sceneNumber int) imagegen.StatusFunc {
	return func(ctx context.Context) error {
		if o.hub == nil {
			return nil
		}
		return o.hub.Publish(ctx, events.Event{
			Kind:   events.KindScene,
			TaskID: taskID,
			Scene:  sceneNumber,
			Status: string(task.StatusProcessing),
		})
	}
}

func errorMessage(res imagegen.Result) string {
	if res.Err == nil {
		return fmt.Sprintf("image generation failed after %d attempts", res.Attempts)
	}
	return fmt.Sprintf("image generation failed after %d attempts: %v", res.Attempts, res.Err)
}

// BuildPrompt 拼接场景描述、画风、镜头、光线与出场角色外观
func BuildPrompt(scene *task.Scene, style string, characters []task.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s | Camera: %s, %s, %s | Lighting: %s",
		scene.Description, style,
		scene.Camera.Angle, scene.Camera.CompositionType, scene.Camera.ShotSize,
		scene.Lighting)

	for _, c := range characters {
		if !Mentions(scene.Description, c.Name) {
			continue
		}
		fmt.Fprintf(&b, " | %s's appearance: %s %s %s %s %s %s %s",
			c.Name, c.Ethnicity, c.Gender, c.Age, c.FacialFeatures, c.BodyType, c.HairStyle, c.Accessories)
	}

	return bracedPattern.ReplaceAllString(b.String(), "")
}

// Mentions 描述中（{{...}} 之外）是否提到角色
//
// 名称形式：名、全名，以及两者的 's 与 ' 所有格。
func Mentions(description, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	visible := strings.ToLower(bracedPattern.ReplaceAllString(description, ""))

	full := strings.ToLower(name)
	first := strings.Fields(full)[0]
	forms := []string{first, full, first + "'s", full + "'s", first + "'", full + "'"}
	for _, f := range forms {
		if strings.Contains(visible, f) {
			return true
		}
	}
	return false
}
