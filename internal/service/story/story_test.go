package story

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/config"
	"storyreel/internal/model/task"
)

type fakeLLM struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, _, user string) (string, error) {
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func newTestService(llm *fakeLLM, strict bool) *Service {
	s := NewService(llm, config.StoryConfig{StrictCoverage: strict})
	s.now = func() time.Time { return time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC) }
	return s
}

func TestMapTopic(t *testing.T) {
	Convey("主题映射", t, func() {
		So(MapTopic("scary"), ShouldEqual, TypeScary)
		So(MapTopic("  Fun Facts "), ShouldEqual, TypeFunFacts)
		So(MapTopic("history"), ShouldEqual, TypeInterestingHistory)
		So(MapTopic("tips"), ShouldEqual, TypeLifeProTips)
		So(MapTopic("space travel"), ShouldEqual, "space travel")
	})

	Convey("信息类内容跳过角色", t, func() {
		So(SkipsCharacters("Life Pro Tips"), ShouldBeTrue)
		So(SkipsCharacters("fun facts"), ShouldBeTrue)
		So(SkipsCharacters("Scary"), ShouldBeFalse)
	})
}

func TestGenerateStory(t *testing.T) {
	Convey("解析三段式回复并强制结尾标签", t, func() {
		llm := &fakeLLM{replies: []string{
			"Title: The Last Orbit\n\nDescription: A lonely pilot drifts home. #space #scifi\n\nMara watched Earth shrink.\n\nShe smiled.",
		}}
		st, err := newTestService(llm, false).GenerateStory(context.Background(), "science", "English", "short")
		So(err, ShouldBeNil)
		So(st.Type, ShouldEqual, TypeScienceFiction)
		So(st.Title, ShouldEqual, "The Last Orbit")
		So(st.Description, ShouldEqual, "A lonely pilot drifts home. #space #facelessvideos.app")
		So(st.Text, ShouldEqual, "Mara watched Earth shrink.\n\nShe smiled.")
		So(llm.prompts[0], ShouldContainSubstring, "between 700 and 800 characters")
	})

	Convey("缺少描述段时第二段作为正文", t, func() {
		title, desc, content, err := parseStoryReply("Title: Tip\n\nSave ten percent.", "#x")
		So(err, ShouldBeNil)
		So(title, ShouldEqual, "Tip")
		So(desc, ShouldEqual, "#x")
		So(content, ShouldEqual, "Save ten percent.")
	})

	Convey("只有一段时报错", t, func() {
		llm := &fakeLLM{replies: []string{"just one paragraph"}}
		_, err := newTestService(llm, false).GenerateStory(context.Background(), "x", "English", "long")
		So(errors.Is(err, ErrMalformedReply), ShouldBeTrue)
		So(llm.prompts[0], ShouldContainSubstring, "between 1500 and 2000 characters")
	})
}

func TestGenerateCharacters(t *testing.T) {
	Convey("从夹杂文本的回复中提取角色数组", t, func() {
		llm := &fakeLLM{replies: []string{
			"Here you go:\n[{\"name\":\"Giovanni Rossi\",\"gender\":\"male\",\"age\":54,\"hair_style\":\"grey curls\"},{\"name\":\"\"}]\nThanks",
		}}
		cs, err := newTestService(llm, false).GenerateCharacters(context.Background(), "story")
		So(err, ShouldBeNil)
		So(cs, ShouldHaveLength, 1)
		So(cs[0].Name, ShouldEqual, "Giovanni Rossi")
		So(cs[0].Age, ShouldEqual, "54")
	})

	Convey("无法解析时返回空列表", t, func() {
		llm := &fakeLLM{replies: []string{"no characters here"}}
		cs, err := newTestService(llm, false).GenerateCharacters(context.Background(), "story")
		So(err, ShouldBeNil)
		So(cs, ShouldBeEmpty)
	})
}

const storyText = "Mara watched Earth shrink. She smiled and set course for home."

const storyboardReply = `Sure! {
  "project_info": {"title": "x", "user": "AI Generated", "timestamp": "t"},
  "storyboards": [
    {"scene_number": "1", "description": "A window on stars", "subtitles": "Would you leave Earth forever?", "camera": {"angle": "eye level", "composition_type": "single shot", "shot_size": "close-up"}, "lighting": "low-key lighting", "transition_type": "zoom-in"},
    {"scene_number": 2, "description": "Mara at the console", "subtitles": "Mara watched Earth shrink.", "camera": {"angle": "high angle", "composition_type": "single shot", "shot_size": "medium shot"}, "lighting": "rim lighting", "transition_type": "dissolve"},
    {"scene_number": 3, "description": "Empty frame", "subtitles": "  ", "transition_type": "zoom-out"},
    {"scene_number": 4, "description": "Mara smiling", "subtitles": "She smiled and set course for home.", "camera": {"shot_size": "wide shot"}, "lighting": "soft lighting", "transition_type": "zoom-out"}
  ]
}`

func TestGenerateStoryboard(t *testing.T) {
	Convey("规整分镜", t, func() {
		llm := &fakeLLM{replies: []string{storyboardReply}}
		sb, err := newTestService(llm, false).GenerateStoryboard(context.Background(), "Science Fiction", "The Last Orbit", storyText, []string{"Mara Lee"})
		So(err, ShouldBeNil)

		So(sb.ProjectInfo.Title, ShouldEqual, "The Last Orbit")
		So(sb.ProjectInfo.User, ShouldEqual, "AI Generated")
		So(sb.ProjectInfo.Timestamp, ShouldEqual, "2024-05-01 03:04:05 PM")

		Convey("丢弃空字幕并重新编号", func() {
			So(sb.Scenes, ShouldHaveLength, 3)
			for i, s := range sb.Scenes {
				So(s.SceneNumber, ShouldEqual, i+1)
				So(s.Subtitles, ShouldNotBeBlank)
			}
		})

		Convey("特写镜头不使用 zoom-in，未知转场视为 none", func() {
			So(sb.Scenes[0].TransitionType, ShouldEqual, task.TransitionZoomOut)
			So(sb.Scenes[1].TransitionType, ShouldEqual, task.TransitionNone)
			So(sb.Scenes[2].TransitionType, ShouldEqual, task.TransitionZoomOut)
		})

		Convey("提示词包含角色名与场景上限", func() {
			So(llm.prompts[0], ShouldContainSubstring, "Mara Lee")
			So(llm.prompts[0], ShouldContainSubstring, "at most 12 scenes")
		})
	})

	Convey("超过上限时截断", t, func() {
		var b strings.Builder
		b.WriteString(`{"storyboards":[`)
		for i := 0; i < 15; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"subtitles":"line ` + string(rune('a'+i)) + `"}`)
		}
		b.WriteString("]}")

		sb, err := newTestService(&fakeLLM{replies: []string{b.String()}}, false).
			GenerateStoryboard(context.Background(), "Scary", "t", "", nil)
		So(err, ShouldBeNil)
		So(sb.Scenes, ShouldHaveLength, 12)
	})

	Convey("无 JSON 时返回空分镜", t, func() {
		sb, err := newTestService(&fakeLLM{replies: []string{"sorry"}}, false).
			GenerateStoryboard(context.Background(), "Scary", "t", storyText, nil)
		So(err, ShouldBeNil)
		So(sb.Scenes, ShouldBeEmpty)
	})

	Convey("严格模式下覆盖不完整为空分镜", t, func() {
		reply := `{"storyboards":[{"subtitles":"Mara watched Earth shrink."}]}`
		sb, err := newTestService(&fakeLLM{replies: []string{reply}}, true).
			GenerateStoryboard(context.Background(), "Scary", "t", storyText, nil)
		So(errors.Is(err, ErrCoverage), ShouldBeTrue)
		So(sb.Scenes, ShouldBeEmpty)
	})

	Convey("信息类分镜使用受限词汇且不列出角色", t, func() {
		llm := &fakeLLM{replies: []string{`{"storyboards":[]}`}}
		_, _ = newTestService(llm, false).GenerateStoryboard(context.Background(), "fun facts", "t", "x", []string{"Nobody"})
		So(llm.prompts[0], ShouldContainSubstring, "medium shot, full body shot, wide shot")
		So(llm.prompts[0], ShouldNotContainSubstring, "Nobody")
	})
}

func TestCheckCoverage(t *testing.T) {
	Convey("覆盖率计算", t, func() {
		sb := &task.Storyboard{Scenes: []*task.Scene{
			{Subtitles: "Would you leave?"},
			{Subtitles: "Mara watched “Earth” shrink."},
			{Subtitles: "She smiled and set course for home."},
		}}

		Convey("开场提问不影响完整覆盖", func() {
			cov := CheckCoverage(`Mara watched "Earth" shrink. She smiled and set course for home.`, sb)
			So(cov.Exact, ShouldBeTrue)
			So(cov.Ratio, ShouldEqual, 1.0)
		})

		Convey("缺失部分正文", func() {
			cov := CheckCoverage("Mara watched Earth shrink. Then she cried. She smiled and set course for home.", sb)
			So(cov.Exact, ShouldBeFalse)
			So(cov.Missing, ShouldEqual, 3)
			So(cov.Ratio, ShouldBeBetween, 0.7, 0.9)
		})

		Convey("字幕重复正文时不算完整覆盖", func() {
			dup := &task.Storyboard{Scenes: []*task.Scene{
				{Subtitles: "Mara watched Earth shrink."},
				{Subtitles: "Mara watched Earth shrink."},
				{Subtitles: "She smiled and set course for home."},
			}}
			cov := CheckCoverage("Mara watched Earth shrink. She smiled and set course for home.", dup)
			So(cov.Missing, ShouldEqual, 0)
			So(cov.Duplicated, ShouldEqual, 4)
			So(cov.Exact, ShouldBeFalse)
		})
	})
}
