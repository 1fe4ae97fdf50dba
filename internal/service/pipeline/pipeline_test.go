package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/config"
	"storyreel/internal/model/task"
	"storyreel/internal/pkg/events"
	"storyreel/internal/pkg/storage/local"
	taskrepo "storyreel/internal/repository/task"
	"storyreel/internal/service/imagegen"
	"storyreel/internal/service/images"
	"storyreel/internal/service/story"
	"storyreel/internal/service/upload"
)

const (
	storyReply = "Title: Beyond the Moon\n\nDescription: One pilot, one choice. #space\n\n" +
		"Mara watched Earth shrink. She smiled and set course for home."
	charactersReply = `[{"name":"Mara Lee","gender":"female","age":"34","hair_style":"short black hair"}]`
	storyboardReply = `{"storyboards":[
		{"description":"A capsule drifting past the Moon","subtitles":"Would you leave Earth forever?","camera":{"shot_size":"wide shot"},"transition_type":"zoom-in"},
		{"description":"Mara at the window","subtitles":"Mara watched Earth shrink.","camera":{"shot_size":"medium shot"},"transition_type":"zoom-out"},
		{"description":"Mara smiling at the controls","subtitles":"She smiled and set course for home.","camera":{"shot_size":"wide shot"},"transition_type":"none"}
	]}`
)

type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (l *scriptedLLM) Generate(context.Context, string, string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if len(l.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := l.replies[0]
	l.replies = l.replies[1:]
	return r, nil
}

type fakeImages struct {
	fail   bool
	failOn string // 提示词包含该片段时失败
}

func (fakeImages) Name() string { return "fake" }

func (p fakeImages) GenerateImage(_ context.Context, prompt string) (string, error) {
	if p.fail || (p.failOn != "" && strings.Contains(prompt, p.failOn)) {
		return "", errors.New("quota exceeded")
	}
	return "https://img.example.com/" + strings.Fields(prompt)[0] + ".png", nil
}

type fakeAssembler struct {
	panics bool
	fail   bool
	dir    string
	scenes int
}

func (a *fakeAssembler) Assemble(_ context.Context, sb *task.Storyboard, storyDir, _ string) (string, bool) {
	if a.panics {
		panic("ffmpeg exploded")
	}
	if a.fail {
		return "", false
	}
	a.dir = storyDir
	a.scenes = len(sb.Scenes)
	if err := os.MkdirAll(storyDir, 0o755); err != nil {
		return "", false
	}
	out := filepath.Join(storyDir, "story_video_subtitle.mp4")
	if err := os.WriteFile(out, []byte("mp4"), 0o644); err != nil {
		return "", false
	}
	return out, true
}

// flakyTasks 第一次终态写入失败
type flakyTasks struct {
	*taskrepo.MemoryTaskRepo
	failed bool
}

func (f *flakyTasks) Update(ctx context.Context, id string, u task.Update) (*task.Task, error) {
	if u.Status != nil && u.Status.IsTerminal() && !f.failed {
		f.failed = true
		return nil, errors.New("connection reset")
	}
	return f.MemoryTaskRepo.Update(ctx, id, u)
}

type fixture struct {
	tasks     taskrepo.TaskRepository
	imgs      *taskrepo.MemoryImageRepo
	hub       *events.MemoryHub
	llm       *scriptedLLM
	assembler *fakeAssembler
	orch      *Orchestrator
	slept     []time.Duration
}

func newFixture(t *testing.T, tasks taskrepo.TaskRepository, llm *scriptedLLM, provider fakeImages, assembler *fakeAssembler) *fixture {
	dir := t.TempDir()
	store, err := local.NewLocalStorage(filepath.Join(dir, "bucket"), "http://localhost:8080/files")
	So(err, ShouldBeNil)

	f := &fixture{
		tasks:     tasks,
		imgs:      taskrepo.NewMemoryImageRepo(),
		hub:       events.NewMemoryHub(),
		llm:       llm,
		assembler: assembler,
	}
	gen := imagegen.NewGenerator(provider, 3, time.Second).WithSleep(func(time.Duration) {})
	f.orch = NewOrchestrator(Deps{
		Tasks:    tasks,
		Images:   f.imgs,
		Story:    story.NewService(llm, config.StoryConfig{}),
		Scenes:   images.NewOrchestrator(gen, f.hub),
		Video:    assembler,
		Uploader: upload.NewService(store, ""),
		Hub:      f.hub,
		StoryDir: filepath.Join(dir, "stories"),
	})
	f.orch.now = func() time.Time { return time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC) }
	f.orch.sleep = func(d time.Duration) { f.slept = append(f.slept, d) }

	_, err = tasks.Create(context.Background(), &task.Task{
		ID: "t1", Status: task.StatusQueued, StoryTopic: "space travel", ArtStyle: "watercolor",
		Duration: task.DurationShort, Language: "English", Voice: "nova",
	})
	So(err, ShouldBeNil)
	return f
}

func request(topic string) Request {
	return Request{TaskID: "t1", StoryTopic: topic, ArtStyle: "watercolor", Duration: "short", Language: "English", Voice: "nova"}
}

// taskEvents 取出已缓冲的任务事件
func taskEvents(ch <-chan events.Event) []events.Event {
	var out []events.Event
	for {
		select {
		case e := <-ch:
			if e.Kind == events.KindTask {
				out = append(out, e)
			}
		default:
			return out
		}
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	Convey("端到端：space travel / short", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{}, &fakeAssembler{})
		ch, cancel := f.hub.Subscribe(ctx, "t1")
		defer cancel()

		f.orch.Run(ctx, request("space travel"))

		got, err := f.tasks.Get(ctx, "t1")
		So(err, ShouldBeNil)
		So(got.Status, ShouldEqual, task.StatusCompleted)
		So(got.Progress, ShouldEqual, 1.0)
		So(got.URL, ShouldEqual, "http://localhost:8080/files/videos/t1/story_video_subtitle.mp4")
		So(got.ErrorMessage, ShouldBeEmpty)
		So(got.StoryTitle, ShouldEqual, "Beyond the Moon")
		So(got.StoryDescription, ShouldEqual, "One pilot, one choice. #facelessvideos.app")
		So(got.StoryText, ShouldStartWith, "Mara watched Earth shrink.")

		imgs, err := f.imgs.ListByTask(ctx, "t1")
		So(err, ShouldBeNil)
		So(imgs, ShouldHaveLength, f.assembler.scenes)
		So(imgs, ShouldHaveLength, 3)
		for i, img := range imgs {
			So(img.SceneNumber, ShouldEqual, i+1)
			So(img.URLs, ShouldHaveLength, 1)
			So(img.Status, ShouldEqual, task.StatusCompleted)
		}
		So(imgs[1].EnhancedPrompt, ShouldContainSubstring, "Mara Lee's appearance")

		So(filepath.Base(f.assembler.dir), ShouldEqual, "20240501_150405_space travel_Beyond the Moon")

		Convey("进度单调不减且以 1.0 结束", func() {
			evs := taskEvents(ch)
			So(len(evs), ShouldBeGreaterThan, 5)
			So(evs[0].Status, ShouldEqual, "processing")
			So(evs[0].Progress, ShouldEqual, 0)
			var progress []float64
			for i := 1; i < len(evs); i++ {
				So(evs[i].Progress, ShouldBeGreaterThanOrEqualTo, evs[i-1].Progress)
				progress = append(progress, evs[i].Progress)
			}
			So(progress, ShouldResemble, []float64{0.2, 0.3, 0.5, 0.7, 0.8, 1.0})
			So(evs[len(evs)-1].Terminal(), ShouldBeTrue)
		})
	})

	Convey("所有场景图片失败时任务失败", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{fail: true}, &fakeAssembler{})
		f.orch.Run(ctx, request("space travel"))

		got, _ := f.tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusFailed)
		So(got.ErrorMessage, ShouldEqual, ErrNoImages.Error())
		So(got.URL, ShouldBeEmpty)
		So(got.Progress, ShouldBeLessThan, 1.0)

		imgs, _ := f.imgs.ListByTask(ctx, "t1")
		So(imgs, ShouldBeEmpty)
	})

	Convey("故事为空时立即失败", t, func() {
		llm := &scriptedLLM{}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{}, &fakeAssembler{})
		f.orch.Run(ctx, request("space travel"))

		got, _ := f.tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusFailed)
		So(got.ErrorMessage, ShouldStartWith, ErrEmptyStory.Error())
		So(got.Progress, ShouldEqual, 0)
	})

	Convey("合成无输出时失败", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{}, &fakeAssembler{fail: true})
		f.orch.Run(ctx, request("space travel"))

		got, _ := f.tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusFailed)
		So(got.ErrorMessage, ShouldEqual, ErrNoVideo.Error())
		So(got.Progress, ShouldEqual, 0.8)
		So(got.StoryTitle, ShouldEqual, "Beyond the Moon")
		So(got.StoryText, ShouldNotBeEmpty)

		imgs, _ := f.imgs.ListByTask(ctx, "t1")
		So(imgs, ShouldHaveLength, 3)
	})

	Convey("部分场景图片失败时继续合成", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{failOn: "Mara at the window"}, &fakeAssembler{})
		f.orch.Run(ctx, request("space travel"))

		got, _ := f.tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusCompleted)
		So(got.Progress, ShouldEqual, 1.0)
		So(f.assembler.scenes, ShouldEqual, 3)

		imgs, _ := f.imgs.ListByTask(ctx, "t1")
		So(imgs, ShouldHaveLength, 3)
		So(imgs[0].Status, ShouldEqual, task.StatusCompleted)
		So(imgs[1].Status, ShouldEqual, task.StatusFailed)
		So(imgs[1].URLs, ShouldBeEmpty)
		So(imgs[1].ErrorMessage, ShouldContainSubstring, "quota exceeded")
		So(imgs[2].Status, ShouldEqual, task.StatusCompleted)
		So(imgs[2].URLs, ShouldHaveLength, 1)
	})

	Convey("执行中的任务不会被重复进入", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{}, &fakeAssembler{})
		_, err := f.tasks.Update(ctx, "t1", task.Update{Status: task.Ptr(task.StatusProcessing), Progress: task.Ptr(0.5)})
		So(err, ShouldBeNil)

		f.orch.Run(ctx, request("space travel"))

		got, _ := f.tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusProcessing)
		So(got.Progress, ShouldEqual, 0.5)
		So(llm.calls, ShouldEqual, 0)
	})

	Convey("panic 被转换为失败状态", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{}, &fakeAssembler{panics: true})
		So(func() { f.orch.Run(ctx, request("space travel")) }, ShouldNotPanic)

		got, _ := f.tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusFailed)
		So(got.ErrorMessage, ShouldContainSubstring, "ffmpeg exploded")
	})

	Convey("信息类主题跳过角色提取", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{}, &fakeAssembler{})
		f.orch.Run(ctx, request("fun facts"))

		got, _ := f.tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusCompleted)
		So(llm.calls, ShouldEqual, 2)
	})

	Convey("终态写入失败时 500ms 后重试一次", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		tasks := &flakyTasks{MemoryTaskRepo: taskrepo.NewMemoryTaskRepo()}
		f := newFixture(t, tasks, llm, fakeImages{}, &fakeAssembler{})
		f.orch.Run(ctx, request("space travel"))

		So(f.slept, ShouldResemble, []time.Duration{500 * time.Millisecond})
		got, _ := tasks.Get(ctx, "t1")
		So(got.Status, ShouldEqual, task.StatusCompleted)
	})

	Convey("已结束的任务不会再次执行", t, func() {
		llm := &scriptedLLM{replies: []string{storyReply, charactersReply, storyboardReply}}
		f := newFixture(t, taskrepo.NewMemoryTaskRepo(), llm, fakeImages{}, &fakeAssembler{})
		f.orch.Run(ctx, request("space travel"))
		f.orch.Run(ctx, request("space travel"))
		So(llm.calls, ShouldEqual, 3)
	})
}

func TestResourceDirName(t *testing.T) {
	Convey("产物目录名", t, func() {
		now := time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC)
		So(ResourceDirName(now, "Scary", "The Door: Part 2?"), ShouldEqual, "20240501_150405_Scary_The Door Part 2")
		So(SafeTitle(strings.Repeat("a", 60)), ShouldHaveLength, 50)
		So(SafeTitle("  __hi__ !! "), ShouldEqual, "__hi__")
	})
}
