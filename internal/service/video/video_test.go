package video

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/model/task"
	"storyreel/internal/pkg/captions"
	"storyreel/internal/pkg/ffmpeg"
	"storyreel/internal/service/audio"
)

type fakeNarrator struct {
	failOn string
}

func (n fakeNarrator) Narrate(_ context.Context, text, _, outPath string) (*audio.Narration, error) {
	if text == n.failOn {
		return nil, errors.New("tts unavailable")
	}
	if err := os.WriteFile(outPath, []byte("mp3"), 0o644); err != nil {
		return nil, err
	}
	return &audio.Narration{
		Path:     outPath,
		Duration: 2,
		Words:    []captions.Word{{Text: text, Start: 0, End: 1.5}},
	}, nil
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, _, outPath string) error {
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

type fakeRenderer struct {
	clips       []ffmpeg.ClipOptions
	concat      []string
	subtitleErr error
	ass         string
}

func (r *fakeRenderer) CreateImageClip(_ context.Context, opts ffmpeg.ClipOptions) error {
	r.clips = append(r.clips, opts)
	return os.WriteFile(opts.OutputPath, []byte("mp4"), 0o644)
}

func (r *fakeRenderer) ConcatVideos(_ context.Context, paths []string, out string, _ int) error {
	r.concat = paths
	return os.WriteFile(out, []byte("mp4"), 0o644)
}

func (r *fakeRenderer) AddSubtitles(_ context.Context, _, assPath, out string) error {
	if r.subtitleErr != nil {
		return r.subtitleErr
	}
	data, err := os.ReadFile(assPath)
	if err != nil {
		return err
	}
	r.ass = string(data)
	return os.WriteFile(out, []byte("mp4"), 0o644)
}

func storyboard(n int) *task.Storyboard {
	sb := &task.Storyboard{ProjectInfo: task.ProjectInfo{Title: "Space Travel"}}
	for i := 1; i <= n; i++ {
		url := "https://img.example.com/" + string(rune('0'+i)) + ".png"
		sb.Scenes = append(sb.Scenes, &task.Scene{
			SceneNumber:    i,
			Subtitles:      "line" + string(rune('0'+i)),
			TransitionType: task.TransitionZoomIn,
			Image:          &url,
		})
	}
	return sb
}

func TestAssemble(t *testing.T) {
	Convey("视频合成", t, func() {
		dir := t.TempDir()
		ctx := context.Background()
		ass := captions.NewASSGenerator("", 0, 720, 1280, 4)

		Convey("第二个场景旁白失败时跳过该场景", func() {
			r := &fakeRenderer{}
			a := NewAssembler(fakeNarrator{failOn: "line2"}, fakeFetcher{}, r, ass, Options{})
			out, ok := a.Assemble(ctx, storyboard(4), dir, "nova")

			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, filepath.Join(dir, "story_video_subtitle.mp4"))
			So(r.concat, ShouldResemble, []string{
				filepath.Join(dir, "clips", "scene_1.mp4"),
				filepath.Join(dir, "clips", "scene_3.mp4"),
				filepath.Join(dir, "clips", "scene_4.mp4"),
			})
			So(r.clips[0].FPS, ShouldEqual, 24)
			So(r.clips[0].Effect, ShouldEqual, ffmpeg.EffectZoomIn)
			So(r.clips[0].Duration, ShouldEqual, 2)

			// 词级时间按前序片段时长偏移
			So(r.ass, ShouldContainSubstring, "0:00:02.00")
			So(r.ass, ShouldContainSubstring, "line4")
			So(strings.Contains(r.ass, "line2"), ShouldBeFalse)

			_, err := os.Stat(filepath.Join(dir, "captions.ass"))
			So(err, ShouldBeNil)
		})

		Convey("字幕烧录失败时返回无字幕视频", func() {
			r := &fakeRenderer{subtitleErr: errors.New("ffmpeg exited 1")}
			a := NewAssembler(fakeNarrator{}, fakeFetcher{}, r, ass, Options{})
			out, ok := a.Assemble(ctx, storyboard(2), dir, "nova")
			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, filepath.Join(dir, "story_video.mp4"))
		})

		Convey("没有可用片段时失败", func() {
			sb := storyboard(2)
			sb.Scenes[0].Image = nil
			sb.Scenes[1].Image = nil
			out, ok := NewAssembler(fakeNarrator{}, fakeFetcher{}, &fakeRenderer{}, ass, Options{}).Assemble(ctx, sb, dir, "nova")
			So(ok, ShouldBeFalse)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestHTTPFetcher(t *testing.T) {
	Convey("本地图片裁切为竖屏", t, func() {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.png")
		So(imaging.Save(imaging.New(400, 300, color.White), src), ShouldBeNil)

		out := filepath.Join(dir, "out", "scene_1.png")
		So(NewHTTPFetcher(72, 128).Fetch(context.Background(), src, out), ShouldBeNil)

		img, err := imaging.Open(out)
		So(err, ShouldBeNil)
		So(img.Bounds().Dx(), ShouldEqual, 72)
		So(img.Bounds().Dy(), ShouldEqual, 128)
	})
}
