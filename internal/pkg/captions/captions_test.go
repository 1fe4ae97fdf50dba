package captions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestProportionalAligner(t *testing.T) {
	Convey("按词长比例分配时长", t, func() {
		a := NewProportionalAligner(nil)
		words, err := a.Align(context.Background(), "", "ab abcd ab", 4.0)
		So(err, ShouldBeNil)
		So(words, ShouldHaveLength, 3)
		So(words[0].Start, ShouldEqual, 0)
		So(words[0].End, ShouldAlmostEqual, 1.0, 1e-9)
		So(words[1].End, ShouldAlmostEqual, 3.0, 1e-9)
		So(words[2].End, ShouldEqual, 4.0)

		Convey("空文本或零时长失败", func() {
			_, err := a.Align(context.Background(), "", "  ", 4.0)
			So(err, ShouldEqual, ErrNoWords)
			_, err = a.Align(context.Background(), "", "hello", 0)
			So(err, ShouldEqual, ErrNoWords)
		})
	})
}

func TestOffset(t *testing.T) {
	Convey("平移时间", t, func() {
		in := []Word{{Text: "a", Start: 0, End: 1}}
		out := Offset(in, 2.5)
		So(out[0].Start, ShouldEqual, 2.5)
		So(out[0].End, ShouldEqual, 3.5)
		So(in[0].Start, ShouldEqual, 0)
	})
}

func TestWhisperAligner(t *testing.T) {
	Convey("解析 verbose_json 词级时间", t, func() {
		var parseErr error
		var granularity string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parseErr = r.ParseMultipartForm(1 << 20)
			granularity = r.FormValue("timestamp_granularities[]")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"words": []map[string]any{
					{"word": " Hi", "start": 0.0, "end": 0.4},
					{"word": " ", "start": 0.4, "end": 0.4},
					{"word": "there", "start": 0.5, "end": 0.9},
				},
			})
		}))
		defer srv.Close()

		audio := filepath.Join(t.TempDir(), "a.mp3")
		So(os.WriteFile(audio, []byte("x"), 0o644), ShouldBeNil)

		words, err := NewWhisperAligner(srv.URL, "", "").Align(context.Background(), audio, "", 0)
		So(err, ShouldBeNil)
		So(parseErr, ShouldBeNil)
		So(granularity, ShouldEqual, "word")
		So(words, ShouldHaveLength, 2)
		So(words[0].Text, ShouldEqual, "Hi")
	})
}

type failingAligner struct{}

func (failingAligner) Align(context.Context, string, string, float64) ([]Word, error) {
	return nil, ErrNoWords
}

func TestChain(t *testing.T) {
	Convey("失败时回退到下一个对齐器", t, func() {
		c := Chain{failingAligner{}, nil, NewProportionalAligner(nil)}
		words, err := c.Align(context.Background(), "", "one two", 2)
		So(err, ShouldBeNil)
		So(words, ShouldHaveLength, 2)
	})
}

func TestASSGenerator(t *testing.T) {
	Convey("生成单行高亮字幕", t, func() {
		g := NewASSGenerator("", 0, 720, 1280, 2)
		words := []Word{
			{Text: "Once", Start: 0, End: 0.4},
			{Text: "upon", Start: 0.5, End: 0.9},
			{Text: "a", Start: 1.0, End: 1.1},
		}
		out := g.Generate(words, "Demo")

		So(out, ShouldContainSubstring, "PlayResX: 720")
		So(out, ShouldContainSubstring, "PlayResY: 1280")

		var dialogues []string
		for _, l := range strings.Split(out, "\n") {
			if strings.HasPrefix(l, "Dialogue:") {
				dialogues = append(dialogues, l)
			}
		}
		So(dialogues, ShouldHaveLength, 3)
		So(dialogues[0], ShouldContainSubstring, "0:00:00.00,0:00:00.50")
		So(dialogues[0], ShouldEndWith, `{\c&H0000FFFF&}Once{\c&H00FFFFFF&} upon`)
		So(dialogues[1], ShouldEndWith, `Once {\c&H0000FFFF&}upon{\c&H00FFFFFF&}`)
		So(dialogues[2], ShouldEndWith, `{\c&H0000FFFF&}a{\c&H00FFFFFF&}`)
	})

	Convey("时间格式", t, func() {
		So(formatTimeForASS(3725.456), ShouldEqual, "1:02:05.46")
		So(formatTimeForASS(-1), ShouldEqual, "0:00:00.00")
	})
}
