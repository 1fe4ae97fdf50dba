package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStorage(t *testing.T) {
	Convey("本地存储", t, func() {
		dir := t.TempDir()
		s, err := NewLocalStorage(dir, "http://localhost:8080/files/")
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("上传后文件落盘并返回可访问URL", func() {
			url, err := s.Upload(ctx, "videos/t1/story.mp4", strings.NewReader("data"), 4, "video/mp4")
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://localhost:8080/files/videos/t1/story.mp4")

			raw, err := os.ReadFile(filepath.Join(dir, "videos", "t1", "story.mp4"))
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, "data")
		})

		Convey("逃逸根目录的 key 被拒绝", func() {
			_, err := s.Upload(ctx, "../evil.mp4", strings.NewReader("x"), 1, "video/mp4")
			So(err, ShouldNotBeNil)
		})

		Convey("签名URL与直接URL一致", func() {
			url, err := s.PresignGet(ctx, "a/b.png", 0)
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://localhost:8080/files/a/b.png")
		})
	})
}
