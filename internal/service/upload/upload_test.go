package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/pkg/storage/local"
)

func TestUpload(t *testing.T) {
	Convey("上传成片", t, func() {
		dir := t.TempDir()
		src := filepath.Join(dir, "story_video_subtitle.mp4")
		So(os.WriteFile(src, []byte("mp4"), 0o644), ShouldBeNil)

		store, err := local.NewLocalStorage(filepath.Join(dir, "bucket"), "http://localhost:8080/files")
		So(err, ShouldBeNil)
		object := ObjectName("t1", src)
		So(object, ShouldEqual, "videos/t1/story_video_subtitle.mp4")

		Convey("未配置公共地址时使用存储返回的URL", func() {
			url, err := NewService(store, "").Upload(context.Background(), src, object)
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://localhost:8080/files/videos/t1/story_video_subtitle.mp4")

			data, _ := os.ReadFile(filepath.Join(dir, "bucket", "videos", "t1", "story_video_subtitle.mp4"))
			So(string(data), ShouldEqual, "mp4")
		})

		Convey("配置公共地址时拼接公共地址", func() {
			url, err := NewService(store, "https://cdn.example.com/").Upload(context.Background(), src, object)
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "https://cdn.example.com/videos/t1/story_video_subtitle.mp4")
		})

		Convey("本地文件不存在时返回错误", func() {
			_, err := NewService(store, "").Upload(context.Background(), filepath.Join(dir, "missing.mp4"), object)
			So(err, ShouldNotBeNil)
		})
	})
}
