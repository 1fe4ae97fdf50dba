package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/config"
)

func TestInit(t *testing.T) {
	Convey("初始化日志", t, func() {
		So(Init(&config.LogConfig{Level: "debug", Format: "json", Output: "stdout"}), ShouldBeNil)

		Convey("写入文件失败时返回错误", func() {
			err := Init(&config.LogConfig{Level: "info", Output: "file", FilePath: "/nonexistent/dir/app.log"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFromContext(t *testing.T) {
	Convey("context 中的 logger", t, func() {
		So(FromContext(context.Background()), ShouldNotBeNil)

		ctx := WithTask(context.Background(), "t1")
		l := FromContext(ctx)
		So(l.GetLevel(), ShouldNotEqual, zerolog.Disabled)
	})
}
