package app

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/config"
)

func TestNew(t *testing.T) {
	Convey("组装失败时返回错误并释放资源", t, func() {
		cfg := &config.Config{
			Database: config.DatabaseConfig{Driver: "memory"},
			Storage:  config.StorageConfig{Type: "local"},
		}

		var (
			a   *App
			err error
		)
		So(func() { a, err = New(context.Background(), cfg) }, ShouldNotPanic)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "init storage")
		So(a, ShouldBeNil)
	})

	Convey("nil App 关闭是空操作", t, func() {
		var a *App
		So(a.Close(context.Background()), ShouldBeNil)
	})
}
