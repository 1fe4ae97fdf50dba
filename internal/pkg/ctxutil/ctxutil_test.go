package ctxutil

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestContextValues(t *testing.T) {
	Convey("context 取值", t, func() {
		Convey("未注入时取不到用户", func() {
			_, ok := GetPrincipal(context.Background())
			So(ok, ShouldBeFalse)
		})

		Convey("注入后可以取回用户与请求ID", func() {
			ctx := WithPrincipal(context.Background(), "admin")
			ctx = WithRequestID(ctx, "rid-1")

			name, ok := GetPrincipal(ctx)
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "admin")
			So(GetRequestID(ctx), ShouldEqual, "rid-1")
		})

		Convey("空用户名视为不存在", func() {
			_, ok := GetPrincipal(WithPrincipal(context.Background(), ""))
			So(ok, ShouldBeFalse)
		})
	})
}
