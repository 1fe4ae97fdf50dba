package password

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPassword(t *testing.T) {
	Convey("bcrypt 密码哈希", t, func() {
		hash, err := Hash("s3cret")
		So(err, ShouldBeNil)

		Convey("正确密码校验通过", func() {
			So(Verify("s3cret", hash), ShouldBeTrue)
		})
		Convey("错误密码校验失败", func() {
			So(Verify("wrong", hash), ShouldBeFalse)
		})
		Convey("空哈希总是失败", func() {
			So(Verify("s3cret", ""), ShouldBeFalse)
		})
		Convey("空密码不允许哈希", func() {
			_, err := Hash("")
			So(err, ShouldEqual, ErrEmpty)
		})
	})
}
