package jwt

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestJWT(t *testing.T) {
	Convey("JWT 签发与校验", t, func() {
		j := NewJWT("secret", time.Hour)

		Convey("签发的 token 可以校验并取回用户名", func() {
			token, err := j.GenerateToken("admin")
			So(err, ShouldBeNil)

			claims, err := j.ValidateToken(token)
			So(err, ShouldBeNil)
			So(claims.Username(), ShouldEqual, "admin")
		})

		Convey("不同密钥签发的 token 无效", func() {
			other := NewJWT("other", time.Hour)
			token, _ := other.GenerateToken("admin")

			_, err := j.ValidateToken(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("过期 token 返回 ErrExpiredToken", func() {
			expired := NewJWT("secret", -time.Minute)
			token, _ := expired.GenerateToken("admin")

			_, err := j.ValidateToken(token)
			So(err, ShouldEqual, ErrExpiredToken)
		})

		Convey("刷新返回同一主体的新 token", func() {
			token, _ := j.GenerateToken("admin")
			fresh, err := j.Refresh(token)
			So(err, ShouldBeNil)

			claims, err := j.ValidateToken(fresh)
			So(err, ShouldBeNil)
			So(claims.Username(), ShouldEqual, "admin")
		})

		Convey("垃圾字符串无法刷新", func() {
			_, err := j.Refresh("garbage")
			So(err, ShouldEqual, ErrInvalidToken)
		})
	})
}
