package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/pkg/ctxutil"
	"storyreel/internal/pkg/jwt"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := jwt.NewJWT("secret", time.Hour)

	r := gin.New()
	r.Use(Recovery(), RequestID(), Logger(), CORS())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/me", Auth(j), func(c *gin.Context) {
		name, _ := ctxutil.GetPrincipal(c.Request.Context())
		c.String(http.StatusOK, name)
	})

	serve := func(method, path, token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		r.ServeHTTP(w, req)
		return w
	}

	Convey("认证中间件", t, func() {
		So(serve(http.MethodGet, "/me", "").Code, ShouldEqual, http.StatusUnauthorized)
		So(serve(http.MethodGet, "/me", "garbage").Code, ShouldEqual, http.StatusUnauthorized)

		token, err := j.GenerateToken("admin")
		So(err, ShouldBeNil)
		w := serve(http.MethodGet, "/me", token)
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldEqual, "admin")
	})

	Convey("panic 转为 500 并带请求ID", t, func() {
		w := serve(http.MethodGet, "/panic", "")
		So(w.Code, ShouldEqual, http.StatusInternalServerError)
		So(w.Body.String(), ShouldContainSubstring, "50000")
		So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
	})

	Convey("预检请求直接返回", t, func() {
		w := serve(http.MethodOptions, "/me", "")
		So(w.Code, ShouldEqual, http.StatusNoContent)
		So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
	})
}
