package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("健康与就绪检查", t, func() {
		serve := func(h *HealthHandler, path string) *httptest.ResponseRecorder {
			r := gin.New()
			r.GET("/health", h.Health)
			r.GET("/ready", h.Ready)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			return w
		}

		ok := pingFunc(func(context.Context) error { return nil })
		down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

		So(serve(NewHealthHandler(nil), "/health").Code, ShouldEqual, http.StatusOK)
		So(serve(NewHealthHandler(map[string]Pinger{"redis": ok}), "/ready").Code, ShouldEqual, http.StatusOK)

		w := serve(NewHealthHandler(map[string]Pinger{"redis": ok, "mongo": down}), "/ready")
		So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		So(w.Body.String(), ShouldContainSubstring, "connection refused")
	})
}
