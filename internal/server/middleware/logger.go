package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// quietPaths 探活请求只在 debug 级别记录
var quietPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// Logger 访问日志，按路由模板记录，附带任务与图片ID
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		event := requestEvent(c.Request.URL.Path, status)
		if event == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		event = event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString("request_id"))
		if v := c.Param("task_id"); v != "" {
			event = event.Str("task_id", v)
		}
		if v := c.Param("image_id"); v != "" {
			event = event.Str("image_id", v)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("HTTP request")
	}
}

func requestEvent(path string, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return log.Error()
	case status >= 400:
		return log.Warn()
	case quietPaths[path]:
		return log.Debug()
	}
	return log.Info()
}
