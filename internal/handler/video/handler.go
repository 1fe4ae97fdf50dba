package video

import (
	"storyreel/internal/pkg/events"
	"storyreel/internal/service"
)

// Handler 视频任务处理器
type Handler struct {
	taskService service.TaskService
	hub         events.Hub
}

// NewHandler 创建视频任务处理器
func NewHandler(taskService service.TaskService, hub events.Hub) *Handler {
	return &Handler{
		taskService: taskService,
		hub:         hub,
	}
}
