package video

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamMessage websocket 推送内容，type 为 snapshot 或 event
type StreamMessage struct {
	Type  string                `json:"type"`
	Task  *GetVideoResponseData `json:"task,omitempty"`
	Event any                   `json:"event,omitempty"`
}

// StreamVideo 推送任务进度
// @Summary      任务进度推送
// @Description  先推送一次任务快照，之后推送每个事件，直到任务结束
// @Tags         视频任务
// @Param        task_id  path  string  true  "任务ID"
// @Success      101
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /api/v1/videos/{task_id}/ws [get]
func (h *Handler) StreamVideo(c *gin.Context) {
	taskID := c.Param("task_id")
	ctx := c.Request.Context()

	// 先订阅再取快照，避免丢失两者之间的事件
	events, cancel := h.hub.Subscribe(ctx, taskID)
	defer cancel()

	detail, err := h.taskService.GetTask(ctx, taskID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("task_id", taskID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	snapshot := toDetail(detail)
	if err := write(conn, StreamMessage{Type: "snapshot", Task: &snapshot}); err != nil {
		return
	}
	if detail.Task.Status.IsTerminal() {
		closeNormal(conn)
		return
	}

	// 读循环只用于感知客户端断开
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := write(conn, StreamMessage{Type: "event", Event: e}); err != nil {
				return
			}
			if e.Terminal() {
				closeNormal(conn)
				return
			}
		}
	}
}

func write(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Msg("websocket write failed")
		return err
	}
	return nil
}

func closeNormal(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"),
		time.Now().Add(writeWait))
}
