package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/model/task"
	"storyreel/internal/pkg/events"
	taskrepo "storyreel/internal/repository/task"
	"storyreel/internal/service"
	"storyreel/internal/service/imagegen"
	"storyreel/internal/service/pipeline"
)

type nopDispatcher struct{ count int }

func (d *nopDispatcher) Dispatch(context.Context, pipeline.Request) error {
	d.count++
	return nil
}

type okGenerator struct{}

func (okGenerator) Generate(context.Context, string, imagegen.StatusFunc) imagegen.Result {
	return imagegen.Result{URL: "https://img.example.com/1.png", Attempts: 1}
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func setup() (*gin.Engine, *taskrepo.MemoryTaskRepo, *taskrepo.MemoryImageRepo, *events.MemoryHub, *nopDispatcher) {
	gin.SetMode(gin.TestMode)
	tasks := taskrepo.NewMemoryTaskRepo()
	images := taskrepo.NewMemoryImageRepo()
	hub := events.NewMemoryHub()
	d := &nopDispatcher{}
	h := NewHandler(service.NewTaskService(tasks, images, d, okGenerator{}, hub, nil), hub)

	r := gin.New()
	r.POST("/api/v1/videos", h.CreateVideo)
	r.GET("/api/v1/videos", h.ListVideos)
	r.GET("/api/v1/videos/:task_id", h.GetVideo)
	r.GET("/api/v1/videos/:task_id/ws", h.StreamVideo)
	r.GET("/api/v1/images/:image_id", h.GetImage)
	r.POST("/api/v1/images/:image_id/regenerate", h.RegenerateImage)
	r.DELETE("/api/v1/images/:image_id", h.DeleteImage)
	return r, tasks, images, hub, d
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestVideoHandlers(t *testing.T) {
	Convey("视频任务接口", t, func() {
		r, tasks, images, _, d := setup()
		ctx := context.Background()

		Convey("创建任务返回 202 与 queued", func() {
			w := do(r, http.MethodPost, "/api/v1/videos",
				`{"story_topic":"space travel","art_style":"watercolor","duration":"short","language":"English","voice":"nova"}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)

			var env envelope
			So(json.Unmarshal(w.Body.Bytes(), &env), ShouldBeNil)
			var data CreateVideoResponseData
			So(json.Unmarshal(env.Data, &data), ShouldBeNil)
			So(data.Status, ShouldEqual, "queued")
			So(data.TaskID, ShouldNotBeEmpty)
			So(d.count, ShouldEqual, 1)

			Convey("详情与列表可以查到", func() {
				w := do(r, http.MethodGet, "/api/v1/videos/"+data.TaskID, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"progress":0`)
				So(w.Body.String(), ShouldContainSubstring, `"images":[]`)

				w = do(r, http.MethodGet, "/api/v1/videos?status=queued", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"total":1`)
			})
		})

		Convey("非法参数返回 400", func() {
			w := do(r, http.MethodPost, "/api/v1/videos",
				`{"story_topic":"x","art_style":"y","duration":"medium","voice":"nova"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "40002")

			w = do(r, http.MethodPost, "/api/v1/videos", `{"art_style":"y"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(d.count, ShouldEqual, 0)

			w = do(r, http.MethodGet, "/api/v1/videos?status=unknown", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("不存在的任务返回 404", func() {
			So(do(r, http.MethodGet, "/api/v1/videos/nope", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("场景图片接口", func() {
			_, _ = tasks.Create(ctx, &task.Task{ID: "t1", Status: task.StatusQueued})
			_, _ = images.Create(ctx, &task.SceneImage{ID: "i1", TaskID: "t1", SceneNumber: 1, Subtitles: "hi", EnhancedPrompt: "p", Status: task.StatusCompleted})

			w := do(r, http.MethodGet, "/api/v1/images/i1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"subtitles":"hi"`)

			// 任务仍在执行时拒绝重新生成
			_, _ = tasks.Update(ctx, "t1", task.Update{Status: task.Ptr(task.StatusProcessing)})
			So(do(r, http.MethodPost, "/api/v1/images/i1/regenerate", "").Code, ShouldEqual, http.StatusConflict)

			So(do(r, http.MethodDelete, "/api/v1/images/i1", "").Code, ShouldEqual, http.StatusOK)
			So(do(r, http.MethodGet, "/api/v1/images/i1", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStreamVideo(t *testing.T) {
	Convey("websocket 先推快照再推事件直到结束", t, func() {
		r, tasks, _, hub, _ := setup()
		ctx := context.Background()
		_, _ = tasks.Create(ctx, &task.Task{ID: "t1", Status: task.StatusQueued})

		srv := httptest.NewServer(r)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/videos/t1/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		var first StreamMessage
		So(conn.ReadJSON(&first), ShouldBeNil)
		So(first.Type, ShouldEqual, "snapshot")
		So(first.Task.Status, ShouldEqual, "queued")

		_ = hub.Publish(ctx, events.Event{Kind: events.KindTask, TaskID: "t1", Status: "processing", Progress: 0.2})
		_ = hub.Publish(ctx, events.Event{Kind: events.KindTask, TaskID: "t1", Status: "completed", Progress: 1, URL: "https://cdn/v.mp4"})

		var msg map[string]any
		So(conn.ReadJSON(&msg), ShouldBeNil)
		So(msg["type"], ShouldEqual, "event")
		So(conn.ReadJSON(&msg), ShouldBeNil)
		So(msg["event"].(map[string]any)["status"], ShouldEqual, "completed")

		_, _, err = conn.ReadMessage()
		So(websocket.IsCloseError(err, websocket.CloseNormalClosure), ShouldBeTrue)
	})
}
