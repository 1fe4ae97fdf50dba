package events

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryHub(t *testing.T) {
	Convey("MemoryHub 发布订阅", t, func() {
		hub := NewMemoryHub()
		ctx := context.Background()

		ch, cancel := hub.Subscribe(ctx, "t1")
		other, cancelOther := hub.Subscribe(ctx, "t2")
		defer cancelOther()

		So(hub.Publish(ctx, Event{Kind: KindTask, TaskID: "t1", Status: "processing", Progress: 0.2}), ShouldBeNil)

		Convey("订阅方收到本任务事件", func() {
			select {
			case e := <-ch:
				So(e.Status, ShouldEqual, "processing")
				So(e.At.IsZero(), ShouldBeFalse)
			case <-time.After(time.Second):
				So("timeout", ShouldBeEmpty)
			}
		})

		Convey("其他任务的订阅方收不到", func() {
			select {
			case <-other:
				So("unexpected event", ShouldBeEmpty)
			default:
			}
		})

		Convey("取消后通道被关闭", func() {
			<-ch
			cancel()
			_, ok := <-ch
			So(ok, ShouldBeFalse)
			cancel()
		})

		Convey("缓冲区满时终态事件仍然送达", func() {
			full, cancelFull := hub.Subscribe(ctx, "t3")
			defer cancelFull()
			for i := 0; i < subscriberBuffer+5; i++ {
				So(hub.Publish(ctx, Event{Kind: KindTask, TaskID: "t3", Status: "processing"}), ShouldBeNil)
			}
			So(hub.Publish(ctx, Event{Kind: KindTask, TaskID: "t3", Status: "completed"}), ShouldBeNil)

			var last Event
			for i := 0; i < subscriberBuffer; i++ {
				last = <-full
			}
			So(last.Terminal(), ShouldBeTrue)
			select {
			case <-full:
				So("unexpected event", ShouldBeEmpty)
			default:
			}
		})

		Convey("终态判断", func() {
			So(Event{Kind: KindTask, Status: "completed"}.Terminal(), ShouldBeTrue)
			So(Event{Kind: KindScene, Status: "completed"}.Terminal(), ShouldBeFalse)
			So(Event{Kind: KindTask, Status: "processing"}.Terminal(), ShouldBeFalse)
		})
	})
}
