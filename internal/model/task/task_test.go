package task

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStatusTransition(t *testing.T) {
	Convey("任务状态流转", t, func() {
		Convey("只允许 queued→processing→终态", func() {
			So(StatusQueued.CanTransition(StatusProcessing), ShouldBeTrue)
			So(StatusProcessing.CanTransition(StatusCompleted), ShouldBeTrue)
			So(StatusProcessing.CanTransition(StatusFailed), ShouldBeTrue)
			So(StatusProcessing.CanTransition(StatusProcessing), ShouldBeFalse)
		})

		Convey("不允许跳跃或回退", func() {
			So(StatusQueued.CanTransition(StatusCompleted), ShouldBeFalse)
			So(StatusQueued.CanTransition(StatusFailed), ShouldBeFalse)
			So(StatusCompleted.CanTransition(StatusProcessing), ShouldBeFalse)
			So(StatusFailed.CanTransition(StatusFailed), ShouldBeFalse)
		})
	})
}

func TestRoundProgress(t *testing.T) {
	Convey("进度取整", t, func() {
		So(RoundProgress(1.0/6), ShouldEqual, 0.2)
		So(RoundProgress(0.2+1.0/6), ShouldEqual, 0.4)
		So(RoundProgress(1.3), ShouldEqual, 1.0)
		So(RoundProgress(-0.1), ShouldEqual, 0.0)
	})
}

func TestUpdateFields(t *testing.T) {
	Convey("部分更新只包含非 nil 字段", t, func() {
		u := Update{Status: Ptr(StatusFailed), ErrorMessage: Ptr("boom")}
		fields := u.Fields()
		So(fields, ShouldHaveLength, 2)
		So(fields["status"], ShouldEqual, StatusFailed)

		tk := &Task{Status: StatusProcessing, Progress: 0.4}
		u.Apply(tk)
		So(tk.Status, ShouldEqual, StatusFailed)
		So(tk.ErrorMessage, ShouldEqual, "boom")
		So(tk.Progress, ShouldEqual, 0.4)
	})

	Convey("未知转场视为 none", t, func() {
		So(ParseTransition("zoom-in"), ShouldEqual, TransitionZoomIn)
		So(ParseTransition("dissolve"), ShouldEqual, TransitionNone)
	})
}
