package imagegen

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/config"
)

type scriptedProvider struct {
	failures int
	calls    int
	panics   bool
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) GenerateImage(context.Context, string) (string, error) {
	p.calls++
	if p.panics {
		panic("boom")
	}
	if p.calls <= p.failures {
		return "", errors.New("rate limited")
	}
	return "https://img/1.png", nil
}

func TestGenerate(t *testing.T) {
	Convey("重试", t, func() {
		var sleeps []time.Duration
		sleep := func(d time.Duration) { sleeps = append(sleeps, d) }

		Convey("两次失败后第三次成功", func() {
			p := &scriptedProvider{failures: 2}
			res := NewGenerator(p, 3, time.Second).WithSleep(sleep).Generate(context.Background(), "p", nil)
			So(res.OK(), ShouldBeTrue)
			So(res.URL, ShouldEqual, "https://img/1.png")
			So(res.Attempts, ShouldEqual, 3)
			So(sleeps, ShouldResemble, []time.Duration{time.Second, time.Second})
		})

		Convey("三次失败返回空结果", func() {
			p := &scriptedProvider{failures: 3}
			res := NewGenerator(p, 3, time.Second).WithSleep(sleep).Generate(context.Background(), "p", nil)
			So(res.OK(), ShouldBeFalse)
			So(res.URL, ShouldEqual, "")
			So(res.Err, ShouldNotBeNil)
			So(p.calls, ShouldEqual, 3)
			So(sleeps, ShouldHaveLength, 2)
		})

		Convey("供应商 panic 视为失败", func() {
			p := &scriptedProvider{panics: true}
			res := NewGenerator(p, 2, 0).WithSleep(sleep).Generate(context.Background(), "p", nil)
			So(res.OK(), ShouldBeFalse)
			So(res.Err.Error(), ShouldContainSubstring, "panic")
		})
	})

	Convey("onStart 只调用一次且错误被忽略", t, func() {
		calls := 0
		onStart := func(context.Context) error {
			calls++
			return errors.New("store down")
		}
		p := &scriptedProvider{failures: 1}
		res := NewGenerator(p, 3, 0).WithSleep(func(time.Duration) {}).Generate(context.Background(), "p", onStart)
		So(res.OK(), ShouldBeTrue)
		So(calls, ShouldEqual, 1)
	})
}

func TestNewProvider(t *testing.T) {
	Convey("按配置选择供应商", t, func() {
		p, err := NewProvider(&config.ImageConfig{Provider: "replicate", Replicate: config.ReplicateConfig{APIToken: "t"}})
		So(err, ShouldBeNil)
		So(p.Name(), ShouldEqual, "replicate")

		p, err = NewProvider(&config.ImageConfig{Provider: "ark", Ark: config.ArkImageConfig{APIKey: "k"}})
		So(err, ShouldBeNil)
		So(p.Name(), ShouldEqual, "ark")

		_, err = NewProvider(&config.ImageConfig{Provider: "dalle"})
		So(err, ShouldNotBeNil)
	})
}
