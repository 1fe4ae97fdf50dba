package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"
)

type stubChatModel struct {
	got   []*schema.Message
	reply string
	err   error
}

func (s *stubChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (s *stubChatModel) BindTools([]*schema.ToolInfo) error { return nil }

func TestEinoLLM(t *testing.T) {
	Convey("发送 system 与 user 消息", t, func() {
		cm := &stubChatModel{reply: "ok"}
		out, err := NewEinoLLM(cm).Generate(context.Background(), "sys", "hello")
		So(err, ShouldBeNil)
		So(out, ShouldEqual, "ok")
		So(cm.got, ShouldHaveLength, 2)
		So(cm.got[0].Role, ShouldEqual, schema.System)
		So(cm.got[1].Content, ShouldEqual, "hello")
	})

	Convey("空回复返回错误", t, func() {
		_, err := NewEinoLLM(&stubChatModel{}).Generate(context.Background(), "", "hello")
		So(err, ShouldEqual, ErrEmptyResponse)
	})
}
