package component

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/config"
)

func TestSampling(t *testing.T) {
	Convey("未配置的采样参数为 nil", t, func() {
		temp, maxTokens, topP := sampling(config.AIOptionsConfig{})
		So(temp, ShouldBeNil)
		So(maxTokens, ShouldBeNil)
		So(topP, ShouldBeNil)

		temp, maxTokens, topP = sampling(config.AIOptionsConfig{Temperature: 0.7, MaxTokens: 4096, TopP: 0.9})
		So(*temp, ShouldAlmostEqual, 0.7, 1e-6)
		So(*maxTokens, ShouldEqual, 4096)
		So(*topP, ShouldAlmostEqual, 0.9, 1e-6)
	})
}

func TestNewChatModelValidation(t *testing.T) {
	Convey("配置校验", t, func() {
		_, err := NewChatModel(context.Background(), &config.AIConfig{Provider: "openai"})
		So(err, ShouldNotBeNil)

		_, err = NewChatModel(context.Background(), &config.AIConfig{Provider: "azure", APIKey: "k"})
		So(err, ShouldNotBeNil)

		_, err = NewChatModel(context.Background(), &config.AIConfig{Provider: "claude", APIKey: "k"})
		So(err, ShouldNotBeNil)
	})
}
