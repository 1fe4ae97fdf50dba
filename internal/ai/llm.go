// Package ai 大模型调用封装
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"storyreel/internal/ai/component"
	"storyreel/internal/config"
)

// ErrEmptyResponse 模型返回空内容
var ErrEmptyResponse = errors.New("empty response from chat model")

// LLM 文本生成接口
type LLM interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// EinoLLM 基于 eino ChatModel 的 LLM 实现
type EinoLLM struct {
	chatModel model.ChatModel
}

// NewEinoLLM 包装已有的 ChatModel
func NewEinoLLM(chatModel model.ChatModel) *EinoLLM {
	return &EinoLLM{chatModel: chatModel}
}

// NewLLM 根据配置创建 ChatModel 并包装
func NewLLM(ctx context.Context, cfg *config.AIConfig) (*EinoLLM, error) {
	cm, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return NewEinoLLM(cm), nil
}

// Generate 发送 system + user 消息并返回回复文本
func (l *EinoLLM) Generate(ctx context.Context, system, user string) (string, error) {
	if l.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}

	messages := make([]*schema.Message, 0, 2)
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, schema.UserMessage(user))

	resp, err := l.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Content, nil
}
