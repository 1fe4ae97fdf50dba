package service

import (
	"context"

	"storyreel/internal/pkg/queue"
	"storyreel/internal/service/pipeline"
)

// Dispatcher 把新建的任务交给编排器执行
type Dispatcher interface {
	Dispatch(ctx context.Context, req pipeline.Request) error
}

// Runner 任务执行方
type Runner interface {
	Run(ctx context.Context, req pipeline.Request)
}

// GoroutineDispatcher 在当前进程内异步执行
type GoroutineDispatcher struct {
	runner Runner
}

// NewGoroutineDispatcher 创建进程内派发器
func NewGoroutineDispatcher(runner Runner) *GoroutineDispatcher {
	return &GoroutineDispatcher{runner: runner}
}

func (d *GoroutineDispatcher) Dispatch(ctx context.Context, req pipeline.Request) error {
	go d.runner.Run(context.WithoutCancel(ctx), req)
	return nil
}

// Enqueuer 队列生产端
type Enqueuer interface {
	Enqueue(ctx context.Context, p queue.GeneratePayload) error
}

// QueueDispatcher 通过 asynq 交给 worker 进程执行
type QueueDispatcher struct {
	client Enqueuer
}

// NewQueueDispatcher 创建队列派发器
func NewQueueDispatcher(client Enqueuer) *QueueDispatcher {
	return &QueueDispatcher{client: client}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, req pipeline.Request) error {
	return d.client.Enqueue(ctx, queue.GeneratePayload(req))
}

// QueueHandler worker 端的处理函数，执行结果只体现在任务状态上
func QueueHandler(runner Runner) queue.Handler {
	return func(ctx context.Context, p queue.GeneratePayload) error {
		runner.Run(ctx, pipeline.Request(p))
		return nil
	}
}
