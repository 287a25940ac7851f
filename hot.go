// Hot observable for rxcore
// 热序列：生产者函数在构造时只调度一次，所有订阅者共享并重放历史值
package rxcore

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var (
	_ Observable[any] = (*Hot[any])(nil)
	_ Disposable      = (*Hot[any])(nil)
	_ Observable[any] = (*Cold[any])(nil)
)

// Hot 热序列
//
// 构造时（而不是第一次订阅时）把work(ctx, subject)提交给调度器，
// 调度句柄归Hot所有。所有订阅者挂在同一个ReplaySubject上：后到的订阅者
// 先按顺序收到完整的历史值，然后继续收到实时值。
type Hot[T any] struct {
	subject  *ReplaySubject[T]
	schedule Disposable
	cancel   context.CancelFunc
	disposed atomic.Bool

	name   string
	logger *slog.Logger
}

// NewHot 创建热序列并立即调度work，scheduler为nil时依次使用WithScheduler和DefaultScheduler
func NewHot[T any](work Work[T], scheduler Scheduler, options ...Option) *Hot[T] {
	config := newConfig(options)
	scheduler = resolveScheduler(scheduler, config)

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hot[T]{
		subject: newReplaySubject[T](config.ReplayBufferSize, config),
		cancel:  cancel,
		name:    config.Name,
		logger:  config.Logger,
	}

	h.logger.Debug("rxcore: scheduling hot work", "observable", h.name)
	subject := h.subject
	h.schedule = scheduler.ScheduleWithContext(ctx, func() {
		work(ctx, subject)
	})
	return h
}

// Subscribe 订阅共享的重放主题
func (h *Hot[T]) Subscribe(observer Observer[T]) (Disposable, error) {
	return h.subject.Subscribe(observer)
}

// Subject 返回共享的重放主题
func (h *Hot[T]) Subject() *ReplaySubject[T] {
	return h.subject
}

// Dispose 释放共享主题并断开所有订阅者，然后取消work的上下文和调度
func (h *Hot[T]) Dispose() {
	if !h.disposed.CompareAndSwap(false, true) {
		return
	}

	// 先断开订阅者，生产者在取消时推送的通知不会再到达
	h.subject.Dispose()
	h.cancel()
	if h.schedule != nil {
		h.schedule.Dispose()
	}

	h.logger.Debug("rxcore: hot observable disposed", "observable", h.name)
}

// IsDisposed 检查是否已释放
func (h *Hot[T]) IsDisposed() bool {
	return h.disposed.Load()
}
