// Cold observable for rxcore
// 冷序列：每次订阅独立运行一次生产者函数
package rxcore

import (
	"context"
	"fmt"
	"log/slog"
)

// Cold 冷序列
//
// 每次Subscribe都会创建新的PublishSubject作为sink，把观察者挂到sink上，
// 然后把work(ctx, sink)提交给调度器。Subscribe返回时work可能尚未开始。
// 订阅之间没有共享状态也没有重放。
type Cold[T any] struct {
	work      Work[T]
	scheduler Scheduler
	config    *Config
	logger    *slog.Logger
}

// NewCold 创建冷序列，scheduler为nil时依次使用WithScheduler和DefaultScheduler
func NewCold[T any](work Work[T], scheduler Scheduler, options ...Option) *Cold[T] {
	config := newConfig(options)
	scheduler = resolveScheduler(scheduler, config)
	return &Cold[T]{
		work:      work,
		scheduler: scheduler,
		config:    config,
		logger:    config.Logger,
	}
}

// Subscribe 订阅观察者并调度一次新的work
//
// 返回的Disposable依次取消work的上下文、取消尚未执行的调度并释放sink。
func (c *Cold[T]) Subscribe(observer Observer[T]) (Disposable, error) {
	if observer == nil {
		return nil, fmt.Errorf("subscribe to %s: %w", c.config.Name, ErrNilObserver)
	}

	sink := newPublishSubject[T](c.config)
	if _, err := sink.Subscribe(observer); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	subscription := NewCompositeDisposable(NewDisposable(cancel))

	c.logger.Debug("rxcore: scheduling cold work", "observable", c.config.Name)
	handle := c.scheduler.ScheduleWithContext(ctx, func() {
		c.work(ctx, sink)
	})

	subscription.Add(handle)
	subscription.Add(sink)
	return subscription, nil
}

// Dispose 冷序列不持有进程级资源，所有资源都属于单个订阅
func (c *Cold[T]) Dispose() {}

// IsDisposed 冷序列永远不会被释放
func (c *Cold[T]) IsDisposed() bool {
	return false
}
