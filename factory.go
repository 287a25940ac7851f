// Factory functions for rxcore
// 工厂函数：基于冷序列的常用数据源和阻塞收集
package rxcore

import (
	"context"
	"fmt"
)

// ============================================================================
// 基础工厂函数
// ============================================================================

// Create 从生产者函数创建冷序列
func Create[T any](work Work[T], options ...Option) *Cold[T] {
	return NewCold(work, nil, options...)
}

// Just 从给定的值创建冷序列
func Just[T any](values ...T) *Cold[T] {
	return JustWith(nil, values...)
}

// JustWith 与Just相同，但可以传入选项
func JustWith[T any](options []Option, values ...T) *Cold[T] {
	return FromSlice(values, options...)
}

// FromSlice 从切片创建冷序列，每个订阅者都从头收到全部元素
func FromSlice[T any](values []T, options ...Option) *Cold[T] {
	items := make([]T, len(values))
	copy(items, values)

	return Create[T](func(ctx context.Context, sink Observer[T]) {
		for _, item := range items {
			if ctx.Err() != nil {
				return
			}
			sink.OnNext(item)
		}
		sink.OnCompleted()
	}, options...)
}

// Range 创建发射指定范围整数的冷序列
func Range(start, count int, options ...Option) *Cold[int] {
	return Create[int](func(ctx context.Context, sink Observer[int]) {
		for i := 0; i < count; i++ {
			if ctx.Err() != nil {
				return
			}
			sink.OnNext(start + i)
		}
		sink.OnCompleted()
	}, options...)
}

// FromChannel 从Go channel创建冷序列，channel关闭时完成
//
// 多个订阅者会竞争同一个channel中的元素。
func FromChannel[T any](ch <-chan T, options ...Option) *Cold[T] {
	return Create[T](func(ctx context.Context, sink Observer[T]) {
		for {
			select {
			case <-ctx.Done():
				return
			case value, ok := <-ch:
				if !ok {
					sink.OnCompleted()
					return
				}
				sink.OnNext(value)
			}
		}
	}, options...)
}

// Empty 创建立即完成的冷序列
func Empty[T any](options ...Option) *Cold[T] {
	return Create[T](func(_ context.Context, sink Observer[T]) {
		sink.OnCompleted()
	}, options...)
}

// Never 创建永不发射任何通知的冷序列
func Never[T any](options ...Option) *Cold[T] {
	return Create[T](func(context.Context, Observer[T]) {}, options...)
}

// Throw 创建立即发射错误的冷序列
func Throw[T any](err error, options ...Option) *Cold[T] {
	return Create[T](func(_ context.Context, sink Observer[T]) {
		sink.OnError(err)
	}, options...)
}

// ============================================================================
// 阻塞操作
// ============================================================================

// ToSlice 订阅并阻塞收集所有值，直到序列终止或ctx结束
//
// 序列以错误终止时返回已收集的值和该错误。
func ToSlice[T any](ctx context.Context, source Observable[T]) ([]T, error) {
	done := make(chan struct{})
	var (
		values []T
		result error
	)

	// 终止通知之后的值不再收集
	terminated := false
	observer := NewObserver(
		func(value T) {
			if !terminated {
				values = append(values, value)
			}
		},
		func(err error) {
			if !terminated {
				terminated = true
				result = err
				close(done)
			}
		},
		func() {
			if !terminated {
				terminated = true
				close(done)
			}
		},
	)

	subscription, err := source.Subscribe(observer)
	if err != nil {
		return nil, err
	}
	defer subscription.Dispose()

	select {
	case <-done:
		return values, result
	case <-ctx.Done():
		return nil, fmt.Errorf("collect values: %w", ctx.Err())
	}
}
