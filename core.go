// Package rxcore provides the subscription core of a push-based event-stream library
// 可观察序列的订阅执行模型：观察者注册、生产者调度以及冷/热序列的语义划分
package rxcore

import (
	"context"
	"errors"
)

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrDisposed 对已释放的Observable进行订阅
	ErrDisposed = errors.New("rxcore: observable disposed")

	// ErrNilObserver 订阅时传入了nil观察者
	ErrNilObserver = errors.New("rxcore: nil observer")
)

// ============================================================================
// 核心接口
// ============================================================================

// Observer 观察者接口，接收推送的值、错误和完成信号
type Observer[T any] interface {
	// OnNext 接收下一个值
	OnNext(value T)
	// OnError 接收错误，之后不会再有通知
	OnError(err error)
	// OnCompleted 接收完成信号，之后不会再有通知
	OnCompleted()
}

// Observable 可观察序列的核心接口
type Observable[T any] interface {
	// Subscribe 订阅观察者，返回用于取消订阅的Disposable
	Subscribe(observer Observer[T]) (Disposable, error)
}

// Disposable 可释放资源的接口
type Disposable interface {
	// Dispose 释放资源，多次调用只有第一次生效
	Dispose()
	// IsDisposed 检查是否已释放
	IsDisposed() bool
}

// Subject 既是Observer又是Observable的接口（多播汇点）
type Subject[T any] interface {
	Observer[T]
	Observable[T]
	Disposable

	// HasObservers 检查是否有观察者
	HasObservers() bool
	// ObserverCount 获取观察者数量
	ObserverCount() int
}

// Scheduler 调度器接口，控制任务执行时机和方式
//
//go:generate mockgen -destination=mock_scheduler_test.go -package=rxcore . Scheduler
type Scheduler interface {
	// Schedule 调度一个任务，返回的Disposable在任务开始前取消它
	Schedule(action func()) Disposable
	// ScheduleWithContext 带上下文的调度，上下文结束后任务不再执行
	ScheduleWithContext(ctx context.Context, action func()) Disposable
}

// Work 生产者函数，向sink推送数据；ctx在所属作用域释放时取消
type Work[T any] func(ctx context.Context, sink Observer[T])

// ============================================================================
// 回调观察者
// ============================================================================

// ObserverFunc 由回调函数组成的观察者，nil回调会被忽略
type ObserverFunc[T any] struct {
	Next      func(value T)
	Error     func(err error)
	Completed func()
}

// NewObserver 使用回调函数创建观察者
func NewObserver[T any](onNext func(T), onError func(error), onCompleted func()) *ObserverFunc[T] {
	return &ObserverFunc[T]{
		Next:      onNext,
		Error:     onError,
		Completed: onCompleted,
	}
}

// OnNext 调用Next回调
func (o *ObserverFunc[T]) OnNext(value T) {
	if o.Next != nil {
		o.Next(value)
	}
}

// OnError 调用Error回调
func (o *ObserverFunc[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

// OnCompleted 调用Completed回调
func (o *ObserverFunc[T]) OnCompleted() {
	if o.Completed != nil {
		o.Completed()
	}
}

// ============================================================================
// 通知
// ============================================================================

// Kind 通知类型
type Kind uint8

const (
	// KindNext 数据通知
	KindNext Kind = iota
	// KindError 错误通知
	KindError
	// KindCompleted 完成通知
	KindCompleted
)

// String 返回通知类型名称
func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Notification 表示流中的一个事件
type Notification[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// NextNotification 创建数据通知
func NextNotification[T any](value T) Notification[T] {
	return Notification[T]{Kind: KindNext, Value: value}
}

// ErrorNotification 创建错误通知
func ErrorNotification[T any](err error) Notification[T] {
	return Notification[T]{Kind: KindError, Err: err}
}

// CompletedNotification 创建完成通知
func CompletedNotification[T any]() Notification[T] {
	return Notification[T]{Kind: KindCompleted}
}

// IsTerminal 检查是否为终止通知
func (n Notification[T]) IsTerminal() bool {
	return n.Kind != KindNext
}

// Accept 将通知投递给观察者
func (n Notification[T]) Accept(observer Observer[T]) {
	switch n.Kind {
	case KindNext:
		observer.OnNext(n.Value)
	case KindError:
		observer.OnError(n.Err)
	case KindCompleted:
		observer.OnCompleted()
	}
}
