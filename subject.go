// Subject implementations for rxcore
// 实现Subject系统，包括PublishSubject和ReplaySubject
package rxcore

import (
	"fmt"
	"sync"
)

var (
	_ Subject[any] = (*PublishSubject[any])(nil)
	_ Subject[any] = (*ReplaySubject[any])(nil)
)

// ============================================================================
// PublishSubject - 发布主题
// ============================================================================

// PublishSubject 发布主题，只向当前订阅者发送新的值
//
// 收到OnError或OnCompleted后进入终止状态，之后推送的值被忽略，
// 新的订阅者会立即收到终止通知。Dispose会断开所有订阅者。
type PublishSubject[T any] struct {
	*Base[T]

	// emitMu 串行化"记录通知+取观察者快照"与订阅登记
	emitMu   sync.Mutex
	terminal *Notification[T]
}

// NewPublishSubject 创建新的发布主题
func NewPublishSubject[T any](options ...Option) *PublishSubject[T] {
	return newPublishSubject[T](newConfig(options))
}

func newPublishSubject[T any](config *Config) *PublishSubject[T] {
	return &PublishSubject[T]{
		Base: newBase[T](config),
	}
}

// Subscribe 订阅观察者
func (s *PublishSubject[T]) Subscribe(observer Observer[T]) (Disposable, error) {
	if observer == nil {
		return nil, fmt.Errorf("subscribe to %s: %w", s.name, ErrNilObserver)
	}

	s.emitMu.Lock()
	if s.IsDisposed() {
		s.emitMu.Unlock()
		return nil, fmt.Errorf("subscribe to %s: %w", s.name, ErrDisposed)
	}

	// 如果已经完成或出错，立即通知观察者
	if s.terminal != nil {
		terminal := *s.terminal
		s.emitMu.Unlock()
		terminal.Accept(observer)
		return EmptyDisposable(), nil
	}

	sub, err := s.Base.add(observer)
	s.emitMu.Unlock()
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// OnNext 发送下一个值
func (s *PublishSubject[T]) OnNext(value T) {
	s.publish(NextNotification(value), nil)
}

// OnError 发送错误
func (s *PublishSubject[T]) OnError(err error) {
	s.publish(ErrorNotification[T](err), nil)
}

// OnCompleted 发送完成信号
func (s *PublishSubject[T]) OnCompleted() {
	s.publish(CompletedNotification[T](), nil)
}

// publish 在emitMu保护下记录通知并取观察者快照，然后在锁外同步投递
func (s *PublishSubject[T]) publish(n Notification[T], record func(Notification[T])) {
	s.emitMu.Lock()
	if s.IsDisposed() || s.terminal != nil {
		s.emitMu.Unlock()
		return
	}

	if record != nil {
		record(n)
	}
	observers := s.Observers()
	if n.IsTerminal() {
		s.terminal = &n
		s.Base.clear()
	}
	s.emitMu.Unlock()

	for _, observer := range observers {
		n.Accept(observer)
	}
}

// IsTerminated 检查是否已完成或出错
func (s *PublishSubject[T]) IsTerminated() bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	return s.terminal != nil
}

// Dispose 释放主题并断开所有订阅者
func (s *PublishSubject[T]) Dispose() {
	s.emitMu.Lock()
	s.Base.Dispose()
	s.emitMu.Unlock()

	s.Base.clear()
}

// ============================================================================
// ReplaySubject - 重放主题
// ============================================================================

// ReplaySubject 重放主题，缓存推送过的值，新订阅者先按原顺序收到缓存的值，
// 然后是终止通知（如果有）或后续的实时值
//
// 重放与实时值之间没有空缺也没有重复：订阅在emitMu下登记并取得缓存快照，
// 重放期间到达的实时值进入该订阅者的等待队列，重放结束后依次投递。
type ReplaySubject[T any] struct {
	*PublishSubject[T]
	bufferSize int
	buffer     []T
}

// NewReplaySubject 创建新的重放主题，bufferSize<=0表示不限制缓存数量，
// 否则超出时丢弃最老的值
func NewReplaySubject[T any](bufferSize int, options ...Option) *ReplaySubject[T] {
	return newReplaySubject[T](bufferSize, newConfig(options))
}

func newReplaySubject[T any](bufferSize int, config *Config) *ReplaySubject[T] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &ReplaySubject[T]{
		PublishSubject: newPublishSubject[T](config),
		bufferSize:     bufferSize,
	}
}

// Subscribe 订阅观察者，先重放缓存的值
func (s *ReplaySubject[T]) Subscribe(observer Observer[T]) (Disposable, error) {
	if observer == nil {
		return nil, fmt.Errorf("subscribe to %s: %w", s.name, ErrNilObserver)
	}

	s.emitMu.Lock()
	if s.IsDisposed() {
		s.emitMu.Unlock()
		return nil, fmt.Errorf("subscribe to %s: %w", s.name, ErrDisposed)
	}

	history := make([]T, len(s.buffer))
	copy(history, s.buffer)

	if s.terminal != nil {
		terminal := *s.terminal
		s.emitMu.Unlock()

		for _, value := range history {
			observer.OnNext(value)
		}
		terminal.Accept(observer)
		return EmptyDisposable(), nil
	}

	replayer := &replayObserver[T]{target: observer, replaying: true}
	sub, err := s.Base.add(replayer)
	if err != nil {
		s.emitMu.Unlock()
		return nil, err
	}
	// 在emitMu下设置，之后才可能有实时值到达
	replayer.stopped = func() bool {
		return sub.IsDisposed() || s.IsDisposed()
	}
	s.emitMu.Unlock()

	for _, value := range history {
		if replayer.stopped() {
			break
		}
		observer.OnNext(value)
	}
	replayer.drain()

	return sub, nil
}

// OnNext 发送下一个值并添加到缓存
func (s *ReplaySubject[T]) OnNext(value T) {
	s.publish(NextNotification(value), s.record)
}

// OnError 发送错误
func (s *ReplaySubject[T]) OnError(err error) {
	s.publish(ErrorNotification[T](err), s.record)
}

// OnCompleted 发送完成信号
func (s *ReplaySubject[T]) OnCompleted() {
	s.publish(CompletedNotification[T](), s.record)
}

// record 在emitMu下调用
func (s *ReplaySubject[T]) record(n Notification[T]) {
	if n.Kind != KindNext {
		return
	}
	if s.bufferSize > 0 && len(s.buffer) >= s.bufferSize {
		// 移除最老的值
		s.buffer = s.buffer[1:]
	}
	s.buffer = append(s.buffer, n.Value)
}

// Values 获取所有缓存的值
func (s *ReplaySubject[T]) Values() []T {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	values := make([]T, len(s.buffer))
	copy(values, s.buffer)
	return values
}

// replayObserver 重放期间缓冲实时通知的观察者包装器
//
// 订阅被释放或主题被释放后，积压的和新到达的通知都被丢弃。
type replayObserver[T any] struct {
	target  Observer[T]
	stopped func() bool

	mu        sync.Mutex
	replaying bool
	pending   []Notification[T]
}

func (r *replayObserver[T]) OnNext(value T) {
	r.deliver(NextNotification(value))
}

func (r *replayObserver[T]) OnError(err error) {
	r.deliver(ErrorNotification[T](err))
}

func (r *replayObserver[T]) OnCompleted() {
	r.deliver(CompletedNotification[T]())
}

func (r *replayObserver[T]) deliver(n Notification[T]) {
	if r.stopped() {
		return
	}

	r.mu.Lock()
	if r.replaying {
		r.pending = append(r.pending, n)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	n.Accept(r.target)
}

// drain 投递重放期间积压的通知，然后切换到实时投递
func (r *replayObserver[T]) drain() {
	for {
		r.mu.Lock()
		if len(r.pending) == 0 {
			r.replaying = false
			r.mu.Unlock()
			return
		}
		batch := r.pending
		r.pending = nil
		r.mu.Unlock()

		for _, n := range batch {
			if r.stopped() {
				r.mu.Lock()
				r.pending = nil
				r.replaying = false
				r.mu.Unlock()
				return
			}
			n.Accept(r.target)
		}
	}
}
