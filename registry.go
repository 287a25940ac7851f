// Observer registry for rxcore
// 基础可订阅对象：维护有序的观察者注册表，按订阅令牌注销
package rxcore

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// registryEntry 注册表中的一项，令牌唯一标识一次订阅
type registryEntry[T any] struct {
	id       uuid.UUID
	observer Observer[T]
}

// Base 基础可订阅对象
//
// Base维护按订阅顺序排列的观察者注册表。同一个观察者订阅两次会占据两个
// 独立的条目，各自通过自己的Subscription注销。Dispose只标记已释放，
// 不清空注册表也不通知已注册的观察者；之后的Subscribe返回ErrDisposed。
type Base[T any] struct {
	mu       sync.RWMutex
	entries  []registryEntry[T]
	disposed atomic.Bool

	name    string
	logger  *slog.Logger
	metrics *Metrics
}

// NewBase 创建基础可订阅对象
func NewBase[T any](options ...Option) *Base[T] {
	config := newConfig(options)
	return newBase[T](config)
}

func newBase[T any](config *Config) *Base[T] {
	return &Base[T]{
		name:    config.Name,
		logger:  config.Logger,
		metrics: config.Metrics,
	}
}

// Name 返回名称
func (b *Base[T]) Name() string {
	return b.name
}

// Subscribe 将观察者加入注册表
func (b *Base[T]) Subscribe(observer Observer[T]) (Disposable, error) {
	sub, err := b.add(observer)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (b *Base[T]) add(observer Observer[T]) (*Subscription[T], error) {
	if observer == nil {
		return nil, fmt.Errorf("subscribe to %s: %w", b.name, ErrNilObserver)
	}

	b.mu.Lock()
	if b.disposed.Load() {
		b.mu.Unlock()
		return nil, fmt.Errorf("subscribe to %s: %w", b.name, ErrDisposed)
	}
	id := uuid.New()
	b.entries = append(b.entries, registryEntry[T]{id: id, observer: observer})
	count := len(b.entries)
	b.mu.Unlock()

	b.metrics.subscribed(b.name)
	b.logger.Debug("rxcore: observer subscribed",
		"observable", b.name,
		"subscription", id,
		"observers", count,
	)

	return &Subscription[T]{registry: b, id: id}, nil
}

// remove 按令牌移除条目，未知令牌不做任何事
func (b *Base[T]) remove(id uuid.UUID) bool {
	b.mu.Lock()
	index := -1
	for i, entry := range b.entries {
		if entry.id == id {
			index = i
			break
		}
	}
	if index < 0 {
		b.mu.Unlock()
		return false
	}
	b.entries = append(b.entries[:index], b.entries[index+1:]...)
	count := len(b.entries)
	b.mu.Unlock()

	b.metrics.unsubscribed(b.name)
	b.logger.Debug("rxcore: observer unsubscribed",
		"observable", b.name,
		"subscription", id,
		"observers", count,
	)
	return true
}

// clear 移除全部条目，返回被移除的数量
func (b *Base[T]) clear() int {
	b.mu.Lock()
	n := len(b.entries)
	b.entries = nil
	b.mu.Unlock()

	for i := 0; i < n; i++ {
		b.metrics.unsubscribed(b.name)
	}
	return n
}

// Observers 返回当前观察者的有序快照
func (b *Base[T]) Observers() []Observer[T] {
	b.mu.RLock()
	defer b.mu.RUnlock()

	observers := make([]Observer[T], len(b.entries))
	for i, entry := range b.entries {
		observers[i] = entry.observer
	}
	return observers
}

// HasObservers 检查是否有观察者
func (b *Base[T]) HasObservers() bool {
	return b.ObserverCount() > 0
}

// ObserverCount 获取观察者数量
func (b *Base[T]) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Dispose 标记为已释放
func (b *Base[T]) Dispose() {
	if b.disposed.CompareAndSwap(false, true) {
		b.logger.Debug("rxcore: observable disposed", "observable", b.name)
	}
}

// IsDisposed 检查是否已释放
func (b *Base[T]) IsDisposed() bool {
	return b.disposed.Load()
}

// ============================================================================
// 订阅句柄
// ============================================================================

// Subscription 一次订阅的句柄，持有注册表的引用和订阅令牌
type Subscription[T any] struct {
	registry *Base[T]
	id       uuid.UUID
	disposed atomic.Bool
}

// ID 返回订阅令牌
func (s *Subscription[T]) ID() uuid.UUID {
	return s.id
}

// Dispose 从注册表中移除对应条目
func (s *Subscription[T]) Dispose() {
	if s.disposed.CompareAndSwap(false, true) {
		s.registry.remove(s.id)
	}
}

// IsDisposed 检查是否已释放
func (s *Subscription[T]) IsDisposed() bool {
	return s.disposed.Load()
}
