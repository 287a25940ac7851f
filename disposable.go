// Disposable implementations for rxcore
// 可释放资源的基础实现
package rxcore

import (
	"sync"
	"sync/atomic"
)

// baseDisposable 基础可释放资源实现，动作只执行一次
type baseDisposable struct {
	disposed atomic.Bool
	action   func()
}

// NewDisposable 创建在第一次Dispose时执行action的可释放资源
func NewDisposable(action func()) Disposable {
	return &baseDisposable{action: action}
}

// EmptyDisposable 创建不执行任何动作的可释放资源
func EmptyDisposable() Disposable {
	return &baseDisposable{}
}

// Dispose 释放资源
func (d *baseDisposable) Dispose() {
	if d.disposed.CompareAndSwap(false, true) {
		if d.action != nil {
			d.action()
		}
	}
}

// IsDisposed 检查是否已释放
func (d *baseDisposable) IsDisposed() bool {
	return d.disposed.Load()
}

// CompositeDisposable 组合式资源管理器
type CompositeDisposable struct {
	mu        sync.Mutex
	disposed  bool
	resources []Disposable
}

// NewCompositeDisposable 创建组合式资源管理器
func NewCompositeDisposable(resources ...Disposable) *CompositeDisposable {
	cd := &CompositeDisposable{}
	for _, r := range resources {
		cd.Add(r)
	}
	return cd
}

// Add 添加可释放资源；已释放时立即释放新资源
func (cd *CompositeDisposable) Add(disposable Disposable) {
	if disposable == nil {
		return
	}

	cd.mu.Lock()
	if cd.disposed {
		cd.mu.Unlock()
		disposable.Dispose()
		return
	}
	cd.resources = append(cd.resources, disposable)
	cd.mu.Unlock()
}

// Dispose 按添加顺序释放所有资源
func (cd *CompositeDisposable) Dispose() {
	cd.mu.Lock()
	if cd.disposed {
		cd.mu.Unlock()
		return
	}
	cd.disposed = true
	resources := cd.resources
	cd.resources = nil
	cd.mu.Unlock()

	// 在锁外释放，资源的释放动作可能回调到这里
	for _, resource := range resources {
		resource.Dispose()
	}
}

// IsDisposed 检查是否已释放
func (cd *CompositeDisposable) IsDisposed() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.disposed
}

// Len 返回尚未释放的资源数量
func (cd *CompositeDisposable) Len() int {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return len(cd.resources)
}
