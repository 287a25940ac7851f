// Scheduler implementations for rxcore
// 实现调度器系统，支持不同的执行策略
package rxcore

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// scheduledAction 已提交但可能尚未执行的任务，Dispose在执行前取消它
type scheduledAction struct {
	action    func()
	cancelled atomic.Bool
}

func newScheduledAction(action func()) *scheduledAction {
	return &scheduledAction{action: action}
}

func (a *scheduledAction) run() {
	if a.cancelled.Load() {
		return
	}
	a.action()
}

// Dispose 取消任务；任务已开始执行时不产生影响
func (a *scheduledAction) Dispose() {
	a.cancelled.Store(true)
}

// IsDisposed 检查任务是否已取消
func (a *scheduledAction) IsDisposed() bool {
	return a.cancelled.Load()
}

// withContext 包装任务，上下文结束后不再执行
func withContext(ctx context.Context, action func()) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		action()
	}
}

// ============================================================================
// 立即调度器 - Immediate Scheduler
// ============================================================================

// immediateScheduler 立即在当前goroutine中执行任务
type immediateScheduler struct{}

// NewImmediateScheduler 创建立即调度器
func NewImmediateScheduler() Scheduler {
	return &immediateScheduler{}
}

// Schedule 立即执行任务；任务已执行完毕，返回的Disposable没有作用
func (s *immediateScheduler) Schedule(action func()) Disposable {
	action()
	return EmptyDisposable()
}

// ScheduleWithContext 上下文未结束时立即执行任务
func (s *immediateScheduler) ScheduleWithContext(ctx context.Context, action func()) Disposable {
	return s.Schedule(withContext(ctx, action))
}

// ============================================================================
// 当前线程调度器 - Current Thread Scheduler
// ============================================================================

// currentThreadScheduler 按提交顺序串行执行任务
type currentThreadScheduler struct {
	mu         sync.Mutex
	queue      []*scheduledAction
	processing bool
}

// NewCurrentThreadScheduler 创建当前线程调度器
func NewCurrentThreadScheduler() Scheduler {
	return &currentThreadScheduler{}
}

// Schedule 将任务加入队列
func (s *currentThreadScheduler) Schedule(action func()) Disposable {
	task := newScheduledAction(action)

	s.mu.Lock()
	s.queue = append(s.queue, task)
	if !s.processing {
		s.processing = true
		go s.processQueue()
	}
	s.mu.Unlock()

	return task
}

// ScheduleWithContext 带上下文调度任务
func (s *currentThreadScheduler) ScheduleWithContext(ctx context.Context, action func()) Disposable {
	return s.Schedule(withContext(ctx, action))
}

// processQueue 处理队列中的任务
func (s *currentThreadScheduler) processQueue() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.processing = false
			s.mu.Unlock()
			return
		}

		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task.run()
	}
}

// ============================================================================
// 新线程调度器 - New Thread Scheduler
// ============================================================================

// newThreadScheduler 为每个任务创建新的goroutine
type newThreadScheduler struct{}

// NewNewThreadScheduler 创建新线程调度器
func NewNewThreadScheduler() Scheduler {
	return &newThreadScheduler{}
}

// Schedule 在新goroutine中执行任务
func (s *newThreadScheduler) Schedule(action func()) Disposable {
	task := newScheduledAction(action)
	go task.run()
	return task
}

// ScheduleWithContext 带上下文在新goroutine中执行任务
func (s *newThreadScheduler) ScheduleWithContext(ctx context.Context, action func()) Disposable {
	return s.Schedule(withContext(ctx, action))
}

// ============================================================================
// 线程池调度器 - Thread Pool Scheduler
// ============================================================================

// ThreadPoolScheduler 使用固定大小的goroutine池执行任务
//
// 队列容量为worker数量的2倍，溢出的任务不排队等待。
type ThreadPoolScheduler struct {
	workers   int
	taskQueue chan *scheduledAction
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	disposed  atomic.Bool
}

// NewThreadPoolScheduler 创建线程池调度器，workers<=0时使用CPU数量
func NewThreadPoolScheduler(workers int) *ThreadPoolScheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	scheduler := &ThreadPoolScheduler{
		workers:   workers,
		taskQueue: make(chan *scheduledAction, workers*2), // 缓冲区大小为worker数量的2倍
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < workers; i++ {
		scheduler.wg.Add(1)
		go scheduler.worker()
	}

	return scheduler
}

// Schedule 在线程池中执行任务，不会阻塞；队列已满时任务在新的goroutine中执行
func (s *ThreadPoolScheduler) Schedule(action func()) Disposable {
	task := newScheduledAction(action)
	if s.disposed.Load() {
		task.Dispose()
		return task
	}

	select {
	case s.taskQueue <- task:
	default:
		go task.run()
	}
	return task
}

// ScheduleWithContext 带上下文在线程池中执行任务
func (s *ThreadPoolScheduler) ScheduleWithContext(ctx context.Context, action func()) Disposable {
	return s.Schedule(withContext(ctx, action))
}

// Workers 返回worker数量
func (s *ThreadPoolScheduler) Workers() int {
	return s.workers
}

// worker 工作goroutine
func (s *ThreadPoolScheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case task := <-s.taskQueue:
			task.run()
		}
	}
}

// Dispose 停止所有worker并等待它们退出；队列中未执行的任务被丢弃
func (s *ThreadPoolScheduler) Dispose() {
	if s.disposed.CompareAndSwap(false, true) {
		s.cancel()
		s.wg.Wait()
	}
}

// IsDisposed 检查是否已释放
func (s *ThreadPoolScheduler) IsDisposed() bool {
	return s.disposed.Load()
}

// ============================================================================
// 测试调度器 - Test Scheduler
// ============================================================================

// TestScheduler 用于测试的调度器，任务只在调用Step或Flush时执行
type TestScheduler struct {
	mu       sync.Mutex
	queue    []*scheduledAction
	disposed bool
}

// NewTestScheduler 创建测试调度器
func NewTestScheduler() *TestScheduler {
	return &TestScheduler{}
}

// Schedule 将任务加入队列
func (s *TestScheduler) Schedule(action func()) Disposable {
	task := newScheduledAction(action)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		task.Dispose()
		return task
	}
	s.queue = append(s.queue, task)
	return task
}

// ScheduleWithContext 带上下文调度任务
func (s *TestScheduler) ScheduleWithContext(ctx context.Context, action func()) Disposable {
	return s.Schedule(withContext(ctx, action))
}

// Step 执行下一个未取消的任务，没有任务时返回false
func (s *TestScheduler) Step() bool {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return false
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if task.IsDisposed() {
			continue
		}

		// 解锁后执行，允许任务调度新任务
		task.run()
		return true
	}
}

// Flush 执行所有任务（包括执行过程中新提交的任务），返回执行的数量
func (s *TestScheduler) Flush() int {
	count := 0
	for s.Step() {
		count++
	}
	return count
}

// Pending 返回等待执行且未取消的任务数量
func (s *TestScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, task := range s.queue {
		if !task.IsDisposed() {
			n++
		}
	}
	return n
}

// Dispose 释放测试调度器，丢弃所有等待的任务
func (s *TestScheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true
	s.queue = nil
}

// ============================================================================
// 默认调度器
// ============================================================================

var (
	// DefaultScheduler 默认调度器
	DefaultScheduler Scheduler = NewNewThreadScheduler()

	// ImmediateScheduler 立即调度器实例
	ImmediateScheduler Scheduler = NewImmediateScheduler()

	// CurrentThreadScheduler 当前线程调度器实例
	CurrentThreadScheduler Scheduler = NewCurrentThreadScheduler()

	// NewThreadScheduler 新线程调度器实例
	NewThreadScheduler Scheduler = NewNewThreadScheduler()
)
