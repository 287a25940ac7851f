// Work-stealing scheduler for rxcore
// 工作窃取调度器：每个worker有自己的本地队列，空闲的worker从其他worker的队列中窃取任务
package rxcore

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	localQueueSize = 256
	maxIdleBackoff = time.Millisecond
)

// ============================================================================
// 工作窃取调度器
// ============================================================================

// WorkStealingScheduler 工作窃取调度器
//
// 任务按轮询分配到worker的本地队列。长时间运行的任务（例如热序列的生产者）
// 占住一个worker时，排在它后面的任务会被其他空闲worker窃取执行。
// 本地队列已满时任务在新的goroutine中执行，Schedule不会阻塞。
type WorkStealingScheduler struct {
	workers    []*stealingWorker
	roundRobin atomic.Uint64
	stop       chan struct{}
	wg         sync.WaitGroup
	disposed   atomic.Bool
	logger     *slog.Logger
}

// NewWorkStealingScheduler 创建并启动工作窃取调度器，workers<=0时使用CPU数量
func NewWorkStealingScheduler(workers int, options ...Option) *WorkStealingScheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	config := newConfig(options)

	s := &WorkStealingScheduler{
		workers: make([]*stealingWorker, workers),
		stop:    make(chan struct{}),
		logger:  config.Logger,
	}
	for i := range s.workers {
		s.workers[i] = &stealingWorker{
			id:        i,
			scheduler: s,
			queue:     make(chan *scheduledAction, localQueueSize),
		}
	}

	s.wg.Add(workers)
	for _, w := range s.workers {
		go w.run()
	}
	return s
}

// Schedule 把任务分配给下一个worker
func (s *WorkStealingScheduler) Schedule(action func()) Disposable {
	task := newScheduledAction(action)
	if s.disposed.Load() {
		task.Dispose()
		return task
	}

	index := (s.roundRobin.Add(1) - 1) % uint64(len(s.workers))
	select {
	case s.workers[index].queue <- task:
	default:
		// 本地队列已满
		go s.execute(task)
	}
	return task
}

// ScheduleWithContext 带上下文调度任务
func (s *WorkStealingScheduler) ScheduleWithContext(ctx context.Context, action func()) Disposable {
	return s.Schedule(withContext(ctx, action))
}

// Workers 返回worker数量
func (s *WorkStealingScheduler) Workers() int {
	return len(s.workers)
}

// Stats 返回每个worker的统计信息
func (s *WorkStealingScheduler) Stats() []WorkerStats {
	stats := make([]WorkerStats, len(s.workers))
	for i, w := range s.workers {
		stats[i] = w.stats()
	}
	return stats
}

// Dispose 停止所有worker并等待它们退出；队列中未执行的任务被丢弃
func (s *WorkStealingScheduler) Dispose() {
	if s.disposed.CompareAndSwap(false, true) {
		close(s.stop)
		s.wg.Wait()
	}
}

// IsDisposed 检查是否已释放
func (s *WorkStealingScheduler) IsDisposed() bool {
	return s.disposed.Load()
}

// execute 执行任务；任务中的panic被记录后吞掉，不让worker退出
func (s *WorkStealingScheduler) execute(task *scheduledAction) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			s.logger.Error("rxcore: scheduled work panicked", "panic", r)
		}
	}()

	task.run()
	return false
}

// ============================================================================
// 工作窃取Worker
// ============================================================================

// WorkerStats Worker统计信息
type WorkerStats struct {
	ID            int
	ExecutedTasks int64
	StolenTasks   int64 // 从其他worker窃取的任务数
	LostTasks     int64 // 被其他worker窃取的任务数
	Panics        int64
	QueueSize     int
}

type stealingWorker struct {
	id        int
	scheduler *WorkStealingScheduler
	queue     chan *scheduledAction

	executed atomic.Int64
	stolen   atomic.Int64
	lost     atomic.Int64
	panics   atomic.Int64
}

func (w *stealingWorker) run() {
	defer w.scheduler.wg.Done()

	backoff := 10 * time.Microsecond
	timer := time.NewTimer(backoff)
	defer timer.Stop()

	for {
		select {
		case <-w.scheduler.stop:
			return
		case task := <-w.queue:
			w.execute(task)
			backoff = 10 * time.Microsecond
			continue
		default:
		}

		if task := w.steal(); task != nil {
			w.stolen.Add(1)
			w.execute(task)
			backoff = 10 * time.Microsecond
			continue
		}

		// 没有任务时等待本地队列，并以指数退避重试窃取
		timer.Reset(backoff)
		select {
		case <-w.scheduler.stop:
			return
		case task := <-w.queue:
			timer.Stop()
			w.execute(task)
			backoff = 10 * time.Microsecond
		case <-timer.C:
			backoff = min(backoff*2, maxIdleBackoff)
		}
	}
}

func (w *stealingWorker) execute(task *scheduledAction) {
	if w.scheduler.execute(task) {
		w.panics.Add(1)
	}
	w.executed.Add(1)
}

// steal 从其他worker的本地队列中取一个任务
func (w *stealingWorker) steal() *scheduledAction {
	workers := w.scheduler.workers
	for i := 1; i < len(workers); i++ {
		victim := workers[(w.id+i)%len(workers)]
		select {
		case task := <-victim.queue:
			victim.lost.Add(1)
			return task
		default:
		}
	}
	return nil
}

func (w *stealingWorker) stats() WorkerStats {
	return WorkerStats{
		ID:            w.id,
		ExecutedTasks: w.executed.Load(),
		StolenTasks:   w.stolen.Load(),
		LostTasks:     w.lost.Load(),
		Panics:        w.panics.Load(),
		QueueSize:     len(w.queue),
	}
}
