// Prometheus metrics for rxcore
// 订阅与调度的Prometheus指标，以及带监控的调度器包装器
package rxcore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
// 指标定义
// ============================================================================

// Metrics 订阅和调度相关的Prometheus指标
//
// 所有方法对nil接收者安全，未配置指标时调用方无需判断。
type Metrics struct {
	activeSubscriptions *prometheus.GaugeVec
	subscriptionsTotal  *prometheus.CounterVec
	workScheduled       *prometheus.CounterVec
	workCompleted       *prometheus.CounterVec
	workPanics          *prometheus.CounterVec
	workDuration        *prometheus.HistogramVec
}

// NewMetrics 创建指标，namespace为空时使用"rxcore"
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "rxcore"
	}

	return &Metrics{
		activeSubscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions_active",
			Help:      "Current number of active subscriptions per observable.",
		}, []string{"observable"}),
		subscriptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Total number of subscriptions per observable.",
		}, []string{"observable"}),
		workScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_scheduled_total",
			Help:      "Total number of work units submitted to a scheduler.",
		}, []string{"scheduler"}),
		workCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_completed_total",
			Help:      "Total number of work units that returned normally.",
		}, []string{"scheduler"}),
		workPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_panics_total",
			Help:      "Total number of work units that panicked.",
		}, []string{"scheduler"}),
		workDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "work_duration_seconds",
			Help:      "Execution time of scheduled work units.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scheduler"}),
	}
}

// Collectors 返回所有收集器
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.activeSubscriptions,
		m.subscriptionsTotal,
		m.workScheduled,
		m.workCompleted,
		m.workPanics,
		m.workDuration,
	}
}

// Register 将所有收集器注册到reg，已注册的收集器不视为错误
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var errs []error
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Metrics) subscribed(observable string) {
	if m == nil {
		return
	}
	m.activeSubscriptions.WithLabelValues(observable).Inc()
	m.subscriptionsTotal.WithLabelValues(observable).Inc()
}

func (m *Metrics) unsubscribed(observable string) {
	if m == nil {
		return
	}
	m.activeSubscriptions.WithLabelValues(observable).Dec()
}

// ============================================================================
// 带监控的调度器
// ============================================================================

// monitoredScheduler 带监控的调度器包装器
type monitoredScheduler struct {
	scheduler Scheduler
	name      string
	metrics   *Metrics
}

// NewMonitoredScheduler 创建带监控的调度器
//
// 任务中的panic会被计数后重新抛出，不会被吞掉。
func NewMonitoredScheduler(scheduler Scheduler, name string, metrics *Metrics) Scheduler {
	if scheduler == nil {
		scheduler = DefaultScheduler
	}
	if name == "" {
		name = "default"
	}
	return &monitoredScheduler{
		scheduler: scheduler,
		name:      name,
		metrics:   metrics,
	}
}

// Schedule 调度任务并记录指标
func (s *monitoredScheduler) Schedule(action func()) Disposable {
	return s.scheduler.Schedule(s.wrap(action))
}

// ScheduleWithContext 带上下文调度任务并记录指标
func (s *monitoredScheduler) ScheduleWithContext(ctx context.Context, action func()) Disposable {
	return s.scheduler.ScheduleWithContext(ctx, s.wrap(action))
}

func (s *monitoredScheduler) wrap(action func()) func() {
	if s.metrics == nil {
		return action
	}

	s.metrics.workScheduled.WithLabelValues(s.name).Inc()
	return func() {
		start := time.Now()
		defer func() {
			s.metrics.workDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
			if r := recover(); r != nil {
				s.metrics.workPanics.WithLabelValues(s.name).Inc()
				panic(r)
			}
			s.metrics.workCompleted.WithLabelValues(s.name).Inc()
		}()

		action()
	}
}
