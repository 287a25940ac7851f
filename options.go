// Configuration options for rxcore
// 配置选项
package rxcore

import (
	"log/slog"
)

// Option 配置选项接口
type Option interface {
	Apply(config *Config)
}

// Config 配置结构
type Config struct {
	// Name 出现在日志、指标标签和错误信息中的名称
	Name string
	// Logger 结构化日志记录器
	Logger *slog.Logger
	// Metrics 可选的Prometheus指标
	Metrics *Metrics
	// ReplayBufferSize 热序列重放缓冲区大小，<=0表示不限制
	ReplayBufferSize int
	// Scheduler 工厂函数使用的调度器，nil表示DefaultScheduler
	Scheduler Scheduler
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Name:   "observable",
		Logger: slog.Default(),
	}
}

func newConfig(options []Option) *Config {
	config := DefaultConfig()
	for _, opt := range options {
		if opt != nil {
			opt.Apply(config)
		}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return config
}

func resolveScheduler(scheduler Scheduler, config *Config) Scheduler {
	if scheduler != nil {
		return scheduler
	}
	if config.Scheduler != nil {
		return config.Scheduler
	}
	return DefaultScheduler
}

// optionFunc 函数形式的选项
type optionFunc func(config *Config)

// Apply 应用选项
func (f optionFunc) Apply(config *Config) {
	f(config)
}

// WithName 设置名称
func WithName(name string) Option {
	return optionFunc(func(config *Config) {
		if name != "" {
			config.Name = name
		}
	})
}

// WithLogger 设置日志记录器
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(config *Config) {
		config.Logger = logger
	})
}

// WithMetrics 设置Prometheus指标
func WithMetrics(metrics *Metrics) Option {
	return optionFunc(func(config *Config) {
		config.Metrics = metrics
	})
}

// WithReplayBufferSize 设置重放缓冲区大小
func WithReplayBufferSize(size int) Option {
	return optionFunc(func(config *Config) {
		config.ReplayBufferSize = size
	})
}

// WithScheduler 设置工厂函数使用的调度器
func WithScheduler(scheduler Scheduler) Option {
	return optionFunc(func(config *Config) {
		config.Scheduler = scheduler
	})
}
