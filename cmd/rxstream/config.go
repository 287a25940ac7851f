// Command-line and file configuration for rxstream
// 命令行参数与YAML配置文件：文件覆盖默认值，显式给出的参数覆盖文件
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认配置
const (
	DefaultAddr            = ":8080"
	DefaultInterval        = time.Second
	DefaultReplay          = 60
	DefaultColdInterval    = 100 * time.Millisecond
	DefaultShutdownTimeout = 5 * time.Second
)

// 配置校验错误
var (
	ErrEmptyAddr       = errors.New("listen address must not be empty")
	ErrInvalidInterval = errors.New("sample interval must be positive")
	ErrInvalidReplay   = errors.New("replay size must not be negative")
	ErrInvalidTimeout  = errors.New("shutdown timeout must be positive")
	ErrInvalidWorkers  = errors.New("worker count must not be negative")
)

// Config rxstream运行配置
type Config struct {
	Addr            string        `yaml:"addr"`
	Interval        time.Duration `yaml:"interval"`         // 采样间隔
	Replay          int           `yaml:"replay"`           // 热序列重放数量，0表示不限制
	ColdInterval    time.Duration `yaml:"cold_interval"`    // 冷计数器相邻两个值之间的间隔
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // 优雅关闭超时
	Workers         int           `yaml:"workers"`          // 冷序列工作窃取调度器的worker数量，0表示CPU数量
	Debug           bool          `yaml:"debug"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:            DefaultAddr,
		Interval:        DefaultInterval,
		Replay:          DefaultReplay,
		ColdInterval:    DefaultColdInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, ErrEmptyAddr)
	}
	if c.Interval <= 0 {
		errs = append(errs, ErrInvalidInterval)
	}
	if c.Replay < 0 {
		errs = append(errs, ErrInvalidReplay)
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if c.Workers < 0 {
		errs = append(errs, ErrInvalidWorkers)
	}
	return errors.Join(errs...)
}

// Load 读取YAML配置文件，文件中没有出现的字段保留默认值
func Load(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// SetupConfig 解析并校验配置
func SetupConfig(w io.Writer, args []string) (Config, error) {
	config, err := Parse(w, args)
	if err != nil {
		return config, err
	}
	if err = config.Validate(); err != nil {
		return config, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Parse 解析命令行参数
func Parse(w io.Writer, args []string) (Config, error) {
	var path string
	flags := DefaultConfig()

	fs := flag.NewFlagSet("rxstream", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.StringVar(&path, "config", "", "YAML config file path")
	fs.StringVar(&flags.Addr, "addr", flags.Addr, "listen address")
	fs.DurationVar(&flags.Interval, "interval", flags.Interval, "sample interval")
	fs.IntVar(&flags.Replay, "replay", flags.Replay, "number of samples replayed to late subscribers, 0 for all")
	fs.BoolVar(&flags.Debug, "debug", flags.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("failed to parse args: %w", err)
	}
	if fs.NArg() != 0 {
		return Config{}, errors.New("some args are not parsed")
	}

	config := DefaultConfig()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		config = loaded
	}

	// 只有显式给出的参数覆盖配置文件
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			config.Addr = flags.Addr
		case "interval":
			config.Interval = flags.Interval
		case "replay":
			config.Replay = flags.Replay
		case "debug":
			config.Debug = flags.Debug
		}
	})

	return config, nil
}
