// System load sampler for rxstream
// 系统负载采样：按固定间隔读取CPU和内存使用率，作为热序列的生产者
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/xinjiayu/rxcore"
)

// Sample 一次系统负载采样
type Sample struct {
	Seq        uint64    `json:"seq"`
	Time       time.Time `json:"time"`
	CPUPercent float64   `json:"cpu_percent"`
	MemPercent float64   `json:"mem_percent"`
}

// Sampler 系统负载采样器
type Sampler struct {
	interval time.Duration
	logger   *slog.Logger

	readCPU func(ctx context.Context) (float64, error)
	readMem func(ctx context.Context) (float64, error)
}

// NewSampler 创建使用gopsutil读取系统负载的采样器
func NewSampler(interval time.Duration, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		interval: interval,
		logger:   logger,
		readCPU:  cpuPercent,
		readMem:  memPercent,
	}
}

// Work 每个间隔推送一次采样，直到ctx结束后发送完成信号
//
// 单次读取失败只记录日志，不会终止序列。
func (s *Sampler) Work(ctx context.Context, sink rxcore.Observer[Sample]) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			sink.OnCompleted()
			return
		case now := <-ticker.C:
			sample, err := s.read(ctx, now)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("rxstream: sample failed", "error", err)
				}
				continue
			}
			seq++
			sample.Seq = seq
			sink.OnNext(sample)
		}
	}
}

func (s *Sampler) read(ctx context.Context, now time.Time) (Sample, error) {
	cpuUsage, err := s.readCPU(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("read cpu: %w", err)
	}
	memUsage, err := s.readMem(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("read memory: %w", err)
	}
	return Sample{
		Time:       now,
		CPUPercent: cpuUsage,
		MemPercent: memUsage,
	}, nil
}

func cpuPercent(ctx context.Context) (float64, error) {
	// interval为0时与上一次调用比较
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errors.New("no cpu stats")
	}
	return percents[0], nil
}

func memPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
