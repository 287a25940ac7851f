package rxcore_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xinjiayu/rxcore"
	"github.com/xinjiayu/rxcore/rxtest"
)

// captureWork 返回把sink交给测试驱动的生产者函数
func captureWork[T any](invocations *atomic.Int32, sink *rxcore.Observer[T], ctx *context.Context) rxcore.Work[T] {
	return func(c context.Context, s rxcore.Observer[T]) {
		invocations.Add(1)
		*sink = s
		if ctx != nil {
			*ctx = c
		}
	}
}

func TestHot(t *testing.T) {
	t.Run("构造时调度而不是订阅时", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		var invocations atomic.Int32
		var sink rxcore.Observer[int]

		hot := rxcore.NewHot(captureWork(&invocations, &sink, nil), scheduler)
		defer hot.Dispose()
		assert.Equal(t, 1, scheduler.Pending())

		_, err := hot.Subscribe(rxtest.NewRecorder[int]())
		require.NoError(t, err)
		_, err = hot.Subscribe(rxtest.NewRecorder[int]())
		require.NoError(t, err)
		assert.Equal(t, 1, scheduler.Pending())

		scheduler.Flush()
		assert.Equal(t, int32(1), invocations.Load())
	})

	t.Run("后到的订阅者重放历史值然后接收实时值", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		var invocations atomic.Int32
		var sink rxcore.Observer[int]

		hot := rxcore.NewHot(captureWork(&invocations, &sink, nil), scheduler)
		defer hot.Dispose()

		a := rxtest.NewRecorder[int]()
		_, err := hot.Subscribe(a)
		require.NoError(t, err)

		scheduler.Flush()
		require.NotNil(t, sink)
		sink.OnNext(1)
		sink.OnNext(2)

		b := rxtest.NewRecorder[int]()
		_, err = hot.Subscribe(b)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, b.Values())

		sink.OnNext(3)
		sink.OnCompleted()

		assert.Equal(t, []int{1, 2, 3}, a.Values())
		assert.True(t, a.Completed())
		assert.Equal(t, []int{1, 2, 3}, b.Values())
		assert.True(t, b.Completed())
		assert.Equal(t, int32(1), invocations.Load())
	})

	t.Run("有界重放缓存", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		var invocations atomic.Int32
		var sink rxcore.Observer[int]

		hot := rxcore.NewHot(captureWork(&invocations, &sink, nil), scheduler, rxcore.WithReplayBufferSize(2))
		defer hot.Dispose()
		scheduler.Flush()

		for i := 1; i <= 5; i++ {
			sink.OnNext(i)
		}

		r := rxtest.NewRecorder[int]()
		_, err := hot.Subscribe(r)
		require.NoError(t, err)
		assert.Equal(t, []int{4, 5}, r.Values())
		assert.Equal(t, []int{4, 5}, hot.Subject().Values())
	})

	t.Run("释放后取消上下文并断开订阅者", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		var invocations atomic.Int32
		var sink rxcore.Observer[int]
		var workCtx context.Context

		hot := rxcore.NewHot(captureWork(&invocations, &sink, &workCtx), scheduler)
		scheduler.Flush()

		r := rxtest.NewRecorder[int]()
		_, err := hot.Subscribe(r)
		require.NoError(t, err)

		hot.Dispose()
		hot.Dispose()
		assert.True(t, hot.IsDisposed())
		assert.ErrorIs(t, workCtx.Err(), context.Canceled)

		sink.OnNext(1)
		assert.Empty(t, r.Values())

		_, err = hot.Subscribe(rxtest.NewRecorder[int]())
		assert.ErrorIs(t, err, rxcore.ErrDisposed)
	})

	t.Run("执行前释放则生产者不会运行", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		var invocations atomic.Int32
		var sink rxcore.Observer[int]

		hot := rxcore.NewHot(captureWork(&invocations, &sink, nil), scheduler)
		hot.Dispose()

		assert.Equal(t, 0, scheduler.Flush())
		assert.Equal(t, int32(0), invocations.Load())
	})

	t.Run("重放期间释放热序列后停止投递", func(t *testing.T) {
		hot := rxcore.NewHot[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			for i := 1; i <= 5; i++ {
				sink.OnNext(i)
			}
		}, rxcore.ImmediateScheduler)

		var got []int
		observer := rxcore.NewObserver(
			func(v int) {
				got = append(got, v)
				if v == 2 {
					hot.Dispose()
				}
			},
			nil,
			nil,
		)

		_, err := hot.Subscribe(observer)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got)
		assert.True(t, hot.IsDisposed())
	})

	t.Run("生产者在取消时推送的通知不会到达订阅者", func(t *testing.T) {
		exited := make(chan struct{})
		hot := rxcore.NewHot[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			defer close(exited)
			sink.OnNext(1)
			<-ctx.Done()
			sink.OnNext(2)
			sink.OnCompleted()
		}, rxcore.NewThreadScheduler)

		r := rxtest.NewRecorder[int]()
		_, err := hot.Subscribe(r)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err = r.WaitValues(ctx, 1)
		require.NoError(t, err)

		hot.Dispose()
		select {
		case <-exited:
		case <-ctx.Done():
			t.Fatal("work did not observe cancellation")
		}

		assert.Equal(t, []int{1}, r.Values())
		assert.False(t, r.Completed())
	})

	t.Run("生产者同步推送", func(t *testing.T) {
		hot := rxcore.NewHot[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			sink.OnNext(1)
			sink.OnNext(2)
			sink.OnNext(3)
			sink.OnCompleted()
		}, rxcore.ImmediateScheduler, rxcore.WithName("numbers"))

		r := rxtest.NewRecorder[int]()
		_, err := hot.Subscribe(r)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, r.Values())
		assert.True(t, r.Completed())
	})
}
