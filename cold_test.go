package rxcore_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xinjiayu/rxcore"
	"github.com/xinjiayu/rxcore/rxtest"
)

func TestCold(t *testing.T) {
	t.Run("每个订阅者得到独立的执行", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		var invocations atomic.Int32

		cold := rxcore.NewCold[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			invocations.Add(1)
			count := 0
			count++
			sink.OnNext(count)
			sink.OnCompleted()
		}, scheduler)

		a := rxtest.NewRecorder[int]()
		_, err := cold.Subscribe(a)
		require.NoError(t, err)
		assert.Equal(t, 1, scheduler.Flush())

		b := rxtest.NewRecorder[int]()
		_, err = cold.Subscribe(b)
		require.NoError(t, err)
		assert.Equal(t, 1, scheduler.Flush())

		assert.Equal(t, []int{1}, a.Values())
		assert.Equal(t, []int{1}, b.Values())
		assert.True(t, a.Completed())
		assert.True(t, b.Completed())
		assert.Equal(t, int32(2), invocations.Load())
	})

	t.Run("订阅返回时生产者尚未执行", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		cold := rxcore.NewCold[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			sink.OnNext(1)
		}, scheduler)

		r := rxtest.NewRecorder[int]()
		_, err := cold.Subscribe(r)
		require.NoError(t, err)
		assert.Empty(t, r.Notifications())
		assert.Equal(t, 1, scheduler.Pending())
	})

	t.Run("执行前释放则生产者不会运行", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		var invocations atomic.Int32
		cold := rxcore.NewCold[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			invocations.Add(1)
		}, scheduler)

		sub, err := cold.Subscribe(rxtest.NewRecorder[int]())
		require.NoError(t, err)
		sub.Dispose()
		assert.True(t, sub.IsDisposed())

		assert.Equal(t, 0, scheduler.Flush())
		assert.Equal(t, int32(0), invocations.Load())
	})

	t.Run("释放后取消上下文并断开观察者", func(t *testing.T) {
		started := make(chan rxcore.Observer[int], 1)
		stopped := make(chan struct{})

		cold := rxcore.NewCold[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			started <- sink
			<-ctx.Done()
			close(stopped)
		}, rxcore.NewThreadScheduler)

		r := rxtest.NewRecorder[int]()
		sub, err := cold.Subscribe(r)
		require.NoError(t, err)

		var sink rxcore.Observer[int]
		select {
		case sink = <-started:
		case <-time.After(time.Second):
			t.Fatal("work did not start")
		}

		sink.OnNext(1)
		sub.Dispose()

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("work context was not cancelled")
		}

		sink.OnNext(2)
		assert.Equal(t, []int{1}, r.Values())
	})

	t.Run("通过调度器接口提交任务", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		scheduler := rxcore.NewMockScheduler(ctrl)

		var captured func()
		scheduler.EXPECT().
			ScheduleWithContext(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, action func()) rxcore.Disposable {
				captured = action
				return rxcore.EmptyDisposable()
			}).
			Times(1)

		cold := rxcore.NewCold[string](func(ctx context.Context, sink rxcore.Observer[string]) {
			sink.OnNext("hello")
			sink.OnCompleted()
		}, scheduler)

		r := rxtest.NewRecorder[string]()
		_, err := cold.Subscribe(r)
		require.NoError(t, err)
		require.NotNil(t, captured)

		captured()
		assert.Equal(t, []string{"hello"}, r.Values())
		assert.True(t, r.Completed())
	})

	t.Run("未指定调度器时使用选项中的调度器", func(t *testing.T) {
		scheduler := rxcore.NewTestScheduler()
		cold := rxcore.NewCold[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			sink.OnCompleted()
		}, nil, rxcore.WithScheduler(scheduler))

		r := rxtest.NewRecorder[int]()
		_, err := cold.Subscribe(r)
		require.NoError(t, err)
		assert.Equal(t, 1, scheduler.Pending())

		scheduler.Flush()
		assert.True(t, r.Completed())
	})

	t.Run("默认调度器异步执行", func(t *testing.T) {
		cold := rxcore.NewCold[int](func(ctx context.Context, sink rxcore.Observer[int]) {
			sink.OnNext(7)
			sink.OnCompleted()
		}, nil)

		r := rxtest.NewRecorder[int]()
		_, err := cold.Subscribe(r)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, r.Wait(ctx))
		assert.Equal(t, []int{7}, r.Values())
	})

	t.Run("nil观察者", func(t *testing.T) {
		cold := rxcore.NewCold[int](func(context.Context, rxcore.Observer[int]) {}, rxcore.ImmediateScheduler)
		sub, err := cold.Subscribe(nil)
		assert.ErrorIs(t, err, rxcore.ErrNilObserver)
		assert.Nil(t, sub)
	})
}
