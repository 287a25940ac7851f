package rxcore_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xinjiayu/rxcore"
)

func TestDisposable(t *testing.T) {
	t.Run("多次释放只执行一次", func(t *testing.T) {
		var calls atomic.Int32
		d := rxcore.NewDisposable(func() { calls.Add(1) })

		assert.False(t, d.IsDisposed())
		d.Dispose()
		d.Dispose()
		assert.True(t, d.IsDisposed())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("并发释放只执行一次", func(t *testing.T) {
		var calls atomic.Int32
		d := rxcore.NewDisposable(func() { calls.Add(1) })

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.Dispose()
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("空资源", func(t *testing.T) {
		d := rxcore.EmptyDisposable()
		d.Dispose()
		assert.True(t, d.IsDisposed())
	})
}

func TestCompositeDisposable(t *testing.T) {
	t.Run("按添加顺序释放", func(t *testing.T) {
		var order []int
		cd := rxcore.NewCompositeDisposable(
			rxcore.NewDisposable(func() { order = append(order, 1) }),
			rxcore.NewDisposable(func() { order = append(order, 2) }),
		)
		cd.Add(rxcore.NewDisposable(func() { order = append(order, 3) }))
		cd.Add(nil)
		assert.Equal(t, 3, cd.Len())

		cd.Dispose()
		cd.Dispose()
		assert.Equal(t, []int{1, 2, 3}, order)
		assert.True(t, cd.IsDisposed())
		assert.Equal(t, 0, cd.Len())
	})

	t.Run("释放后添加的资源立即释放", func(t *testing.T) {
		cd := rxcore.NewCompositeDisposable()
		cd.Dispose()

		d := rxcore.NewDisposable(nil)
		cd.Add(d)
		assert.True(t, d.IsDisposed())
		assert.Equal(t, 0, cd.Len())
	})
}
