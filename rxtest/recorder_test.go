package rxtest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xinjiayu/rxcore"
	"github.com/xinjiayu/rxcore/rxtest"
)

func TestRecorderRecordsInOrder(t *testing.T) {
	r := rxtest.NewRecorder[int]()
	r.OnNext(1)
	r.OnNext(2)
	r.OnCompleted()

	assert.Equal(t, []int{1, 2}, r.Values())
	assert.True(t, r.Completed())
	assert.NoError(t, r.Err())

	kinds := []rxcore.Kind{}
	for _, n := range r.Notifications() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []rxcore.Kind{rxcore.KindNext, rxcore.KindNext, rxcore.KindCompleted}, kinds)

	select {
	case <-r.Done():
	default:
		t.Fatal("recorder should be done after OnCompleted")
	}
}

func TestRecorderError(t *testing.T) {
	boom := errors.New("boom")
	r := rxtest.NewRecorder[string]()
	r.OnError(boom)
	r.OnError(errors.New("second"))

	assert.ErrorIs(t, r.Err(), boom)
	assert.False(t, r.Completed())
	require.NoError(t, r.Wait(context.Background()))
}

func TestRecorderWaitValues(t *testing.T) {
	r := rxtest.NewRecorder[int]()
	go func() {
		for i := 1; i <= 3; i++ {
			r.OnNext(i)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	values, err := r.WaitValues(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, values)
}

func TestRecorderWaitTimesOut(t *testing.T) {
	r := rxtest.NewRecorder[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)

	values, err := r.WaitValues(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, values)
}

func TestRecorderReset(t *testing.T) {
	r := rxtest.NewRecorder[int]()
	r.OnNext(1)
	r.Reset()
	assert.Empty(t, r.Values())
}
