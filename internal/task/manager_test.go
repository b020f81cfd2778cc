package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestManager_Start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mockLogger := logger.NewMockLogger()
	mockLogger.On("Debug", mock.Anything, mock.Anything).Return()

	mgr := NewManager(ctx, mockLogger)

	err := mgr.Start("testTask", func(ctx context.Context) bool {
		<-ctx.Done()
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.TaskCount())

	// cancel the parent context to stop the task
	cancel()

	assert.Eventually(t, func() bool { return mgr.TaskCount() == 0 }, time.Second, 5*time.Millisecond)
	mockLogger.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
}

func TestManager_StartEndsWhenFuncReturnsFalse(t *testing.T) {
	mgr := NewManager(context.Background(), logger.NewNop())

	var calls atomic.Int32
	require.NoError(t, mgr.Start("countdown", func(context.Context) bool {
		return calls.Add(1) < 3
	}))

	assert.Eventually(t, func() bool { return mgr.TaskCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestManager_PanicIsRecovered(t *testing.T) {
	mockLogger := logger.NewMockLogger()
	mockLogger.On("Debug", mock.Anything, mock.Anything).Return()
	mockLogger.On("Error", "panic in task", mock.Anything).Return().Once()

	mgr := NewManager(context.Background(), mockLogger)
	require.NoError(t, mgr.Start("boom", func(context.Context) bool {
		panic("boom")
	}))

	mgr.Wait()
	assert.Equal(t, 0, mgr.TaskCount())
	mockLogger.AssertExpectations(t)
}

func TestManager_StartInterval(t *testing.T) {
	mgr := NewManager(context.Background(), logger.NewNop())

	var ticks atomic.Int32
	err := mgr.StartInterval("testInterval", func(context.Context) bool {
		ticks.Add(1)
		return true
	}, 10*time.Millisecond, true)
	require.NoError(t, err)

	// runNow executes immediately, ticks follow
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, mgr.TaskCount())

	err = mgr.StartInterval("testInterval", func(context.Context) bool { return true }, time.Second, false)
	require.Error(t, err)

	mgr.Stop()
	mgr.Wait()
	assert.Equal(t, 0, mgr.TaskCount())

	require.Error(t, mgr.StopInterval("testInterval"))
}

func TestManager_StartIntervalInvalid(t *testing.T) {
	mgr := NewManager(context.Background(), logger.NewNop())

	require.Error(t, mgr.StartInterval("zero", func(context.Context) bool { return true }, 0, false))
	require.Error(t, mgr.StopInterval("zero"))
}

func TestManager_StopAndRestart(t *testing.T) {
	mgr := NewManager(context.Background(), logger.NewNop())

	blocking := func(ctx context.Context) bool {
		<-ctx.Done()
		return false
	}

	require.NoError(t, mgr.Start("first", blocking))
	mgr.Stop()
	require.ErrorIs(t, mgr.Start("rejected", blocking), ErrStopped)

	mgr.Wait()
	assert.Equal(t, 0, mgr.TaskCount())

	// Wait re-arms the manager
	require.NoError(t, mgr.Start("second", blocking))
	assert.Equal(t, 1, mgr.TaskCount())
	mgr.Stop()
	mgr.Wait()
	assert.Equal(t, 0, mgr.TaskCount())
}
