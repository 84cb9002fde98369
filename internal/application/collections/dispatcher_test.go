package collections_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/memory"
)

type mockRunner struct{ mock.Mock }

func (m *mockRunner) RunOnce(ctx context.Context, now time.Time) (collections.RunSummary, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(collections.RunSummary), args.Error(1)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) LineProcessed(status entity.LogStatus, action entity.CollectionAction) {
	m.Called(status, action)
}

func (m *mockRecorder) RunFinished(outcome collections.TaskStatus, d time.Duration, runAt time.Time) {
	m.Called(outcome, d, runAt)
}

func newDispatcher(runner collections.Runner, rec collections.Recorder, lock collections.RunLock) (*collections.Dispatcher, *memory.TaskStore) {
	store := memory.NewTaskStore(time.Hour)
	if lock == nil {
		lock = memory.NewLock()
	}
	d := collections.NewDispatcher(collections.DispatcherDeps{
		Runner:   runner,
		Queue:    memory.NewQueue(4),
		Store:    store,
		Lock:     lock,
		Recorder: rec,
		Clock:    func() time.Time { return runAt },
		NewID:    func() string { return "task-1" },
	})
	return d, store
}

func TestDispatcher_EnqueueDevuelvePending(t *testing.T) {
	runner := new(mockRunner)
	d, _ := newDispatcher(runner, nil, nil)

	task, err := d.Enqueue(context.Background(), collections.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, collections.TaskPending, task.Status)

	got, err := d.Task(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, collections.TaskPending, got.Status)
	runner.AssertNotCalled(t, "RunOnce", mock.Anything, mock.Anything)
}

func TestDispatcher_TaskInexistente(t *testing.T) {
	d, _ := newDispatcher(new(mockRunner), nil, nil)
	_, err := d.Task(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDispatcher_RunScheduledExitosa(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunOnce", mock.Anything, runAt).Return(collections.RunSummary{RunAt: runAt, Processed: 3, Failed: 1}, nil).Once()
	rec := new(mockRecorder)
	rec.On("RunFinished", collections.TaskSuccess, mock.AnythingOfType("time.Duration"), runAt).Once()

	d, store := newDispatcher(runner, rec, nil)
	task := d.RunScheduled(context.Background())

	assert.Equal(t, collections.TaskSuccess, task.Status)
	assert.Equal(t, collections.SourceSchedule, task.Source)
	assert.Equal(t, 3, task.Processed)
	assert.Equal(t, 1, task.Failed)
	require.NotNil(t, task.FinishedAt)

	saved, err := store.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, collections.TaskSuccess, saved.Status)
	runner.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestDispatcher_ErrorDeCorridaQuedaFailed(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunOnce", mock.Anything, runAt).Return(collections.RunSummary{RunAt: runAt}, errors.New("db caída")).Once()

	d, _ := newDispatcher(runner, nil, nil)
	task := d.RunScheduled(context.Background())

	assert.Equal(t, collections.TaskFailed, task.Status)
	assert.Contains(t, task.Error, "db caída")
}

func TestDispatcher_LockTomadoQuedaSkipped(t *testing.T) {
	runner := new(mockRunner)
	lock := memory.NewLock()
	release, err := lock.TryAcquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	rec := new(mockRecorder)
	rec.On("RunFinished", collections.TaskSkipped, time.Duration(0), runAt).Once()

	d, _ := newDispatcher(runner, rec, lock)
	task := d.RunScheduled(context.Background())

	assert.Equal(t, collections.TaskSkipped, task.Status)
	runner.AssertNotCalled(t, "RunOnce", mock.Anything, mock.Anything)
	rec.AssertExpectations(t)
}

func TestDispatcher_ServeEjecutaLaCola(t *testing.T) {
	done := make(chan struct{})
	runner := new(mockRunner)
	runner.On("RunOnce", mock.Anything, runAt).
		Return(collections.RunSummary{RunAt: runAt, Processed: 1}, nil).
		Run(func(mock.Arguments) { close(done) }).
		Once()

	d, store := newDispatcher(runner, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		d.Serve(ctx, 2)
		close(served)
	}()

	task, err := d.Enqueue(ctx, collections.SourceManual)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la corrida encolada no se ejecutó")
	}
	require.Eventually(t, func() bool {
		got, _ := store.Get(context.Background(), task.ID)
		return got != nil && got.Status == collections.TaskSuccess
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve no terminó al cancelar el contexto")
	}
}

func TestToTaskResponse(t *testing.T) {
	fin := runAt.Add(time.Minute)
	resp := collections.ToTaskResponse(&collections.RunTask{
		ID: "t", Source: collections.SourceManual, Status: collections.TaskSuccess,
		EnqueuedAt: runAt, FinishedAt: &fin, RunAt: &runAt, Processed: 4,
	})
	assert.Equal(t, "t", resp.TaskID)
	assert.Equal(t, "manual", resp.Source)
	assert.Equal(t, "SUCCESS", resp.Status)
	assert.Equal(t, 4, resp.Processed)
	require.NotNil(t, resp.RunAt)
	assert.True(t, runAt.Equal(*resp.RunAt))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"run_at":`)
}
