package memory

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain"
)

func TestTaskStore_ExpiraSegunTTL(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(150 * time.Millisecond)

	require.NoError(t, s.Save(ctx, &collections.RunTask{ID: "a", Status: collections.TaskPending}))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, collections.TaskPending, got.Status)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Save(ctx, &collections.RunTask{ID: "a", Status: collections.TaskSuccess}))
	time.Sleep(100 * time.Millisecond)
	got, err = s.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got, "cada Save renueva la vida de la entrada")
	assert.Equal(t, collections.TaskSuccess, got.Status)

	assert.Eventually(t, func() bool {
		got, err := s.Get(ctx, "a")
		return err == nil && got == nil
	}, time.Second, 20*time.Millisecond)
}

func TestTaskStore_Acotado(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(time.Hour)

	for i := 0; i < maxTasks+100; i++ {
		require.NoError(t, s.Save(ctx, &collections.RunTask{ID: strconv.Itoa(i)}))
	}
	assert.Equal(t, maxTasks, s.tasks.Len())

	old, err := s.Get(ctx, "0")
	require.NoError(t, err)
	assert.Nil(t, old, "la tarea más vieja se descarta")
	last, err := s.Get(ctx, strconv.Itoa(maxTasks+99))
	require.NoError(t, err)
	assert.NotNil(t, last)
}

func TestQueue_FIFOYCancelacion(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(2)
	require.NoError(t, q.Enqueue(ctx, &collections.RunTask{ID: "1"}))
	require.NoError(t, q.Enqueue(ctx, &collections.RunTask{ID: "2"}))

	full, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(full, &collections.RunTask{ID: "3"}), context.DeadlineExceeded)

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", second.ID)

	empty, cancel2 := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel2()
	_, err = q.Dequeue(empty)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLock_Exclusion(t *testing.T) {
	ctx := context.Background()
	l := NewLock()
	release, err := l.TryAcquire(ctx)
	require.NoError(t, err)

	_, err = l.TryAcquire(ctx)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "liberar dos veces no desbloquea un lock ajeno")

	again, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
