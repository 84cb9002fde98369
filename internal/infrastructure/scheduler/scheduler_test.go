package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
)

type countingRunner struct {
	calls atomic.Int32
	block chan struct{}
}

func (r *countingRunner) RunScheduled(ctx context.Context) *collections.RunTask {
	r.calls.Add(1)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}
	return &collections.RunTask{ID: "t", Status: collections.TaskSuccess}
}

func TestNew_SpecInvalido(t *testing.T) {
	_, err := New("cada rato", &countingRunner{}, zerolog.Nop())
	require.Error(t, err)
}

func TestScheduler_DisparaPeriodicamente(t *testing.T) {
	r := &countingRunner{}
	s, err := New("@every 1s", r, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	assert.False(t, s.Next().IsZero())

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_SaltaSiSigueCorriendo(t *testing.T) {
	r := &countingRunner{block: make(chan struct{})}
	s, err := New("@every 1s", r, zerolog.Nop())
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, 3*time.Second, 50*time.Millisecond)
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load(), "no debe solaparse con la corrida en curso")

	close(r.block)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopCancelaAlVencer(t *testing.T) {
	r := &countingRunner{block: make(chan struct{})}
	s, err := New("@every 1s", r, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}
