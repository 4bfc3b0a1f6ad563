package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPasser struct {
	calls atomic.Int32
	err   error
}

func (p *countingPasser) RunPass(ctx context.Context) (PassResult, error) {
	p.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return PassResult{}, errors.New("pass context has no deadline")
	}
	return PassResult{}, p.err
}

func TestRunner(t *testing.T) {
	t.Parallel()

	t.Run("runs immediately and on trigger", func(t *testing.T) {
		t.Parallel()

		p := &countingPasser{}
		r := NewRunner(p, time.Hour)
		require.NoError(t, r.Start(context.Background()))
		defer r.Stop()

		require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

		r.Trigger()
		require.Eventually(t, func() bool { return p.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("runs on the interval", func(t *testing.T) {
		t.Parallel()

		p := &countingPasser{}
		r := NewRunner(p, time.Second)
		require.NoError(t, r.Start(context.Background()))
		defer r.Stop()

		require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("pass errors do not stop the loop", func(t *testing.T) {
		t.Parallel()

		p := &countingPasser{err: errors.New("snapshot failed")}
		r := NewRunner(p, time.Hour)
		require.NoError(t, r.Start(context.Background()))
		defer r.Stop()

		require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		r.Trigger()
		require.Eventually(t, func() bool { return p.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("stop ends the loop", func(t *testing.T) {
		t.Parallel()

		p := &countingPasser{}
		r := NewRunner(p, time.Hour)
		require.NoError(t, r.Start(context.Background()))
		require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

		r.Stop()
		r.Trigger()
		time.Sleep(20 * time.Millisecond)
		assert.EqualValues(t, 1, p.calls.Load())
	})

	t.Run("stop without start", func(t *testing.T) {
		t.Parallel()
		assert.NotPanics(t, func() { NewRunner(&countingPasser{}, 0).Stop() })
	})

	t.Run("default interval", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, DefaultCheckInterval, NewRunner(&countingPasser{}, -time.Second).interval)
	})
}
