package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerExecutesSequentially(t *testing.T) {
	var mu sync.Mutex
	var order []string
	active := 0
	maxActive := 0

	r := New("test", func(ctx context.Context, run Run) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		order = append(order, run.ID)
		active--
		mu.Unlock()
		return nil
	}, Config{})

	r.Start(context.Background())
	require.NoError(t, r.Enqueue(Run{ID: "a"}))
	require.NoError(t, r.Enqueue(Run{ID: "b"}))
	require.NoError(t, r.Enqueue(Run{ID: "c"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, 2*time.Second, 5*time.Millisecond)
	r.Stop()

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 1, maxActive, "runs must never overlap")
}

func TestRunnerEnqueueBeforeStart(t *testing.T) {
	r := New("test", func(context.Context, Run) error { return nil }, Config{})
	err := r.Enqueue(Run{ID: "early"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestRunnerCancelAbortsActiveRun(t *testing.T) {
	started := make(chan struct{})
	aborted := make(chan struct{})

	r := New("test", func(ctx context.Context, run Run) error {
		close(started)
		<-ctx.Done()
		close(aborted)
		return ctx.Err()
	}, Config{})

	r.Start(context.Background())
	require.NoError(t, r.Enqueue(Run{ID: "long"}))

	<-started
	assert.True(t, r.Cancel("long"))

	select {
	case <-aborted:
	case <-time.After(2 * time.Second):
		t.Fatal("run was not aborted")
	}
	r.Stop()
}

func TestRunnerCancelUnknownRun(t *testing.T) {
	r := New("test", func(context.Context, Run) error { return nil }, Config{})
	r.Start(context.Background())
	defer r.Stop()

	assert.False(t, r.Cancel("missing"))
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	r := New("test", func(context.Context, Run) error { return nil }, Config{})
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}
