package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refreshRecorder struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	err   error
}

func newRecorder() *refreshRecorder {
	return &refreshRecorder{calls: make(map[uuid.UUID]int)}
}

func (r *refreshRecorder) refresh(ctx context.Context, boardID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[boardID]++
	return r.err
}

func (r *refreshRecorder) count(boardID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[boardID]
}

func TestSweepRefreshesEveryTrackedBoard(t *testing.T) {
	rec := newRecorder()
	p := New(time.Minute, rec.refresh)
	a, b := uuid.New(), uuid.New()
	p.Track(a)
	p.Track(b)
	p.Track(a) // duplicate joins collapse

	p.sweep()

	assert.Equal(t, 1, rec.count(a))
	assert.Equal(t, 1, rec.count(b))
}

func TestSweepContinuesPastErrors(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("backend hiccup")
	p := New(time.Minute, rec.refresh)
	a, b := uuid.New(), uuid.New()
	p.Track(a)
	p.Track(b)

	p.sweep()

	assert.Equal(t, 1, rec.count(a), "one board's failure does not skip the rest")
	assert.Equal(t, 1, rec.count(b))
}

func TestUntrackRemovesBoardFromSweep(t *testing.T) {
	rec := newRecorder()
	p := New(time.Minute, rec.refresh)
	a, b := uuid.New(), uuid.New()
	p.Track(a)
	p.Track(b)
	p.Untrack(a)

	p.sweep()

	assert.Zero(t, rec.count(a))
	assert.Equal(t, 1, rec.count(b))
	assert.Equal(t, []uuid.UUID{b}, p.Tracked())
}

func TestStopCancelsInFlightSweep(t *testing.T) {
	entered := make(chan struct{})
	p := New(time.Minute, func(ctx context.Context, boardID uuid.UUID) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	})
	p.Track(uuid.New())

	done := make(chan struct{})
	go func() {
		p.sweep()
		close(done)
	}()
	<-entered

	p.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not return after Stop")
	}
}

func TestSchedulerDrivesSweeps(t *testing.T) {
	rec := newRecorder()
	p := New(100*time.Millisecond, rec.refresh)
	boardID := uuid.New()
	p.Track(boardID)

	require.NoError(t, p.Start())
	require.NoError(t, p.Start(), "second start is a no-op")
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return rec.count(boardID) >= 2
	}, 3*time.Second, 20*time.Millisecond)
}
