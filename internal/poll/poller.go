// Package poll re-issues the queries of every open board on a fixed interval.
// Polling approximates live updates across sessions without depending on a
// push channel: cheap, a little blunt, and good enough for small-group
// ceremonies. Boards are tracked while participants are connected and dropped
// when the room empties.
package poll

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 5 * time.Second

// RefreshFunc reloads one board's mounted queries from the backend.
type RefreshFunc func(ctx context.Context, boardID uuid.UUID) error

// Poller runs one scheduler job that sweeps all tracked boards.
type Poller struct {
	mu        sync.Mutex
	interval  time.Duration
	refresh   RefreshFunc
	scheduler *gocron.Scheduler
	tracked   map[uuid.UUID]struct{}

	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(interval time.Duration, refresh RefreshFunc) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		interval: interval,
		refresh:  refresh,
		tracked:  make(map[uuid.UUID]struct{}),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Track adds a board to the sweep. Tracking an already-tracked board is a
// no-op, so every join may call it.
func (p *Poller) Track(boardID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracked[boardID] = struct{}{}
}

// Untrack removes a board from the sweep once its room is empty.
func (p *Poller) Untrack(boardID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tracked, boardID)
}

// Tracked returns the boards currently in the sweep.
func (p *Poller) Tracked() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uuid.UUID, 0, len(p.tracked))
	for id := range p.tracked {
		out = append(out, id)
	}
	return out
}

// Start launches the scheduler. Sweeps run in singleton mode so a slow
// backend cannot stack overlapping sweeps.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scheduler != nil {
		return nil
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(p.interval).Do(p.sweep); err != nil {
		return err
	}
	s.StartAsync()
	p.scheduler = s
	return nil
}

// Stop cancels any sweep in progress and shuts the scheduler down.
func (p *Poller) Stop() {
	p.cancel()
	p.mu.Lock()
	s := p.scheduler
	p.scheduler = nil
	p.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}

func (p *Poller) sweep() {
	p.mu.Lock()
	boards := make([]uuid.UUID, 0, len(p.tracked))
	for id := range p.tracked {
		boards = append(boards, id)
	}
	p.mu.Unlock()

	// Each sweep gets at most one interval of wall time.
	ctx, cancel := context.WithTimeout(p.baseCtx, p.interval)
	defer cancel()
	for _, id := range boards {
		if ctx.Err() != nil {
			return
		}
		if err := p.refresh(ctx, id); err != nil {
			log.Printf("poll: refresh board %s: %v", id, err)
		}
	}
}
