// Package ratelimit provides a process-local, per-actor cooldown between
// successive actions of the same class. It dampens accidental rapid-fire
// submissions; it is not a security control and keeps no history across
// restarts.
package ratelimit

import (
	"sync"
	"time"
)

// Op classes, each with its own cooldown window.
type Op string

const (
	OpCreateItem Op = "create_item"
	OpDeleteItem Op = "delete_item"
	OpVote       Op = "vote"
)

// Config holds the cooldown window per operation class. Zero values fall back
// to the defaults.
type Config struct {
	CreateItem time.Duration
	DeleteItem time.Duration
	Vote       time.Duration
}

// DefaultConfig returns the stock cooldown windows.
func DefaultConfig() Config {
	return Config{
		CreateItem: 2 * time.Second,
		DeleteItem: time.Second,
		Vote:       500 * time.Millisecond,
	}
}

// Limiter tracks the last action timestamp per actor and operation class.
// Construct one per server (or per test); there is no package-level instance.
type Limiter struct {
	mu   sync.Mutex
	cfg  Config
	last map[key]time.Time
	now  func() time.Time
}

type key struct {
	actor string
	op    Op
}

// New returns a Limiter with the given cooldown windows.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.CreateItem == 0 {
		cfg.CreateItem = def.CreateItem
	}
	if cfg.DeleteItem == 0 {
		cfg.DeleteItem = def.DeleteItem
	}
	if cfg.Vote == 0 {
		cfg.Vote = def.Vote
	}
	return &Limiter{
		cfg:  cfg,
		last: make(map[key]time.Time),
		now:  time.Now,
	}
}

func (l *Limiter) window(op Op) time.Duration {
	switch op {
	case OpCreateItem:
		return l.cfg.CreateItem
	case OpDeleteItem:
		return l.cfg.DeleteItem
	case OpVote:
		return l.cfg.Vote
	default:
		return 0
	}
}

// Allow reports whether the actor is outside the cooldown window for op.
// It records nothing; callers that proceed must follow up with Mark.
func (l *Limiter) Allow(actor string, op Op) bool {
	return l.Remaining(actor, op) <= 0
}

// Remaining returns how long the actor must still wait before op is allowed
// again. Zero or negative means the action is allowed now.
func (l *Limiter) Remaining(actor string, op Op) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, ok := l.last[key{actor, op}]
	if !ok {
		return 0
	}
	return l.window(op) - l.now().Sub(at)
}

// Mark records that the actor performed op now, starting a new cooldown
// window. Checking and recording are deliberately separate calls: a caller
// that checks but does not act leaves no side effect.
func (l *Limiter) Mark(actor string, op Op) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[key{actor, op}] = l.now()
}

// CanCreateItem reports whether the actor may create another item.
func (l *Limiter) CanCreateItem(actor string) bool { return l.Allow(actor, OpCreateItem) }

// CanDeleteItem reports whether the actor may delete another item.
func (l *Limiter) CanDeleteItem(actor string) bool { return l.Allow(actor, OpDeleteItem) }

// CanVote reports whether the actor may toggle another vote.
func (l *Limiter) CanVote(actor string) bool { return l.Allow(actor, OpVote) }
