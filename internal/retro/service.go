// Package retro orchestrates every board mutation through one template:
// guard locally, write optimistically into the cached query store, persist
// through the gateway, then reconcile. A failed write restores the exact
// pre-mutation snapshot; success and failure alike finish by invalidating the
// board's queries so the backend's view wins.
package retro

import (
	"context"

	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/gateway"
	"github.com/scrumkit/scrumkit-api/internal/ledger"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/ratelimit"
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a transient per-actor message, rendered client-side as a toast.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Notifier delivers notices to one actor's connected sessions. The websocket
// hub implements it; tests use a collector.
type Notifier interface {
	Notify(actorID string, n Notice)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, Notice) {}

// Service coordinates board mutations. All collaborators are injected; the
// service owns no background work of its own.
type Service struct {
	gw       gateway.Store
	cache    *querycache.Store
	limiter  *ratelimit.Limiter
	ledger   ledger.Ledger
	notifier Notifier
}

func NewService(gw gateway.Store, cache *querycache.Store, limiter *ratelimit.Limiter, led ledger.Ledger, notifier Notifier) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		gw:       gw,
		cache:    cache,
		limiter:  limiter,
		ledger:   led,
		notifier: notifier,
	}
}

// Cache exposes the underlying store for the websocket bridge and the polling
// driver.
func (s *Service) Cache() *querycache.Store {
	return s.cache
}

func (s *Service) notify(actor, kind, message string) {
	if message == "" {
		return
	}
	s.notifier.Notify(actor, Notice{Kind: kind, Message: message})
}

// allow is the shared rate-limit guard: inside the cooldown it sends the
// error notice and reports the rejection without touching cache or backend.
func (s *Service) allow(actor string, op ratelimit.Op) error {
	if s.limiter.Allow(actor, op) {
		return nil
	}
	err := &RateLimitError{Op: string(op), Remaining: s.limiter.Remaining(actor, op)}
	s.notify(actor, NoticeError, err.Error())
	return err
}

// mutation describes one optimistic write for run.
type mutation struct {
	actor   string
	board   uuid.UUID
	keys    []querycache.Key                // cache keys the optimistic step touches
	apply   func()                          // optimistic cache writes
	write   func(ctx context.Context) error // backend persistence
	success string                          // notice on success, empty for silent
	failure string                          // notice on rollback
}

// run executes the mutation template. In-flight loads for the board are
// cancelled first so a response already on the wire cannot overwrite the
// optimistic state; afterwards the board's queries are invalidated whether
// the write succeeded or not.
func (s *Service) run(ctx context.Context, m mutation) error {
	prefix := querycache.BoardDetail(m.board)
	s.cache.CancelQueries(prefix)

	snaps := make([]querycache.Snapshot, len(m.keys))
	for i, k := range m.keys {
		snaps[i] = s.cache.Snapshot(k)
	}
	if m.apply != nil {
		m.apply()
	}

	if err := m.write(ctx); err != nil {
		for i, k := range m.keys {
			s.cache.RestoreSnapshot(k, snaps[i])
		}
		s.notify(m.actor, NoticeError, failureMessage(err, m.failure))
		s.cache.InvalidatePrefix(prefix)
		return err
	}

	s.notify(m.actor, NoticeSuccess, m.success)
	s.cache.InvalidatePrefix(prefix)
	return nil
}

// failureMessage passes the backend's message through when it has one, else
// the operation's stable fallback.
func failureMessage(err error, fallback string) string {
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
