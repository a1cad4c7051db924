// Package querycache keeps the live, renderable state of every open board:
// a keyed store of query results that mutations update optimistically ahead of
// the backend write. Subscribers (the websocket bridge) are told whenever a
// key changes so connected clients re-render immediately; the relational
// store stays the source of truth and wins on the next refetch.
//
// Values are treated as immutable once stored. Writers build fresh slices and
// structs rather than mutating in place, so readers never need a copy.
package querycache

import (
	"context"
	"errors"
	"log"
	"reflect"
	"sync"
)

// ErrNoFetcher is returned when a key has no registered fetcher and no cached
// value to fall back on.
var ErrNoFetcher = errors.New("querycache: no fetcher registered")

// FetchFunc loads the authoritative value for a key from the backend.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	key    Key
	value  any
	ok     bool
	stale  bool
	fetch  FetchFunc
	cancel context.CancelFunc
}

// Store is the process-wide cached query store. All methods are safe for
// concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	subs    map[int]func(Key)
	nextSub int
	closed  bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

func New() *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		entries:    make(map[string]*entry),
		subs:       make(map[int]func(Key)),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

func (s *Store) ensureLocked(key Key) *entry {
	k := key.String()
	e, ok := s.entries[k]
	if !ok {
		e = &entry{key: key}
		s.entries[k] = e
	}
	return e
}

func (s *Store) subscribersLocked() []func(Key) {
	if len(s.subs) == 0 {
		return nil
	}
	fns := make([]func(Key), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

// Get returns the cached value at key, stale or not.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	if !ok || !e.ok {
		return nil, false
	}
	return e.value, true
}

// Value returns the cached value at key typed as T. A missing key or a value
// of another type both report false.
func Value[T any](s *Store, key Key) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Stale reports whether the key holds a value that has been invalidated and
// not yet refreshed.
func (s *Store) Stale(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	return ok && e.stale
}

// Set publishes a value at key, replacing whatever was there, and notifies
// subscribers. This is the optimistic-write path, so it always notifies even
// when the value is unchanged.
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	e := s.ensureLocked(key)
	e.value = value
	e.ok = true
	e.stale = false
	fns := s.subscribersLocked()
	s.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

// Register mounts a fetcher for key. Fetch, Invalidate, and Refetch use it to
// reload the key from the backend; until one is registered the key is a plain
// cache slot.
func (s *Store) Register(key Key, fetch FetchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ensureLocked(key).fetch = fetch
}

// Fetch returns the value at key, loading it through the registered fetcher
// when the cache has nothing fresh. A stale hit refetches inline rather than
// in the background; when the reload fails the last good value is returned
// and the entry stays stale so a later pass retries.
func (s *Store) Fetch(ctx context.Context, key Key) (any, error) {
	s.mu.Lock()
	e := s.ensureLocked(key)
	if e.ok && !e.stale {
		v := e.value
		s.mu.Unlock()
		return v, nil
	}
	fetch := e.fetch
	cached, hasCached := e.value, e.ok
	s.mu.Unlock()

	if fetch == nil {
		if hasCached {
			return cached, nil
		}
		return nil, ErrNoFetcher
	}
	v, err := fetch(ctx)
	if err != nil {
		if hasCached {
			return cached, nil
		}
		return nil, err
	}
	s.Set(key, v)
	return v, nil
}

type refetchJob struct {
	key    Key
	fetch  FetchFunc
	ctx    context.Context
	cancel context.CancelFunc
}

// Invalidate marks key stale and, when a fetcher is mounted, refreshes it in
// the background. Any refetch already in flight for the key is cancelled
// first, so only the newest invalidation can commit.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	var jobs []refetchJob
	if !s.closed {
		jobs = s.markStaleLocked([]*entry{s.ensureLocked(key)})
	}
	s.mu.Unlock()
	for _, j := range jobs {
		go s.runRefetch(j)
	}
}

// InvalidatePrefix invalidates every known key at or below prefix. This is
// the mutation settle step: after a write, everything the board renders from
// is re-read from the backend.
func (s *Store) InvalidatePrefix(prefix Key) {
	s.mu.Lock()
	var targets []*entry
	if !s.closed {
		for _, e := range s.entries {
			if e.key.HasPrefix(prefix) {
				targets = append(targets, e)
			}
		}
	}
	jobs := s.markStaleLocked(targets)
	s.mu.Unlock()
	for _, j := range jobs {
		go s.runRefetch(j)
	}
}

func (s *Store) markStaleLocked(targets []*entry) []refetchJob {
	var jobs []refetchJob
	for _, e := range targets {
		e.stale = true
		if e.fetch == nil {
			continue
		}
		if e.cancel != nil {
			e.cancel()
		}
		ctx, cancel := context.WithCancel(s.baseCtx)
		e.cancel = cancel
		s.wg.Add(1)
		jobs = append(jobs, refetchJob{key: e.key, fetch: e.fetch, ctx: ctx, cancel: cancel})
	}
	return jobs
}

func (s *Store) runRefetch(j refetchJob) {
	defer s.wg.Done()
	defer j.cancel()
	v, err := j.fetch(j.ctx)
	if err != nil {
		if j.ctx.Err() == nil {
			log.Printf("cache: refetch %s: %v", j.key, err)
		}
		return
	}
	var fns []func(Key)
	s.mu.Lock()
	// The cancel check must happen under the lock: CancelQueries and newer
	// invalidations cancel while holding it, so a cancelled fetch can never
	// slip a commit past an optimistic write.
	if e, ok := s.entries[j.key.String()]; ok && !s.closed && j.ctx.Err() == nil {
		e.value = v
		e.ok = true
		e.stale = false
		e.cancel = nil
		fns = s.subscribersLocked()
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(j.key)
	}
}

// Refetch synchronously reloads key through its fetcher regardless of
// staleness. This is the polling path: subscribers are notified only when the
// reloaded value actually differs, so an idle board produces no traffic.
func (s *Store) Refetch(ctx context.Context, key Key) error {
	s.mu.Lock()
	e, ok := s.entries[key.String()]
	if !ok || e.fetch == nil {
		s.mu.Unlock()
		return ErrNoFetcher
	}
	if e.cancel != nil {
		e.cancel()
	}
	cctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	fetch := e.fetch
	s.mu.Unlock()
	defer cancel()

	v, err := fetch(cctx)
	if err != nil {
		return err
	}

	var fns []func(Key)
	s.mu.Lock()
	e, ok = s.entries[key.String()]
	if !ok || s.closed {
		s.mu.Unlock()
		return nil
	}
	if cctx.Err() != nil {
		s.mu.Unlock()
		return cctx.Err()
	}
	changed := !e.ok || !reflect.DeepEqual(e.value, v)
	e.value = v
	e.ok = true
	e.stale = false
	e.cancel = nil
	if changed {
		fns = s.subscribersLocked()
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
	return nil
}

// CancelQueries cancels every in-flight load at or below prefix. Mutations
// call this before their optimistic write so a response that was already on
// the wire cannot overwrite the newer local state.
func (s *Store) CancelQueries(prefix Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.cancel == nil || !e.key.HasPrefix(prefix) {
			continue
		}
		e.cancel()
		e.cancel = nil
	}
}

// Snapshot is an opaque capture of a key's state for exact rollback.
type Snapshot struct {
	value any
	ok    bool
}

// Snapshot captures the current value at key, present or not.
func (s *Store) Snapshot(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key.String()]; ok && e.ok {
		return Snapshot{value: e.value, ok: true}
	}
	return Snapshot{}
}

// RestoreSnapshot puts a captured state back, byte for byte, and notifies
// subscribers. Restoring an absent snapshot clears the key.
func (s *Store) RestoreSnapshot(key Key, snap Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	e := s.ensureLocked(key)
	e.value = snap.value
	e.ok = snap.ok
	fns := s.subscribersLocked()
	s.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

// Subscribe registers fn to be called with the key of every change. The
// returned function unsubscribes. fn runs outside the store lock and may call
// back into the store.
func (s *Store) Subscribe(fn func(Key)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// MountedKeys lists every key at or below prefix that has a fetcher.
func (s *Store) MountedKeys(prefix Key) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []Key
	for _, e := range s.entries {
		if e.fetch != nil && e.key.HasPrefix(prefix) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Release drops every entry at or below prefix, cancelling in-flight loads.
// Called when the last participant leaves a board and its live state is no
// longer worth holding.
func (s *Store) Release(prefix Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		delete(s.entries, k)
	}
}

// Close cancels all in-flight loads and waits for them to finish. The store
// rejects writes afterwards; reads keep working.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.baseCancel()
	s.mu.Unlock()
	s.wg.Wait()
}
