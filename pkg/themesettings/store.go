package themesettings

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves theme settings from the remote service.
type Fetcher interface {
	GetThemeSettings(ctx context.Context) (Response, error)
}

// Logger defines the logging surface the store relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// Store caches the theme settings of one board. It starts with the defaults,
// replaces them on the first successful Load and republishes every change to
// its subscribers.
//
// Subscriber callbacks run synchronously on the publishing goroutine and must
// not call Load, Reset, Subscribe or an unsubscribe func.
type Store struct {
	fetcher Fetcher
	log     Logger
	group   singleflight.Group

	mu      sync.RWMutex
	current ThemeSettings
	loaded  bool

	// publishMu orders publishes and subscriptions so each subscriber sees
	// every update exactly once and in order.
	publishMu sync.Mutex
	subs      map[uint64]func(ThemeSettings)
	nextSub   uint64
}

// NewStore returns a store holding the defaults.
func NewStore(fetcher Fetcher, log Logger) *Store {
	if log == nil {
		log = noopLogger{}
	}
	return &Store{
		fetcher: fetcher,
		log:     log,
		current: Defaults(),
		subs:    make(map[uint64]func(ThemeSettings)),
	}
}

// loadTimeout bounds a shared fetch once it no longer follows any single
// caller's context.
const loadTimeout = 30 * time.Second

// Load fetches the settings unless they are already loaded. Concurrent calls
// share one request. On failure the current value is kept, the store stays
// unloaded so a later call retries, and the error is returned.
//
// The shared request is detached from the caller that started it, so one
// caller giving up does not fail the others. Each caller stops waiting when
// its own ctx is done.
func (s *Store) Load(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	ch := s.group.DoChan("load", func() (interface{}, error) {
		if s.Loaded() {
			return nil, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return nil, s.load(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Store) load(ctx context.Context) error {
	if s.fetcher == nil {
		return fmt.Errorf("theme settings store has no fetcher")
	}

	resp, err := s.fetcher.GetThemeSettings(ctx)
	if err != nil {
		s.log.ErrorObj("theme settings load failed", "error", err.Error())
		return err
	}

	overrides, ok, err := decodeSettings(resp.Settings)
	if err != nil {
		s.log.ErrorObj("theme settings decode failed", "error", err.Error())
		return fmt.Errorf("decode theme settings: %w", err)
	}
	if ok {
		s.report(overrides)
		s.publish(Merge(Defaults(), overrides), true)
		return nil
	}

	s.log.WarnObj("theme settings response carried no settings object; keeping current values", "success", resp.Success)
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *Store) report(overrides ThemeSettings) {
	unknown, mistyped := classify(overrides)
	if len(unknown) > 0 {
		s.log.DebugObj("theme settings contain unknown keys; passing through", "keys", unknown)
	}
	if len(mistyped) > 0 {
		s.log.WarnObj("theme settings contain values of unexpected shape; defaults apply for typed reads", "keys", mistyped)
	}
}

// Reset clears the loaded flag and republishes the defaults.
func (s *Store) Reset() {
	s.publish(Defaults(), false)
}

// Loaded reports whether a Load has completed successfully since the last Reset.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Get reads the current value at key.
func (s *Store) Get(key string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.current[key]
	if !ok {
		return Value{}, false
	}
	return v.clone(), true
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() ThemeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Subscribe registers fn, calls it with the current settings and again on every
// publish. The returned func unregisters fn; calling it more than once is safe.
func (s *Store) Subscribe(fn func(ThemeSettings)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.publishMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	fn(s.Snapshot())
	s.publishMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.publishMu.Lock()
			delete(s.subs, id)
			s.publishMu.Unlock()
		})
	}
}

func (s *Store) publish(next ThemeSettings, loaded bool) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	s.current = next
	s.loaded = loaded
	s.mu.Unlock()

	for _, fn := range s.subscribers() {
		fn(next.Clone())
	}
}

// subscribers returns the callbacks in registration order. Callers hold publishMu.
func (s *Store) subscribers() []func(ThemeSettings) {
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(ThemeSettings), len(ids))
	for i, id := range ids {
		out[i] = s.subs[id]
	}
	return out
}
