package desktop

import (
	"sync"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"go.uber.org/zap"
)

// ChangeListener receives a private copy of the state after each change,
// with the version it was committed at. Listeners see versions in order and
// must not write to the store.
type ChangeListener func(state types.DesktopState, version uint64)

type changeEntry struct {
	id uint64
	fn ChangeListener
}

// Store owns the desktop mirror. Apply is the only write path.
type Store struct {
	// writeMu orders a commit and its notification against other writers
	writeMu sync.Mutex

	mu      sync.RWMutex
	state   types.DesktopState
	version uint64

	listenersMu sync.Mutex
	listeners   []changeEntry
	nextID      uint64

	log *logging.Logger
}

// NewStore creates an empty store
func NewStore(log *logging.Logger) *Store {
	return &Store{
		log: logging.OrNop(log).Named("store"),
	}
}

// Apply applies one server message and reports whether state changed
func (s *Store) Apply(msg protocol.ServerMessage) bool {
	return s.commit(msg, func(uint64) bool { return true })
}

// ApplyIfVersion applies msg only while the store is still at version, so a
// slow bootstrap fetch never overwrites what the socket delivered meanwhile.
func (s *Store) ApplyIfVersion(version uint64, msg protocol.ServerMessage) bool {
	return s.commit(msg, func(current uint64) bool { return current == version })
}

func (s *Store) commit(msg protocol.ServerMessage, allowed func(version uint64) bool) bool {
	if msg == nil {
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !allowed(s.version) {
		version := s.version
		s.mu.Unlock()
		s.log.Debug("stale write skipped", zap.String("type", msg.Type()), zap.Uint64("version", version))
		return false
	}
	next, changed := apply(s.state, msg)
	if changed {
		s.state = next
		s.version++
	}
	version := s.version
	s.mu.Unlock()

	if !changed {
		s.log.Debug("message left state unchanged", zap.String("type", msg.Type()))
		return false
	}

	s.log.Debug("applied message",
		zap.String("type", msg.Type()),
		zap.Uint64("version", version),
	)
	s.notify(next, version)
	return true
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() types.DesktopState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Current returns a copy of the state together with its version
func (s *Store) Current() (types.DesktopState, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.version
}

// Version increments each time Apply changes state
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Window returns a copy of one window
func (s *Store) Window(id string) (types.WindowState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.state.Window(id)
	if ok && w.Props != nil {
		w = types.DesktopState{Windows: []types.WindowState{w}}.Clone().Windows[0]
	}
	return w, ok
}

// OnChange registers a listener and returns its unsubscribe function
func (s *Store) OnChange(fn ChangeListener) func() {
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, changeEntry{id: id, fn: fn})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(state types.DesktopState, version uint64) {
	s.listenersMu.Lock()
	entries := append([]changeEntry(nil), s.listeners...)
	s.listenersMu.Unlock()

	for _, e := range entries {
		e.fn(state.Clone(), version)
	}
}
