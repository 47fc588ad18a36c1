package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/groupcall/internal/core"
	"github.com/dkeye/groupcall/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrAlreadyJoined  = errors.New("session already joined")
	ErrNotJoined      = errors.New("session not joined")
	ErrSessionClosed  = errors.New("session closed")
)

// State is the lifecycle of one signaling connection: Unbound -> Joined -> Closed.
type State int

const (
	StateUnbound State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type sessionEntry struct {
	Signal      core.SignalConnection
	State       State
	Participant *core.Participant
	Cancel      context.CancelFunc
}

// Registry maps live connections to the participant they joined as.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	names    map[domain.ParticipantName]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		names:    make(map[domain.ParticipantName]core.SessionID),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Signal: conn, State: StateUnbound, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Signal, true
	}
	return nil, false
}

// Lookup returns the session state and, when joined, its participant.
func (r *Registry) Lookup(sid core.SessionID) (*core.Participant, State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, StateClosed, false
	}
	return e.Participant, e.State, true
}

// CanJoin reports whether sid may join and whether name is still free.
func (r *Registry) CanJoin(sid core.SessionID, name domain.ParticipantName) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canJoinLocked(sid, name)
}

func (r *Registry) canJoinLocked(sid core.SessionID, name domain.ParticipantName) error {
	e, ok := r.sessions[sid]
	if !ok {
		return ErrUnknownSession
	}
	switch e.State {
	case StateJoined:
		return ErrAlreadyJoined
	case StateClosed:
		return ErrSessionClosed
	}
	if holder, taken := r.names[name]; taken {
		room := r.sessions[holder].Participant.Room()
		return fmt.Errorf("%w: %s is already used in room %s, names are unique across all rooms", core.ErrDuplicateParticipant, name, room)
	}
	return nil
}

// Join moves sid from Unbound to Joined as p.
func (r *Registry) Join(sid core.SessionID, p *core.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.canJoinLocked(sid, p.Name()); err != nil {
		return err
	}
	e := r.sessions[sid]
	e.State = StateJoined
	e.Participant = p
	r.names[p.Name()] = sid
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(p.Room())).Str("name", string(p.Name())).Msg("joined")
	return nil
}

// ByName finds a joined participant by name across all rooms.
func (r *Registry) ByName(name domain.ParticipantName) (*core.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownParticipant, name)
	}
	return r.sessions[sid].Participant, nil
}

// Leave moves sid from Joined to Closed and hands back its participant.
// Only the first caller gets the participant, so a leaveRoom racing a
// disconnect tears the participant down once.
func (r *Registry) Leave(sid core.SessionID) (*core.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.State != StateJoined {
		return nil, false
	}
	p := e.Participant
	e.State = StateClosed
	e.Participant = nil
	r.forgetNameLocked(sid, p.Name())
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("name", string(p.Name())).Msg("left")
	return p, true
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok && e.Participant != nil {
		r.forgetNameLocked(sid, e.Participant.Name())
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) forgetNameLocked(sid core.SessionID, name domain.ParticipantName) {
	if r.names[name] == sid {
		delete(r.names, name)
	}
}

// Cancel stops the connection goroutines of sid.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns every bound session id in sorted order.
func (r *Registry) Sessions() []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SessionID, 0, len(r.sessions))
	for sid := range r.sessions {
		out = append(out, sid)
	}
	slices.Sort(out)
	return out
}
