package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dkeye/groupcall/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is a threadsafe in-memory room owning one media pipeline.
// Joins and leaves of one room are serialized; rooms never share a lock.
type Room struct {
	name   domain.RoomName
	engine MediaEngine

	mu           sync.Mutex
	pipeline     Pipeline
	participants map[domain.ParticipantName]*Participant
	// closed is written under mu and read without it.
	closed atomic.Bool
}

func NewRoom(name domain.RoomName, engine MediaEngine) *Room {
	return &Room{
		name:         name,
		engine:       engine,
		participants: make(map[domain.ParticipantName]*Participant),
	}
}

func (r *Room) Name() domain.RoomName { return r.name }

// Join adds a participant named name whose signaling goes to conn.
// The room's pipeline is created by the first join. The newcomer is visible
// through Participant before anyone is told it arrived.
func (r *Room) Join(ctx context.Context, name domain.ParticipantName, conn SignalConnection) (*Participant, error) {
	p, others, err := r.join(ctx, name, conn)
	if err != nil {
		return nil, err
	}

	existing := make([]domain.ParticipantName, 0, len(others))
	for _, op := range others {
		existing = append(existing, op.Name())
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i] < existing[j] })
	p.Send(NewExistingParticipantsMessage(existing))
	for _, op := range others {
		op.Send(NewParticipantArrivedMessage(name))
	}
	return p, nil
}

func (r *Room) join(ctx context.Context, name domain.ParticipantName, conn SignalConnection) (*Participant, []*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return nil, nil, ErrRoomClosed
	}
	if _, ok := r.participants[name]; ok {
		return nil, nil, fmt.Errorf("%w: %s in %s", ErrDuplicateParticipant, name, r.name)
	}

	if r.pipeline == nil {
		pl, err := r.engine.CreatePipeline(ctx)
		if err != nil {
			r.closeIfEmptyLocked(ctx)
			return nil, nil, fmt.Errorf("create pipeline for %s: %w", r.name, err)
		}
		r.pipeline = pl
		log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("pipeline", pl.ID()).Msg("pipeline created")
	}

	p, err := NewParticipant(ctx, name, r.name, r.pipeline, conn)
	if err != nil {
		r.closeIfEmptyLocked(ctx)
		return nil, nil, err
	}

	others := make([]*Participant, 0, len(r.participants))
	for _, op := range r.participants {
		others = append(others, op)
	}
	r.participants[name] = p
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("name", string(name)).Msg("participant joined")
	return p, others, nil
}

// Leave removes p, releases its endpoints and every endpoint other
// participants hold for it. It reports whether the room is now empty; an empty
// room is closed and its pipeline released. Leaving twice is a no-op.
func (r *Room) Leave(ctx context.Context, p *Participant) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.participants[p.Name()]
	if !ok || cur != p {
		log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("name", string(p.Name())).Msg("leave: not a member")
		return len(r.participants) == 0
	}
	delete(r.participants, p.Name())
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("name", string(p.Name())).Msg("participant left")

	p.Close(ctx)
	for _, other := range r.participants {
		other.CancelVideoFrom(ctx, p.Name())
		other.Send(NewParticipantLeftMessage(p.Name()))
	}

	return r.closeIfEmptyLocked(ctx)
}

// CloseIfEmpty closes the room when nobody is in it. A closed room rejects
// joins with ErrRoomClosed.
func (r *Room) CloseIfEmpty(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeIfEmptyLocked(ctx)
}

func (r *Room) closeIfEmptyLocked(ctx context.Context) bool {
	if len(r.participants) > 0 {
		return false
	}
	if r.closed.Swap(true) {
		return true
	}
	r.releasePipelineLocked(ctx)
	return true
}

func (r *Room) releasePipelineLocked(ctx context.Context) {
	if r.pipeline == nil {
		return
	}
	pl := r.pipeline
	r.pipeline = nil
	if err := pl.Release(ctx); err != nil {
		log.Warn().Err(err).Str("module", "core.room").Str("room", string(r.name)).Str("pipeline", pl.ID()).Msg("could not release pipeline")
		return
	}
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("pipeline", pl.ID()).Msg("pipeline released")
}

// Close evicts every participant and releases the pipeline.
func (r *Room) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, p := range r.participants {
		p.Close(ctx)
		delete(r.participants, name)
	}
	r.closed.Store(true)
	r.releasePipelineLocked(ctx)
}

// Participants returns a snapshot of the current members.
func (r *Room) Participants() []*Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out
}

func (r *Room) Participant(name domain.ParticipantName) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrUnknownParticipant, name, r.name)
	}
	return p, nil
}

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

func (r *Room) Closed() bool { return r.closed.Load() }

func (r *Room) Info() domain.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]domain.ParticipantName, 0, len(r.participants))
	for name := range r.participants {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return domain.RoomInfo{Name: r.name, Participants: names}
}
