package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dkeye/groupcall/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManager is the process-wide room directory.
type RoomManager struct {
	engine MediaEngine

	mu    sync.RWMutex
	rooms map[domain.RoomName]*Room
}

func NewRoomManager(engine MediaEngine) *RoomManager {
	return &RoomManager{
		engine: engine,
		rooms:  make(map[domain.RoomName]*Room),
	}
}

// GetOrCreate returns the live room called name, creating it if needed.
// Concurrent callers always get the same room.
func (rm *RoomManager) GetOrCreate(name domain.RoomName) *Room {
	rm.mu.RLock()
	room, ok := rm.rooms[name]
	rm.mu.RUnlock()

	if ok && !room.Closed() {
		return room
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if room, ok = rm.rooms[name]; ok && !room.Closed() {
		return room
	}
	room = NewRoom(name, rm.engine)
	rm.rooms[name] = room
	log.Info().Str("module", "core.room_manager").Str("room", string(name)).Msg("room created")
	return room
}

// Get returns the open room called name. A room that closed itself but was
// not removed yet is unknown.
func (rm *RoomManager) Get(name domain.RoomName) (*Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[name]
	if !ok || room.Closed() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, name)
	}
	return room, nil
}

// Remove drops room from the directory if it is empty. A room that gained a
// participant in the meantime is kept.
func (rm *RoomManager) Remove(ctx context.Context, room *Room) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cur, ok := rm.rooms[room.Name()]
	if !ok || cur != room {
		log.Debug().Str("module", "core.room_manager").Str("room", string(room.Name())).Msg("remove: room already replaced")
		return false
	}
	if !room.CloseIfEmpty(ctx) {
		log.Info().Str("module", "core.room_manager").Str("room", string(room.Name())).Msg("remove: room not empty, kept")
		return false
	}
	delete(rm.rooms, room.Name())
	log.Info().Str("module", "core.room_manager").Str("room", string(room.Name())).Msg("room removed")
	return true
}

func (rm *RoomManager) List() []domain.RoomInfo {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		if !r.Closed() {
			rooms = append(rooms, r)
		}
	}
	rm.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown closes every room.
func (rm *RoomManager) Shutdown(ctx context.Context) {
	rm.mu.Lock()
	rooms := rm.rooms
	rm.rooms = make(map[domain.RoomName]*Room)
	rm.mu.Unlock()

	for _, r := range rooms {
		r.Close(ctx)
	}
	log.Info().Str("module", "core.room_manager").Int("rooms", len(rooms)).Msg("shutdown")
}
