package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/groupcall/internal/app"
	"github.com/dkeye/groupcall/internal/core"
	"github.com/dkeye/groupcall/internal/domain"
	"github.com/rs/zerolog/log"
)

// maxJoinAttempts bounds retries against rooms closed between lookup and join.
const maxJoinAttempts = 4

func (o *Orchestrator) Join(ctx context.Context, sid core.SessionID, rawRoom, rawName string) error {
	roomName, err := domain.NewRoomName(rawRoom)
	if err != nil {
		return fmt.Errorf("room name: %w", err)
	}
	name, err := domain.NewParticipantName(rawName)
	if err != nil {
		return fmt.Errorf("participant name: %w", err)
	}
	if err := o.Registry.CanJoin(sid, name); err != nil {
		return err
	}
	conn, ok := o.Registry.Signal(sid)
	if !ok {
		return app.ErrUnknownSession
	}

	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomName)).Str("name", string(name)).Msg("trying to join room")

	for range maxJoinAttempts {
		room := o.Rooms.GetOrCreate(roomName)
		p, err := room.Join(ctx, name, conn)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrRoomClosed):
			continue
		default:
			if room.Len() == 0 {
				o.Rooms.Remove(ctx, room)
			}
			return err
		}

		if err := o.Registry.Join(sid, p); err != nil {
			o.leaveRoom(ctx, p)
			return err
		}
		return nil
	}
	return fmt.Errorf("join %s: %w", roomName, core.ErrRoomClosed)
}

// Leave takes sid out of its room. Leaving before joining is a no-op.
func (o *Orchestrator) Leave(ctx context.Context, sid core.SessionID) error {
	p, ok := o.Registry.Leave(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("leave: not joined")
		return nil
	}
	o.leaveRoom(ctx, p)
	return nil
}

// OnDisconnect cleans up after a closed transport, joined or not.
func (o *Orchestrator) OnDisconnect(ctx context.Context, sid core.SessionID) {
	if p, ok := o.Registry.Leave(sid); ok {
		o.leaveRoom(ctx, p)
	}
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) leaveRoom(ctx context.Context, p *core.Participant) {
	ctx, cancel := o.teardownCtx(ctx)
	defer cancel()

	room, err := o.Rooms.Get(p.Room())
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("name", string(p.Name())).Msg("leave: room already gone")
		p.Close(ctx)
		return
	}
	if room.Leave(ctx, p) {
		o.Rooms.Remove(ctx, room)
	}
}
