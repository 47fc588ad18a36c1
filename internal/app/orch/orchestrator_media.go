package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/groupcall/internal/app"
	"github.com/dkeye/groupcall/internal/core"
	"github.com/dkeye/groupcall/internal/domain"
)

func (o *Orchestrator) joined(sid core.SessionID) (*core.Participant, error) {
	p, state, ok := o.Registry.Lookup(sid)
	if !ok {
		return nil, app.ErrUnknownSession
	}
	if state != app.StateJoined {
		return nil, fmt.Errorf("%w: %s", app.ErrNotJoined, state)
	}
	return p, nil
}

// ReceiveVideoFrom negotiates the stream sender -> caller. The answer reaches
// the caller as a receiveVideoAnswer message.
func (o *Orchestrator) ReceiveVideoFrom(ctx context.Context, sid core.SessionID, rawSender, offer string) error {
	p, err := o.joined(sid)
	if err != nil {
		return err
	}
	// The room knows a newcomer before the registry does.
	room, err := o.Rooms.Get(p.Room())
	if err != nil {
		return err
	}
	sender, err := room.Participant(domain.ParticipantName(rawSender))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.negotiationTimeout())
	defer cancel()
	_, err = p.ReceiveVideoFrom(ctx, sender, offer)
	return err
}

// OnIceCandidate applies a client candidate to the endpoint named by target.
func (o *Orchestrator) OnIceCandidate(ctx context.Context, sid core.SessionID, target string, c core.Candidate) error {
	p, err := o.joined(sid)
	if err != nil {
		return err
	}
	return p.AddIceCandidate(ctx, c, domain.ParticipantName(target))
}
