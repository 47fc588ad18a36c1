package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/groupcall/internal/app"
	"github.com/dkeye/groupcall/internal/core"
	"github.com/dkeye/groupcall/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultNegotiationTimeout = 10 * time.Second
	DefaultReleaseTimeout     = 5 * time.Second
)

// Orchestrator routes decoded signaling envelopes of every connection to
// rooms and participants.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *core.RoomManager
	Policy   app.Policy

	NegotiationTimeout time.Duration
	ReleaseTimeout     time.Duration
}

// Dispatch runs the handler for env on behalf of connection sid.
// Unknown envelopes are ignored.
func (o *Orchestrator) Dispatch(ctx context.Context, sid core.SessionID, env core.Envelope) error {
	switch m := env.(type) {
	case core.JoinRoom:
		return o.Join(ctx, sid, m.Room, m.Name)
	case core.ReceiveVideoFrom:
		return o.ReceiveVideoFrom(ctx, sid, m.Sender, m.SDPOffer)
	case core.LeaveRoom:
		return o.Leave(ctx, sid)
	case core.OnIceCandidate:
		return o.OnIceCandidate(ctx, sid, m.Name, m.Candidate)
	case core.Unknown:
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("id", m.ID).Msg("ignoring unknown envelope")
		return nil
	default:
		return nil
	}
}

// OnBackPressure applies the policy to a connection whose send buffer is full.
func (o *Orchestrator) OnBackPressure(sid core.SessionID) app.BackpressureAction {
	if o.Policy == nil {
		return app.NoAction
	}
	action := o.Policy.OnBackPressure(sid)
	switch action {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("slow consumer, kicking")
		o.Registry.Cancel(sid)
	case app.DropFrame, app.NoAction:
	}
	return action
}

// ErrorCode maps handler errors to the code reported to the client.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrNotJoined):
		return "not_joined"
	case errors.Is(err, app.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, app.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, domain.ErrNameEmpty), errors.Is(err, domain.ErrNameTooLong):
		return "invalid_name"
	default:
		return core.ErrorCode(err)
	}
}

func (o *Orchestrator) negotiationTimeout() time.Duration {
	if o.NegotiationTimeout > 0 {
		return o.NegotiationTimeout
	}
	return DefaultNegotiationTimeout
}

// teardownCtx outlives the request context so a dropped connection still
// releases its media.
func (o *Orchestrator) teardownCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	d := o.ReleaseTimeout
	if d <= 0 {
		d = DefaultReleaseTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}
