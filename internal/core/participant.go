package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/groupcall/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// Participant is one joined user: a single outgoing endpoint plus one
// incoming endpoint per sender it watches.
// It owns every endpoint it creates and releases each of them exactly once.
type Participant struct {
	key      domain.ParticipantKey
	pipeline Pipeline
	conn     SignalConnection
	outgoing Endpoint
	logger   zerolog.Logger

	mu       sync.Mutex
	incoming map[domain.ParticipantName]Endpoint
	closed   atomic.Bool
}

// NewParticipant creates the outgoing endpoint eagerly and starts relaying
// its candidates to conn.
func NewParticipant(
	ctx context.Context,
	name domain.ParticipantName,
	room domain.RoomName,
	pipeline Pipeline,
	conn SignalConnection,
) (*Participant, error) {
	outgoing, err := pipeline.CreateTransmitEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("create outgoing endpoint for %s: %w", name, err)
	}
	p := &Participant{
		key:      domain.ParticipantKey{Room: room, Name: name},
		pipeline: pipeline,
		conn:     conn,
		outgoing: outgoing,
		incoming: make(map[domain.ParticipantName]Endpoint),
		logger: log.With().
			Str("module", "core.participant").
			Str("room", string(room)).
			Str("name", string(name)).
			Logger(),
	}
	outgoing.OnCandidateFound(func(c Candidate) {
		p.Send(NewIceCandidateMessage(name, c))
	})
	return p, nil
}

func (p *Participant) Name() domain.ParticipantName { return p.key.Name }
func (p *Participant) Room() domain.RoomName        { return p.key.Room }
func (p *Participant) Key() domain.ParticipantKey   { return p.key }
func (p *Participant) Outgoing() Endpoint           { return p.outgoing }
func (p *Participant) Closed() bool                 { return p.closed.Load() }

// Equal compares participants by (room, name), not by pointer.
func (p *Participant) Equal(other *Participant) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.key == other.key
}

// ReceiveVideoFrom negotiates the stream sender -> p and returns the SDP answer.
// The answer is also delivered to p's connection as receiveVideoAnswer.
func (p *Participant) ReceiveVideoFrom(ctx context.Context, sender *Participant, offer string) (string, error) {
	p.logger.Info().Str("sender", string(sender.Name())).Msg("connecting")

	ep, err := p.endpointFor(ctx, sender)
	if err != nil {
		return "", err
	}

	answer, err := ep.Negotiate(ctx, offer)
	if err != nil {
		return "", negotiationError(ctx, sender.Name(), err)
	}
	p.logger.Trace().Str("sender", string(sender.Name())).Str("sdp_answer", answer).Msg("answer")

	p.Send(NewReceiveVideoAnswerMessage(sender.Name(), answer))

	p.logger.Debug().Str("sender", string(sender.Name())).Msg("gather candidates")
	if err := ep.GatherCandidates(ctx); err != nil {
		p.logger.Warn().Err(err).Str("sender", string(sender.Name())).Msg("gather candidates")
	}
	return answer, nil
}

func negotiationError(ctx context.Context, sender domain.ParticipantName, err error) error {
	if errors.Is(err, ErrNegotiationTimeout) || errors.Is(err, ErrNegotiationFailure) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: offer for %s: %w", ErrNegotiationTimeout, sender, err)
	}
	return fmt.Errorf("%w: offer for %s: %w", ErrNegotiationFailure, sender, err)
}

// endpointFor returns the endpoint that plays sender back to p, creating and
// wiring it on first use. Creation, wiring and insertion happen under p.mu so
// they are atomic with respect to CancelVideoFrom and Close.
func (p *Participant) endpointFor(ctx context.Context, sender *Participant) (Endpoint, error) {
	if p.closed.Load() {
		return nil, ErrParticipantClosed
	}
	if sender.Name() == p.Name() {
		p.logger.Debug().Msg("configuring loopback")
		return p.outgoing, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil, ErrParticipantClosed
	}
	if ep, ok := p.incoming[sender.Name()]; ok {
		return ep, nil
	}
	// Room.Leave closes the sender before cancelling its streams on everyone
	// else, so an endpoint stored after this check is always found by that cancel.
	if sender.Closed() {
		return nil, fmt.Errorf("%w: %s left", ErrUnknownParticipant, sender.Name())
	}

	p.logger.Debug().Str("sender", string(sender.Name())).Msg("creating new endpoint")
	ep, err := p.pipeline.CreateReceiveEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create endpoint for %s: %w", ErrNegotiationFailure, sender.Name(), err)
	}
	senderName := sender.Name()
	ep.OnCandidateFound(func(c Candidate) {
		p.Send(NewIceCandidateMessage(senderName, c))
	})
	if err := ep.ConnectFrom(ctx, sender.Outgoing()); err != nil {
		p.release(ctx, ep, senderName)
		return nil, fmt.Errorf("%w: connect %s: %w", ErrNegotiationFailure, senderName, err)
	}
	p.incoming[senderName] = ep
	return ep, nil
}

// CancelVideoFrom releases the endpoint receiving from senderName.
// Unknown senders are ignored.
func (p *Participant) CancelVideoFrom(ctx context.Context, senderName domain.ParticipantName) {
	p.mu.Lock()
	ep, ok := p.incoming[senderName]
	delete(p.incoming, senderName)
	p.mu.Unlock()
	if !ok {
		return
	}
	p.logger.Debug().Str("sender", string(senderName)).Msg("canceling video reception")
	p.release(ctx, ep, senderName)
}

// AddIceCandidate applies c to the endpoint negotiated for target.
// Candidates for endpoints that do not exist (yet or anymore) are dropped.
func (p *Participant) AddIceCandidate(ctx context.Context, c Candidate, target domain.ParticipantName) error {
	if target == p.Name() {
		return p.outgoing.AddCandidate(ctx, c)
	}
	p.mu.Lock()
	ep, ok := p.incoming[target]
	p.mu.Unlock()
	if !ok {
		p.logger.Debug().Str("target", string(target)).Msg("candidate for unknown endpoint dropped")
		return nil
	}
	return ep.AddCandidate(ctx, c)
}

// Close releases every endpoint. Safe to call more than once.
// Release failures are logged; every endpoint is attempted.
func (p *Participant) Close(ctx context.Context) {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return
	}
	incoming := p.incoming
	p.incoming = make(map[domain.ParticipantName]Endpoint)
	p.mu.Unlock()

	p.logger.Debug().Int("incoming", len(incoming)).Msg("releasing resources")

	wp := pool.New().WithErrors()
	for sender, ep := range incoming {
		wp.Go(func() error {
			if err := ep.Release(ctx); err != nil {
				return fmt.Errorf("%w: incoming from %s: %w", ErrEndpointReleaseFailure, sender, err)
			}
			return nil
		})
	}
	wp.Go(func() error {
		if err := p.outgoing.Release(ctx); err != nil {
			return fmt.Errorf("%w: outgoing: %w", ErrEndpointReleaseFailure, err)
		}
		return nil
	})
	if err := wp.Wait(); err != nil {
		p.logger.Warn().Err(err).Msg("could not release all endpoints")
	}
}

func (p *Participant) release(ctx context.Context, ep Endpoint, sender domain.ParticipantName) {
	if err := ep.Release(ctx); err != nil {
		p.logger.Warn().
			Err(fmt.Errorf("%w: %w", ErrEndpointReleaseFailure, err)).
			Str("sender", string(sender)).
			Msg("could not release incoming endpoint")
		return
	}
	p.logger.Trace().Str("sender", string(sender)).Msg("released incoming endpoint")
}

// Send serializes v and queues it on the participant's connection.
// Failures are logged and dropped; the connection may already be gone.
func (p *Participant) Send(v any) {
	if err := p.trySend(v); err != nil {
		p.logger.Debug().Err(err).Msg("send dropped")
	}
}

func (p *Participant) trySend(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := p.conn.TrySend(b); err != nil {
		return fmt.Errorf("%w: %w", ErrTransportSendFailure, err)
	}
	return nil
}

// IncomingCount reports how many senders p currently receives from.
func (p *Participant) IncomingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.incoming)
}

// Incoming returns the endpoint receiving from sender, if any.
func (p *Participant) Incoming(sender domain.ParticipantName) (Endpoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ep, ok := p.incoming[sender]
	return ep, ok
}
