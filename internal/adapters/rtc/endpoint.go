package rtc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/groupcall/internal/core"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrEndpointReleased     = errors.New("endpoint released")
	ErrIncompatibleEndpoint = errors.New("incompatible endpoint")
)

type endpointKind string

const (
	kindTransmit endpointKind = "transmit"
	kindReceive  endpointKind = "receive"
)

// Endpoint is one PeerConnection. A transmit endpoint publishes the tracks it
// receives into the pipeline relays; a receive endpoint plays one of them back.
type Endpoint struct {
	id       string
	kind     endpointKind
	pipeline *Pipeline
	pc       *webrtc.PeerConnection
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	onCandidate func(core.Candidate)
	gathering   bool
	local       []core.Candidate
	remoteSet   bool
	remote      []core.Candidate
	source      string

	released atomic.Bool
}

var _ core.Endpoint = (*Endpoint)(nil)

func newEndpoint(ctx context.Context, id string, kind endpointKind, p *Pipeline, pc *webrtc.PeerConnection) *Endpoint {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ep := &Endpoint{
		id:       id,
		kind:     kind,
		pipeline: p,
		pc:       pc,
		ctx:      ctx,
		cancel:   cancel,
		logger: log.With().
			Str("module", "rtc").
			Str("pipeline", p.id).
			Str("endpoint", id).
			Str("kind", string(kind)).
			Logger(),
	}

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		ep.logger.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
	})
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c != nil {
			ep.localCandidate(fromInit(c.ToJSON()))
		}
	})
	if kind == kindTransmit {
		pc.OnTrack(ep.onTrack)
	}
	return ep
}

func (ep *Endpoint) ID() string { return ep.id }

func (ep *Endpoint) onTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	ep.logger.Info().
		Str("track_kind", track.Kind().String()).
		Str("track_id", track.ID()).
		Str("stream_id", track.StreamID()).
		Msg("OnTrack received")

	relays := ep.pipeline.relays
	if track.Kind() == webrtc.RTPCodecTypeVideo {
		ssrc := uint32(track.SSRC())
		relays.SetKeyframeRequester(ep.id, func() {
			if err := ep.pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: ssrc}}); err != nil {
				ep.logger.Debug().Err(err).Msg("write PLI")
			}
		})
	}
	relays.StartRelay(ep.ctx, ep.id, track.Kind(), track)
}

// Negotiate applies the offer and returns the answer without waiting for
// candidate gathering; candidates trickle through OnCandidateFound.
func (ep *Endpoint) Negotiate(ctx context.Context, offer string) (string, error) {
	if ep.released.Load() {
		return "", ErrEndpointReleased
	}

	type result struct {
		sdp string
		err error
	}
	done := make(chan result, 1)
	go func() {
		sdp, err := ep.negotiate(offer)
		done <- result{sdp, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("negotiate %s: %w", ep.id, ctx.Err())
	case r := <-done:
		return r.sdp, r.err
	}
}

func (ep *Endpoint) negotiate(offer string) (string, error) {
	if err := ep.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer}); err != nil {
		return "", fmt.Errorf("set remote description: %w", err)
	}
	ep.flushRemote()

	answer, err := ep.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}
	if err := ep.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}
	return ep.pc.LocalDescription().SDP, nil
}

func (ep *Endpoint) flushRemote() {
	ep.mu.Lock()
	ep.remoteSet = true
	queued := ep.remote
	ep.remote = nil
	ep.mu.Unlock()

	for _, c := range queued {
		if err := ep.pc.AddICECandidate(toInit(c)); err != nil {
			ep.logger.Warn().Err(err).Msg("queued candidate rejected")
		}
	}
}

// GatherCandidates releases buffered local candidates to the callback and
// forwards later ones directly.
func (ep *Endpoint) GatherCandidates(context.Context) error {
	if ep.released.Load() {
		return ErrEndpointReleased
	}
	ep.mu.Lock()
	ep.gathering = true
	fn := ep.onCandidate
	buffered := ep.local
	if fn != nil {
		ep.local = nil
	}
	ep.mu.Unlock()

	if fn != nil {
		for _, c := range buffered {
			fn(c)
		}
	}
	return nil
}

func (ep *Endpoint) localCandidate(c core.Candidate) {
	ep.mu.Lock()
	if !ep.gathering || ep.onCandidate == nil {
		ep.local = append(ep.local, c)
		ep.mu.Unlock()
		return
	}
	fn := ep.onCandidate
	ep.mu.Unlock()
	fn(c)
}

// AddCandidate queues candidates that arrive before the offer.
func (ep *Endpoint) AddCandidate(_ context.Context, c core.Candidate) error {
	if ep.released.Load() {
		return ErrEndpointReleased
	}
	ep.mu.Lock()
	if !ep.remoteSet {
		ep.remote = append(ep.remote, c)
		ep.mu.Unlock()
		return nil
	}
	ep.mu.Unlock()
	return ep.pc.AddICECandidate(toInit(c))
}

// ConnectFrom adds an audio and a video track fed by the relay of src.
func (ep *Endpoint) ConnectFrom(_ context.Context, src core.Endpoint) error {
	from, ok := src.(*Endpoint)
	if !ok || from.pipeline != ep.pipeline {
		return fmt.Errorf("%w: %s is not in pipeline %s", ErrIncompatibleEndpoint, src.ID(), ep.pipeline.id)
	}
	if from.kind != kindTransmit || ep.kind != kindReceive {
		return fmt.Errorf("%w: %s -> %s", ErrIncompatibleEndpoint, from.kind, ep.kind)
	}
	if from.released.Load() || ep.released.Load() {
		return ErrEndpointReleased
	}

	tracks := []struct {
		kind webrtc.RTPCodecType
		cap  webrtc.RTPCodecCapability
	}{
		{webrtc.RTPCodecTypeAudio, opusCapability},
		{webrtc.RTPCodecTypeVideo, vp8Capability},
	}
	for _, t := range tracks {
		local, err := webrtc.NewTrackLocalStaticRTP(t.cap, t.kind.String(), from.id)
		if err != nil {
			return fmt.Errorf("new %s track: %w", t.kind, err)
		}
		sender, err := ep.pc.AddTrack(local)
		if err != nil {
			return fmt.Errorf("add %s track: %w", t.kind, err)
		}
		if !ep.pipeline.relays.AddSubscriber(from.id, ep.id, t.kind, local) {
			return fmt.Errorf("%w: source %s stopped", ErrEndpointReleased, from.id)
		}
		go ep.readRTCP(sender, from.id)
	}

	ep.mu.Lock()
	ep.source = from.id
	ep.mu.Unlock()
	ep.logger.Info().Str("source", from.id).Msg("connected")
	return nil
}

// readRTCP forwards keyframe requests of the receiving browser to the publisher.
func (ep *Endpoint) readRTCP(sender *webrtc.RTPSender, srcID string) {
	for {
		packets, _, err := sender.ReadRTCP()
		if err != nil {
			return
		}
		for _, pkt := range packets {
			switch pkt.(type) {
			case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
				ep.pipeline.relays.RequestKeyframe(srcID)
			}
		}
	}
}

func (ep *Endpoint) OnCandidateFound(fn func(core.Candidate)) {
	ep.mu.Lock()
	ep.onCandidate = fn
	ep.mu.Unlock()
}

// Release is idempotent.
func (ep *Endpoint) Release(context.Context) error {
	if ep.released.Swap(true) {
		return nil
	}
	ep.cancel()

	relays := ep.pipeline.relays
	if ep.kind == kindTransmit {
		relays.StopRelay(ep.id)
	} else {
		ep.mu.Lock()
		source := ep.source
		ep.mu.Unlock()
		if source != "" {
			relays.RemoveSubscriber(source, ep.id)
		}
	}
	ep.pipeline.forget(ep.id)

	if err := ep.pc.Close(); err != nil {
		ep.logger.Error().Err(err).Msg("close error")
		return fmt.Errorf("%w: %s: %w", core.ErrEndpointReleaseFailure, ep.id, err)
	}
	ep.logger.Info().Msg("closed")
	return nil
}

func fromInit(ci webrtc.ICECandidateInit) core.Candidate {
	c := core.Candidate{Candidate: ci.Candidate}
	if ci.SDPMid != nil {
		c.SDPMid = *ci.SDPMid
	}
	if ci.SDPMLineIndex != nil {
		c.SDPMLineIndex = *ci.SDPMLineIndex
	}
	return c
}

func toInit(c core.Candidate) webrtc.ICECandidateInit {
	mid, idx := c.SDPMid, c.SDPMLineIndex
	ci := webrtc.ICECandidateInit{Candidate: c.Candidate, SDPMLineIndex: &idx}
	if mid != "" {
		ci.SDPMid = &mid
	}
	return ci
}
