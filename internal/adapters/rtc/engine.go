// Package rtc implements the core media ports on top of pion/webrtc.
// A pipeline is a set of PeerConnections sharing one relay table; every
// endpoint is one PeerConnection with one browser.
package rtc

import (
	"context"
	"fmt"

	"github.com/dkeye/groupcall/internal/app/sfu"
	"github.com/dkeye/groupcall/internal/core"
	"github.com/google/uuid"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	PayloadTypeOpus = 111
	PayloadTypeVP8  = 96
)

var (
	opusCapability = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
	vp8Capability  = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
)

func DefaultICEServers() []string {
	return []string{"stun:stun.l.google.com:19302"}
}

// Engine creates pipelines backed by pion PeerConnections.
type Engine struct {
	api *webrtc.API
	cfg webrtc.Configuration
}

var _ core.MediaEngine = (*Engine)(nil)

// NewEngine builds a pion API with Opus and VP8 and the default interceptors.
func NewEngine(iceServers []string) (*Engine, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: opusCapability,
		PayloadType:        PayloadTypeOpus,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("register opus: %w", err)
	}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: vp8Capability,
		PayloadType:        PayloadTypeVP8,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, fmt.Errorf("register vp8: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	cfg := webrtc.Configuration{}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}

	return &Engine{
		api: webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(registry)),
		cfg: cfg,
	}, nil
}

func (e *Engine) CreatePipeline(context.Context) (core.Pipeline, error) {
	p := &Pipeline{
		id:        uuid.NewString(),
		engine:    e,
		relays:    sfu.NewRelayManager(),
		endpoints: make(map[string]*Endpoint),
	}
	log.Info().Str("module", "rtc").Str("pipeline", p.id).Msg("pipeline created")
	return p, nil
}
