package sfu

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// RelayManager owns one Relay per publishing endpoint, keyed by endpoint id.
// A stopped source never gets a relay again, and a closed manager creates none.
type RelayManager struct {
	mu      sync.RWMutex
	relays  map[string]*Relay
	stopped map[string]struct{}
	closed  bool
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays:  make(map[string]*Relay),
		stopped: make(map[string]struct{}),
	}
}

func (m *RelayManager) relay(srcID string) *Relay {
	m.mu.RLock()
	relay, ok := m.relays[srcID]
	m.mu.RUnlock()
	if ok {
		return relay
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if relay, ok := m.relays[srcID]; ok {
		return relay
	}
	if _, ok := m.stopped[srcID]; ok || m.closed {
		return nil
	}
	relay = NewRelay(srcID)
	m.relays[srcID] = relay
	return relay
}

// StartRelay starts forwarding one source track of srcID to its subscribers.
// A second track of the same kind replaces the first.
func (m *RelayManager) StartRelay(ctx context.Context, srcID string, kind webrtc.RTPCodecType, track RTPReader) {
	logger := log.With().
		Str("module", "relay").
		Str("src", srcID).
		Str("kind", kind.String()).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := m.relay(srcID)
	if relay == nil || !relay.start(kind, cancel) {
		cancel()
		logger.Debug().Msg("relay already stopped")
		return
	}

	logger.Info().Msg("starting relay loop")
	go relay.loop(relayCtx, kind, track, &logger)
}

// AddSubscriber attaches localTrack of dstID to the relay of srcID.
// Video subscribers trigger a keyframe request so they can start decoding.
// It reports false when srcID was stopped.
func (m *RelayManager) AddSubscriber(srcID, dstID string, kind webrtc.RTPCodecType, localTrack RTPWriter) bool {
	relay := m.relay(srcID)
	if relay == nil {
		return false
	}
	relay.AddOutTrack(dstID, NewOutTrack(kind, localTrack))
	if kind == webrtc.RTPCodecTypeVideo {
		relay.requestKeyframe()
	}
	return true
}

// RemoveSubscriber detaches every track of dstID from the relay of srcID.
func (m *RelayManager) RemoveSubscriber(srcID, dstID string) {
	m.mu.RLock()
	relay, ok := m.relays[srcID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	relay.removeDst(dstID)
}

// StopRelay stops a relay and removes it from the manager.
func (m *RelayManager) StopRelay(srcID string) {
	m.mu.Lock()
	m.stopped[srcID] = struct{}{}
	relay, ok := m.relays[srcID]
	if ok {
		delete(m.relays, srcID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	relay.stop()
	log.Info().Str("module", "relay").Str("src", srcID).Msg("relay stopped")
}

// SetKeyframeRequester installs the function that asks srcID for a keyframe.
func (m *RelayManager) SetKeyframeRequester(srcID string, fn func()) {
	if relay := m.relay(srcID); relay != nil {
		relay.setKeyframe(fn)
	}
}

// Close stops every relay. Later calls create none.
func (m *RelayManager) Close() {
	m.mu.Lock()
	m.closed = true
	relays := m.relays
	m.relays = make(map[string]*Relay)
	for srcID := range relays {
		m.stopped[srcID] = struct{}{}
	}
	m.mu.Unlock()

	for _, relay := range relays {
		relay.stop()
	}
	if len(relays) > 0 {
		log.Info().Str("module", "relay").Int("relays", len(relays)).Msg("relays closed")
	}
}

// Len returns the number of live relays.
func (m *RelayManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.relays)
}

// RequestKeyframe asks the publisher srcID for a keyframe.
func (m *RelayManager) RequestKeyframe(srcID string) bool {
	m.mu.RLock()
	relay, ok := m.relays[srcID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return relay.requestKeyframe()
}

// HasRelay reports whether a relay exists for srcID.
func (m *RelayManager) HasRelay(srcID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.relays[srcID]
	return ok
}

// Subscribers returns the number of tracks attached to srcID.
func (m *RelayManager) Subscribers(srcID string) int {
	m.mu.RLock()
	relay, ok := m.relays[srcID]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return relay.subscribers()
}
