package sfu

import (
	"context"
	"maps"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// RTPReader is the source side of a relay, normally a *webrtc.TrackRemote.
type RTPReader interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

type subKey struct {
	dst  string
	kind webrtc.RTPCodecType
}

// Relay fans the tracks of one publishing endpoint out to its subscribers.
// Subscribers may attach before the source tracks arrive.
type Relay struct {
	srcID string

	mu        sync.RWMutex
	outTracks map[subKey]*OutTrack
	loops     map[webrtc.RTPCodecType]context.CancelFunc
	keyframe  func()
	stopped   bool
}

func NewRelay(srcID string) *Relay {
	return &Relay{
		srcID:     srcID,
		outTracks: make(map[subKey]*OutTrack),
		loops:     make(map[webrtc.RTPCodecType]context.CancelFunc),
	}
}

// loop reads RTP packets from one source track and forwards them to the
// OutTracks of the same kind.
func (r *Relay) loop(ctx context.Context, kind webrtc.RTPCodecType, src RTPReader, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("relay ctx done")
			return
		default:
		}
		pkt, _, err := src.ReadRTP()
		if err != nil {
			logger.Info().Err(err).Msg("relay read RTP ended, stopping")
			return
		}
		r.forward(kind, pkt, logger)
	}
}

func (r *Relay) forward(kind webrtc.RTPCodecType, pkt *rtp.Packet, logger *zerolog.Logger) {
	r.mu.RLock()
	snapshot := make(map[subKey]*OutTrack, len(r.outTracks))
	maps.Copy(snapshot, r.outTracks)
	r.mu.RUnlock()

	var dirty []subKey
	for key, ot := range snapshot {
		if key.kind != kind {
			continue
		}
		switch ot.GetState() {
		case TrackStateDelete:
			dirty = append(dirty, key)
		case TrackStateOk:
			if err := ot.Track.WriteRTP(pkt); err != nil {
				logger.Error().
					Err(err).
					Str("dst", key.dst).
					Msg("relay write RTP error, marking outtrack as delete")
				ot.MarkDelete()
				dirty = append(dirty, key)
			}
		}
	}

	// Cleanup is done outside the RLock.
	if len(dirty) > 0 {
		r.cleanupDeleted(dirty)
	}
}

func (r *Relay) cleanupDeleted(dirty []subKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range dirty {
		if ot, ok := r.outTracks[key]; ok && ot.GetState() == TrackStateDelete {
			delete(r.outTracks, key)
		}
	}
}

// start registers the read loop for kind, replacing a previous one.
func (r *Relay) start(kind webrtc.RTPCodecType, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	if old, ok := r.loops[kind]; ok {
		old()
	}
	r.loops[kind] = cancel
	return true
}

func (r *Relay) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for _, cancel := range r.loops {
		cancel()
	}
	for _, ot := range r.outTracks {
		ot.MarkDelete()
	}
	clear(r.outTracks)
}

func (r *Relay) AddOutTrack(dst string, ot *OutTrack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outTracks[subKey{dst: dst, kind: ot.Kind}] = ot
}

func (r *Relay) removeDst(dst string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, ot := range r.outTracks {
		if key.dst == dst {
			ot.MarkDelete()
			delete(r.outTracks, key)
		}
	}
}

func (r *Relay) subscribers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outTracks)
}

func (r *Relay) setKeyframe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyframe = fn
}

func (r *Relay) requestKeyframe() bool {
	r.mu.RLock()
	fn := r.keyframe
	r.mu.RUnlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}
