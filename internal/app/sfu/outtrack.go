package sfu

import (
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

type TrackState int32

const (
	TrackStateOk TrackState = iota
	TrackStateDelete
)

// RTPWriter is the sink side of a relay, normally a *webrtc.TrackLocalStaticRTP.
type RTPWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// OutTrack represents a single outgoing track to a subscriber.
type OutTrack struct {
	Track RTPWriter
	Kind  webrtc.RTPCodecType
	state atomic.Int32 // Zero by default (TrackStateOk)
}

func NewOutTrack(kind webrtc.RTPCodecType, track RTPWriter) *OutTrack {
	return &OutTrack{Track: track, Kind: kind}
}

func (ot *OutTrack) GetState() TrackState {
	return TrackState(ot.state.Load())
}

func (ot *OutTrack) MarkDelete() {
	ot.state.Store(int32(TrackStateDelete))
}
