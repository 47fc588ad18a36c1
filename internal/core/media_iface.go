package core

//go:generate mockgen -source=media_iface.go -destination=mocks/mock_media.go -package=mocks

import "context"

// Candidate is an ICE candidate as exchanged with browsers.
type Candidate struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex"`
}

// MediaEngine creates one Pipeline per room.
type MediaEngine interface {
	CreatePipeline(ctx context.Context) (Pipeline, error)
}

// Pipeline is the media graph of a single room.
// Endpoints created from a pipeline can only be connected to endpoints of the same pipeline.
type Pipeline interface {
	ID() string
	// CreateTransmitEndpoint creates the endpoint a participant publishes into.
	CreateTransmitEndpoint(ctx context.Context) (Endpoint, error)
	// CreateReceiveEndpoint creates an endpoint that plays one sender back to one receiver.
	CreateReceiveEndpoint(ctx context.Context) (Endpoint, error)
	// Release tears down the pipeline and every endpoint still attached to it.
	Release(ctx context.Context) error
}

type Endpoint interface {
	ID() string
	// Negotiate applies a remote SDP offer and returns the local answer.
	Negotiate(ctx context.Context, offer string) (string, error)
	// GatherCandidates starts delivering local candidates to the OnCandidateFound callback.
	GatherCandidates(ctx context.Context) error
	// AddCandidate applies a remote ICE candidate.
	AddCandidate(ctx context.Context, c Candidate) error
	// ConnectFrom routes media published on src into this endpoint.
	ConnectFrom(ctx context.Context, src Endpoint) error
	// OnCandidateFound sets the single subscriber for locally gathered candidates.
	OnCandidateFound(fn func(Candidate))
	Release(ctx context.Context) error
}
