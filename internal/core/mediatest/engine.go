// Package mediatest provides an in-memory MediaEngine and SignalConnection
// for exercising rooms without a real media stack.
package mediatest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/groupcall/internal/core"
)

var ErrReleased = errors.New("mediatest: released")

type EndpointKind string

const (
	Transmit EndpointKind = "transmit"
	Receive  EndpointKind = "receive"
)

// Engine records every pipeline and endpoint it hands out.
// The exported fields configure failures and must be set before use.
type Engine struct {
	// NegotiateErr is returned by every Negotiate call when set.
	NegotiateErr error
	// ReleaseErr is returned by every endpoint Release when set. The endpoint
	// still counts as released.
	ReleaseErr error
	// BlockNegotiate makes Negotiate wait for ctx to expire.
	BlockNegotiate bool

	seq atomic.Int64

	mu        sync.Mutex
	pipelines []*Pipeline
}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) CreatePipeline(context.Context) (core.Pipeline, error) {
	p := &Pipeline{engine: e, id: e.nextID("pipeline")}
	e.mu.Lock()
	e.pipelines = append(e.pipelines, p)
	e.mu.Unlock()
	return p, nil
}

func (e *Engine) nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, e.seq.Add(1))
}

func (e *Engine) Pipelines() []*Pipeline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Pipeline(nil), e.pipelines...)
}

// Endpoints returns every endpoint ever created, across pipelines.
func (e *Engine) Endpoints() []*Endpoint {
	var out []*Endpoint
	for _, p := range e.Pipelines() {
		out = append(out, p.Endpoints()...)
	}
	return out
}

// Live returns endpoints not yet released.
func (e *Engine) Live() []*Endpoint {
	var out []*Endpoint
	for _, ep := range e.Endpoints() {
		if ep.Releases() == 0 {
			out = append(out, ep)
		}
	}
	return out
}

type Pipeline struct {
	engine *Engine
	id     string

	mu        sync.Mutex
	endpoints []*Endpoint
	releases  int
}

func (p *Pipeline) ID() string { return p.id }

func (p *Pipeline) CreateTransmitEndpoint(context.Context) (core.Endpoint, error) {
	return p.create(Transmit)
}

func (p *Pipeline) CreateReceiveEndpoint(context.Context) (core.Endpoint, error) {
	return p.create(Receive)
}

func (p *Pipeline) create(kind EndpointKind) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.releases > 0 {
		return nil, ErrReleased
	}
	ep := &Endpoint{engine: p.engine, pipeline: p, id: p.engine.nextID(string(kind)), Kind: kind}
	p.endpoints = append(p.endpoints, ep)
	return ep, nil
}

func (p *Pipeline) Release(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
	return nil
}

func (p *Pipeline) Releases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases
}

func (p *Pipeline) Endpoints() []*Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Endpoint(nil), p.endpoints...)
}

type Endpoint struct {
	engine   *Engine
	pipeline *Pipeline
	id       string
	Kind     EndpointKind

	mu          sync.Mutex
	onCandidate func(core.Candidate)
	offers      []string
	candidates  []core.Candidate
	sources     []string
	gathers     int
	releases    int
}

func (ep *Endpoint) ID() string { return ep.id }

// Answer is the SDP answer the fake produces for offer.
func Answer(offer string) string { return "answer(" + offer + ")" }

func (ep *Endpoint) Negotiate(ctx context.Context, offer string) (string, error) {
	if ep.engine.BlockNegotiate {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if ep.engine.NegotiateErr != nil {
		return "", ep.engine.NegotiateErr
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.releases > 0 {
		return "", ErrReleased
	}
	ep.offers = append(ep.offers, offer)
	return Answer(offer), nil
}

func (ep *Endpoint) GatherCandidates(context.Context) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.gathers++
	return nil
}

func (ep *Endpoint) AddCandidate(_ context.Context, c core.Candidate) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.releases > 0 {
		return ErrReleased
	}
	ep.candidates = append(ep.candidates, c)
	return nil
}

func (ep *Endpoint) ConnectFrom(_ context.Context, src core.Endpoint) error {
	s, ok := src.(*Endpoint)
	if !ok || s.pipeline != ep.pipeline {
		return errors.New("mediatest: endpoint from another pipeline")
	}
	if s.Releases() > 0 {
		return ErrReleased
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.sources = append(ep.sources, src.ID())
	return nil
}

func (ep *Endpoint) OnCandidateFound(fn func(core.Candidate)) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.onCandidate = fn
}

func (ep *Endpoint) Release(context.Context) error {
	ep.mu.Lock()
	ep.releases++
	ep.mu.Unlock()
	return ep.engine.ReleaseErr
}

// Emit simulates the engine discovering a local candidate.
func (ep *Endpoint) Emit(c core.Candidate) {
	ep.mu.Lock()
	fn := ep.onCandidate
	ep.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

func (ep *Endpoint) Offers() []string {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return append([]string(nil), ep.offers...)
}

func (ep *Endpoint) Candidates() []core.Candidate {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return append([]core.Candidate(nil), ep.candidates...)
}

// Sources lists the ids of endpoints connected into ep.
func (ep *Endpoint) Sources() []string {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return append([]string(nil), ep.sources...)
}

func (ep *Endpoint) Gathers() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.gathers
}

func (ep *Endpoint) Releases() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.releases
}
