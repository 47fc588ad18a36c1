package rtc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/groupcall/internal/app/sfu"
	"github.com/dkeye/groupcall/internal/core"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

var ErrPipelineReleased = errors.New("pipeline released")

type Pipeline struct {
	id     string
	engine *Engine
	relays *sfu.RelayManager

	mu        sync.Mutex
	endpoints map[string]*Endpoint
	released  bool
}

var _ core.Pipeline = (*Pipeline)(nil)

func (p *Pipeline) ID() string { return p.id }

func (p *Pipeline) CreateTransmitEndpoint(ctx context.Context) (core.Endpoint, error) {
	return p.create(ctx, kindTransmit)
}

func (p *Pipeline) CreateReceiveEndpoint(ctx context.Context) (core.Endpoint, error) {
	return p.create(ctx, kindReceive)
}

func (p *Pipeline) create(ctx context.Context, kind endpointKind) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, ErrPipelineReleased
	}
	pc, err := p.engine.api.NewPeerConnection(p.engine.cfg)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	ep := newEndpoint(ctx, uuid.NewString(), kind, p, pc)
	p.endpoints[ep.id] = ep
	return ep, nil
}

func (p *Pipeline) forget(id string) {
	p.mu.Lock()
	delete(p.endpoints, id)
	p.mu.Unlock()
}

// Release closes every endpoint still attached and stops the relays.
// Further creates fail.
func (p *Pipeline) Release(ctx context.Context) error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return nil
	}
	p.released = true
	endpoints := make([]*Endpoint, 0, len(p.endpoints))
	for _, ep := range p.endpoints {
		endpoints = append(endpoints, ep)
	}
	p.mu.Unlock()

	workers := pool.New().WithErrors()
	for _, ep := range endpoints {
		workers.Go(func() error { return ep.Release(ctx) })
	}
	err := workers.Wait()
	p.relays.Close()
	log.Info().Err(err).Str("module", "rtc").Str("pipeline", p.id).Int("endpoints", len(endpoints)).Msg("pipeline released")
	return err
}

// Len returns the number of live endpoints.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}
