package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ontoview/application/ports"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// Provider is an in-memory data provider backed by a seeded entity set. It
// serves local deployments and tests. Latency and failure injection make
// cache and coordinator behavior observable without a network.
type Provider struct {
	mu       sync.RWMutex
	elements map[valueobjects.ElementID]entities.ElementData
	links    []ports.LinkDescriptor

	latency  time.Duration
	failNext error

	logger *zap.Logger
}

// NewProvider creates an empty in-memory provider
func NewProvider(logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		elements: make(map[valueobjects.ElementID]entities.ElementData),
		logger:   logger,
	}
}

// SeedElement registers entity data served for the given identity
func (p *Provider) SeedElement(id valueobjects.ElementID, data entities.ElementData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[id] = data.Clone()
}

// SeedLink registers a link descriptor served by FetchLinks
func (p *Provider) SeedLink(descriptor ports.LinkDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.links = append(p.links, descriptor)
}

// SetLatency delays every fetch by d
func (p *Provider) SetLatency(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latency = d
}

// FailNext makes the next fetch return the given error
func (p *Provider) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// FetchElementData implements ports.DataProvider. Unknown identities are
// omitted from the result.
func (p *Provider) FetchElementData(ctx context.Context, ids []valueobjects.ElementID) (map[valueobjects.ElementID]entities.ElementData, error) {
	if err := p.simulate(ctx); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[valueobjects.ElementID]entities.ElementData, len(ids))
	for _, id := range ids {
		if data, ok := p.elements[id]; ok {
			result[id] = data.Clone()
		}
	}
	return result, nil
}

// FetchLinks implements ports.DataProvider, returning every seeded link
// touching the given identity set
func (p *Provider) FetchLinks(ctx context.Context, ids []valueobjects.ElementID) ([]ports.LinkDescriptor, error) {
	if err := p.simulate(ctx); err != nil {
		return nil, err
	}

	requested := make(map[valueobjects.ElementID]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []ports.LinkDescriptor
	for _, link := range p.links {
		if requested[link.SourceID] || requested[link.TargetID] {
			result = append(result, link)
		}
	}
	return result, nil
}

// simulate applies the configured latency and consumes any injected failure
func (p *Provider) simulate(ctx context.Context) error {
	p.mu.Lock()
	latency := p.latency
	failure := p.failNext
	p.failNext = nil
	p.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if failure != nil {
		return pkgerrors.NewProviderError("fetch", failure)
	}
	return nil
}
