package provider

import (
	"context"

	"go.uber.org/zap"

	"ontoview/application/ports"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// CompositeProvider fans a request out to several child providers and merges
// their answers. Element data from earlier children wins; link descriptors
// are merged by identity, which keeps repeated descriptors idempotent.
//
// A child failure is logged and skipped as long as at least one child
// answers; if every child fails the last error is surfaced.
type CompositeProvider struct {
	children []ports.DataProvider
	logger   *zap.Logger
}

// NewCompositeProvider combines providers in priority order
func NewCompositeProvider(logger *zap.Logger, children ...ports.DataProvider) *CompositeProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompositeProvider{children: children, logger: logger}
}

// FetchElementData implements ports.DataProvider
func (p *CompositeProvider) FetchElementData(ctx context.Context, ids []valueobjects.ElementID) (map[valueobjects.ElementID]entities.ElementData, error) {
	merged := make(map[valueobjects.ElementID]entities.ElementData)
	var lastErr error
	answered := false

	for _, child := range p.children {
		data, err := child.FetchElementData(ctx, ids)
		if err != nil {
			lastErr = err
			p.logger.Warn("composite child fetch failed", zap.Error(err))
			continue
		}
		answered = true
		for id, d := range data {
			if _, exists := merged[id]; !exists {
				merged[id] = d
			}
		}
	}

	if !answered && lastErr != nil {
		return nil, pkgerrors.NewProviderError("FetchElementData", lastErr)
	}
	return merged, nil
}

// FetchLinks implements ports.DataProvider
func (p *CompositeProvider) FetchLinks(ctx context.Context, ids []valueobjects.ElementID) ([]ports.LinkDescriptor, error) {
	byID := make(map[valueobjects.LinkID]ports.LinkDescriptor)
	var order []valueobjects.LinkID
	var lastErr error
	answered := false

	for _, child := range p.children {
		links, err := child.FetchLinks(ctx, ids)
		if err != nil {
			lastErr = err
			p.logger.Warn("composite child link fetch failed", zap.Error(err))
			continue
		}
		answered = true
		for _, link := range links {
			if _, exists := byID[link.ID]; !exists {
				byID[link.ID] = link
				order = append(order, link.ID)
			}
		}
	}

	if !answered && lastErr != nil {
		return nil, pkgerrors.NewProviderError("FetchLinks", lastErr)
	}

	out := make([]ports.LinkDescriptor, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}
