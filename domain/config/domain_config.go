package config

import (
	"errors"
	"time"
)

// ErrInvalidLimit indicates a negative or zero constraint that must be positive
var ErrInvalidLimit = errors.New("invalid domain configuration limit")

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Diagram constraints
	MaxElementsPerDiagram int
	MaxLinksPerDiagram    int
	DefaultDiagramName    string

	// History constraints; a HistoryDepth of 0 means unbounded
	HistoryDepth int

	// Provider cache; MaxCacheEntries of 0 means unbounded
	MaxCacheEntries int
	CacheStaleAfter time.Duration

	// Layout constraints
	LayoutTimeout     time.Duration
	MaxLayoutElements int

	// Validation settings
	AllowSelfLinks      bool
	AllowDuplicateLinks bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxElementsPerDiagram: 10000,
		MaxLinksPerDiagram:    50000,
		DefaultDiagramName:    "Untitled Diagram",

		HistoryDepth: 0, // unbounded

		MaxCacheEntries: 0, // unbounded
		CacheStaleAfter: 0, // never stale

		LayoutTimeout:     15 * time.Second,
		MaxLayoutElements: 2000,

		AllowSelfLinks:      true,
		AllowDuplicateLinks: true,
	}
}

// Validate checks configuration consistency
func (c *DomainConfig) Validate() error {
	if c.MaxElementsPerDiagram < 0 || c.MaxLinksPerDiagram < 0 {
		return ErrInvalidLimit
	}
	if c.HistoryDepth < 0 || c.MaxCacheEntries < 0 {
		return ErrInvalidLimit
	}
	if c.LayoutTimeout <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
