package suggest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// Source fetches the raw suggestion payload from wherever it lives.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// Loader returns the suggestion index, loading it on first use.
type Loader interface {
	Load(ctx context.Context) (*Index, error)
}

// Provider loads the index from its Source exactly once and keeps it for
// the life of the process. There is no TTL and no invalidation.
//
// A failed fetch is returned to the caller and not remembered, so the next
// Load fetches again. Provider itself never retries.
type Provider struct {
	source  Source
	group   singleflight.Group
	mu      sync.RWMutex
	index   *Index
	fetches atomic.Int64
}

// NewProvider creates a Provider backed by source.
func NewProvider(source Source) *Provider {
	return &Provider{source: source}
}

// NewStaticProvider creates a Provider that is already loaded with idx.
func NewStaticProvider(idx *Index) *Provider {
	return &Provider{index: idx}
}

// Load returns the cached index, fetching and parsing it on the first
// call. Concurrent first calls share a single fetch.
//
// The shared fetch does not inherit the caller's cancellation: a caller
// whose ctx ends stops waiting and gets ctx.Err(), while the fetch keeps
// running for the callers that joined it.
func (p *Provider) Load(ctx context.Context) (*Index, error) {
	if idx := p.cached(); idx != nil {
		return idx, nil
	}
	if p.source == nil {
		return nil, fmt.Errorf("load suggestions: no source configured")
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("index", func() (any, error) {
		if idx := p.cached(); idx != nil {
			return idx, nil
		}
		p.fetches.Add(1)
		raw, err := p.source.Fetch(fetchCtx)
		if err != nil {
			return nil, fmt.Errorf("fetch suggestions: %w", err)
		}
		idx, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse suggestions: %w", err)
		}
		p.mu.Lock()
		p.index = idx
		p.mu.Unlock()
		log.Debug("Suggestion index loaded",
			"location", idx.Len(Location),
			"creditTo", idx.Len(CreditTo),
			"tag", idx.Len(Tag))
		return idx, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load suggestions: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug("Joined in-flight suggestion load")
		}
		return res.Val.(*Index), nil
	}
}

// Loaded reports whether the index is available without fetching.
func (p *Provider) Loaded() bool {
	return p.cached() != nil
}

// Fetches returns how many times the source has been called.
func (p *Provider) Fetches() int {
	return int(p.fetches.Load())
}

func (p *Provider) cached() *Index {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index
}
