package gateway

import (
	"fmt"
	"slices"
	"sync"

	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/platform"
)

// registry holds the bootstrapped platforms keyed by provider ID.
// It is thread-safe.
type registry struct {
	mu        sync.RWMutex
	platforms map[string]*platform.Platform
	order     []string
}

func newRegistry() *registry {
	return &registry{platforms: make(map[string]*platform.Platform)}
}

func (r *registry) add(id string, p *platform.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.platforms[id]; exists {
		return fmt.Errorf("platform %s already registered", id)
	}
	r.platforms[id] = p
	r.order = append(r.order, id)
	return nil
}

func (r *registry) get(id string) (*platform.Platform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.platforms[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrPlatformNotFound, id)
}

// ids returns provider IDs in registration order.
func (r *registry) ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
