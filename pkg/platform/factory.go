package platform

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// ProviderConfig is one configured provider instance.
type ProviderConfig struct {
	ID        string            `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Type      string            `json:"type" yaml:"type" mapstructure:"type" validate:"required"`
	Enabled   bool              `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	APIKey    string            `json:"api_key" yaml:"api_key" mapstructure:"api_key"`
	AccountID string            `json:"account_id" yaml:"account_id" mapstructure:"account_id"`
	Host      string            `json:"host" yaml:"host" mapstructure:"host" validate:"omitempty,hostname_port"`
	BaseURL   string            `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Timeout   time.Duration     `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	Options   map[string]string `json:"options" yaml:"options" mapstructure:"options"`
}

// TimeoutOr returns the configured timeout, or def when none was set.
func (c ProviderConfig) TimeoutOr(def time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return def
}

type Factory func(cfg ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider type available to Build. It panics on a
// duplicate type, which can only happen through a programming error.
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", providerType))
	}
	factories[providerType] = f
}

func Lookup(providerType string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[providerType]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s", providerType)
	}
	return f, nil
}

// Types lists registered provider types in sorted order.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Build looks up the factory for cfg.Type and constructs the provider.
func Build(cfg ProviderConfig) (Provider, error) {
	f, err := Lookup(cfg.Type)
	if err != nil {
		return nil, err
	}
	p, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("build provider %s: %w", cfg.ID, err)
	}
	return p, nil
}
