package genai

import (
	"context"
	"errors"
	"sync"
)

// ErrModelNotAllowed is returned by Catalog.SetModel for a candidate
// outside the administrative allow-list or the provider's advertised set.
var ErrModelNotAllowed = errors.New("model not allowed")

// RateLimitedError reports a provider rate limit (or a generation timeout,
// which is handled the same way). The message is shown to the user as-is.
type RateLimitedError struct {
	Message string
}

func (e *RateLimitedError) Error() string { return e.Message }

// ProviderError reports any other generation backend failure. The message
// is shown to the user as-is.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

// Provider is the generation backend abstraction used by dialogue handlers.
// AvailableModels is already intersected with the allow-list: a model the
// provider advertises but the operator did not allow is never returned.
type Provider interface {
	GenerateText(ctx context.Context, model, payload string) (string, error)
	GenerateImage(ctx context.Context, promptText string) (string, error)
	AvailableModels(ctx context.Context) ([]string, error)
}

// Catalog holds the administratively allowed models and the single
// globally active one. The active model is persisted through the injected
// persist func; a candidate the provider later stops advertising stays
// usable until the next generation call fails.
type Catalog struct {
	mu      sync.Mutex
	allowed []string
	current string
	persist func(model string) error
}

// NewCatalog creates a catalog. persist is called with the accepted model
// identifier while the catalog lock is held, so concurrent administrative
// writes cannot lose updates.
func NewCatalog(allowed []string, current string, persist func(model string) error) *Catalog {
	return &Catalog{allowed: allowed, current: current, persist: persist}
}

// Current returns the globally active model identifier.
func (c *Catalog) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Allowed returns a copy of the administrative allow-list.
func (c *Catalog) Allowed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.allowed))
	copy(out, c.allowed)
	return out
}

// Intersect filters the provider-advertised models down to the allow-list,
// preserving allow-list order. The allow-list always wins.
func (c *Catalog) Intersect(advertised []string) []string {
	advertisedSet := make(map[string]bool, len(advertised))
	for _, id := range advertised {
		advertisedSet[id] = true
	}
	var out []string
	for _, id := range c.Allowed() {
		if advertisedSet[id] {
			out = append(out, id)
		}
	}
	return out
}

// SetModel validates candidate against the given available set (allowed ∩
// advertised) and persists it when accepted. On rejection or persist
// failure the current model is unchanged.
func (c *Catalog) SetModel(candidate string, available []string) error {
	found := false
	for _, id := range available {
		if id == candidate {
			found = true
			break
		}
	}
	if !found {
		return ErrModelNotAllowed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.persist != nil {
		if err := c.persist(candidate); err != nil {
			return err
		}
	}
	c.current = candidate
	return nil
}
