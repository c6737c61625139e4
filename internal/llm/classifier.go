package llm

import (
	"context"
	"fmt"

	"github.com/routebeta/cotations/internal/cache"
)

// Classifier sends route descriptions through the configured provider and
// hands back the raw reply. It never parses: recovering the grade JSON out
// of a reply is the extract package's job, which is also why the reply cache
// stores raw text and not parsed results.
type Classifier struct {
	provider Provider
	replies  *cache.ReplyCache
	config   Config
}

// NewClassifier builds a classifier for the configured provider. The reply
// cache may be nil to disable caching.
func NewClassifier(config Config, replies *cache.ReplyCache) (*Classifier, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	return &Classifier{
		provider: provider,
		replies:  replies,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (c *Classifier) IsEnabled() bool {
	return c.provider != nil
}

// ProviderName returns the active provider's name, or "" when disabled
func (c *Classifier) ProviderName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// Model returns the configured model name
func (c *Classifier) Model() string {
	return c.config.Model
}

// IsAvailable checks whether the underlying provider is reachable
func (c *Classifier) IsAvailable(ctx context.Context) bool {
	if c.provider == nil {
		return false
	}
	return c.provider.IsAvailable(ctx)
}

// Classify returns the model's raw reply for one description. Cached replies
// are returned without touching the provider.
func (c *Classifier) Classify(ctx context.Context, description string) (string, error) {
	if c.provider == nil {
		return "", fmt.Errorf("no LLM provider configured")
	}

	if raw, found := c.replies.Get(c.provider.Name(), c.config.Model, description); found {
		return raw, nil
	}

	resp, err := c.provider.Extract(ctx, ExtractRequest{Description: description})
	if err != nil {
		return "", err
	}

	c.replies.Set(c.provider.Name(), c.config.Model, description, resp.Raw)

	return resp.Raw, nil
}
