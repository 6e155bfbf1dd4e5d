package feed

import (
	"context"
	"fmt"
	"time"
)

// Entry is one raw item pulled from a source before normalization.
type Entry struct {
	ExternalID  string
	Title       string
	Description string
	Author      string
	ImageURL    string
	PublishedAt time.Time
}

// Request carries all parameters required to fetch one configured source.
type Request struct {
	SourceName string
	URL        string
	Options    map[string]string
}

// Fetcher captures a single feed-format strategy (RSS, site listing, etc.).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]Entry, error)
}

// Registry keeps a mapping from fetcher names to their implementations.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[string]Fetcher{}}
}

// Register adds or replaces a fetcher implementation.
func (r *Registry) Register(f Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[string]Fetcher{}
	}
	r.fetchers[f.Name()] = f
}

// Resolve returns a fetcher by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Fetcher, error) {
	if f, ok := r.fetchers[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("feed fetcher %s is not registered", name)
}
