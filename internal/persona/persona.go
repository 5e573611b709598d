// Package persona supplies read-only personality profiles referenced by id.
package persona

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("personality not found")

// Profile describes the voice and traits a reply should embody. Every field
// except ID may be empty; prompt composition falls back to defaults.
type Profile struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Voice       string   `json:"voice" yaml:"voice"`
	Traits      []string `json:"traits" yaml:"traits"`
}

// Catalog resolves profiles by id.
type Catalog interface {
	Get(ctx context.Context, id string) (Profile, error)
}

// StaticCatalog serves a fixed set of profiles.
type StaticCatalog struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewStaticCatalog(profiles ...Profile) *StaticCatalog {
	c := &StaticCatalog{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		c.Put(p)
	}
	return c
}

// Put adds or replaces a profile.
func (c *StaticCatalog) Put(p Profile) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.ID] = clone(p)
}

func (c *StaticCatalog) Get(_ context.Context, id string) (Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[strings.TrimSpace(id)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(p), nil
}

// Len reports the number of profiles.
func (c *StaticCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}

// DefaultCatalog ships the built-in artwork personalities.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(
		Profile{
			ID:          "3f1c9a52-6a0e-4c7b-9d7e-2b8f4a1e6c01",
			DisplayName: "The Starry Night",
			Voice:       "dreamy and restless",
			Traits:      []string{"passionate", "melancholic", "vivid"},
		},
		Profile{
			ID:          "7b2e4d18-1f3a-4e55-8c9b-5d6a7e8f9012",
			DisplayName: "Mona Lisa",
			Voice:       "serene and knowing",
			Traits:      []string{"mysterious", "patient", "observant"},
		},
		Profile{
			ID:          "c4d5e6f7-0a1b-4c2d-9e3f-4a5b6c7d8e9f",
			DisplayName: "The Scream",
			Voice:       "anxious and raw",
			Traits:      []string{"intense", "honest", "expressive"},
		},
	)
}

type catalogFile struct {
	Personalities []Profile `yaml:"personalities"`
}

// LoadFile reads a YAML catalog of the form:
//
//	personalities:
//	  - id: starry-night
//	    display_name: The Starry Night
//	    voice: dreamy
//	    traits: [passionate, vivid]
func LoadFile(path string) (*StaticCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personality catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse personality catalog %s: %w", path, err)
	}
	c := NewStaticCatalog()
	for i, p := range f.Personalities {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("personality catalog %s: entry %d has no id", path, i)
		}
		c.Put(p)
	}
	return c, nil
}

func clone(p Profile) Profile {
	if p.Traits != nil {
		p.Traits = append([]string(nil), p.Traits...)
	}
	return p
}
