package server

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/pkg/reading"
)

// Ensure implementation satisfies interface at compile time.
var _ HealthChecker = (*Sources)(nil)

// Source is a running acquisition session as seen by the HTTP layer.
type Source interface {
	Name() string
	Capacity() int
	Running() bool
	Snapshot(waitForNext bool) []reading.Reading
}

// Sources is the registry of sessions served over HTTP. It is ready while
// every registered session is running.
type Sources struct {
	mu     sync.RWMutex
	byName map[string]Source
}

// NewSources creates a registry.
func NewSources(sources ...Source) *Sources {
	s := &Sources{byName: make(map[string]Source, len(sources))}
	for _, src := range sources {
		s.Add(src)
	}
	return s
}

// Add registers src under its name, replacing any previous source.
func (s *Sources) Add(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[src.Name()] = src
}

// Lookup returns the named source or an error matching ErrUnknownSource.
func (s *Sources) Lookup(name string) (Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownSource, name)
	}
	return src, nil
}

// Names returns the registered source names in sorted order.
func (s *Sources) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Liveness is true while the process can serve requests.
func (s *Sources) Liveness() bool {
	return true
}

// Readiness reports whether every source is running.
func (s *Sources) Readiness(ctx context.Context) bool {
	return s.IsHealthy()
}

// IsHealthy reports whether at least one source is registered and all of
// them are running.
func (s *Sources) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.byName) == 0 {
		return false
	}
	for _, src := range s.byName {
		if !src.Running() {
			return false
		}
	}
	return true
}

// GetStatus returns the state of every source.
func (s *Sources) GetStatus() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := make(map[string]string, len(s.byName))
	for name, src := range s.byName {
		if src.Running() {
			status[name] = "running"
		} else {
			status[name] = "stopped"
		}
	}
	return status
}
