package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/upb/llm-footprint/models"
	"go.uber.org/zap"
)

var (
	// ErrBackendNotFound is returned when no backend serves a provider
	ErrBackendNotFound = errors.New("no backend serves this provider")

	// ErrBackendAlreadyRegistered is returned when trying to register a duplicate backend
	ErrBackendAlreadyRegistered = errors.New("backend already registered")
)

// Registry routes provider IDs to the backend that serves them.
// It is populated once at startup and read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	routes   map[models.ProviderID]Backend
	logger   *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		backends: make(map[string]Backend),
		routes:   make(map[models.ProviderID]Backend),
		logger:   logger,
	}
}

// RegisterBackend registers a backend for every provider it supports.
// A provider already served by an earlier backend keeps that backend.
func (r *Registry) RegisterBackend(backend Backend) error {
	if backend == nil {
		return errors.New("backend cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := backend.Name()
	if name == "" {
		return errors.New("backend name cannot be empty")
	}
	if _, exists := r.backends[name]; exists {
		return ErrBackendAlreadyRegistered
	}
	r.backends[name] = backend

	for _, id := range models.AllProviderIDs {
		if _, taken := r.routes[id]; taken {
			continue
		}
		if backend.Supports(id) {
			r.routes[id] = backend
		}
	}

	r.logger.Info("provider backend registered", zap.String("backend", name))
	return nil
}

// BackendFor returns the backend serving a provider
func (r *Registry) BackendFor(id models.ProviderID) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, ok := r.routes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, id)
	}
	return backend, nil
}

// Serves reports whether a provider can be invoked
func (r *Registry) Serves(id models.ProviderID) bool {
	_, err := r.BackendFor(id)
	return err == nil
}

// Invoke dispatches to the provider's backend. An unserved provider yields a failure result.
func (r *Registry) Invoke(ctx context.Context, id models.ProviderID, prompt string, timeout time.Duration) models.ProviderResult {
	backend, err := r.BackendFor(id)
	if err != nil {
		r.logger.Error("provider has no backend", zap.String("provider", string(id)))
		return RequestFailedResult(id, err.Error())
	}
	return backend.Invoke(ctx, id, prompt, timeout)
}

// Entries lists the registry entry of every provider that can be invoked, in declaration order
func (r *Registry) Entries() []models.RegistryEntry {
	entries := make([]models.RegistryEntry, 0, len(models.AllProviderIDs))
	for _, id := range models.AllProviderIDs {
		if r.Serves(id) {
			entries = append(entries, models.DescribeProvider(id))
		}
	}
	return entries
}

// BackendCount returns the number of registered backends
func (r *Registry) BackendCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.backends)
}
