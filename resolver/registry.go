// Package resolver abstracts the interchangeable share-link resolver
// backends behind a single normalization interface.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"terarelay/internal"
	"terarelay/utils"
)

// ResponseShape identifies which JSON layout a backend answers with.
type ResponseShape int

const (
	// ShapeFlat is a flat object with a status sentinel and metadata
	// fields for name, size and link.
	ShapeFlat ResponseShape = iota
	// ShapeNested nests the metadata inside an array under differently
	// named fields.
	ShapeNested
)

// Backend describes one resolver service.
type Backend struct {
	ID          string
	DisplayName string
	Endpoint    string
	// QueryParam is the name of the query parameter carrying the share
	// link; it differs between backends.
	QueryParam string
	Shape      ResponseShape
}

// DefaultBackends returns the known resolver backends in display order.
func DefaultBackends() []Backend {
	return []Backend{
		{
			ID:          "api_one",
			DisplayName: "Noor Queen API",
			Endpoint:    "https://my-noor-queen-api.woodmirror.workers.dev",
			QueryParam:  "url",
			Shape:       ShapeFlat,
		},
		{
			ID:          "api_two",
			DisplayName: "Silent Noor API",
			Endpoint:    "https://silent-noor-stream-api.woodmirror.workers.dev/api",
			QueryParam:  "url",
			Shape:       ShapeFlat,
		},
		{
			ID:          "api_three",
			DisplayName: "Terabox Pro API",
			Endpoint:    "https://terabox-pro-api.vercel.app/api",
			QueryParam:  "link",
			Shape:       ShapeNested,
		},
		{
			ID:          "api_four",
			DisplayName: "Angel Noor API",
			Endpoint:    "https://angel-noor-terabox-api.woodmirror.workers.dev/api",
			QueryParam:  "url",
			Shape:       ShapeFlat,
		},
	}
}

// Registry holds the backend set and resolves links via the currently
// selected backend. The selection is read from the settings store on every
// call, so an administrative switch takes effect immediately.
type Registry struct {
	backends  map[string]Backend
	order     []string
	defaultID string
	settings  internal.SettingsStore
	client    *utils.HTTPClient
	timeout   time.Duration
}

// NewRegistry creates a registry over the default backend set.
func NewRegistry(settings internal.SettingsStore, client *utils.HTTPClient, timeout time.Duration) *Registry {
	return NewRegistryWithBackends(DefaultBackends(), settings, client, timeout)
}

// NewRegistryWithBackends creates a registry over a custom backend set.
// The first backend is the default selection.
func NewRegistryWithBackends(backends []Backend, settings internal.SettingsStore, client *utils.HTTPClient, timeout time.Duration) *Registry {
	byID := make(map[string]Backend, len(backends))
	order := make([]string, 0, len(backends))
	for _, b := range backends {
		byID[b.ID] = b
		order = append(order, b.ID)
	}

	return &Registry{
		backends:  byID,
		order:     order,
		defaultID: order[0],
		settings:  settings,
		client:    client,
		timeout:   timeout,
	}
}

// DefaultID returns the fallback backend id.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// List returns the known backends in display order.
func (r *Registry) List() []internal.BackendInfo {
	infos := make([]internal.BackendInfo, 0, len(r.order))
	for _, id := range r.order {
		b := r.backends[id]
		infos = append(infos, internal.BackendInfo{ID: b.ID, DisplayName: b.DisplayName})
	}
	return infos
}

// SetActive validates and persists the backend selection. A persistence
// failure leaves the previous selection in place so the caller can retry.
func (r *Registry) SetActive(ctx context.Context, id string) error {
	if _, ok := r.backends[id]; !ok {
		return internal.NewRelayError(internal.ErrUnknownBackend, fmt.Sprintf("unknown backend %q", id))
	}

	if err := r.settings.SetActiveBackend(ctx, id); err != nil {
		return internal.WrapRelayError(internal.ErrSettings, "failed to persist backend selection", err)
	}

	internal.LogInfo("resolver backend switched", zap.String("backend", id))
	return nil
}

// Active returns the currently selected backend. An unset or unreadable
// selection falls back to the default backend.
func (r *Registry) Active(ctx context.Context) Backend {
	id, err := r.settings.ActiveBackend(ctx)
	if err != nil {
		internal.LogWarn("failed to read backend selection, using default",
			zap.String("default", r.defaultID), zap.Error(err))
		return r.backends[r.defaultID]
	}

	if b, ok := r.backends[id]; ok {
		return b
	}
	return r.backends[r.defaultID]
}

// Resolve translates a share link via the active backend, normalizing the
// backend-specific response into a ResolvedFile.
func (r *Registry) Resolve(ctx context.Context, link string) (*internal.ResolvedFile, error) {
	backend := r.Active(ctx)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	params := url.Values{}
	params.Set(backend.QueryParam, link)

	var resolved *internal.ResolvedFile
	var err error

	switch backend.Shape {
	case ShapeNested:
		var resp nestedResponse
		if err = r.client.GetJSON(callCtx, backend.Endpoint, params, &resp); err == nil {
			resolved, err = resp.normalize(backend.ID)
		}
	default:
		var resp flatResponse
		if err = r.client.GetJSON(callCtx, backend.Endpoint, params, &resp); err == nil {
			resolved, err = resp.normalize(backend.ID)
		}
	}

	if err != nil {
		if internal.IsType(err, internal.ErrResolveBackend) {
			return nil, err
		}
		return nil, internal.WrapRelayError(internal.ErrResolveTransport,
			fmt.Sprintf("resolver %s unreachable", backend.ID), err)
	}

	internal.LogDebug("link resolved",
		zap.String("backend", backend.ID),
		zap.String("name", resolved.Name),
		zap.String("size", resolved.SizeLabel))

	return resolved, nil
}
