package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terarelay/internal"
)

// fakeCatalog is an in-memory Catalog for gate and orchestrator tests.
type fakeCatalog struct {
	records    map[string]*internal.CatalogRecord
	findErr    error
	insertErr  error
	insertions int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{records: make(map[string]*internal.CatalogRecord)}
}

func (c *fakeCatalog) Find(ctx context.Context, name string) (*internal.CatalogRecord, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.records[name], nil
}

func (c *fakeCatalog) Insert(ctx context.Context, rec *internal.CatalogRecord) error {
	c.insertions++
	if c.insertErr != nil {
		return c.insertErr
	}
	if _, exists := c.records[rec.Name]; exists {
		return fmt.Errorf("%w: %s", internal.ErrDuplicateKey, rec.Name)
	}
	c.records[rec.Name] = rec
	return nil
}

func TestParseSizeMB(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		wantMB float64
		wantOK bool
	}{
		{name: "megabytes", label: "120 MB", wantMB: 120, wantOK: true},
		{name: "megabytes_lowercase", label: "10 mb", wantMB: 10, wantOK: true},
		{name: "kilobytes", label: "512 KB", wantMB: 0.5, wantOK: true},
		{name: "gigabytes", label: "2 GB", wantMB: 2048, wantOK: true},
		{name: "unit_with_suffix_text", label: "1.5 GBytes", wantMB: 1536, wantOK: true},
		{name: "fractional", label: "0.5 MB", wantMB: 0.5, wantOK: true},
		{name: "empty", label: "", wantMB: 0, wantOK: false},
		{name: "no_unit", label: "120", wantMB: 0, wantOK: false},
		{name: "unknown_unit", label: "120 TB", wantMB: 0, wantOK: false},
		{name: "not_a_number", label: "big MB", wantMB: 0, wantOK: false},
		{name: "too_many_fields", label: "120 MB extra", wantMB: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSizeMB(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.wantMB, got, 1e-9)
		})
	}
}

func TestGateEvaluate_SizePolicy(t *testing.T) {
	tests := []struct {
		name       string
		sizeLabel  string
		failClosed bool
		want       GateDecision
	}{
		{name: "under_limit", sizeLabel: "10 MB", want: GateAllow},
		{name: "at_limit", sizeLabel: "50 MB", want: GateAllow},
		{name: "over_limit", sizeLabel: "120 MB", want: GateReject},
		{name: "over_limit_via_gb", sizeLabel: "1 GB", want: GateReject},
		{name: "kb_never_over", sizeLabel: "900000 KB", want: GateReject},
		{name: "unparsable_fails_open", sizeLabel: "N/A", want: GateAllow},
		{name: "unparsable_fail_closed", sizeLabel: "N/A", failClosed: true, want: GateReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(newFakeCatalog(), 50, tt.failClosed)
			got := gate.Evaluate(context.Background(), &internal.ResolvedFile{
				Name:      "movie.mp4",
				SizeLabel: tt.sizeLabel,
			})
			assert.Equal(t, tt.want, got.Decision)
		})
	}
}

func TestGateEvaluate_DuplicatePrecedesSize(t *testing.T) {
	cat := newFakeCatalog()
	cat.records["movie.mp4"] = &internal.CatalogRecord{
		Name:            "movie.mp4",
		SizeLabel:       "120 MB",
		PublicReference: "https://cdn/movie",
	}

	gate := NewGate(cat, 50, false)
	got := gate.Evaluate(context.Background(), &internal.ResolvedFile{
		Name:      "movie.mp4",
		SizeLabel: "120 MB", // would be rejected if size ran first
	})

	require.Equal(t, GateDuplicate, got.Decision)
	require.NotNil(t, got.Existing)
	assert.Equal(t, "https://cdn/movie", got.Existing.PublicReference)
}

func TestGateEvaluate_LookupErrorProceeds(t *testing.T) {
	cat := newFakeCatalog()
	cat.findErr = errors.New("connection reset")

	gate := NewGate(cat, 50, false)
	got := gate.Evaluate(context.Background(), &internal.ResolvedFile{
		Name:      "clip.mp4",
		SizeLabel: "10 MB",
	})

	assert.Equal(t, GateAllow, got.Decision)
}
