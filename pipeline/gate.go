package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"terarelay/internal"
)

// GateDecision is the outcome of the transfer gate.
type GateDecision int

const (
	GateAllow GateDecision = iota
	GateReject
	GateDuplicate
)

// GateResult carries the decision plus the data the orchestrator needs to
// report it: the existing record for duplicates, the reason for rejections.
type GateResult struct {
	Decision GateDecision
	Existing *internal.CatalogRecord
	Reason   string
	SizeMB   float64
}

// Gate decides whether a resolved file proceeds to transfer. It has no side
// effects beyond the catalog lookup.
type Gate struct {
	catalog internal.Catalog
	limitMB float64
	// failClosed rejects unparsable size labels instead of letting them
	// through as 0 MB.
	failClosed bool
}

// NewGate creates a gate with the given size limit in megabytes.
func NewGate(catalog internal.Catalog, limitMB float64, failClosed bool) *Gate {
	return &Gate{catalog: catalog, limitMB: limitMB, failClosed: failClosed}
}

// Evaluate runs the duplicate check first, then the size policy. The
// duplicate check must precede size gating so an already-cataloged file is
// reported as such regardless of its size.
func (g *Gate) Evaluate(ctx context.Context, resolved *internal.ResolvedFile) GateResult {
	existing, err := g.catalog.Find(ctx, resolved.Name)
	if err != nil {
		// A failed lookup is treated as "not cataloged": the unique
		// index catches a re-transfer at insert time, so the race is
		// benign (at most a wasted transfer, never a duplicate record).
		internal.LogWarn("catalog lookup failed, proceeding as new file",
			zap.String("name", resolved.Name), zap.Error(err))
	}
	if existing != nil {
		return GateResult{Decision: GateDuplicate, Existing: existing}
	}

	sizeMB, ok := ParseSizeMB(resolved.SizeLabel)
	if !ok && g.failClosed {
		return GateResult{
			Decision: GateReject,
			Reason:   fmt.Sprintf("unparsable size %q", resolved.SizeLabel),
		}
	}

	if sizeMB > g.limitMB {
		return GateResult{
			Decision: GateReject,
			Reason:   fmt.Sprintf("size %s exceeds %g MB limit", resolved.SizeLabel, g.limitMB),
			SizeMB:   sizeMB,
		}
	}

	return GateResult{Decision: GateAllow, SizeMB: sizeMB}
}

// ParseSizeMB parses a human size label like "120 MB" into megabytes.
// Recognized unit suffixes are kb, mb and gb (case-insensitive prefix
// match). Returns (0, false) when the label cannot be parsed.
func ParseSizeMB(label string) (float64, bool) {
	parts := strings.Fields(label)
	if len(parts) != 2 {
		return 0, false
	}

	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}

	unit := strings.ToLower(parts[1])
	switch {
	case strings.HasPrefix(unit, "kb"):
		return value / 1024, true
	case strings.HasPrefix(unit, "mb"):
		return value, true
	case strings.HasPrefix(unit, "gb"):
		return value * 1024, true
	default:
		return 0, false
	}
}
