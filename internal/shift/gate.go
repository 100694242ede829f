// Package shift answers the one question the delivery path asks: is a shift
// open right now.
//
// Two state sources exist. The shift store in the database is authoritative;
// a legacy JSON state file from the previous generation of the system is
// consulted only when the store is unreachable, so a database hiccup during
// an event night does not freeze every bar.
package shift

import (
	"context"
	"log"

	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// Store is the authoritative shift source.
type Store interface {
	Current(ctx context.Context) (domain.ShiftState, error)
}

type Gate struct {
	store  Store
	legacy *LegacyFile
	logger *log.Logger
}

type GateOption func(*Gate)

// WithLegacyFallback wires the old JSON state file as a read-only fallback.
func WithLegacyFallback(legacy *LegacyFile) GateOption {
	return func(g *Gate) {
		g.legacy = legacy
	}
}

func NewGate(store Store, logger *log.Logger, opts ...GateOption) *Gate {
	if logger == nil {
		logger = log.Default()
	}
	g := &Gate{store: store, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsOpen reports whether deliveries are currently permitted. When both the
// store and the fallback fail the gate reports closed along with the store
// error; the caller fails closed, never open.
func (g *Gate) IsOpen(ctx context.Context) (bool, error) {
	st, err := g.store.Current(ctx)
	if err == nil {
		return st.IsOpen(), nil
	}

	if g.legacy != nil {
		if legacyState, lerr := g.legacy.Read(); lerr == nil {
			g.logger.Printf("WARN: shift store unavailable, using legacy state file: %v", err)
			return legacyState.IsOpen(), nil
		}
	}
	return false, err
}
