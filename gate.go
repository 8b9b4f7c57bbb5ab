package segmento

import (
	"context"
	"fmt"
)

// Gate holds the outcome of a one-time bundle load. A gate whose load
// failed stays not ready for its whole lifetime; callers get ErrNotReady
// rather than a partially initialised engine.
type Gate struct {
	engine *Engine
	err    error
}

// OpenGate loads the bundle from src. It never fails; inspect Ready or Err.
func OpenGate(ctx context.Context, src Source, optFns ...Option) *Gate {
	eng, err := Open(ctx, src, optFns...)
	return &Gate{engine: eng, err: err}
}

// NewGate wraps an already opened engine, or a load error.
func NewGate(eng *Engine, err error) *Gate {
	if eng == nil && err == nil {
		err = fmt.Errorf("no engine")
	}
	return &Gate{engine: eng, err: err}
}

// Ready reports whether the bundle loaded.
func (g *Gate) Ready() bool { return g.err == nil }

// Err returns the load error, or nil when ready.
func (g *Gate) Err() error { return g.err }

// Engine returns the engine, or an error matching ErrNotReady that wraps the
// load error.
func (g *Gate) Engine() (*Engine, error) {
	if g.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, g.err)
	}
	return g.engine, nil
}

// Close closes the engine if the gate is ready.
func (g *Gate) Close() error {
	if g.engine == nil {
		return nil
	}
	return g.engine.Close()
}
