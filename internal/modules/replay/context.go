package replay

import "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"

// Context carries the state that survives between replays of one circuit: the
// measurement memo and, optionally, a pinned tracked pair.
type Context struct {
	Outcomes *quantum.OutcomeTable
	// Pair overrides the engine's selector when set.
	Pair *Pair
}

// NewContext returns a context with an empty memo.
func NewContext() *Context {
	return &Context{Outcomes: quantum.NewOutcomeTable()}
}

// WithPair returns a copy of the context pinned to p. The memo is shared.
func (c *Context) WithPair(p Pair) *Context {
	return &Context{Outcomes: c.Outcomes, Pair: &p}
}
