package replay

import (
	"fmt"
	"math/rand"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/rs/zerolog"
)

// globalSampler draws from the package-level math/rand source, which is safe for
// concurrent use.
type globalSampler struct{}

func (globalSampler) Float64() float64 { return rand.Float64() }

// Engine replays circuits. It holds no per-circuit state and may be shared.
type Engine struct {
	catalog   *quantum.Catalog
	coupler   quantum.Coupler
	selector  PairSelector
	sampler   quantum.Sampler
	entangled quantum.EntanglementTest
	strict    bool
	log       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCoupler replaces the cross-pair CX approximation.
func WithCoupler(c quantum.Coupler) Option {
	return func(e *Engine) { e.coupler = c }
}

// WithSelector replaces the tracked-pair selection strategy.
func WithSelector(s PairSelector) Option {
	return func(e *Engine) { e.selector = s }
}

// WithSampler sets the source of measurement draws.
func WithSampler(s quantum.Sampler) Option {
	return func(e *Engine) { e.sampler = s }
}

// WithEntanglementTest replaces the separability heuristic.
func WithEntanglementTest(t quantum.EntanglementTest) Option {
	return func(e *Engine) { e.entangled = t }
}

// WithStrictGates makes unknown gate identifiers fail the replay instead of being
// skipped.
func WithStrictGates(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// NewEngine creates a replay engine over catalog.
func NewEngine(catalog *quantum.Catalog, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		coupler:   quantum.MixtureCoupler{},
		selector:  FirstCXSelector{},
		sampler:   globalSampler{},
		entangled: quantum.IsEntangled,
		log:       log.With().Str("module", "replay").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the gate catalog the engine resolves identifiers against.
func (e *Engine) Catalog() *quantum.Catalog { return e.catalog }

// walk is the mutable state of one replay.
type walk struct {
	pair     Pair
	states   []quantum.State
	rho4     quantum.Matrix
	trails   [][]quantum.Vector
	measured []*int
	events   []MeasurementEvent
	coupled  int
}

func (w *walk) pushPair(q int) {
	slot, _ := w.pair.Slot(q)
	w.trails[q] = append(w.trails[q], quantum.BlochVector(quantum.Reduced(w.rho4, slot)))
}

func (w *walk) pushOwn(q int) {
	w.trails[q] = append(w.trails[q], quantum.BlochOf(w.states[q]))
}

func (w *walk) push(q int) {
	if w.pair.Contains(q) {
		w.pushPair(q)
		return
	}
	w.pushOwn(q)
}

// density returns the current single-qubit density matrix of q.
func (w *walk) density(q int) quantum.Matrix {
	if slot, ok := w.pair.Slot(q); ok {
		return quantum.Reduced(w.rho4, slot)
	}
	return w.states[q].Density()
}

// Replay derives the state of c after every operation at steps 0..target. A target
// of -1 yields the initial states. Measurements are resolved through rc's memo, so
// replays with the same memo are identical.
func (e *Engine) Replay(rc *Context, c *Circuit, target int) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if target < -1 || target >= c.Steps {
		return nil, fmt.Errorf("%w: %d not in [-1, %d]", ErrStepOutOfRange, target, c.Steps-1)
	}
	if rc == nil {
		rc = NewContext()
	}
	if rc.Outcomes == nil {
		rc.Outcomes = quantum.NewOutcomeTable()
	}

	pair := e.selectPair(rc, c, target)
	if pair.A < 0 || pair.A >= c.Qubits || pair.B < 0 || pair.B >= c.Qubits {
		return nil, fmt.Errorf("%w: tracked pair (%d,%d) outside %d qubits", ErrInvalidCircuit, pair.A, pair.B, c.Qubits)
	}
	w := e.start(c, pair)

	for s := 0; s <= target; s++ {
		for q := 0; q < c.Qubits; q++ {
			name := c.Gate(q, s)
			if name == "" {
				continue
			}
			gate, ok := e.catalog.Lookup(name)
			if !ok {
				if e.strict {
					return nil, fmt.Errorf("%w: %q at qubit %d step %d", quantum.ErrUnknownGate, name, q, s)
				}
				e.log.Warn().Str("gate", name).Int("qubit", q).Int("step", s).Msg("Skipping unknown gate")
				continue
			}
			if gate.IsMeasurement() {
				if err := e.measure(rc, w, q, s); err != nil {
					return nil, err
				}
				continue
			}
			e.applyGate(w, q, gate)
		}
		for _, op := range c.CXAt(s) {
			e.applyCX(w, op, s)
		}
	}

	return finish(target, w, e.entangled), nil
}

func (e *Engine) selectPair(rc *Context, c *Circuit, target int) Pair {
	if rc.Pair != nil {
		return *rc.Pair
	}
	pair := e.selector.SelectPair(c, target)
	e.log.Debug().Int("a", pair.A).Int("b", pair.B).Int("target", target).Msg("Tracked pair selected")
	return pair
}

func (e *Engine) start(c *Circuit, pair Pair) *walk {
	w := &walk{
		pair:     pair,
		states:   make([]quantum.State, c.Qubits),
		trails:   make([][]quantum.Vector, c.Qubits),
		measured: make([]*int, c.Qubits),
	}
	for q := range w.states {
		w.states[q] = c.InitialBasis(q).State()
	}

	partner := quantum.State(quantum.BasisZero.State())
	if !pair.Phantom() {
		partner = w.states[pair.B]
	}
	w.rho4 = quantum.ProductDensity(w.states[pair.A], partner)

	for q := range w.states {
		w.push(q)
	}
	return w
}

func (e *Engine) applyGate(w *walk, q int, gate quantum.Gate) {
	if slot, ok := w.pair.Slot(q); ok {
		w.rho4 = quantum.ApplyUnitary(w.rho4, quantum.Embed(gate.Matrix, slot))
	} else {
		w.states[q] = quantum.ApplyGate(w.states[q], gate)
	}
	w.push(q)
}

func (e *Engine) measure(rc *Context, w *walk, q, s int) error {
	key := quantum.OutcomeKey{Step: s, Qubit: q}

	if slot, ok := w.pair.Slot(q); ok {
		probs := quantum.MeasureProbabilities(w.rho4, slot)
		rec, fresh := rc.Outcomes.Resolve(key, probs, e.sampler)
		collapsed, err := quantum.Collapse(w.rho4, slot, rec.Outcome)
		if err != nil {
			return fmt.Errorf("failed to collapse qubit %d at step %d: %w", q, s, err)
		}
		w.rho4 = collapsed
		e.record(w, q, s, rec, fresh)
		w.pushPair(w.pair.A)
		if !w.pair.Phantom() {
			w.pushPair(w.pair.B)
		}
		return nil
	}

	probs := quantum.SingleProbabilities(w.states[q])
	rec, fresh := rc.Outcomes.Resolve(key, probs, e.sampler)
	if probs.Of(rec.Outcome) < quantum.Epsilon*quantum.Epsilon {
		return fmt.Errorf("failed to collapse qubit %d at step %d: %w", q, s, quantum.ErrImpossibleOutcome)
	}
	w.states[q] = quantum.CollapseSingle(rec.Outcome)
	e.record(w, q, s, rec, fresh)
	w.pushOwn(q)
	return nil
}

func (e *Engine) record(w *walk, q, s int, rec quantum.OutcomeRecord, fresh bool) {
	outcome := rec.Outcome
	w.measured[q] = &outcome
	w.events = append(w.events, MeasurementEvent{
		Qubit:         q,
		Outcome:       outcome,
		Step:          s,
		Probabilities: rec.Probabilities,
		Fresh:         fresh,
	})
	if fresh {
		e.log.Debug().Int("qubit", q).Int("step", s).Int("outcome", outcome).
			Float64("p0", rec.Probabilities.P0).Msg("Measurement sampled")
	}
}

func (e *Engine) applyCX(w *walk, op CXOp, s int) {
	cSlot, cIn := w.pair.Slot(op.Control)
	tSlot, tIn := w.pair.Slot(op.Target)

	if cIn && tIn {
		w.rho4 = quantum.ApplyUnitary(w.rho4, quantum.CXOperator(cSlot))
		w.pushPair(op.Control)
		w.pushPair(op.Target)
		return
	}

	w.coupled++
	p1 := quantum.MarginalOne(w.density(op.Control))
	e.log.Debug().Int("control", op.Control).Int("target", op.Target).Int("step", s).
		Float64("p1", p1).Msg("Applying coupling approximation")
	if tIn {
		w.rho4 = e.coupler.CoupleJoint(p1, w.rho4, tSlot)
		w.pushPair(op.Target)
		return
	}
	w.states[op.Target] = e.coupler.CoupleState(p1, w.states[op.Target])
	w.pushOwn(op.Target)
}

// finish converts the walk into a Result. Pair members take their reduced state,
// reconstructed as a ket when pure.
func finish(target int, w *walk, entangled quantum.EntanglementTest) *Result {
	n := len(w.states)
	res := &Result{
		Step:     target,
		Pair:     w.pair,
		States:   make([]quantum.State, n),
		Trails:   w.trails,
		Measured: w.measured,
		Joint:    w.rho4,
		Events:   w.events,

		Approximated: w.coupled,
	}
	for q := 0; q < n; q++ {
		if slot, ok := w.pair.Slot(q); ok {
			res.States[q] = quantum.FromDensity(quantum.Reduced(w.rho4, slot))
			continue
		}
		res.States[q] = w.states[q]
	}
	res.derive(entangled)
	return res
}

// derive recomputes every field that follows from States and Joint.
func (r *Result) derive(entangled quantum.EntanglementTest) {
	n := len(r.States)
	r.Bloch = make([]quantum.Vector, n)
	r.Purities = make([]float64, n)
	for q, st := range r.States {
		r.Bloch[q] = quantum.BlochOf(st)
		r.Purities[q] = quantum.StatePurity(st)
	}
	r.Entangled = !r.Pair.Phantom() && entangled(r.Joint)
	r.BellLabel = ""
	if r.Entangled {
		r.BellLabel = quantum.DescribeBellState(r.Joint)
	}
	r.Correlations = quantum.PairCorrelations(r.Joint)
	r.BasisProbabilities = quantum.BasisProbabilities(r.Joint)
}
