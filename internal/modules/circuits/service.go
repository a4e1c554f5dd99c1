package circuits

import (
	"fmt"
	"sync"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxSteps is the longest circuit a session may hold.
const MaxSteps = 64

// SessionStore persists sessions. *Repository implements it.
type SessionStore interface {
	Create(sess *Session) error
	GetByID(id string) (*Session, error)
	List() ([]Summary, error)
	Update(sess *Session) error
	Delete(id string) error
	DeleteStale(cutoff time.Time) (int64, error)
}

// Recorder receives service metrics. *metrics.Metrics implements it.
type Recorder interface {
	ObserveReplay(start time.Time, err error)
	IncrementMeasurementsSampled(source string, count int)
	IncrementCouplingApproximated(count int)
	IncrementSessionsCreated()
	AddSessionsDeleted(reason string, count int64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveReplay(time.Time, error)           {}
func (nopRecorder) IncrementMeasurementsSampled(string, int) {}
func (nopRecorder) IncrementCouplingApproximated(int)        {}
func (nopRecorder) IncrementSessionsCreated()                {}
func (nopRecorder) AddSessionsDeleted(string, int64)         {}

// CreateRequest describes a new session. Zero values take the defaults: two
// qubits and DefaultSteps steps.
type CreateRequest struct {
	Name          string `json:"name"`
	Qubits        int    `json:"qubits"`
	Steps         int    `json:"steps"`
	SeedReference bool   `json:"seed_reference"`
}

// Service coordinates editing, persistence and replay of circuit sessions.
// Read-modify-write cycles are serialised so concurrent edits of one session
// cannot interleave.
type Service struct {
	store   SessionStore
	editor  *Editor
	engine  *replay.Engine
	metrics Recorder
	now     func() time.Time
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewService creates a new circuits service. metrics may be nil.
func NewService(store SessionStore, editor *Editor, engine *replay.Engine, metrics Recorder, log zerolog.Logger) *Service {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Service{
		store:   store,
		editor:  editor,
		engine:  engine,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		log:     log.With().Str("service", "circuits").Logger(),
	}
}

// Create starts a new session.
func (s *Service) Create(req CreateRequest) (*Session, error) {
	if req.Qubits == 0 {
		req.Qubits = min(2, s.editor.MaxQubits())
	}
	if req.Steps == 0 {
		req.Steps = DefaultSteps
	}
	if req.Qubits < 1 || req.Qubits > s.editor.MaxQubits() {
		return nil, fmt.Errorf("%w: qubit count %d outside [1, %d]", ErrInvalidPlacement, req.Qubits, s.editor.MaxQubits())
	}
	if req.Steps < 1 || req.Steps > MaxSteps {
		return nil, fmt.Errorf("%w: step count %d outside [1, %d]", ErrInvalidPlacement, req.Steps, MaxSteps)
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Circuit:   replay.NewCircuit(req.Qubits, req.Steps),
		Cursor:    -1,
		Outcomes:  quantum.NewOutcomeTable(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.SeedReference {
		s.editor.SeedReference(sess)
	}

	if err := s.store.Create(sess); err != nil {
		return nil, err
	}
	s.metrics.IncrementSessionsCreated()
	s.log.Info().Str("id", sess.ID).Int("qubits", req.Qubits).Int("steps", req.Steps).Msg("Circuit session created")
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(id string) (*Session, error) {
	return s.store.GetByID(id)
}

// List returns every session summary.
func (s *Service) List() ([]Summary, error) {
	return s.store.List()
}

// Delete removes a session.
func (s *Service) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.metrics.AddSessionsDeleted("user", 1)
	return nil
}

// mutate loads a session, applies fn and persists the result.
func (s *Service) mutate(id string, fn func(sess *Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.store.Update(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Import replaces the circuit of a session.
func (s *Service) Import(id string, c *replay.Circuit) (*Session, error) {
	return s.mutate(id, func(sess *Session) error {
		return s.editor.Replace(sess, c)
	})
}

// Rename changes the display name of a session.
func (s *Service) Rename(id, name string) (*Session, error) {
	return s.mutate(id, func(sess *Session) error {
		sess.Name = name
		return nil
	})
}

// PlaceGate puts a single-qubit gate at (qubit, step).
func (s *Service) PlaceGate(id string, qubit, step int, gate string) (*Session, error) {
	return s.mutate(id, func(sess *Session) error {
		return s.editor.PlaceGate(sess, qubit, step, gate)
	})
}

// PlaceCX puts CX(control, target) at step.
func (s *Service) PlaceCX(id string, step, control, target int) (*Session, error) {
	return s.mutate(id, func(sess *Session) error {
		return s.editor.PlaceCX(sess, step, control, target)
	})
}

// ClearCell empties (qubit, step).
func (s *Service) ClearCell(id string, qubit, step int) (*Session, error) {
	return s.mutate(id, func(sess *Session) error {
		return s.editor.ClearCell(sess, qubit, step)
	})
}

// SetInitial changes the initial selector of qubit.
func (s *Service) SetInitial(id string, qubit int, basis quantum.Basis) (*Session, error) {
	return s.mutate(id, func(sess *Session) error {
		return s.editor.SetInitial(sess, qubit, basis)
	})
}

// Resize changes the qubit count.
func (s *Service) Resize(id string, qubits int) (*Session, error) {
	return s.mutate(id, func(sess *Session) error {
		return s.editor.Resize(sess, qubits)
	})
}

// Resample drops the memo and returns how many outcomes were removed.
func (s *Service) Resample(id string) (int, error) {
	removed := 0
	_, err := s.mutate(id, func(sess *Session) error {
		removed = s.editor.Resample(sess)
		return nil
	})
	return removed, err
}

// Export returns a copy of the circuit definition.
func (s *Service) Export(id string) (*replay.Circuit, error) {
	sess, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	return sess.Circuit.Clone(), nil
}

// Replay derives the circuit state at step, or at the cursor when step is nil.
// Outcomes sampled for the first time are persisted.
func (s *Service) Replay(id string, step *int) (*Session, *replay.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	target := sess.Cursor
	if step != nil {
		target = *step
	}
	res, err := s.replayLocked(sess, target)
	if err != nil {
		return nil, nil, err
	}
	return sess, res, nil
}

// Step moves the cursor and replays at the new position.
func (s *Service) Step(id string, d Direction) (*Session, *replay.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	s.editor.Move(sess, d)
	sess.UpdatedAt = s.now()
	res, err := s.replayLocked(sess, sess.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if res.FreshDraws() == 0 {
		// replayLocked only persists when the memo grew
		if err := s.store.Update(sess); err != nil {
			return nil, nil, err
		}
	}
	return sess, res, nil
}

// Measure samples qubit on the state at the cursor without memoising the draw.
func (s *Service) Measure(id string, qubit int) (*replay.Result, replay.MeasurementEvent, error) {
	_, res, err := s.Replay(id, nil)
	if err != nil {
		return nil, replay.MeasurementEvent{}, err
	}
	out, event, err := s.engine.Measure(res, qubit)
	if err != nil {
		return nil, replay.MeasurementEvent{}, err
	}
	s.metrics.IncrementMeasurementsSampled("adhoc", 1)
	return out, event, nil
}

// CleanupStale deletes sessions untouched for longer than ttl.
func (s *Service) CleanupStale(ttl time.Duration) (int64, error) {
	removed, err := s.store.DeleteStale(s.now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	s.metrics.AddSessionsDeleted("stale", removed)
	return removed, nil
}

func (s *Service) replayLocked(sess *Session, target int) (*replay.Result, error) {
	start := time.Now()
	res, err := s.engine.Replay(sess.Context(), sess.Circuit, target)
	s.metrics.ObserveReplay(start, err)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCouplingApproximated(res.Approximated)
	if fresh := res.FreshDraws(); fresh > 0 {
		s.metrics.IncrementMeasurementsSampled("memo", fresh)
		sess.UpdatedAt = s.now()
		if err := s.store.Update(sess); err != nil {
			return nil, fmt.Errorf("failed to persist outcomes: %w", err)
		}
	}
	return res, nil
}
