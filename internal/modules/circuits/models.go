// Package circuits manages editable circuit sessions: placement rules, cursor
// stepping, persistence of the circuit and its measurement memo, and replay.
package circuits

import (
	"errors"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("circuit session not found")
	// ErrInvalidPlacement is returned when an edit violates the placement rules.
	ErrInvalidPlacement = errors.New("invalid placement")
)

// DefaultSteps is the step count of a new circuit.
const DefaultSteps = 12

// Session is a persisted, editable circuit together with its cursor and memo.
// Cursor is the active step in [-1, steps-1].
type Session struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Circuit   *replay.Circuit       `json:"circuit"`
	Cursor    int                   `json:"cursor"`
	Outcomes  *quantum.OutcomeTable `json:"-"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Summary is the listing form of a session.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Qubits    int       `json:"qubits"`
	Steps     int       `json:"steps"`
	Cursor    int       `json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing form of s.
func (s *Session) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Name:      s.Name,
		Qubits:    s.Circuit.Qubits,
		Steps:     s.Circuit.Steps,
		Cursor:    s.Cursor,
		UpdatedAt: s.UpdatedAt,
	}
}

// Context returns the replay context backed by the session's memo.
func (s *Session) Context() *replay.Context {
	if s.Outcomes == nil {
		s.Outcomes = quantum.NewOutcomeTable()
	}
	return &replay.Context{Outcomes: s.Outcomes}
}

// Direction is a cursor movement.
type Direction string

// Cursor movements.
const (
	StepForward Direction = "forward"
	StepBack    Direction = "back"
	StepReset   Direction = "reset"
)

// ParseDirection validates a cursor movement.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(s); d {
	case StepForward, StepBack, StepReset:
		return d, true
	}
	return "", false
}
