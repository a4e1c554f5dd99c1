package circuits

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	"github.com/rs/zerolog"
)

// Repository handles circuit session persistence in circuits.db.
// The circuit definition is stored as JSON text and the measurement memo as a
// msgpack blob so that replays after a restart reproduce the same outcomes.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new circuits repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "circuits").Logger(),
	}
}

func encodeSession(sess *Session) (definition string, memo []byte, err error) {
	raw, err := json.Marshal(sess.Circuit)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode circuit %s: %w", sess.ID, err)
	}
	if sess.Outcomes != nil {
		memo, err = sess.Outcomes.MarshalBinary()
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode outcomes for %s: %w", sess.ID, err)
		}
	}
	return string(raw), memo, nil
}

// Create inserts a new session.
func (r *Repository) Create(sess *Session) error {
	definition, memo, err := encodeSession(sess)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO circuits (id, name, definition, cursor, outcomes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Name, definition, sess.Cursor, memo, sess.CreatedAt.Unix(), sess.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert circuit %s: %w", sess.ID, err)
	}

	r.log.Debug().Str("id", sess.ID).Msg("Circuit session created")
	return nil
}

// GetByID loads a session. Returns ErrNotFound when it does not exist.
func (r *Repository) GetByID(id string) (*Session, error) {
	var (
		sess       Session
		definition string
		memo       []byte
		createdAt  int64
		updatedAt  int64
	)
	err := r.db.QueryRow(`
		SELECT id, name, definition, cursor, outcomes, created_at, updated_at
		FROM circuits WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Name, &definition, &sess.Cursor, &memo, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circuit %s: %w", id, err)
	}

	var c replay.Circuit
	if err := json.Unmarshal([]byte(definition), &c); err != nil {
		return nil, fmt.Errorf("failed to decode circuit %s: %w", id, err)
	}
	c.Normalize()
	sess.Circuit = &c

	sess.Outcomes = quantum.NewOutcomeTable()
	if err := sess.Outcomes.UnmarshalBinary(memo); err != nil {
		return nil, fmt.Errorf("failed to decode outcomes for %s: %w", id, err)
	}

	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &sess, nil
}

// List returns summaries of every session, most recently updated first.
func (r *Repository) List() ([]Summary, error) {
	rows, err := r.db.Query(`
		SELECT id, name, definition, cursor, updated_at
		FROM circuits ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list circuits: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			s          Summary
			definition string
			updatedAt  int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &definition, &s.Cursor, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan circuit: %w", err)
		}
		var c replay.Circuit
		if err := json.Unmarshal([]byte(definition), &c); err != nil {
			r.log.Warn().Err(err).Str("id", s.ID).Msg("Skipping undecodable circuit")
			continue
		}
		s.Qubits, s.Steps = c.Qubits, c.Steps
		s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate circuits: %w", err)
	}
	return summaries, nil
}

// Update persists every mutable field of a session.
func (r *Repository) Update(sess *Session) error {
	definition, memo, err := encodeSession(sess)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(`
		UPDATE circuits SET name = ?, definition = ?, cursor = ?, outcomes = ?, updated_at = ?
		WHERE id = ?
	`, sess.Name, definition, sess.Cursor, memo, sess.UpdatedAt.Unix(), sess.ID)
	if err != nil {
		return fmt.Errorf("failed to update circuit %s: %w", sess.ID, err)
	}
	return requireAffected(result, sess.ID)
}

// Delete removes a session.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM circuits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete circuit %s: %w", id, err)
	}
	return requireAffected(result, id)
}

// DeleteStale removes sessions not updated since cutoff and returns how many
// were removed.
func (r *Repository) DeleteStale(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM circuits WHERE updated_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale circuits: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted circuits: %w", err)
	}
	return removed, nil
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
