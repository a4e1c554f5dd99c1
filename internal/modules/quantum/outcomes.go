package quantum

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// OutcomeKey identifies a measurement site in a circuit.
type OutcomeKey struct {
	Step  int
	Qubit int
}

// OutcomeRecord is the memoised result of the first visit to a measurement site.
type OutcomeRecord struct {
	Outcome       int           `json:"outcome"`
	Probabilities Probabilities `json:"probabilities"`
}

// OutcomeEntry is the flattened form of one memo entry.
type OutcomeEntry struct {
	Step          int           `json:"step" msgpack:"s"`
	Qubit         int           `json:"qubit" msgpack:"q"`
	Outcome       int           `json:"outcome" msgpack:"o"`
	Probabilities Probabilities `json:"probabilities" msgpack:"p"`
}

// OutcomeTable memoises measurement outcomes per (step, qubit). Entries are written
// once; later writes for the same key keep the first value. Safe for concurrent use.
type OutcomeTable struct {
	mu      sync.RWMutex
	records map[OutcomeKey]OutcomeRecord
}

// NewOutcomeTable returns an empty table.
func NewOutcomeTable() *OutcomeTable {
	return &OutcomeTable{records: make(map[OutcomeKey]OutcomeRecord)}
}

// Get returns the record for key, if one exists.
func (t *OutcomeTable) Get(key OutcomeKey) (OutcomeRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[key]
	return rec, ok
}

// Record stores rec under key unless the key is already present, and returns the
// record that is stored after the call.
func (t *OutcomeTable) Record(key OutcomeKey, rec OutcomeRecord) OutcomeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.records[key]; ok {
		return existing
	}
	t.records[key] = rec
	return rec
}

// Resolve returns the memoised record for key, drawing one sample from sampler the
// first time the key is seen. fresh reports whether a draw happened.
func (t *OutcomeTable) Resolve(key OutcomeKey, probs Probabilities, sampler Sampler) (rec OutcomeRecord, fresh bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.records[key]; ok {
		return existing, false
	}
	rec = OutcomeRecord{Outcome: ChooseOutcome(probs, sampler.Float64()), Probabilities: probs}
	t.records[key] = rec
	return rec, true
}

// ClearFrom removes every record at or after step and returns how many were removed.
func (t *OutcomeTable) ClearFrom(step int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for key := range t.records {
		if key.Step >= step {
			delete(t.records, key)
			removed++
		}
	}
	return removed
}

// ClearQubitsFrom removes records for qubits >= qubit. Used when wires are removed.
func (t *OutcomeTable) ClearQubitsFrom(qubit int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.records {
		if key.Qubit >= qubit {
			delete(t.records, key)
		}
	}
}

// Len returns the number of memoised outcomes.
func (t *OutcomeTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Entries returns the table ordered by step, then qubit.
func (t *OutcomeTable) Entries() []OutcomeEntry {
	t.mu.RLock()
	entries := make([]OutcomeEntry, 0, len(t.records))
	for key, rec := range t.records {
		entries = append(entries, OutcomeEntry{
			Step:          key.Step,
			Qubit:         key.Qubit,
			Outcome:       rec.Outcome,
			Probabilities: rec.Probabilities,
		})
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Step != entries[j].Step {
			return entries[i].Step < entries[j].Step
		}
		return entries[i].Qubit < entries[j].Qubit
	})
	return entries
}

// Clone returns an independent copy of the table.
func (t *OutcomeTable) Clone() *OutcomeTable {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := NewOutcomeTable()
	for key, rec := range t.records {
		out.records[key] = rec
	}
	return out
}

// MarshalBinary encodes the table with msgpack.
func (t *OutcomeTable) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(t.Entries())
}

// UnmarshalBinary replaces the table contents with a msgpack-encoded snapshot.
func (t *OutcomeTable) UnmarshalBinary(data []byte) error {
	var entries []OutcomeEntry
	if len(data) > 0 {
		if err := msgpack.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to decode outcome table: %w", err)
		}
	}
	records := make(map[OutcomeKey]OutcomeRecord, len(entries))
	for _, e := range entries {
		records[OutcomeKey{Step: e.Step, Qubit: e.Qubit}] = OutcomeRecord{
			Outcome:       e.Outcome,
			Probabilities: e.Probabilities,
		}
	}
	t.mu.Lock()
	t.records = records
	t.mu.Unlock()
	return nil
}
