// Package handlers provides stateless HTTP handlers for inspecting gates and
// single- and two-qubit states.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/rs/zerolog"
)

// Handler handles quantum HTTP requests
type Handler struct {
	catalog *quantum.Catalog
	log     zerolog.Logger
}

// NewHandler creates a new quantum handler
func NewHandler(catalog *quantum.Catalog, log zerolog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		log:     log.With().Str("handler", "quantum").Logger(),
	}
}

// GateInfo is the catalog entry returned by GET /api/quantum/gates
type GateInfo struct {
	quantum.Gate
	Inverse     string `json:"inverse,omitempty"`
	Measurement bool   `json:"measurement"`
}

// ApplyRequest represents a request to apply a gate to a single qubit.
// Either Basis or both amplitudes must be given; amplitudes are [re, im] pairs.
type ApplyRequest struct {
	Basis string      `json:"basis,omitempty"`
	Alpha *[2]float64 `json:"alpha,omitempty"`
	Beta  *[2]float64 `json:"beta,omitempty"`
	Gate  string      `json:"gate"`
}

// QubitView is a single-qubit state with its derived quantities
type QubitView struct {
	State  quantum.State  `json:"state"`
	Bloch  quantum.Vector `json:"bloch"`
	Purity float64        `json:"purity"`
}

// AnalyzeRequest represents a request to analyze a two-qubit density matrix
type AnalyzeRequest struct {
	Rho *quantum.Matrix `json:"rho"`
}

func viewOf(s quantum.State) QubitView {
	return QubitView{State: s, Bloch: quantum.BlochOf(s), Purity: quantum.StatePurity(s)}
}

// HandleGetGates handles GET /api/quantum/gates
func (h *Handler) HandleGetGates(w http.ResponseWriter, r *http.Request) {
	names := h.catalog.Names()
	gates := make([]GateInfo, 0, len(names))
	for _, name := range names {
		g, _ := h.catalog.Lookup(name)
		inv, _ := h.catalog.Inverse(name)
		gates = append(gates, GateInfo{Gate: g, Inverse: inv, Measurement: g.IsMeasurement()})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"gates": gates,
			"bases": quantum.Bases,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(gates),
		},
	})
}

// HandleApplyGate handles POST /api/quantum/apply
func (h *Handler) HandleApplyGate(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	before, err := req.state()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	gate, err := h.catalog.Resolve(req.Gate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if gate.IsMeasurement() {
		http.Error(w, "Measurement is not a unitary gate", http.StatusBadRequest)
		return
	}

	after := quantum.ApplyGate(before, gate)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"gate":   gate.Name,
			"before": viewOf(before),
			"after":  viewOf(after),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (req ApplyRequest) state() (quantum.State, error) {
	if req.Alpha != nil || req.Beta != nil {
		if req.Alpha == nil || req.Beta == nil {
			return nil, errors.New("alpha and beta must be given together")
		}
		alpha := complex(req.Alpha[0], req.Alpha[1])
		beta := complex(req.Beta[0], req.Beta[1])
		if quantum.Abs2(alpha)+quantum.Abs2(beta) < quantum.Epsilon {
			return nil, errors.New("amplitudes must not both be zero")
		}
		return quantum.NewPure(alpha, beta), nil
	}
	if req.Basis == "" {
		return quantum.DefaultBasis.State(), nil
	}
	basis, err := quantum.ParseBasis(req.Basis)
	if err != nil {
		return nil, err
	}
	return basis.State(), nil
}

// HandleAnalyze handles POST /api/quantum/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rho == nil || req.Rho.Dim() != 4 {
		http.Error(w, "rho must be a 4x4 matrix", http.StatusBadRequest)
		return
	}
	rho := *req.Rho
	if tr := rho.Trace(); math.Abs(real(tr)-1) > 1e-6 || math.Abs(imag(tr)) > 1e-6 {
		http.Error(w, "rho must have unit trace", http.StatusBadRequest)
		return
	}

	entangled := quantum.IsEntangled(rho)
	label := ""
	if entangled {
		label = quantum.DescribeBellState(rho)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"purity":              quantum.Purity(rho),
			"entangled":           entangled,
			"bell_label":          label,
			"correlations":        quantum.PairCorrelations(rho),
			"basis_probabilities": quantum.BasisProbabilities(rho),
			"qubits": []QubitView{
				viewOf(quantum.FromDensity(quantum.Reduced(rho, quantum.Slot0))),
				viewOf(quantum.FromDensity(quantum.Reduced(rho, quantum.Slot1))),
			},
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
