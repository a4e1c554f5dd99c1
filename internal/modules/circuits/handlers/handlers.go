// Package handlers provides HTTP handlers for circuit sessions.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// StreamRecorder tracks open playback streams. *metrics.Metrics implements it.
type StreamRecorder interface {
	StreamOpened()
	StreamClosed()
}

type nopStreams struct{}

func (nopStreams) StreamOpened() {}
func (nopStreams) StreamClosed() {}

// Handler handles circuit session HTTP requests
type Handler struct {
	service  *circuits.Service
	streams  StreamRecorder
	interval time.Duration
	log      zerolog.Logger
}

// NewHandler creates a new circuits handler. interval is the default delay
// between playback frames; streams may be nil.
func NewHandler(service *circuits.Service, interval time.Duration, streams StreamRecorder, log zerolog.Logger) *Handler {
	if streams == nil {
		streams = nopStreams{}
	}
	return &Handler{
		service:  service,
		streams:  streams,
		interval: interval,
		log:      log.With().Str("handler", "circuits").Logger(),
	}
}

// SessionResponse is a session with its memoised outcomes
type SessionResponse struct {
	*circuits.Session
	Outcomes []quantum.OutcomeEntry `json:"outcomes"`
}

func sessionResponse(sess *circuits.Session) SessionResponse {
	entries := []quantum.OutcomeEntry{}
	if sess.Outcomes != nil {
		entries = sess.Outcomes.Entries()
	}
	return SessionResponse{Session: sess, Outcomes: entries}
}

// ReplayResponse pairs a replay result with the session cursor
type ReplayResponse struct {
	Cursor int            `json:"cursor"`
	Result *replay.Result `json:"result"`
}

// PlaceGateRequest represents a request to place a single-qubit gate
type PlaceGateRequest struct {
	Qubit int    `json:"qubit"`
	Step  int    `json:"step"`
	Gate  string `json:"gate"`
}

// PlaceCXRequest represents a request to place a CX
type PlaceCXRequest struct {
	Step    int `json:"step"`
	Control int `json:"control"`
	Target  int `json:"target"`
}

// InitialRequest represents a request to change an initial selector
type InitialRequest struct {
	Basis string `json:"basis"`
}

// ResizeRequest represents a request to change the qubit count
type ResizeRequest struct {
	Qubits int `json:"qubits"`
}

// RenameRequest represents a request to rename a session
type RenameRequest struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /api/circuits
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req circuits.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, err := h.service.Create(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope(sessionResponse(sess)))
}

// HandleList handles GET /api/circuits
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(list),
		},
	})
}

// HandleGet handles GET /api/circuits/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(sessionResponse(sess)))
}

// HandleDelete handles DELETE /api/circuits/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleImport handles PUT /api/circuits/{id}. The body is a circuit in JSON, or
// in YAML when the content type says so.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var c replay.Circuit
	if isYAML(r.Header.Get("Content-Type")) {
		if err := yaml.NewDecoder(r.Body).Decode(&c); err != nil {
			h.log.Error().Err(err).Msg("Failed to decode YAML circuit")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else if !h.decode(w, r, &c) {
		return
	}
	h.respondSession(w)(h.service.Import(chi.URLParam(r, "id"), &c))
}

// HandleRename handles PATCH /api/circuits/{id}
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respondSession(w)(h.service.Rename(chi.URLParam(r, "id"), req.Name))
}

// HandlePlaceGate handles POST /api/circuits/{id}/gates
func (h *Handler) HandlePlaceGate(w http.ResponseWriter, r *http.Request) {
	var req PlaceGateRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respondSession(w)(h.service.PlaceGate(chi.URLParam(r, "id"), req.Qubit, req.Step, req.Gate))
}

// HandlePlaceCX handles POST /api/circuits/{id}/cx
func (h *Handler) HandlePlaceCX(w http.ResponseWriter, r *http.Request) {
	var req PlaceCXRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respondSession(w)(h.service.PlaceCX(chi.URLParam(r, "id"), req.Step, req.Control, req.Target))
}

// HandleClearCell handles DELETE /api/circuits/{id}/cells/{qubit}/{step}
func (h *Handler) HandleClearCell(w http.ResponseWriter, r *http.Request) {
	qubit, ok := h.intParam(w, r, "qubit")
	if !ok {
		return
	}
	step, ok := h.intParam(w, r, "step")
	if !ok {
		return
	}
	h.respondSession(w)(h.service.ClearCell(chi.URLParam(r, "id"), qubit, step))
}

// HandleSetInitial handles PUT /api/circuits/{id}/initial/{qubit}
func (h *Handler) HandleSetInitial(w http.ResponseWriter, r *http.Request) {
	qubit, ok := h.intParam(w, r, "qubit")
	if !ok {
		return
	}
	var req InitialRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respondSession(w)(h.service.SetInitial(chi.URLParam(r, "id"), qubit, quantum.Basis(req.Basis)))
}

// HandleResize handles POST /api/circuits/{id}/resize
func (h *Handler) HandleResize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respondSession(w)(h.service.Resize(chi.URLParam(r, "id"), req.Qubits))
}

// HandleReplay handles GET /api/circuits/{id}/replay?step=N. Without a step the
// session cursor is used.
func (h *Handler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	var step *int
	if raw := r.URL.Query().Get("step"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid step parameter", http.StatusBadRequest)
			return
		}
		step = &n
	}

	sess, res, err := h.service.Replay(chi.URLParam(r, "id"), step)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(ReplayResponse{Cursor: sess.Cursor, Result: res}))
}

// HandleStep handles POST /api/circuits/{id}/step/{direction}
func (h *Handler) HandleStep(w http.ResponseWriter, r *http.Request) {
	d, ok := circuits.ParseDirection(chi.URLParam(r, "direction"))
	if !ok {
		http.Error(w, "Direction must be forward, back or reset", http.StatusBadRequest)
		return
	}

	sess, res, err := h.service.Step(chi.URLParam(r, "id"), d)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(ReplayResponse{Cursor: sess.Cursor, Result: res}))
}

// HandleMeasure handles POST /api/circuits/{id}/measure/{qubit}
func (h *Handler) HandleMeasure(w http.ResponseWriter, r *http.Request) {
	qubit, ok := h.intParam(w, r, "qubit")
	if !ok {
		return
	}

	res, event, err := h.service.Measure(chi.URLParam(r, "id"), qubit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"measurement": event,
		"result":      res,
	}))
}

// HandleResample handles DELETE /api/circuits/{id}/outcomes
func (h *Handler) HandleResample(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.Resample(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{"removed": removed}))
}

// HandleExport handles GET /api/circuits/{id}/export. ?format=yaml returns YAML.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Export(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(c); err != nil {
			h.log.Error().Err(err).Msg("Failed to encode YAML response")
		}
		_ = enc.Close()
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(c))
}

func (h *Handler) respondSession(w http.ResponseWriter) func(*circuits.Session, error) {
	return func(sess *circuits.Session, err error) {
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, envelope(sessionResponse(sess)))
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, "Invalid "+name+" parameter", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, circuits.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quantum.ErrImpossibleOutcome):
		return http.StatusUnprocessableEntity
	case errors.Is(err, circuits.ErrInvalidPlacement),
		errors.Is(err, replay.ErrInvalidCircuit),
		errors.Is(err, replay.ErrStepOutOfRange),
		errors.Is(err, replay.ErrQubitOutOfRange),
		errors.Is(err, quantum.ErrUnknownGate),
		errors.Is(err, quantum.ErrInvalidBasis):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Circuit request failed")
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func isYAML(contentType string) bool {
	switch contentType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return true
	}
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
