package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
)

const (
	writeWait   = 10 * time.Second
	minInterval = 50 * time.Millisecond
)

// Frame types sent on the playback stream.
const (
	FrameState = "state"
	FrameDone  = "done"
	FrameError = "error"
)

// PlaybackFrame is one message of the playback stream
type PlaybackFrame struct {
	Type   string         `json:"type"`
	Cursor int            `json:"cursor"`
	Result *replay.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// HandlePlay handles GET /api/circuits/{id}/play.
//
// The connection is upgraded to a websocket and the session cursor advances one
// step per interval until the last step, sending a state frame after each move.
// Query parameters: interval_ms overrides the configured delay and reset=true
// rewinds to the initial states first. The cursor stays wherever playback
// stopped.
func (h *Handler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	interval := h.interval
	if raw := r.URL.Query().Get("interval_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid interval_ms parameter", http.StatusBadRequest)
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}
	interval = max(interval, minInterval)

	reset := r.URL.Query().Get("reset") == "true"

	if _, err := h.service.Get(id); err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to accept playback websocket")
		return
	}
	h.streams.StreamOpened()
	defer h.streams.StreamClosed()

	// Incoming messages are ignored; the returned context ends when the client goes away
	ctx := conn.CloseRead(r.Context())

	log := h.log.With().Str("id", id).Dur("interval", interval).Logger()
	log.Info().Msg("Playback started")

	if err := h.play(ctx, conn, id, interval, reset); err != nil {
		if ctx.Err() != nil {
			log.Debug().Msg("Playback client disconnected")
			conn.Close(websocket.StatusGoingAway, "")
			return
		}
		log.Warn().Err(err).Msg("Playback failed")
		_ = h.sendFrame(ctx, conn, PlaybackFrame{Type: FrameError, Error: err.Error()})
		conn.Close(websocket.StatusInternalError, "playback failed")
		return
	}

	log.Info().Msg("Playback completed")
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) play(ctx context.Context, conn *websocket.Conn, id string, interval time.Duration, reset bool) error {
	var (
		sess *circuits.Session
		res  *replay.Result
		err  error
	)
	if reset {
		sess, res, err = h.service.Step(id, circuits.StepReset)
	} else {
		sess, res, err = h.service.Replay(id, nil)
	}
	if err != nil {
		return err
	}
	if err := h.sendFrame(ctx, conn, PlaybackFrame{Type: FrameState, Cursor: sess.Cursor, Result: res}); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for sess.Cursor < sess.Circuit.Steps-1 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		sess, res, err = h.service.Step(id, circuits.StepForward)
		if err != nil {
			return err
		}
		if err := h.sendFrame(ctx, conn, PlaybackFrame{Type: FrameState, Cursor: sess.Cursor, Result: res}); err != nil {
			return err
		}
	}

	return h.sendFrame(ctx, conn, PlaybackFrame{Type: FrameDone, Cursor: sess.Cursor})
}

func (h *Handler) sendFrame(ctx context.Context, conn *websocket.Conn, frame PlaybackFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal playback frame: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send playback frame: %w", err)
	}
	return nil
}
