package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sharetube/syncroom/internal/service/room"
)

type envelope map[string]any

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, data envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.InfoContext(r.Context(), "failed to write json", "error", err)
	}
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := normalizeRoomID(chi.URLParam(r, "room-id"))
	if roomID == "" {
		c.writeJSON(w, r, http.StatusNotFound, envelope{"error": room.ErrRoomNotFound.Error()})
		return
	}

	state, err := c.roomService.GetRoomState(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.writeJSON(w, r, http.StatusNotFound, envelope{"error": err.Error()})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get room state", "error", err)
		c.writeJSON(w, r, http.StatusInternalServerError, envelope{"error": "internal error"})
		return
	}

	c.writeJSON(w, r, http.StatusOK, envelope{"data": state})
}
