package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

func (h *Handler) CreateServer(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.CreateServerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	server, err := h.services.Servers.CreateServer(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, server)
}

func (h *Handler) GetClassroom(w http.ResponseWriter, r *http.Request) {
	classroom, err := h.services.Servers.GetClassroom(r.Context(), currentUser(r), chi.URLParam(r, "serverID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, classroom)
}

func (h *Handler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	server, err := h.services.Servers.RegenerateInviteCode(r.Context(), currentUser(r), chi.URLParam(r, "serverID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, server)
}

func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.services.Servers.ListChannels(r.Context(), currentUser(r), chi.URLParam(r, "serverID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, channels)
}

func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.CreateChannelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	channel, err := h.services.Servers.CreateChannel(r.Context(), currentUser(r), chi.URLParam(r, "serverID"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, channel)
}

func (h *Handler) GetServerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.services.Stats.ServerStats(r.Context(), currentUser(r), chi.URLParam(r, "serverID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, stats)
}
