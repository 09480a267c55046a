package httpd

import (
	"net/http"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

type profileResponse struct {
	Profile *models.Profile `json:"profile"`
	Token   string          `json:"token"`
}

// CreateProfile registers a profile and signs the caller in as it.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.services.Profiles.CreateProfile(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	token, err := h.auth.IssueToken(profile.ID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.auth.SetCookie(w, token)

	writeSuccess(w, profileResponse{Profile: profile, Token: token})
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	profile, err := h.services.Profiles.GetProfile(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, profile)
}
