package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

func (h *Handler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.CreateAssessmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	assessment, err := h.services.Assessments.CreateAssessment(r.Context(), currentUser(r), chi.URLParam(r, "channelID"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	assessments, err := h.services.Assessments.ListAssessments(r.Context(), currentUser(r), chi.URLParam(r, "channelID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, assessments)
}

func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.services.Assessments.GetAssessment(r.Context(), currentUser(r), chi.URLParam(r, "assessmentID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) UpdateAssessmentSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.UpdateAssessmentSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	assessment, err := h.services.Assessments.UpdateSettings(r.Context(), currentUser(r), chi.URLParam(r, "assessmentID"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) GetAssessmentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.services.Stats.AssessmentStats(r.Context(), currentUser(r), chi.URLParam(r, "assessmentID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, stats)
}
