package httpd

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.AssessmentID = chi.URLParam(r, "assessmentID")
	req.UserID = currentUser(r)

	result, err := h.services.Submissions.Submit(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) SubmitEssay(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	result, err := h.services.Submissions.SubmitEssay(r.Context(), &models.EssaySubmitRequest{
		AssessmentID: chi.URLParam(r, "assessmentID"),
		UserID:       currentUser(r),
		FileName:     header.Filename,
		MimeType:     mimeType,
		Size:         header.Size,
		Content:      file,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.services.Submissions.GetResult(r.Context(), currentUser(r), chi.URLParam(r, "resultID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) GradeResult(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.GradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.services.Grading.Grade(r.Context(), currentUser(r), chi.URLParam(r, "resultID"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}
