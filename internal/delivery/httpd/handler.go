package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/middleware"
	"github.com/RubachokBoss/classroom-service/internal/service"
	"github.com/RubachokBoss/classroom-service/internal/validation"
)

const defaultMaxUploadSize = 32 << 20

type Options struct {
	SignInURL     string
	MaxUploadSize int64
	Ping          func(ctx context.Context) error
}

type Handler struct {
	services      *service.Services
	auth          *middleware.Auth
	signInURL     string
	maxUploadSize int64
	ping          func(ctx context.Context) error
	logger        zerolog.Logger
}

func NewHandler(services *service.Services, auth *middleware.Auth, opts Options, logger zerolog.Logger) *Handler {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = defaultMaxUploadSize
	}
	if opts.SignInURL == "" {
		opts.SignInURL = "/sign-in"
	}

	return &Handler{
		services:      services,
		auth:          auth,
		signInURL:     opts.SignInURL,
		maxUploadSize: opts.MaxUploadSize,
		ping:          opts.Ping,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/invite/{code}", h.RedeemInviteRedirect)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/invites/{code}", h.RedeemInvite)

		api.Route("/profiles", func(r chi.Router) {
			r.Post("/", h.CreateProfile)
			r.Get("/me", h.GetMyProfile)
		})

		api.Route("/servers", func(r chi.Router) {
			r.Post("/", h.CreateServer)

			r.Route("/{serverID}", func(r chi.Router) {
				r.Get("/", h.GetClassroom)
				r.Post("/invite-code", h.RegenerateInviteCode)
				r.Get("/channels", h.ListChannels)
				r.Post("/channels", h.CreateChannel)
				r.Post("/leave", h.LeaveServer)
				r.Get("/stats", h.GetServerStats)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", h.ListMembers)
					r.Post("/", h.AddMember)
					r.Post("/{memberID}/approve", h.ApproveMember)
					r.Post("/{memberID}/reject", h.RejectMember)
					r.Put("/{memberID}/role", h.UpdateMemberRole)
					r.Delete("/{memberID}", h.RemoveMember)
				})
			})
		})

		api.Route("/channels/{channelID}/assessments", func(r chi.Router) {
			r.Post("/", h.CreateAssessment)
			r.Get("/", h.ListAssessments)
		})

		api.Route("/assessments/{assessmentID}", func(r chi.Router) {
			r.Get("/", h.GetAssessment)
			r.Patch("/settings", h.UpdateAssessmentSettings)
			r.Post("/submissions", h.Submit)
			r.Post("/essay", h.SubmitEssay)
			r.Get("/stats", h.GetAssessmentStats)
		})

		api.Route("/results/{resultID}", func(r chi.Router) {
			r.Get("/", h.GetResult)
			r.Put("/grade", h.GradeResult)
		})
	})
}

func currentUser(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// requireUser answers 401 for anonymous callers. Handlers that read a body
// call it first so identity is reported before payload problems.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) bool {
	if currentUser(r) == "" {
		h.handleServiceError(w, r, service.ErrMissingIdentity)
		return false
	}
	return true
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeErrorBody(w, status, message, nil)
}

func writeErrorBody(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	body := map[string]interface{}{
		"success": false,
		"error":   http.StatusText(status),
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}

// handleServiceError maps a service error kind to a status code. Only
// unexpected failures are logged; their detail never reaches the client.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var redirect *service.RedirectError
	if errors.As(err, &redirect) {
		writeErrorBody(w, http.StatusForbidden, redirect.Error(), map[string]interface{}{
			"redirect": redirect.Route,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeErrorBody(w, http.StatusUnauthorized, err.Error(), map[string]interface{}{
			"redirect": h.signInURL,
		})
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeErrorBody(w, http.StatusBadRequest, "validation failed", map[string]interface{}{
				"fields": verr.Fields,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("user_id", currentUser(r)).
			Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
