package httpd

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/service"
)

// RedeemInviteRedirect is the browser entry point for invite links. It always
// answers with a redirect: to sign-in for anonymous visitors, otherwise to the
// page matching the resulting membership.
func (h *Handler) RedeemInviteRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	result, err := h.services.Membership.RedeemInvite(r.Context(), code, currentUser(r))
	if errors.Is(err, service.ErrUnauthenticated) {
		next := url.Values{"next": {r.URL.Path}}
		http.Redirect(w, r, h.signInURL+"?"+next.Encode(), http.StatusSeeOther)
		return
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, result.Route, http.StatusSeeOther)
}

func (h *Handler) RedeemInvite(w http.ResponseWriter, r *http.Request) {
	result, err := h.services.Membership.RedeemInvite(r.Context(), chi.URLParam(r, "code"), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.services.Membership.ListMembers(
		r.Context(),
		currentUser(r),
		chi.URLParam(r, "serverID"),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, members)
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.AddMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.services.Membership.AddMember(r.Context(), currentUser(r), chi.URLParam(r, "serverID"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, member)
}

func (h *Handler) ApproveMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.services.Membership.Approve(
		r.Context(),
		currentUser(r),
		chi.URLParam(r, "serverID"),
		chi.URLParam(r, "memberID"),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, member)
}

func (h *Handler) RejectMember(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.RejectMemberRequest
	// The reason is optional, so an empty body is accepted.
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	member, err := h.services.Membership.Reject(
		r.Context(),
		currentUser(r),
		chi.URLParam(r, "serverID"),
		chi.URLParam(r, "memberID"),
		req.Reason,
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, member)
}

func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	var req models.UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.services.Membership.UpdateRole(
		r.Context(),
		currentUser(r),
		chi.URLParam(r, "serverID"),
		chi.URLParam(r, "memberID"),
		&req,
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, member)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.services.Membership.RemoveMember(
		r.Context(),
		currentUser(r),
		chi.URLParam(r, "serverID"),
		chi.URLParam(r, "memberID"),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Member removed"})
}

func (h *Handler) LeaveServer(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Membership.Leave(r.Context(), currentUser(r), chi.URLParam(r, "serverID")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Left server"})
}
