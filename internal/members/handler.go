// internal/members/handler.go
package members

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the member and membership endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/members", h.handleRegisterMember)
	r.Get("/members", h.handleListMembers)
	r.Get("/members/{id}", h.handleGetMember)
	r.Put("/members/{id}", h.handleUpdateMember)
	r.Patch("/members/{id}/status", h.handleSetStatus)
	r.Delete("/members/{id}", h.handleDeleteMember)

	r.Post("/memberships", h.handleCreateMembership)
	r.Put("/memberships/{id}", h.handleUpdateMembership)

	r.Post("/members/reconcile", h.handleReconcile)
	r.Get("/members/status-breakdown", h.handleStatusBreakdown)
}

func (h *Handler) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var in RegisterMemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	member, err := h.service.RegisterMember(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	filter, err := FilterFromQuery(r.URL.Query().Get("status"), r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	listed, err := h.service.ListMembers(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listed)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid member ID"))
		return
	}

	detail, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid member ID"))
		return
	}

	var in RegisterMemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	member, err := h.service.UpdateMember(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid member ID"))
		return
	}

	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.SetMemberStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid member ID"))
		return
	}

	hard := r.URL.Query().Get("hard") == "true"
	if err := h.service.DeleteMember(r.Context(), id, hard); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateMembership(w http.ResponseWriter, r *http.Request) {
	var in MembershipInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	membership, err := h.service.CreateMembership(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, membership)
}

func (h *Handler) handleUpdateMembership(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid membership ID"))
		return
	}

	var in MembershipInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	membership, err := h.service.UpdateMembership(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, membership)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"

	result, err := h.service.Reconcile(r.Context(), dryRun)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStatusBreakdown(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.StatusBreakdown(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

// FilterFromQuery parses the shared filter parameters, validating them
// before any query runs.
func FilterFromQuery(status, start, end string) (Filter, error) {
	f := Filter{}

	sf, err := ParseStatusFilter(status)
	if err != nil {
		return Filter{}, err
	}
	f.Status = sf

	if start != "" {
		t, err := ParseDate("start_date", start)
		if err != nil {
			return Filter{}, err
		}
		f.Start = &t
	}
	if end != "" {
		t, err := ParseDate("end_date", end)
		if err != nil {
			return Filter{}, err
		}
		f.End = &t
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
