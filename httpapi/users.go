package httpapi

import (
	"net/http"

	"wagerly/models"
)

type ensureUserRequest struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// GET /api/me
func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.GetUser(r.Context(), actor(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "User retrieved successfully.", newUserView(user))
}

// POST /api/admin/users provisions a user and its wallet. Repeated calls return the existing user.
func (h *handlers) ensureUser(w http.ResponseWriter, r *http.Request) {
	var body ensureUserRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	role := models.Role(body.Role)
	if role == "" {
		role = models.RoleUser
	}

	user, err := h.svc.Users.EnsureUser(r.Context(), body.Username, role)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "User ready.", newUserView(user))
}
