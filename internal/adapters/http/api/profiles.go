package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// ProfileDependencies defines the profile operations used by ProfilesHandler.
type ProfileDependencies interface {
	PutProfile(ctx context.Context, p model.Profile) error
	GetProfile(ctx context.Context, id string) (model.Profile, error)
}

// ProfilesHandler handles /profiles/{id} requests.
type ProfilesHandler struct {
	deps ProfileDependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

// HandlePut handles PUT /profiles/{id}. The path id is authoritative; a
// conflicting body id is rejected.
func (h *ProfilesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_profile"

	id := strings.TrimSpace(r.PathValue("id"))
	var raw model.RawProfile
	if err := decodeBody(w, r, &raw); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	p := raw.Normalize()
	if p.ID != "" && p.ID != id {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, fmt.Errorf("body id %q does not match path id %q", p.ID, id)))
		return
	}
	p.ID = id

	if err := h.deps.PutProfile(r.Context(), p); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGet handles GET /profiles/{id}.
func (h *ProfilesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"

	p, err := h.deps.GetProfile(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
