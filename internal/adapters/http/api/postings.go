package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// HeaderIdempotencyKey overrides the content-derived ingest key.
const HeaderIdempotencyKey = "Idempotency-Key"

// PostingDependencies defines the catalog operations used by PostingsHandler.
type PostingDependencies interface {
	SubmitPosting(ctx context.Context, p model.Posting, key string) (id string, duplicate bool, err error)
	ListPostings(ctx context.Context) ([]model.Posting, error)
	GetPosting(ctx context.Context, id string) (model.Posting, error)
	DeletePosting(ctx context.Context, id string) error
}

// PostingsHandler handles /postings requests.
type PostingsHandler struct {
	deps PostingDependencies
}

// NewPostingsHandler creates a new postings handler.
func NewPostingsHandler(deps PostingDependencies) *PostingsHandler {
	return &PostingsHandler{deps: deps}
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// HandleCreate handles POST /postings. Storage is asynchronous: 202 means
// queued, 200 means the same submission was already seen.
func (h *PostingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_posting"

	var raw model.RawPosting
	if err := decodeBody(w, r, &raw); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	posting := raw.Normalize()

	id, duplicate, err := h.deps.SubmitPosting(r.Context(), posting, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: id, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: id})
}

// HandleList handles GET /postings.
func (h *PostingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_postings"

	items, err := h.deps.ListPostings(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[model.Posting]{Count: len(items), Items: items})
}

// HandleGet handles GET /postings/{id}.
func (h *PostingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_posting"

	id := strings.TrimSpace(r.PathValue("id"))
	p, err := h.deps.GetPosting(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /postings/{id}.
func (h *PostingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_posting"

	id := strings.TrimSpace(r.PathValue("id"))
	if err := h.deps.DeletePosting(r.Context(), id); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
