package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/recommend"
)

// RecommendDependencies defines the scoring operations used by RecommendHandler.
type RecommendDependencies interface {
	Preset(view recommend.View, opts ...recommend.Option) recommend.Config
	Recommend(ctx context.Context, profileID string, cfg recommend.Config) ([]model.ScoredPosting, error)
	ScoreAdHoc(ctx context.Context, profile model.Profile, postings []model.Posting, cfg recommend.Config) []model.ScoredPosting
}

// RecommendHandler handles /recommendations and /score.
type RecommendHandler struct {
	deps     RecommendDependencies
	maxLimit int
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(deps RecommendDependencies, maxLimit int) *RecommendHandler {
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}
	return &RecommendHandler{deps: deps, maxLimit: maxLimit}
}

type recommendResponse struct {
	ProfileID string                `json:"profile_id,omitempty"`
	View      recommend.View        `json:"view"`
	Count     int                   `json:"count"`
	Items     []model.ScoredPosting `json:"items"`
}

// viewParams are the knobs shared by GET /recommendations and POST /score.
type viewParams struct {
	View     string
	Sort     string
	Budget   string
	WorkType string
	Location string
	MinScore string
	MaxScore string
}

// config resolves params into a preset Config. Range bounds and the
// work type, location and budget filters only apply to the filter view.
func (p viewParams) config(deps RecommendDependencies) (recommend.View, recommend.Config, error) {
	view, err := recommend.ParseView(p.View)
	if err != nil {
		return "", recommend.Config{}, err
	}
	sortKey, ok := recommend.ParseSortKey(p.Sort)
	if !ok {
		return "", recommend.Config{}, fmt.Errorf("%w: unknown sort %q", ErrBadRequest, p.Sort)
	}
	opts := []recommend.Option{recommend.WithSort(sortKey)}

	if view == recommend.ViewFilter {
		bucket, ok := recommend.ParseBudgetBucket(p.Budget)
		if !ok {
			return "", recommend.Config{}, fmt.Errorf("%w: unknown budget %q", ErrBadRequest, p.Budget)
		}
		lo, hi := recommend.ParseScoreBounds(p.MinScore, p.MaxScore)
		opts = append(opts,
			recommend.WithRange(lo, hi),
			recommend.WithWorkType(p.WorkType),
			recommend.WithLocation(p.Location),
			recommend.WithBudget(bucket),
		)
	}
	return view, deps.Preset(view, opts...), nil
}

func (h *RecommendHandler) parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > h.maxLimit {
		return 0, fmt.Errorf("%w: limit must be at most %d", ErrBadRequest, h.maxLimit)
	}
	return n, nil
}

// HandleGet handles GET /recommendations?profile_id=...
func (h *RecommendHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations"

	q := r.URL.Query()
	profileID := strings.TrimSpace(q.Get("profile_id"))
	if profileID == "" {
		writeFailure(w, op, fmt.Errorf("%w: profile_id is required", ErrBadRequest))
		return
	}
	limit, err := h.parseLimit(q.Get("limit"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	view, cfg, err := viewParams{
		View:     q.Get("view"),
		Sort:     q.Get("sort"),
		Budget:   q.Get("budget"),
		WorkType: q.Get("work_type"),
		Location: q.Get("location"),
		MinScore: q.Get("min_score"),
		MaxScore: q.Get("max_score"),
	}.config(h.deps)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	items, err := h.deps.Recommend(r.Context(), profileID, cfg)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	writeJSON(w, http.StatusOK, recommendResponse{
		ProfileID: profileID,
		View:      view,
		Count:     len(items),
		Items:     nonNil(items),
	})
}

type scoreRequest struct {
	Profile  model.RawProfile     `json:"profile"`
	Postings []model.RawPosting   `json:"postings"`
	View     string               `json:"view"`
	Sort     string               `json:"sort"`
	Budget   string               `json:"budget"`
	WorkType string               `json:"work_type"`
	Location string               `json:"location"`
	MinScore model.FlexibleNumber `json:"min_score"`
	MaxScore model.FlexibleNumber `json:"max_score"`
}

// HandleScore handles POST /score, scoring caller-supplied data without
// touching the catalog.
func (h *RecommendHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"

	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	view, cfg, err := viewParams{
		View:     req.View,
		Sort:     req.Sort,
		Budget:   req.Budget,
		WorkType: req.WorkType,
		Location: req.Location,
		MinScore: boundString(req.MinScore),
		MaxScore: boundString(req.MaxScore),
	}.config(h.deps)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	profile := req.Profile.Normalize()
	postings := make([]model.Posting, 0, len(req.Postings))
	for i := range req.Postings {
		postings = append(postings, req.Postings[i].Normalize())
	}

	items := h.deps.ScoreAdHoc(r.Context(), profile, postings, cfg)
	writeJSON(w, http.StatusOK, recommendResponse{
		ProfileID: profile.ID,
		View:      view,
		Count:     len(items),
		Items:     nonNil(items),
	})
}

func boundString(n model.FlexibleNumber) string {
	if !n.Valid {
		return ""
	}
	v := math.Max(recommend.MinScoreBound, math.Min(recommend.MaxScoreBound, n.Value))
	return strconv.Itoa(int(v))
}

func nonNil(items []model.ScoredPosting) []model.ScoredPosting {
	if items == nil {
		return []model.ScoredPosting{}
	}
	return items
}

