package pii

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quipper/poc/aitutor/be/pkg/common/ctxcache"
	"github.com/quipper/poc/aitutor/be/pkg/common/logger"
	groupsIface "github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
	rosterIface "github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

// rosterSync POST /api/roster/contexts/{courseId}/sync
// Pulls the LMS feed, upserts every participant and group, and invalidates
// the cached snapshot so the next transform sees current data.
func (h *Handler) rosterSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")

	participants, err := h.feed.FetchRoster(ctx, course)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	grps, err := h.feed.FetchGroups(ctx, course)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	for _, p := range participants {
		e := &rosterIface.Entry{
			Owner:       owner,
			Course:      course,
			Anchor:      p.ID,
			DisplayName: p.DisplayName,
			StudentID:   p.SISUserID,
			Email:       p.Email,
			Role:        p.Role,
		}
		if err := h.roster.UpsertEntry(ctx, e); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	for _, g := range grps {
		entry := &groupsIface.Group{Owner: owner, Course: course, Anchor: g.ID, Name: g.Name}
		if err := h.groups.UpsertGroup(ctx, entry); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	h.cache.Invalidate(ctxcache.Key{Owner: owner, Course: course})

	runID := uuid.NewString()
	logger.Info("roster sync %s: course=%s roster=%d groups=%d", runID, course, len(participants), len(grps))
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"roster": len(participants),
		"groups": len(grps),
	})
}

// listMembers GET /api/roster/contexts/{courseId}/members
func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	q := r.URL.Query()
	limit := 50
	if ls := q.Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	offset := 0
	if os := q.Get("offset"); os != "" {
		if v, err := strconv.Atoi(os); err == nil && v >= 0 {
			offset = v
		}
	}
	page, total, err := h.roster.ListEntriesPage(ctx, owner, course, offset, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if offset+limit < total {
		w.Header().Add("Link", "<"+buildPageURL(r, offset+limit, limit)+">; rel=\"next\"")
	}
	if page == nil {
		page = []*rosterIface.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course":  course,
		"total":   total,
		"members": page,
	})
}

// clearCourse DELETE /api/roster/contexts/{courseId}
// The only path that deletes roster rows; everything else upserts.
func (h *Handler) clearCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	if err := h.roster.ClearCourse(ctx, owner, course); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.groups.ClearCourse(ctx, owner, course); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(ctxcache.Key{Owner: owner, Course: course})
	w.WriteHeader(http.StatusNoContent)
}

type variationRequest struct {
	Text    string `json:"text"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// upsertVariation POST /api/roster/contexts/{courseId}/members/{anchorId}/variations
func (h *Handler) upsertVariation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	anchor, err := strconv.ParseInt(chi.URLParam(r, "anchorId"), 10, 64)
	if err != nil {
		http.Error(w, "invalidAnchorId", http.StatusBadRequest)
		return
	}
	var req variationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "textRequired", http.StatusBadRequest)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	v := &rosterIface.Variation{Owner: owner, Course: course, Anchor: anchor, Text: req.Text, Enabled: enabled}
	if err := h.roster.UpsertVariation(ctx, v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(ctxcache.Key{Owner: owner, Course: course})
	writeJSON(w, http.StatusOK, v)
}

// deleteVariation DELETE /api/roster/contexts/{courseId}/members/{anchorId}/variations
func (h *Handler) deleteVariation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	anchor, err := strconv.ParseInt(chi.URLParam(r, "anchorId"), 10, 64)
	if err != nil {
		http.Error(w, "invalidAnchorId", http.StatusBadRequest)
		return
	}
	var req variationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "textRequired", http.StatusBadRequest)
		return
	}
	if err := h.roster.DeleteVariation(ctx, owner, course, anchor, req.Text); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(ctxcache.Key{Owner: owner, Course: course})
	w.WriteHeader(http.StatusNoContent)
}

// buildPageURL builds an absolute URL for the next page using
// X-Forwarded-* headers when present, falling back to r.Host and TLS.
func buildPageURL(r *http.Request, offset, limit int) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	u := url.URL{Scheme: scheme, Host: host, Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String()
}
