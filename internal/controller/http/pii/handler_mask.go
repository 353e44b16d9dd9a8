package pii

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quipper/poc/aitutor/be/pkg/common/logger"
	"github.com/quipper/poc/aitutor/be/pkg/pii/engine"
)

type transformRequest struct {
	Value json.RawMessage `json:"value"`
}

type transformResponse struct {
	Value       engine.Value        `json:"value"`
	Diagnostics []engine.Diagnostic `json:"diagnostics"`
}

func decodeTransformRequest(w http.ResponseWriter, r *http.Request) (engine.Value, bool) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Value) == 0 {
		http.Error(w, "invalidJson", http.StatusBadRequest)
		return engine.Value{}, false
	}
	v, err := engine.DecodeValue(req.Value)
	if err != nil {
		http.Error(w, "invalidJson", http.StatusBadRequest)
		return engine.Value{}, false
	}
	return v, true
}

// mask POST /api/pii/contexts/{courseId}/mask
func (h *Handler) mask(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	v, ok := decodeTransformRequest(w, r)
	if !ok {
		return
	}
	snap, err := h.snapshot(r.Context(), owner, course)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	masked, diags := engine.Mask(v, snap.Index)
	for _, d := range diags {
		logger.Warn("ambiguous span left unmasked: course=%s span=%q candidates=%v", course, d.Span, d.Candidates)
	}
	if diags == nil {
		diags = []engine.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, transformResponse{Value: masked, Diagnostics: diags})
}

// unmask POST /api/pii/contexts/{courseId}/unmask
func (h *Handler) unmask(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	v, ok := decodeTransformRequest(w, r)
	if !ok {
		return
	}
	snap, err := h.snapshot(r.Context(), owner, course)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, transformResponse{
		Value:       engine.Unmask(v, snap.Index),
		Diagnostics: []engine.Diagnostic{},
	})
}

// maskNoContext POST /api/pii/mask
// Egress with no resolvable course scope: tokens cannot be computed, so
// every name-shaped span gets the irreversible redaction instead.
func (h *Handler) maskNoContext(w http.ResponseWriter, r *http.Request) {
	v, ok := decodeTransformRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, transformResponse{
		Value:       engine.RedactValue(v),
		Diagnostics: []engine.Diagnostic{},
	})
}

// unmaskNoContext POST /api/pii/unmask
// Ingress with no course scope passes through unchanged; without a roster
// there is nothing to resolve tokens against.
func (h *Handler) unmaskNoContext(w http.ResponseWriter, r *http.Request) {
	v, ok := decodeTransformRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, transformResponse{Value: v, Diagnostics: []engine.Diagnostic{}})
}
