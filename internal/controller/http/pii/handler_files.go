package pii

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quipper/poc/aitutor/be/pkg/common/logger"
	"github.com/quipper/poc/aitutor/be/pkg/pii/filemask"
)

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "invalidMultipart", http.StatusBadRequest)
		return nil, "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "fileFieldRequired", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload))
	if err != nil {
		http.Error(w, "readFailed", http.StatusInternalServerError)
		return nil, "", false
	}
	return data, header.Filename, true
}

func writeFile(w http.ResponseWriter, data []byte, filename, mime string, diagCount int) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Pii-Diagnostics", strconv.Itoa(diagCount))
	_, _ = w.Write(data)
}

// fileMask POST /api/pii/contexts/{courseId}/files/mask
func (h *Handler) fileMask(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	data, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	snap, err := h.snapshot(r.Context(), owner, course)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out, mime, diags := filemask.Mask(data, filename, snap.Index)
	for _, d := range diags {
		logger.Warn("ambiguous span in %s left unmasked: span=%q candidates=%v", filename, d.Span, d.Candidates)
	}
	writeFile(w, out, filename, mime, len(diags))
}

// fileUnmask POST /api/pii/contexts/{courseId}/files/unmask
func (h *Handler) fileUnmask(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	course := chi.URLParam(r, "courseId")
	data, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	snap, err := h.snapshot(r.Context(), owner, course)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out, mime := filemask.Unmask(data, filename, snap.Index)
	writeFile(w, out, filename, mime, 0)
}
