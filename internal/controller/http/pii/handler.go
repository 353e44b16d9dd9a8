package pii

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quipper/poc/aitutor/be/internal/lms"
	"github.com/quipper/poc/aitutor/be/pkg/common/ctxcache"
	"github.com/quipper/poc/aitutor/be/pkg/common/jwkscache"
	groupsIface "github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
	rosterIface "github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

type Handler struct {
	roster rosterIface.Repository
	groups groupsIface.Repository
	feed   lms.Source
	cache  *ctxcache.Cache

	jwksCache    jwkscache.Cache
	jwksURL      string
	authDisabled bool

	maxUpload int64
}

type Options struct {
	JWKSURL      string
	AuthDisabled bool
	MaxUpload    int64
}

func NewHandler(roster rosterIface.Repository, groups groupsIface.Repository, feed lms.Source, cache *ctxcache.Cache, jwks jwkscache.Cache, opts Options) *Handler {
	if opts.MaxUpload == 0 {
		opts.MaxUpload = 20 << 20
	}
	return &Handler{
		roster:       roster,
		groups:       groups,
		feed:         feed,
		cache:        cache,
		jwksCache:    jwks,
		jwksURL:      opts.JWKSURL,
		authDisabled: opts.AuthDisabled,
		maxUpload:    opts.MaxUpload,
	}
}

// Router returns a chi-based router for the /api endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(h.requireOwner)

		// Egress/ingress transforms without a resolvable course scope:
		// one-way redaction out, pass-through in.
		r.Post("/api/pii/mask", h.maskNoContext)
		r.Post("/api/pii/unmask", h.unmaskNoContext)

		r.Route("/api/pii/contexts/{courseId}", func(r chi.Router) {
			r.Post("/mask", h.mask)
			r.Post("/unmask", h.unmask)
			r.Post("/files/mask", h.fileMask)
			r.Post("/files/unmask", h.fileUnmask)
		})

		r.Route("/api/roster/contexts/{courseId}", func(r chi.Router) {
			r.Post("/sync", h.rosterSync)
			r.Get("/members", h.listMembers)
			r.Delete("/", h.clearCourse)
			r.Post("/members/{anchorId}/variations", h.upsertVariation)
			r.Delete("/members/{anchorId}/variations", h.deleteVariation)
		})
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// snapshot loads the roster context for the request's owner and course.
func (h *Handler) snapshot(ctx context.Context, owner, course string) (*ctxcache.Snapshot, error) {
	return h.cache.Get(ctx, ctxcache.Key{Owner: owner, Course: course})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
