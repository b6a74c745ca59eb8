package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/postservice"
)

// NewRouter creates a chi router with all JSON API routes, meant to be
// mounted under /api. sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *postservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Posts.
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)

	// Search.
	r.Get("/search", h.Search)

	// Backlinks.
	r.Get("/backlinks/*", h.Backlinks)

	// SSE endpoint.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// MountPages registers the rendered-page routes for routePrefix on r. An
// empty prefix serves pages from the site root. The bare prefix redirects to
// its trailing-slash form, which renders the index document.
func MountPages(r chi.Router, svc *postservice.Service, routePrefix string) {
	h := NewHandler(svc)
	if routePrefix == "" {
		r.Get("/*", h.Page)
		return
	}
	base := "/" + routePrefix
	r.Get(base, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, base+"/", http.StatusMovedPermanently)
	})
	r.Get(base+"/*", h.Page)
}
