package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/media"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Product images (local storage backend only)
	if local, ok := s.media.(*media.LocalStore); ok {
		prefix := local.URLPrefix()
		r.Handle(prefix+"/*", http.StripPrefix(prefix, local.Handler()))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/categories", s.handleListCategories)

		// Shopper accounts
		r.Route("/user", func(r chi.Router) {
			r.Post("/signup", s.handleUserSignup)
			r.Post("/login", s.handleUserLogin)
			r.With(s.requireAuth).Get("/me", s.handleIdentity)
		})

		// Vendor accounts and products
		r.Route("/vendor", func(r chi.Router) {
			r.Post("/register", s.handleVendorSignup)
			r.Post("/login", s.handleVendorLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(auth.RoleVendor))
				r.Get("/verify", s.handleIdentity)
				r.Get("/activity", s.handleVendorActivity)
			})

			r.Route("/items", func(r chi.Router) {
				// Public catalogue
				r.Get("/category/{name}", s.handleListByCategory)
				r.Get("/feed", s.handleFeed)

				// Vendor-only, scoped to the caller's own products
				r.Group(func(r chi.Router) {
					r.Use(s.requireRole(auth.RoleVendor))
					r.Post("/create", s.handleCreateProduct)
					r.Get("/{id}", s.handleGetProduct)
					r.Put("/{id}", s.handleUpdateProduct)
					r.Patch("/{id}/toggle-delete", s.handleToggleDelete)
				})
			})
		})
	})

	return r
}
