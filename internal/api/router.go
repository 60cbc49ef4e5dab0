package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/recipebox/internal/recipeservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// /healthz and /metrics stay outside the auth group.
func NewRouter(svc *recipeservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Get("/recipes/{key}", h.GetRecipe)
		r.Post("/recipes", h.CreateRecipe)

		r.Route("/users/{user}", func(r chi.Router) {
			r.Get("/saved", h.ListSaved)
			r.Post("/saved", h.SaveRecipe)
			r.Delete("/saved/{key}", h.UnsaveRecipe)
			r.Put("/saved/{key}/favourite", h.SetFavourite)

			r.Get("/ratings/{key}", h.GetRating)
			r.Put("/ratings/{key}", h.PutRating)
			r.Delete("/ratings/{key}", h.DeleteRating)

			r.Get("/fridge", h.ListFridge)
			r.Post("/fridge", h.AddFridgeItem)
			r.Delete("/fridge/{item}", h.RemoveFridgeItem)
		})

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
