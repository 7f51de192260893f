package main

import (
	"net/http"

	"github.com/AdamBeresnev/knockout/internal/httputil"
	"github.com/AdamBeresnev/knockout/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", app.healthz)
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(app.limiter.Middleware)
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessionManager, app.tokens, app.userStore))

		r.Get("/auth/{provider}", app.beginAuth)
		r.Get("/auth/{provider}/callback", app.completeAuth)
		r.Post("/auth/guest", app.guestLogin)
		r.Post("/logout", app.logout)

		r.Get("/tournaments/{id}", app.getTournament)
		r.Get("/brackets/{id}", app.getBracket)
		r.Get("/matches/{id}", app.getMatch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/auth/token", app.issueToken)

			r.Get("/tournaments", app.listTournaments)
			r.Post("/tournaments", app.createTournament)
			r.Patch("/tournaments/{id}", app.updateTournament)
			r.Delete("/tournaments/{id}", app.deleteTournament)
			r.Post("/tournaments/{id}/join", app.joinTournament)
			r.Post("/tournaments/{id}/participants", app.addParticipant)
			r.Post("/tournaments/{id}/bracket", app.generateBracket)

			r.Post("/brackets/{id}/rounds/{round}/advance", app.advanceRound)

			r.Post("/matches/{id}/result", app.recordResult)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "Route not found", nil)
	})

	return r
}

func (app *application) allowedOrigins() []string {
	if len(app.corsOrigins) == 0 {
		return []string{"*"}
	}
	return app.corsOrigins
}
