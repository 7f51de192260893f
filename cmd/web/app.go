package main

import (
	"context"
	"time"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/AdamBeresnev/knockout/internal/config"
	"github.com/AdamBeresnev/knockout/internal/metrics"
	"github.com/AdamBeresnev/knockout/internal/middleware"
	"github.com/AdamBeresnev/knockout/internal/service"
	"github.com/AdamBeresnev/knockout/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

type application struct {
	db             *sqlx.DB
	sessionManager *scs.SessionManager
	tokens         *middleware.TokenIssuer
	limiter        *middleware.RateLimiter
	metrics        *metrics.Metrics
	corsOrigins    []string

	userStore   *store.UserStore
	tournaments *service.TournamentService
	brackets    *service.BracketService
	matches     *service.MatchService
	users       *service.UserService
}

func newApplication(database *sqlx.DB, cfg *config.Config, sessionManager *scs.SessionManager) *application {
	tournamentStore := store.NewTournamentStore(database)
	userStore := store.NewUserStore(database)

	return &application{
		db:             database,
		sessionManager: sessionManager,
		tokens:         middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		limiter:        middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		metrics:        metrics.New(),
		corsOrigins:    cfg.CORSAllowedOrigins,

		userStore:   userStore,
		tournaments: service.NewTournamentService(database, tournamentStore, userStore),
		brackets:    service.NewBracketService(database, tournamentStore, bracket.DefaultShuffler),
		matches:     service.NewMatchService(database, tournamentStore),
		users:       service.NewUserService(database, userStore),
	}
}

func (app *application) pruneVisitors(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.limiter.Prune(3 * every)
		}
	}
}
