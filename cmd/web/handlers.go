package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/AdamBeresnev/knockout/internal/httputil"
	"github.com/AdamBeresnev/knockout/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

type createTournamentRequest struct {
	Name      string                   `json:"name"`
	StartDate time.Time                `json:"start_date"`
	Status    bracket.TournamentStatus `json:"status"`
}

type addParticipantRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type recordResultRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return false
	}
	return true
}

func urlUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// callerID is only used behind RequireAuth, which guarantees the id is present.
func callerID(r *http.Request) uuid.UUID {
	id, _ := middleware.GetUserIDFromContext(r.Context())
	return id
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		httputil.InternalServerError(w, "Database ping failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) listTournaments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tournaments, err := app.tournaments.ListTournamentsForOwner(r.Context(), callerID(r))
	app.metrics.Observe("list_tournaments", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to list tournaments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournaments)
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	tournament, err := app.tournaments.CreateTournament(r.Context(), req.Name, req.StartDate, req.Status, callerID(r))
	app.metrics.Observe("create_tournament", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tournament)
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	details, err := app.tournaments.GetTournamentDetails(r.Context(), id)
	app.metrics.Observe("get_tournament", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (app *application) updateTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	var patch bracket.TournamentPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	start := time.Now()
	tournament, err := app.tournaments.UpdateTournament(r.Context(), id, patch, callerID(r))
	app.metrics.Observe("update_tournament", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to update tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

func (app *application) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	deleted, err := app.tournaments.DeleteTournament(r.Context(), id, callerID(r))
	app.metrics.Observe("delete_tournament", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to delete tournament", err)
		return
	}
	if !deleted {
		httputil.NotFound(w, "Tournament not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) joinTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	err := app.tournaments.JoinTournament(r.Context(), id, callerID(r))
	app.metrics.Observe("join_tournament", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to join tournament", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) addParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	var req addParticipantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	tournament, err := app.tournaments.AddParticipant(r.Context(), id, req.UserID, callerID(r))
	app.metrics.Observe("add_participant", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to add participant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tournament)
}

func (app *application) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	b, err := app.brackets.GenerateBracket(r.Context(), id, callerID(r))
	app.metrics.Observe("generate_bracket", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to generate bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (app *application) getBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	details, err := app.brackets.GetBracket(r.Context(), id)
	app.metrics.Observe("get_bracket", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to get bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (app *application) advanceRound(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	round, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil || round < 1 {
		httputil.BadRequest(w, "Invalid round", err)
		return
	}

	start := time.Now()
	b, err := app.brackets.AdvanceRound(r.Context(), id, round, callerID(r))
	app.metrics.Observe("advance_round", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to advance round", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (app *application) getMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	match, err := app.matches.GetMatch(r.Context(), id)
	app.metrics.Observe("get_match", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to get match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

func (app *application) recordResult(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	var req recordResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	err := app.matches.RecordResult(r.Context(), id, req.WinnerID, callerID(r))
	app.metrics.Observe("record_result", start, err)
	if err != nil {
		httputil.EngineError(w, "Failed to record result", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) issueToken(w http.ResponseWriter, r *http.Request) {
	if app.tokens == nil {
		httputil.NotFound(w, "Bearer tokens are disabled", nil)
		return
	}

	token, expiresAt, err := app.tokens.Issue(callerID(r))
	if err != nil {
		httputil.InternalServerError(w, "Failed to issue token", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (app *application) beginAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	gothic.BeginAuthHandler(w, r)
}

func (app *application) completeAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureGuestUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to destroy session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
