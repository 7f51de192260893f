package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/AdamBeresnev/knockout/internal/db"
	"github.com/AdamBeresnev/knockout/internal/store"
	users "github.com/AdamBeresnev/knockout/internal/user"
	"github.com/AdamBeresnev/knockout/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := db.Connect(db.DriverSQLite, dsn, time.Second)
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB, db.DriverSQLite), "Failed to apply migrations")

	return database
}

type fixture struct {
	db              *sqlx.DB
	tournamentStore *store.TournamentStore
	userStore       *store.UserStore
	tournaments     *TournamentService
	brackets        *BracketService
	matches         *MatchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	tournamentStore := store.NewTournamentStore(database)
	userStore := store.NewUserStore(database)

	return &fixture{
		db:              database,
		tournamentStore: tournamentStore,
		userStore:       userStore,
		tournaments:     NewTournamentService(database, tournamentStore, userStore),
		brackets:        NewBracketService(database, tournamentStore, rand.New(rand.NewPCG(1, 2))),
		matches:         NewMatchService(database, tournamentStore),
	}
}

func (f *fixture) createUser(t *testing.T) uuid.UUID {
	t.Helper()

	id := uuid.New()
	user := &users.User{ID: id, Email: id.String() + "@example.com", Username: "user-" + id.String()[:8]}
	require.NoError(t, f.userStore.CreateUser(context.Background(), user))
	return id
}

// closedTournament creates a tournament with n participants and closes registration.
func (f *fixture) closedTournament(t *testing.T, n int) (tournament *bracket.Tournament, ownerID uuid.UUID, players []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	ownerID = f.createUser(t)
	tournament, err := f.tournaments.CreateTournament(ctx, "Cup", time.Now().Add(24*time.Hour), bracket.TournamentOpen, ownerID)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		player := f.createUser(t)
		_, err := f.tournaments.AddParticipant(ctx, tournament.ID, player, ownerID)
		require.NoError(t, err)
		players = append(players, player)
	}

	tournament, err = f.tournaments.UpdateTournament(ctx, tournament.ID,
		bracket.TournamentPatch{Status: utils.Ptr(bracket.TournamentClosed)}, ownerID)
	require.NoError(t, err)

	return tournament, ownerID, players
}

// playRound records player 1 as the winner of every unplayed match in round.
func (f *fixture) playRound(t *testing.T, bracketID uuid.UUID, round int, ownerID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	matches, err := f.tournamentStore.GetMatchesByRound(ctx, nil, bracketID, round)
	require.NoError(t, err)
	for _, m := range matches {
		if m.IsPlayed() {
			continue
		}
		require.NoError(t, f.matches.RecordResult(ctx, m.ID, m.Player1ID, ownerID))
	}
}
