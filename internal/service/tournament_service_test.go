package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/AdamBeresnev/knockout/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerID := f.createUser(t)

	tournament, err := f.tournaments.CreateTournament(ctx, "  Spring Cup ", time.Now(), "", ownerID)
	require.NoError(t, err)
	assert.Equal(t, "Spring Cup", tournament.Name)
	assert.Equal(t, bracket.TournamentOpen, tournament.Status)
	assert.Equal(t, ownerID, tournament.OwnerID)

	fetched, err := f.tournaments.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, fetched.ID)

	_, err = f.tournaments.CreateTournament(ctx, "   ", time.Now(), bracket.TournamentOpen, ownerID)
	assert.ErrorIs(t, err, bracket.ErrNameEmpty)

	_, err = f.tournaments.CreateTournament(ctx, "Cup", time.Now(), "finished", ownerID)
	assert.ErrorIs(t, err, bracket.ErrInvalidStatus)
}

func TestUpdateTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerID := f.createUser(t)
	stranger := f.createUser(t)

	tournament, err := f.tournaments.CreateTournament(ctx, "Cup", time.Now(), bracket.TournamentOpen, ownerID)
	require.NoError(t, err)

	t.Run("missing tournament is reported before ownership", func(t *testing.T) {
		_, err := f.tournaments.UpdateTournament(ctx, uuid.New(), bracket.TournamentPatch{Name: utils.Ptr("x")}, stranger)
		assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)
	})

	t.Run("ownership is checked before the name", func(t *testing.T) {
		_, err := f.tournaments.UpdateTournament(ctx, tournament.ID, bracket.TournamentPatch{Name: utils.Ptr(" ")}, stranger)
		assert.ErrorIs(t, err, bracket.ErrNotOwner)

		var engineErr *bracket.Error
		require.True(t, errors.As(err, &engineErr))
		assert.Equal(t, tournament.ID, engineErr.TournamentID)
		assert.Equal(t, stranger, engineErr.UserID)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := f.tournaments.UpdateTournament(ctx, tournament.ID, bracket.TournamentPatch{Name: utils.Ptr(" ")}, ownerID)
		assert.ErrorIs(t, err, bracket.ErrNameEmpty)
	})

	t.Run("omitted fields are left unchanged", func(t *testing.T) {
		updated, err := f.tournaments.UpdateTournament(ctx, tournament.ID,
			bracket.TournamentPatch{Status: utils.Ptr(bracket.TournamentClosed)}, ownerID)
		require.NoError(t, err)
		assert.Equal(t, bracket.TournamentClosed, updated.Status)
		assert.Equal(t, "Cup", updated.Name)

		updated, err = f.tournaments.UpdateTournament(ctx, tournament.ID,
			bracket.TournamentPatch{Name: utils.Ptr("Renamed")}, ownerID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, bracket.TournamentClosed, updated.Status)
	})

	t.Run("empty patch", func(t *testing.T) {
		updated, err := f.tournaments.UpdateTournament(ctx, tournament.ID, bracket.TournamentPatch{}, ownerID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
	})
}

func TestDeleteTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("missing tournament returns false", func(t *testing.T) {
		deleted, err := f.tournaments.DeleteTournament(ctx, uuid.New(), f.createUser(t))
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	tournament, ownerID, _ := f.closedTournament(t, 3)
	b, err := f.brackets.GenerateBracket(ctx, tournament.ID, ownerID)
	require.NoError(t, err)
	matches, err := f.tournamentStore.GetMatches(ctx, nil, b.ID)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	t.Run("not owner", func(t *testing.T) {
		deleted, err := f.tournaments.DeleteTournament(ctx, tournament.ID, f.createUser(t))
		assert.ErrorIs(t, err, bracket.ErrNotOwner)
		assert.False(t, deleted)
	})

	t.Run("cascades to every descendant", func(t *testing.T) {
		deleted, err := f.tournaments.DeleteTournament(ctx, tournament.ID, ownerID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = f.tournaments.GetTournament(ctx, tournament.ID)
		assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)

		_, err = f.brackets.GetBracket(ctx, b.ID)
		assert.ErrorIs(t, err, bracket.ErrBracketNotFound)

		for _, m := range matches {
			_, err = f.matches.GetMatch(ctx, m.ID)
			assert.ErrorIs(t, err, bracket.ErrMatchNotFound)
		}

		participants, err := f.tournamentStore.GetParticipants(ctx, nil, tournament.ID)
		require.NoError(t, err)
		assert.Empty(t, participants)

		var live int
		require.NoError(t, f.db.Get(&live, "SELECT COUNT(*) FROM matches WHERE bracket_id = ? AND is_deleted = 0", b.ID))
		assert.Zero(t, live)

		var total int
		require.NoError(t, f.db.Get(&total, "SELECT COUNT(*) FROM matches WHERE bracket_id = ?", b.ID))
		assert.Equal(t, len(matches), total, "rows must stay physically present")

		require.NoError(t, f.db.Get(&total, "SELECT COUNT(*) FROM participants WHERE tournament_id = ?", tournament.ID))
		assert.Equal(t, 3, total)
	})

	t.Run("deleting again returns false", func(t *testing.T) {
		deleted, err := f.tournaments.DeleteTournament(ctx, tournament.ID, ownerID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestJoinTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerID := f.createUser(t)
	player := f.createUser(t)

	tournament, err := f.tournaments.CreateTournament(ctx, "Cup", time.Now(), bracket.TournamentOpen, ownerID)
	require.NoError(t, err)

	err = f.tournaments.JoinTournament(ctx, uuid.New(), player)
	assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)

	require.NoError(t, f.tournaments.JoinTournament(ctx, tournament.ID, player))

	err = f.tournaments.JoinTournament(ctx, tournament.ID, player)
	assert.ErrorIs(t, err, bracket.ErrAlreadyParticipant)
	assert.True(t, bracket.IsConflict(err))

	participants, err := f.tournaments.ListParticipants(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, player, participants[0].UserID)

	_, err = f.tournaments.UpdateTournament(ctx, tournament.ID,
		bracket.TournamentPatch{Status: utils.Ptr(bracket.TournamentClosed)}, ownerID)
	require.NoError(t, err)

	// Closed is checked before the duplicate
	err = f.tournaments.JoinTournament(ctx, tournament.ID, player)
	assert.ErrorIs(t, err, bracket.ErrTournamentClosed)

	err = f.tournaments.JoinTournament(ctx, tournament.ID, f.createUser(t))
	assert.ErrorIs(t, err, bracket.ErrTournamentClosed)
}

func TestJoinTournamentConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerID := f.createUser(t)
	player := f.createUser(t)

	tournament, err := f.tournaments.CreateTournament(ctx, "Cup", time.Now(), bracket.TournamentOpen, ownerID)
	require.NoError(t, err)

	var succeeded, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			err := f.tournaments.JoinTournament(ctx, tournament.ID, player)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, bracket.ErrAlreadyParticipant):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(7), rejected.Load())
}

func TestAddParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerID := f.createUser(t)
	stranger := f.createUser(t)
	player := f.createUser(t)

	tournament, err := f.tournaments.CreateTournament(ctx, "Cup", time.Now(), bracket.TournamentOpen, ownerID)
	require.NoError(t, err)

	_, err = f.tournaments.AddParticipant(ctx, uuid.New(), player, stranger)
	assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)

	_, err = f.tournaments.AddParticipant(ctx, tournament.ID, uuid.New(), stranger)
	assert.ErrorIs(t, err, bracket.ErrNotOwner)

	_, err = f.tournaments.AddParticipant(ctx, tournament.ID, uuid.New(), ownerID)
	assert.ErrorIs(t, err, bracket.ErrUserNotFound)
	assert.True(t, bracket.IsNotFound(err))

	returned, err := f.tournaments.AddParticipant(ctx, tournament.ID, player, ownerID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, returned.ID)
	assert.Equal(t, ownerID, returned.OwnerID)

	_, err = f.tournaments.AddParticipant(ctx, tournament.ID, player, ownerID)
	assert.ErrorIs(t, err, bracket.ErrAlreadyParticipant)

	_, err = f.tournaments.UpdateTournament(ctx, tournament.ID,
		bracket.TournamentPatch{Status: utils.Ptr(bracket.TournamentClosed)}, ownerID)
	require.NoError(t, err)

	// Closed comes before the user lookup
	_, err = f.tournaments.AddParticipant(ctx, tournament.ID, uuid.New(), ownerID)
	assert.ErrorIs(t, err, bracket.ErrTournamentClosed)
}

func TestGetTournamentDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournament, ownerID, players := f.closedTournament(t, 2)

	details, err := f.tournaments.GetTournamentDetails(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, details.Tournament.ID)
	assert.ElementsMatch(t, players, bracket.ParticipantIDs(details.Participants))
	assert.Nil(t, details.BracketID)

	b, err := f.brackets.GenerateBracket(ctx, tournament.ID, ownerID)
	require.NoError(t, err)

	details, err = f.tournaments.GetTournamentDetails(ctx, tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, details.BracketID)
	assert.Equal(t, b.ID, *details.BracketID)

	_, err = f.tournaments.GetTournamentDetails(ctx, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)
}

func TestListTournamentsForOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerID := f.createUser(t)

	for _, name := range []string{"First", "Second"} {
		_, err := f.tournaments.CreateTournament(ctx, name, time.Now(), bracket.TournamentOpen, ownerID)
		require.NoError(t, err)
	}
	_, err := f.tournaments.CreateTournament(ctx, "Other", time.Now(), bracket.TournamentOpen, f.createUser(t))
	require.NoError(t, err)

	tournaments, err := f.tournaments.ListTournamentsForOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, tournaments, 2)
	for _, tournament := range tournaments {
		assert.Equal(t, ownerID, tournament.OwnerID)
	}
}
