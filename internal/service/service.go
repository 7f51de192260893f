package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/AdamBeresnev/knockout/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// loadTournament fetches a live tournament inside tx and reports a missing one as
// ErrTournamentNotFound.
func loadTournament(ctx context.Context, s *store.TournamentStore, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := s.GetTournament(ctx, tx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &bracket.Error{Err: bracket.ErrTournamentNotFound, TournamentID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return tournament, nil
}

func requireOwner(tournament *bracket.Tournament, callerID uuid.UUID) error {
	if !tournament.OwnedBy(callerID) {
		return &bracket.Error{Err: bracket.ErrNotOwner, TournamentID: tournament.ID, UserID: callerID}
	}
	return nil
}
