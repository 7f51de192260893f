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

type MatchService struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore) *MatchService {
	return &MatchService{db: db, store: store}
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.loadMatch(ctx, nil, matchID)
}

// RecordResult sets the winner of a match. A winner can be recorded only once.
func (s *MatchService) RecordResult(ctx context.Context, matchID uuid.UUID, winnerID uuid.UUID, callerID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	match, err := s.loadMatch(ctx, tx, matchID)
	if err != nil {
		return err
	}

	tournament, err := s.store.GetMatchTournament(ctx, tx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return &bracket.Error{Err: bracket.ErrMatchNotFound, MatchID: matchID}
	}
	if err != nil {
		return fmt.Errorf("failed to get tournament of match: %w", err)
	}
	if err := requireOwner(tournament, callerID); err != nil {
		return err
	}
	if tournament.Status != bracket.TournamentClosed {
		return &bracket.Error{Err: bracket.ErrTournamentNotClosed, TournamentID: tournament.ID, MatchID: matchID}
	}

	if match.IsPlayed() {
		return &bracket.Error{Err: bracket.ErrAlreadyPlayed, BracketID: match.BracketID, MatchID: matchID}
	}
	if !match.HasPlayer(winnerID) {
		return &bracket.Error{Err: bracket.ErrInvalidWinner, MatchID: matchID, UserID: winnerID}
	}

	if err := s.store.SetMatchWinner(ctx, tx, matchID, winnerID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return &bracket.Error{Err: bracket.ErrAlreadyPlayed, BracketID: match.BracketID, MatchID: matchID}
		}
		return fmt.Errorf("failed to update match: %w", err)
	}

	return tx.Commit()
}

func (s *MatchService) loadMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	match, err := s.store.GetMatch(ctx, tx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &bracket.Error{Err: bracket.ErrMatchNotFound, MatchID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}
