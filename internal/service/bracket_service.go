package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/AdamBeresnev/knockout/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	shuffler bracket.Shuffler
}

// NewBracketService returns a service seeding brackets with shuffler, or with
// bracket.DefaultShuffler when shuffler is nil.
func NewBracketService(db *sqlx.DB, store *store.TournamentStore, shuffler bracket.Shuffler) *BracketService {
	if shuffler == nil {
		shuffler = bracket.DefaultShuffler
	}
	return &BracketService{db: db, store: store, shuffler: shuffler}
}

type BracketDetails struct {
	Bracket  *bracket.Bracket `json:"bracket"`
	Matches  []bracket.Match  `json:"matches"`
	Rounds   int              `json:"rounds"`
	Champion *uuid.UUID       `json:"champion"`
	Complete bool             `json:"complete"`
}

// GenerateBracket seeds the active participants at random and creates round 1.
func (s *BracketService) GenerateBracket(ctx context.Context, tournamentID uuid.UUID, callerID uuid.UUID) (*bracket.Bracket, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(tournament, callerID); err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentClosed {
		return nil, &bracket.Error{Err: bracket.ErrGenerationNotAllowed, TournamentID: tournamentID}
	}

	existing, err := s.store.GetBracketByTournament(ctx, tx, tournamentID)
	if err == nil {
		return nil, &bracket.Error{Err: bracket.ErrBracketExists, TournamentID: tournamentID, BracketID: existing.ID}
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to get bracket: %w", err)
	}

	participants, err := s.store.GetParticipants(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	if len(participants) < 2 {
		return nil, &bracket.Error{Err: bracket.ErrNotEnoughParticipants, TournamentID: tournamentID}
	}

	now := time.Now().UTC()
	b := &bracket.Bracket{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		CreatedAt:    now,
	}

	if err := s.store.CreateBracket(ctx, tx, b); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, &bracket.Error{Err: bracket.ErrBracketExists, TournamentID: tournamentID}
		}
		return nil, fmt.Errorf("failed to create bracket: %w", err)
	}

	seeded := bracket.Seed(bracket.ParticipantIDs(participants), s.shuffler)
	matches := bracket.PairRound(b.ID, 1, seeded, now)

	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	return b, tx.Commit()
}

// AdvanceRound pairs the winners of round, in slot order, into round+1.
func (s *BracketService) AdvanceRound(ctx context.Context, bracketID uuid.UUID, round int, callerID uuid.UUID) (*bracket.Bracket, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := s.loadBracket(ctx, tx, bracketID)
	if err != nil {
		return nil, err
	}

	tournament, err := s.store.GetTournament(ctx, tx, b.TournamentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &bracket.Error{Err: bracket.ErrBracketNotFound, BracketID: bracketID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if err := requireOwner(tournament, callerID); err != nil {
		return nil, err
	}

	current, err := s.store.GetMatchesByRound(ctx, tx, bracketID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	if len(current) == 0 {
		return nil, &bracket.Error{Err: bracket.ErrNoMatchesInRound, BracketID: bracketID, Round: round}
	}

	winners, ok := bracket.Winners(current)
	if !ok {
		return nil, &bracket.Error{Err: bracket.ErrNotAllMatchesPlayed, BracketID: bracketID, Round: round}
	}
	if len(current) == 1 {
		return nil, &bracket.Error{Err: bracket.ErrBracketComplete, BracketID: bracketID, Round: round}
	}

	next, err := s.store.GetMatchesByRound(ctx, tx, bracketID, round+1)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	if len(next) > 0 {
		return nil, &bracket.Error{Err: bracket.ErrRoundAlreadyAdvanced, BracketID: bracketID, Round: round}
	}

	matches := bracket.PairRound(bracketID, round+1, winners, time.Now().UTC())
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, &bracket.Error{Err: bracket.ErrRoundAlreadyAdvanced, BracketID: bracketID, Round: round}
		}
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	return b, tx.Commit()
}

// GetBracket returns the bracket with all of its matches and the derived completion state.
func (s *BracketService) GetBracket(ctx context.Context, bracketID uuid.UUID) (*BracketDetails, error) {
	b, err := s.loadBracket(ctx, nil, bracketID)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, nil, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	details := &BracketDetails{
		Bracket: b,
		Matches: matches,
		Rounds:  bracket.LastRound(matches),
	}
	if champion, ok := bracket.Champion(matches); ok {
		details.Champion = &champion
		details.Complete = true
	}
	return details, nil
}

func (s *BracketService) loadBracket(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Bracket, error) {
	b, err := s.store.GetBracket(ctx, tx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &bracket.Error{Err: bracket.ErrBracketNotFound, BracketID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket: %w", err)
	}
	return b, nil
}
