package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/AdamBeresnev/knockout/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	userStore *store.UserStore
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, userStore *store.UserStore) *TournamentService {
	return &TournamentService{db: db, store: store, userStore: userStore}
}

type TournamentDetails struct {
	Tournament   *bracket.Tournament   `json:"tournament"`
	Participants []bracket.Participant `json:"participants"`
	BracketID    *uuid.UUID            `json:"bracket_id"`
}

// CreateTournament creates a tournament owned by ownerID. An empty status defaults to open.
func (s *TournamentService) CreateTournament(ctx context.Context, name string, startDate time.Time, status bracket.TournamentStatus, ownerID uuid.UUID) (*bracket.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &bracket.Error{Err: bracket.ErrNameEmpty, UserID: ownerID}
	}
	if status == "" {
		status = bracket.TournamentOpen
	}
	if !status.Valid() {
		return nil, &bracket.Error{Err: bracket.ErrInvalidStatus, UserID: ownerID}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament := &bracket.Tournament{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		StartDate: startDate.UTC(),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	return tournament, tx.Commit()
}

func (s *TournamentService) UpdateTournament(ctx context.Context, id uuid.UUID, patch bracket.TournamentPatch, callerID uuid.UUID) (*bracket.Tournament, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(tournament, callerID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, &bracket.Error{Err: bracket.ErrNameEmpty, TournamentID: id}
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, &bracket.Error{Err: bracket.ErrInvalidStatus, TournamentID: id}
	}
	if patch.StartDate != nil {
		startDate := patch.StartDate.UTC()
		patch.StartDate = &startDate
	}

	if patch.Empty() {
		return tournament, tx.Commit()
	}

	if err := s.store.UpdateTournament(ctx, tx, id, patch); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}

	updated, err := loadTournament(ctx, s.store, tx, id)
	if err != nil {
		return nil, err
	}

	return updated, tx.Commit()
}

// DeleteTournament soft deletes the tournament together with its bracket, matches and
// participants. A missing tournament is reported as false without an error.
func (s *TournamentService) DeleteTournament(ctx context.Context, id uuid.UUID, callerID uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, id)
	if errors.Is(err, bracket.ErrTournamentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := requireOwner(tournament, callerID); err != nil {
		return false, err
	}

	b, err := s.store.GetBracketByTournament(ctx, tx, id)
	switch {
	case err == nil:
		if err := s.store.SoftDeleteMatches(ctx, tx, b.ID); err != nil {
			return false, fmt.Errorf("failed to delete matches: %w", err)
		}
		if err := s.store.SoftDeleteBracket(ctx, tx, b.ID); err != nil {
			return false, fmt.Errorf("failed to delete bracket: %w", err)
		}
	case !errors.Is(err, store.ErrNotFound):
		return false, fmt.Errorf("failed to get bracket: %w", err)
	}

	if err := s.store.SoftDeleteParticipants(ctx, tx, id); err != nil {
		return false, fmt.Errorf("failed to delete participants: %w", err)
	}
	if err := s.store.SoftDeleteTournament(ctx, tx, id); err != nil {
		return false, fmt.Errorf("failed to delete tournament: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// JoinTournament registers the caller as a participant of an open tournament.
func (s *TournamentService) JoinTournament(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, id)
	if err != nil {
		return err
	}
	if tournament.Status == bracket.TournamentClosed {
		return &bracket.Error{Err: bracket.ErrTournamentClosed, TournamentID: id, UserID: callerID}
	}

	if err := s.addParticipant(ctx, tx, id, callerID); err != nil {
		return err
	}

	return tx.Commit()
}

// AddParticipant lets the owner register another user.
func (s *TournamentService) AddParticipant(ctx context.Context, id uuid.UUID, userID uuid.UUID, callerID uuid.UUID) (*bracket.Tournament, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(tournament, callerID); err != nil {
		return nil, err
	}
	if tournament.Status == bracket.TournamentClosed {
		return nil, &bracket.Error{Err: bracket.ErrTournamentClosed, TournamentID: id, UserID: userID}
	}

	if _, err := s.userStore.GetUser(ctx, tx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &bracket.Error{Err: bracket.ErrUserNotFound, TournamentID: id, UserID: userID}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.addParticipant(ctx, tx, id, userID); err != nil {
		return nil, err
	}

	return tournament, tx.Commit()
}

func (s *TournamentService) addParticipant(ctx context.Context, tx *sqlx.Tx, tournamentID, userID uuid.UUID) error {
	already := &bracket.Error{Err: bracket.ErrAlreadyParticipant, TournamentID: tournamentID, UserID: userID}

	exists, err := s.store.IsParticipant(ctx, tx, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to check participant: %w", err)
	}
	if exists {
		return already
	}

	participant := &bracket.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateParticipant(ctx, tx, participant); err != nil {
		// Lost a race against a concurrent join
		if errors.Is(err, store.ErrConflict) {
			return already
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return loadTournament(ctx, s.store, nil, id)
}

// GetTournamentDetails loads the tournament, its participants and its bracket id concurrently.
func (s *TournamentService) GetTournamentDetails(ctx context.Context, id uuid.UUID) (*TournamentDetails, error) {
	var details TournamentDetails

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tournament, err := loadTournament(gctx, s.store, nil, id)
		details.Tournament = tournament
		return err
	})
	g.Go(func() error {
		participants, err := s.store.GetParticipants(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}
		details.Participants = participants
		return nil
	})
	g.Go(func() error {
		b, err := s.store.GetBracketByTournament(gctx, nil, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get bracket: %w", err)
		}
		details.BracketID = &b.ID
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &details, nil
}

func (s *TournamentService) ListTournamentsForOwner(ctx context.Context, ownerID uuid.UUID) ([]bracket.Tournament, error) {
	tournaments, err := s.store.ListTournaments(ctx, nil, store.TournamentFilter{OwnerID: &ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *TournamentService) ListParticipants(ctx context.Context, id uuid.UUID) ([]bracket.Participant, error) {
	if _, err := loadTournament(ctx, s.store, nil, id); err != nil {
		return nil, err
	}
	participants, err := s.store.GetParticipants(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	return participants, nil
}
