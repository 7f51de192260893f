package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	tournamentColumns  = "id, owner_id, name, start_date, status, is_deleted, created_at"
	participantColumns = "tournament_id, user_id, is_deleted, created_at"
)

// A nil tx runs the query outside of any transaction.

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, queryer(s.db, tx), `INSERT INTO tournaments (id, owner_id, name, start_date, status, is_deleted, created_at)
        VALUES (:id, :owner_id, :name, :start_date, :status, :is_deleted, :created_at)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	q := queryer(s.db, tx)
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament,
		q.Rebind("SELECT "+tournamentColumns+" FROM tournaments WHERE id = ? AND is_deleted = FALSE"), id)
	if err != nil {
		return nil, notFound(err, "tournament "+id.String())
	}
	return &tournament, nil
}

type TournamentFilter struct {
	OwnerID *uuid.UUID
	Status  *bracket.TournamentStatus
}

func (s *TournamentStore) ListTournaments(ctx context.Context, tx *sqlx.Tx, filter TournamentFilter) ([]bracket.Tournament, error) {
	query := builder.Select(tournamentColumns).
		From("tournaments").
		Where(sq.Eq{"is_deleted": false}).
		OrderBy("created_at DESC")

	if filter.OwnerID != nil {
		query = query.Where(sq.Eq{"owner_id": *filter.OwnerID})
	}
	if filter.Status != nil {
		query = query.Where(sq.Eq{"status": *filter.Status})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tournament query: %w", err)
	}

	q := queryer(s.db, tx)
	tournaments := []bracket.Tournament{}
	err = sqlx.SelectContext(ctx, q, &tournaments, q.Rebind(sqlStr), args...)
	return tournaments, err
}

// UpdateTournament writes only the fields set in the patch.
func (s *TournamentStore) UpdateTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, patch bracket.TournamentPatch) error {
	if patch.Empty() {
		return nil
	}

	update := builder.Update("tournaments").Where(sq.Eq{"id": id, "is_deleted": false})
	if patch.Name != nil {
		update = update.Set("name", *patch.Name)
	}
	if patch.StartDate != nil {
		update = update.Set("start_date", patch.StartDate.UTC())
	}
	if patch.Status != nil {
		update = update.Set("status", *patch.Status)
	}

	sqlStr, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build tournament update: %w", err)
	}

	q := queryer(s.db, tx)
	res, err := q.ExecContext(ctx, q.Rebind(sqlStr), args...)
	if err != nil {
		return err
	}
	return expectRows(res, "tournament "+id.String())
}

func (s *TournamentStore) SoftDeleteTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	q := queryer(s.db, tx)
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE tournaments SET is_deleted = TRUE WHERE id = ? AND is_deleted = FALSE"), id)
	if err != nil {
		return err
	}
	return expectRows(res, "tournament "+id.String())
}

func (s *TournamentStore) CreateParticipant(ctx context.Context, tx *sqlx.Tx, participant *bracket.Participant) error {
	_, err := sqlx.NamedExecContext(ctx, queryer(s.db, tx), `INSERT INTO participants (tournament_id, user_id, is_deleted, created_at)
        VALUES (:tournament_id, :user_id, :is_deleted, :created_at)`, participant)
	return conflict(err, "participant "+participant.UserID.String())
}

func (s *TournamentStore) IsParticipant(ctx context.Context, tx *sqlx.Tx, tournamentID, userID uuid.UUID) (bool, error) {
	q := queryer(s.db, tx)
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		q.Rebind("SELECT COUNT(*) FROM participants WHERE tournament_id = ? AND user_id = ? AND is_deleted = FALSE"),
		tournamentID, userID)
	return count > 0, err
}

// GetParticipants returns the active participants in join order.
func (s *TournamentStore) GetParticipants(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Participant, error) {
	q := queryer(s.db, tx)
	participants := []bracket.Participant{}
	err := sqlx.SelectContext(ctx, q, &participants,
		q.Rebind("SELECT "+participantColumns+" FROM participants WHERE tournament_id = ? AND is_deleted = FALSE ORDER BY created_at ASC, user_id ASC"),
		tournamentID)
	return participants, err
}

func (s *TournamentStore) SoftDeleteParticipants(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) error {
	q := queryer(s.db, tx)
	_, err := q.ExecContext(ctx, q.Rebind("UPDATE participants SET is_deleted = TRUE WHERE tournament_id = ? AND is_deleted = FALSE"), tournamentID)
	return err
}

func expectRows(res interface{ RowsAffected() (int64, error) }, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
