package store

import (
	"context"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	bracketColumns = "id, tournament_id, is_deleted, created_at"
	matchColumns   = "id, bracket_id, round_number, match_order, player_1_id, player_2_id, winner_id, is_deleted, created_at"
)

func (s *TournamentStore) CreateBracket(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket) error {
	_, err := sqlx.NamedExecContext(ctx, queryer(s.db, tx), `INSERT INTO brackets (id, tournament_id, is_deleted, created_at)
        VALUES (:id, :tournament_id, :is_deleted, :created_at)`, b)
	return conflict(err, "bracket for tournament "+b.TournamentID.String())
}

func (s *TournamentStore) GetBracket(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Bracket, error) {
	q := queryer(s.db, tx)
	var b bracket.Bracket
	err := sqlx.GetContext(ctx, q, &b,
		q.Rebind("SELECT "+bracketColumns+" FROM brackets WHERE id = ? AND is_deleted = FALSE"), id)
	if err != nil {
		return nil, notFound(err, "bracket "+id.String())
	}
	return &b, nil
}

func (s *TournamentStore) GetBracketByTournament(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (*bracket.Bracket, error) {
	q := queryer(s.db, tx)
	var b bracket.Bracket
	err := sqlx.GetContext(ctx, q, &b,
		q.Rebind("SELECT "+bracketColumns+" FROM brackets WHERE tournament_id = ? AND is_deleted = FALSE"), tournamentID)
	if err != nil {
		return nil, notFound(err, "bracket of tournament "+tournamentID.String())
	}
	return &b, nil
}

func (s *TournamentStore) SoftDeleteBracket(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	q := queryer(s.db, tx)
	_, err := q.ExecContext(ctx, q.Rebind("UPDATE brackets SET is_deleted = TRUE WHERE id = ? AND is_deleted = FALSE"), id)
	return err
}

// CreateMatches inserts all matches in one statement. A taken (bracket, round, slot)
// position is reported as ErrConflict.
func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, queryer(s.db, tx), `INSERT INTO matches (id, bracket_id, round_number, match_order, player_1_id, player_2_id, winner_id, is_deleted, created_at)
		VALUES (:id, :bracket_id, :round_number, :match_order, :player_1_id, :player_2_id, :winner_id, :is_deleted, :created_at)`, matches)
	return conflict(err, "matches of bracket "+matches[0].BracketID.String())
}

func (s *TournamentStore) GetMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	q := queryer(s.db, tx)
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match,
		q.Rebind("SELECT "+matchColumns+" FROM matches WHERE id = ? AND is_deleted = FALSE"), id)
	if err != nil {
		return nil, notFound(err, "match "+id.String())
	}
	return &match, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) ([]bracket.Match, error) {
	q := queryer(s.db, tx)
	matches := []bracket.Match{}
	err := sqlx.SelectContext(ctx, q, &matches,
		q.Rebind("SELECT "+matchColumns+" FROM matches WHERE bracket_id = ? AND is_deleted = FALSE ORDER BY round_number ASC, match_order ASC"),
		bracketID)
	return matches, err
}

func (s *TournamentStore) GetMatchesByRound(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, round int) ([]bracket.Match, error) {
	q := queryer(s.db, tx)
	matches := []bracket.Match{}
	err := sqlx.SelectContext(ctx, q, &matches,
		q.Rebind("SELECT "+matchColumns+" FROM matches WHERE bracket_id = ? AND round_number = ? AND is_deleted = FALSE ORDER BY match_order ASC"),
		bracketID, round)
	return matches, err
}

// SetMatchWinner records the winner only if none is set yet. Losing that race returns
// ErrConflict.
func (s *TournamentStore) SetMatchWinner(ctx context.Context, tx *sqlx.Tx, matchID, winnerID uuid.UUID) error {
	q := queryer(s.db, tx)
	res, err := q.ExecContext(ctx,
		q.Rebind("UPDATE matches SET winner_id = ? WHERE id = ? AND winner_id IS NULL AND is_deleted = FALSE"),
		winnerID, matchID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *TournamentStore) SoftDeleteMatches(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) error {
	q := queryer(s.db, tx)
	_, err := q.ExecContext(ctx, q.Rebind("UPDATE matches SET is_deleted = TRUE WHERE bracket_id = ? AND is_deleted = FALSE"), bracketID)
	return err
}

// GetMatchTournament resolves the tournament owning a match through its bracket.
func (s *TournamentStore) GetMatchTournament(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (*bracket.Tournament, error) {
	q := queryer(s.db, tx)
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, q.Rebind(`
		SELECT t.id, t.owner_id, t.name, t.start_date, t.status, t.is_deleted, t.created_at
		FROM matches m
		JOIN brackets b ON b.id = m.bracket_id
		JOIN tournaments t ON t.id = b.tournament_id
		WHERE m.id = ? AND m.is_deleted = FALSE AND b.is_deleted = FALSE AND t.is_deleted = FALSE`), matchID)
	if err != nil {
		return nil, notFound(err, "tournament of match "+matchID.String())
	}
	return &tournament, nil
}
