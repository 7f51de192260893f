package bracket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Not found
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrBracketNotFound    = errors.New("bracket not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")
)

// Authorization
var ErrNotOwner = errors.New("only the tournament owner can perform this action")

// State mismatch
var (
	ErrTournamentClosed     = errors.New("tournament is closed")
	ErrGenerationNotAllowed = errors.New("bracket can only be generated for a closed tournament")
	ErrTournamentNotClosed  = errors.New("tournament is not closed")
	ErrNoMatchesInRound     = errors.New("round has no matches")
	ErrNotAllMatchesPlayed  = errors.New("not all matches in the round have been played")
	ErrBracketComplete      = errors.New("bracket already has a champion")
)

// Duplicate action
var (
	ErrBracketExists        = errors.New("tournament already has a bracket")
	ErrAlreadyParticipant   = errors.New("user is already a participant")
	ErrAlreadyPlayed        = errors.New("match already has a winner")
	ErrRoundAlreadyAdvanced = errors.New("round has already been advanced")
)

// Validation
var (
	ErrNotEnoughParticipants = errors.New("at least 2 participants are required")
	ErrInvalidWinner         = errors.New("winner is not part of this match")
	ErrNameEmpty             = errors.New("tournament name cannot be empty")
	ErrInvalidStatus         = errors.New("invalid tournament status")
)

// Error is returned by every engine operation. It wraps one of the sentinel errors above
// and records the ids involved so callers can build their own messages.
type Error struct {
	Err          error
	TournamentID uuid.UUID
	BracketID    uuid.UUID
	MatchID      uuid.UUID
	UserID       uuid.UUID
	Round        int
}

func (e *Error) Error() string {
	var parts []string
	if e.TournamentID != uuid.Nil {
		parts = append(parts, "tournament="+e.TournamentID.String())
	}
	if e.BracketID != uuid.Nil {
		parts = append(parts, "bracket="+e.BracketID.String())
	}
	if e.MatchID != uuid.Nil {
		parts = append(parts, "match="+e.MatchID.String())
	}
	if e.UserID != uuid.Nil {
		parts = append(parts, "user="+e.UserID.String())
	}
	if e.Round > 0 {
		parts = append(parts, fmt.Sprintf("round=%d", e.Round))
	}
	if len(parts) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (%s)", e.Err, strings.Join(parts, " "))
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrTournamentNotFound) ||
		errors.Is(err, ErrBracketNotFound) ||
		errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrNotOwner)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrBracketExists) ||
		errors.Is(err, ErrAlreadyParticipant) ||
		errors.Is(err, ErrAlreadyPlayed) ||
		errors.Is(err, ErrRoundAlreadyAdvanced)
}

func IsStateMismatch(err error) bool {
	return errors.Is(err, ErrTournamentClosed) ||
		errors.Is(err, ErrGenerationNotAllowed) ||
		errors.Is(err, ErrTournamentNotClosed) ||
		errors.Is(err, ErrNoMatchesInRound) ||
		errors.Is(err, ErrNotAllMatchesPlayed) ||
		errors.Is(err, ErrBracketComplete)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrNotEnoughParticipants) ||
		errors.Is(err, ErrInvalidWinner) ||
		errors.Is(err, ErrNameEmpty) ||
		errors.Is(err, ErrInvalidStatus)
}
