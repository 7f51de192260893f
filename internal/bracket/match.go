package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BracketID uuid.UUID `db:"bracket_id" json:"bracket_id"`

	// Position in the bracket. MatchOrder is the slot within the round and decides pairing
	// of winners in the following round.
	RoundNumber int `db:"round_number" json:"round"`
	MatchOrder  int `db:"match_order" json:"match_order"`

	Player1ID uuid.UUID  `db:"player_1_id" json:"player_1_id"`
	Player2ID *uuid.UUID `db:"player_2_id" json:"player_2_id"`
	WinnerID  *uuid.UUID `db:"winner_id" json:"winner_id"`

	IsDeleted bool      `db:"is_deleted" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsBye reports whether the match has a single player.
func (m *Match) IsBye() bool {
	return m.Player2ID == nil
}

func (m *Match) IsPlayed() bool {
	return m.WinnerID != nil
}

func (m *Match) HasPlayer(userID uuid.UUID) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}
