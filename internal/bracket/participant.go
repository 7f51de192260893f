package bracket

import (
	"time"

	"github.com/google/uuid"
)

// Participant links a user to a tournament. (TournamentID, UserID) is unique among live rows.
type Participant struct {
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	IsDeleted    bool      `db:"is_deleted" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func ParticipantIDs(participants []Participant) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
