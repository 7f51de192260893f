package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentOpen   TournamentStatus = "open"
	TournamentClosed TournamentStatus = "closed"
)

func (s TournamentStatus) Valid() bool {
	return s == TournamentOpen || s == TournamentClosed
}

type Tournament struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	OwnerID   uuid.UUID        `db:"owner_id" json:"owner_id"`
	Name      string           `db:"name" json:"name"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	Status    TournamentStatus `db:"status" json:"status"`
	IsDeleted bool             `db:"is_deleted" json:"-"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

func (t *Tournament) OwnedBy(userID uuid.UUID) bool {
	return t.OwnerID == userID
}

// TournamentPatch holds the fields of a partial update. A nil field is left unchanged.
type TournamentPatch struct {
	Name      *string           `json:"name"`
	StartDate *time.Time        `json:"start_date"`
	Status    *TournamentStatus `json:"status"`
}

func (p TournamentPatch) Empty() bool {
	return p.Name == nil && p.StartDate == nil && p.Status == nil
}
