package bracket

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Shuffler permutes n elements through swap. *rand.Rand from math/rand/v2 satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// DefaultShuffler uses the package level generator of math/rand/v2, which is safe for
// concurrent use and randomly seeded.
var DefaultShuffler Shuffler = globalShuffler{}

// Seed returns a shuffled copy of the players. The input slice is not modified.
func Seed(players []uuid.UUID, shuffler Shuffler) []uuid.UUID {
	seeded := make([]uuid.UUID, len(players))
	copy(seeded, players)
	if shuffler == nil {
		shuffler = DefaultShuffler
	}
	shuffler.Shuffle(len(seeded), func(i, j int) {
		seeded[i], seeded[j] = seeded[j], seeded[i]
	})
	return seeded
}

// PairRound pairs players two at a time into ceil(n/2) matches for the given round.
// A trailing unpaired player gets a bye, which is resolved immediately with that player
// as the winner.
func PairRound(bracketID uuid.UUID, round int, players []uuid.UUID, now time.Time) []Match {
	matches := make([]Match, 0, (len(players)+1)/2)

	for i := 0; i < len(players); i += 2 {
		m := Match{
			ID:          uuid.New(),
			BracketID:   bracketID,
			RoundNumber: round,
			MatchOrder:  i/2 + 1,
			Player1ID:   players[i],
			CreatedAt:   now,
		}

		if i+1 < len(players) {
			p2 := players[i+1]
			m.Player2ID = &p2
		} else {
			winner := players[i]
			m.WinnerID = &winner
		}

		matches = append(matches, m)
	}

	return matches
}

// RoundMatches returns the matches of one round ordered by their slot.
func RoundMatches(matches []Match, round int) []Match {
	var out []Match
	for _, m := range matches {
		if m.RoundNumber == round {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchOrder < out[j].MatchOrder
	})
	return out
}

// Winners collects the winners of the given matches in order. ok is false if any match is
// still unplayed.
func Winners(matches []Match) (winners []uuid.UUID, ok bool) {
	winners = make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		if m.WinnerID == nil {
			return nil, false
		}
		winners = append(winners, *m.WinnerID)
	}
	return winners, true
}

// LastRound returns the highest round number present, or 0 for no matches.
func LastRound(matches []Match) int {
	last := 0
	for _, m := range matches {
		if m.RoundNumber > last {
			last = m.RoundNumber
		}
	}
	return last
}

// Champion returns the tournament winner once the last round is a single played match.
func Champion(matches []Match) (uuid.UUID, bool) {
	final := RoundMatches(matches, LastRound(matches))
	if len(final) != 1 || final[0].WinnerID == nil {
		return uuid.Nil, false
	}
	return *final[0].WinnerID, true
}
