package logic

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/patrickwarner/admatcher/internal/models"
)

var one = decimal.NewFromInt(1)

// Selector ranks scored candidates and picks the winner among the leader and
// any runners-up whose scores are close enough to it.
type Selector struct {
	// Pair1 is the closeness threshold for admitting the 2nd-ranked ad,
	// Pair2 the threshold for the 3rd.
	Pair1 decimal.Decimal
	Pair2 decimal.Decimal
	// Pick returns a uniform index in [0, n). Tests may replace it.
	Pick func(n int) int
}

// NewSelector returns a Selector using the runtime's per-goroutine random source.
func NewSelector(pair1, pair2 decimal.Decimal) *Selector {
	return &Selector{Pair1: pair1, Pair2: pair2, Pick: rand.IntN}
}

// Rank returns a copy of scored sorted by score descending, ad id ascending.
func (s *Selector) Rank(scored []models.ScoredCandidate) []models.ScoredCandidate {
	ranked := make([]models.ScoredCandidate, len(scored))
	copy(ranked, scored)
	models.SortScored(ranked)
	return ranked
}

// Closeness compares a runner-up score with the leader's score and returns a
// value in [0, 1]; 1 means indistinguishable. Scores of opposite sign, or a
// zero against a non-zero, are never close.
func Closeness(runner, leader decimal.Decimal) decimal.Decimal {
	switch {
	case runner.Equal(leader):
		return one
	case runner.IsPositive() && leader.IsPositive(),
		runner.IsNegative() && leader.IsNegative():
		return ratio(runner, leader)
	default:
		return decimal.Zero
	}
}

// ratio divides the smaller magnitude by the larger so the result stays in (0, 1].
func ratio(a, b decimal.Decimal) decimal.Decimal {
	if a.Abs().GreaterThan(b.Abs()) {
		a, b = b, a
	}
	return a.Div(b)
}

// Pool returns the leader plus the 2nd-ranked ad when it is within Pair1 of
// the leader and, only then, the 3rd-ranked ad when it is within Pair2 of the
// leader. ranked must already be in ranking order.
func (s *Selector) Pool(ranked []models.ScoredCandidate) []models.ScoredCandidate {
	if len(ranked) == 0 {
		return nil
	}
	leader := ranked[0]
	pool := []models.ScoredCandidate{leader}
	if len(ranked) < 2 || Closeness(ranked[1].Score, leader.Score).LessThan(s.Pair1) {
		return pool
	}
	pool = append(pool, ranked[1])
	if len(ranked) < 3 || Closeness(ranked[2].Score, leader.Score).LessThan(s.Pair2) {
		return pool
	}
	return append(pool, ranked[2])
}

// Select ranks scored, widens the pool and picks one ad uniformly from it.
// It returns the chosen id together with the ranked list and the pool.
func (s *Selector) Select(scored []models.ScoredCandidate) (string, Selection, error) {
	if len(scored) == 0 {
		return "", Selection{}, ErrEmptyCandidateSet
	}
	ranked := s.Rank(scored)
	pool := s.Pool(ranked)

	pick := s.Pick
	if pick == nil {
		pick = rand.IntN
	}
	winner := pool[pick(len(pool))]
	return winner.AdID, Selection{Ranked: ranked, Pool: pool, Winner: winner}, nil
}

// Selection describes how a winner was chosen.
type Selection struct {
	Ranked []models.ScoredCandidate
	Pool   []models.ScoredCandidate
	Winner models.ScoredCandidate
}
