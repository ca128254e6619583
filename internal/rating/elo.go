package rating

import (
	"math"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
)

const DefaultKFactor = 32

const (
	ScoreWin  = 1.0
	ScoreDraw = 0.5
	ScoreLoss = 0.0
)

// Settlement holds the rating change of each seat for one finished game.
type Settlement struct {
	DeltaX int     `json:"delta_x"`
	DeltaO int     `json:"delta_o"`
	ScoreX float64 `json:"score_x"`
}

func (that Settlement) ScoreO() float64 {
	return 1 - that.ScoreX
}

type Calculator struct {
	k int
}

func NewCalculator(k int) *Calculator {
	if k <= 0 {
		k = DefaultKFactor
	}

	return &Calculator{k: k}
}

// Expected is the probability-like expected score of self against opponent.
func Expected(self, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-self)/400))
}

// Delta is the rating change for self after scoring score (1, 0.5 or 0) against opponent.
func (that *Calculator) Delta(self, opponent int, score float64) int {
	return int(math.Round(float64(that.k) * (score - Expected(self, opponent))))
}

// Settle computes both deltas of a finished game. Resignations and timeouts score like any decisive result.
func (that *Calculator) Settle(result entity.MatchResult, ratingX, ratingO int) Settlement {
	scoreX := ScoreDraw

	switch result.Winner {
	case entity.PlayerX:
		scoreX = ScoreWin
	case entity.PlayerO:
		scoreX = ScoreLoss
	}

	return Settlement{
		DeltaX: that.Delta(ratingX, ratingO, scoreX),
		DeltaO: that.Delta(ratingO, ratingX, 1-scoreX),
		ScoreX: scoreX,
	}
}
