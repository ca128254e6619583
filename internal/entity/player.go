package entity

const DefaultRating = 100

// PlayerRecord is the part of a player profile the game core cares about.
type PlayerRecord struct {
	ID     string `json:"id"`
	Rating int    `json:"elo"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

func NewPlayerRecord(id string, rating int) *PlayerRecord {
	return &PlayerRecord{
		ID:     id,
		Rating: rating,
	}
}

// ApplyResult adds the rating delta and bumps the matching counter for score 1, 0.5 or 0.
func (that *PlayerRecord) ApplyResult(score float64, delta int) {
	that.Rating += delta

	switch {
	case score > 0.5:
		that.Wins++
	case score < 0.5:
		that.Losses++
	default:
		that.Draws++
	}
}

// PlayerResult is one side of a settled game.
type PlayerResult struct {
	PlayerID string
	Score    float64
	Delta    int
}
