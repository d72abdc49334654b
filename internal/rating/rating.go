// internal/rating/rating.go
package rating

import (
	"math"

	"github.com/jason-s-yu/bloodrecall/internal/models"
)

// InitialRating is what a freshly registered user starts with.
func InitialRating(u models.User) models.User {
	u.Rating = int(DefaultMu)
	u.RatingDeviation = DefaultPhi
	u.Volatility = DefaultSigma
	return u
}

func toGlicko(u models.User) Glicko2Rating {
	rd, sigma := u.RatingDeviation, u.Volatility
	if rd <= 0 {
		rd = DefaultPhi
	}
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	elo := float64(u.Rating)
	if u.Rating == 0 {
		elo = DefaultMu
	}
	return NewGlicko2Rating(elo, rd, sigma)
}

func apply(u models.User, r Glicko2Rating) models.User {
	u.Rating = int(math.Round(r.ToElo()))
	u.RatingDeviation = r.RD()
	u.Volatility = r.Sigma
	return u
}

// UpdateMatch rates one finished match between two users. Both updates use
// the pre-match ratings, so the order of the arguments only decides who won.
func UpdateMatch(winner, loser models.User) (models.User, models.User) {
	w, l := toGlicko(winner), toGlicko(loser)
	return apply(winner, updateGlicko(w, l, 1)), apply(loser, updateGlicko(l, w, 0))
}
