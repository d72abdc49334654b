// internal/rating/glicko2.go
package rating

import "math"

const (
	// GlickoScale converts between the 1500-based scale and Glicko-2's mu.
	GlickoScale = 173.7178
	// DefaultMu is the baseline rating on the 1500-based scale.
	DefaultMu = 1500.0
	// DefaultPhi is the rating deviation of a new player on the 1500-based scale.
	DefaultPhi = 350.0
	// DefaultSigma is the volatility of a new player.
	DefaultSigma = 0.06
	// Tau constrains volatility changes.
	Tau = 0.5
	// Epsilon is the convergence tolerance of the volatility iteration.
	Epsilon = 0.000001
)

// Glicko2Rating holds mu, phi and sigma in Glicko-2 space.
type Glicko2Rating struct {
	Mu    float64
	Phi   float64
	Sigma float64
}

// NewGlicko2Rating converts a rating, deviation and volatility on the
// 1500-based scale into Glicko-2 space.
func NewGlicko2Rating(elo, rd, sigma float64) Glicko2Rating {
	return Glicko2Rating{
		Mu:    (elo - DefaultMu) / GlickoScale,
		Phi:   rd / GlickoScale,
		Sigma: sigma,
	}
}

// ToElo converts Mu back to the 1500-based scale.
func (r Glicko2Rating) ToElo() float64 {
	return r.Mu*GlickoScale + DefaultMu
}

// RD converts Phi back to the 1500-based scale.
func (r Glicko2Rating) RD() float64 {
	return r.Phi * GlickoScale
}

// updateGlicko performs a single-game Glicko-2 update of r against opp with
// a score in [0..1], following Glickman's step-by-step procedure.
func updateGlicko(r, opp Glicko2Rating, score float64) Glicko2Rating {
	gVal := g(opp.Phi)
	eVal := E(r.Mu, opp.Mu, opp.Phi)

	v := 1.0 / (gVal * gVal * eVal * (1 - eVal))
	delta := v * gVal * (score - eVal)

	// Volatility via the Illinois variant of regula falsi.
	a := math.Log(r.Sigma * r.Sigma)
	fx := func(x float64) float64 {
		return f(x, r.Phi, v, delta, a)
	}
	A := a
	var B float64
	if delta*delta > r.Phi*r.Phi+v {
		B = math.Log(delta*delta - r.Phi*r.Phi - v)
	} else {
		k := 1.0
		for fx(a-k*Tau) < 0 {
			k++
		}
		B = a - k*Tau
	}
	fA, fB := fx(A), fx(B)
	for i := 0; i < 100 && math.Abs(B-A) > Epsilon; i++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := fx(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}
	newSigma := math.Exp(A / 2)

	phiStar := math.Sqrt(r.Phi*r.Phi + newSigma*newSigma)
	phiPrime := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muPrime := r.Mu + phiPrime*phiPrime*gVal*(score-eVal)

	return Glicko2Rating{
		Mu:    muPrime,
		Phi:   phiPrime,
		Sigma: newSigma,
	}
}

// g is 1/sqrt(1+3phi^2/pi^2).
func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/math.Pi/math.Pi)
}

// E is the expected score 1/(1+exp[-g(phi2)*(mu-mu2)]).
func E(mu, mu2, phi2 float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phi2)*(mu-mu2)))
}

// f is the function whose root gives the new volatility.
func f(x, phi, v, delta, a float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return (num / den) - ((x - a) / (Tau * Tau))
}
