package glicko

import (
	"fmt"
	"math"
)

// Update applies the Glicko-2 rating update to a player on the internal
// scale. The step numbers below refer to Glickman's paper.
//
// results are the player's match results collected since the rating was
// last updated; elapsedPeriods is the fraction of a rating period that has
// elapsed in that time and may be fractional. With an empty result set only
// the deviation changes: idle players accumulate uncertainty and nothing
// else.
//
// Update is a pure function of its inputs and is safe for concurrent use.
func Update(current InternalRating, results []GameResult, elapsedPeriods float64, settings Settings) (InternalRating, error) {
	if elapsedPeriods < 0 {
		elapsedPeriods = 0
	}

	// Step 1. (initialising) doesn't apply: the starting rating is given.
	// Step 2. (scale conversion) doesn't apply: inputs are already internal.

	if len(results) == 0 {
		// Only Step 6. applies.
		return InternalRating{
			Mu:    current.Mu,
			Phi:   preRatingPeriodDeviation(current.Sigma, current.Phi, elapsedPeriods),
			Sigma: current.Sigma,
		}, nil
	}

	// Step 3.
	variance := estimatedVariance(current, results)

	// Step 4.
	improvement := variance * performanceSum(current, results)

	// Step 5.
	newSigma, err := newVolatility(improvement, variance, current, settings)
	if err != nil {
		return InternalRating{}, err
	}

	// Step 6.
	phiStar := preRatingPeriodDeviation(newSigma, current.Phi, elapsedPeriods)

	// Step 7.
	newPhi := 1 / math.Sqrt(1/(phiStar*phiStar)+1/variance)
	newMu := current.Mu + newPhi*newPhi*performanceSum(current, results)

	// Step 8. (scale conversion) is up to the caller.
	return InternalRating{Mu: newMu, Phi: newPhi, Sigma: newSigma}, nil
}

// UpdateRating is Update on the public scale: it converts current and
// results to the internal scale, applies the update, and converts back.
func UpdateRating(current Rating, results []GameResult, elapsedPeriods float64, settings Settings) (Rating, error) {
	updated, err := Update(current.Internal(), results, elapsedPeriods, settings)
	if err != nil {
		return Rating{}, err
	}
	return updated.Public(), nil
}

// g weights an opponent's contribution down as their deviation grows.
func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// expectedScore is E, the expected score against one opponent.
func expectedScore(g, mu, opponentMu float64) float64 {
	return 1 / (1 + math.Exp(-g*(mu-opponentMu)))
}

// estimatedVariance is v from Step 3: the estimated variance of the
// player's rating based only on game outcomes.
func estimatedVariance(player InternalRating, results []GameResult) float64 {
	var sum float64
	for _, result := range results {
		gj := g(result.Opponent.Phi)
		e := expectedScore(gj, player.Mu, result.Opponent.Mu)
		sum += gj * gj * e * (1 - e)
	}
	return 1 / sum
}

// performanceSum is the sum over g(phi_j) * (score_j - E_j), shared by
// Steps 4 and 7.
func performanceSum(player InternalRating, results []GameResult) float64 {
	var sum float64
	for _, result := range results {
		gj := g(result.Opponent.Phi)
		e := expectedScore(gj, player.Mu, result.Opponent.Mu)
		sum += gj * (result.Score - e)
	}
	return sum
}

// newVolatility is Step 5: the iterative converging loop that solves for
// the new volatility over x = ln(sigma²), using the Illinois variant of
// regula falsi.
func newVolatility(improvement, variance float64, player InternalRating, settings Settings) (float64, error) {
	phiSq := player.Phi * player.Phi
	improvementSq := improvement * improvement
	tau := settings.VolatilityChange()

	// 5.1.
	a := math.Log(player.Sigma * player.Sigma)

	f := func(x float64) float64 {
		expX := math.Exp(x)
		num := expX * (improvementSq - phiSq - variance - expX)
		den := phiSq + variance + expX
		return num/(2*den*den) - (x-a)/(tau*tau)
	}

	// 5.2. Establish an initial bracket [lo, hi] containing the root.
	lo := a
	var hi float64
	if improvementSq > phiSq+variance {
		hi = math.Log(improvementSq - phiSq - variance)
	} else {
		// Widen downward in steps of tau until the sign changes.
		k := 1.0
		for f(a-k*tau) < 0 {
			k++
		}
		hi = a - k*tau
	}

	// 5.3.
	fLo := f(lo)
	fHi := f(hi)

	// 5.4.
	for iteration := 0; math.Abs(hi-lo) > settings.ConvergenceTolerance(); iteration++ {
		if iteration > maxIterations {
			return 0, fmt.Errorf("%w after %d iterations (tolerance %v)",
				ErrConvergence, maxIterations, settings.ConvergenceTolerance())
		}

		// (a)
		c := lo + (lo-hi)*fLo/(fHi-fLo)
		fC := f(c)

		// (b)
		if fC*fHi <= 0 {
			lo = hi
			fLo = fHi
		} else {
			fLo /= 2
		}

		// (c)
		hi = c
		fHi = fC
	}

	// 5.5.
	return math.Exp(lo / 2), nil
}

// preRatingPeriodDeviation is Step 6: phi* = sqrt(phi² + sigma'²·t), the
// deviation after accounting for elapsed idle time but before new results.
// The fractional elapsedPeriods factor follows Lichess' implementation of
// continuous-time Glicko-2.
func preRatingPeriodDeviation(newSigma, phi, elapsedPeriods float64) float64 {
	return math.Sqrt(phi*phi + elapsedPeriods*newSigma*newSigma)
}
