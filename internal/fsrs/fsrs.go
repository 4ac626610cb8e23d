package fsrs

import (
	"math"

	"github.com/memodeck/memodeck/internal/domain"
)

// Params holds the parameters for the FSRS-style scheduling algorithm.
type Params struct {
	A                float64 // scales the overall memory increase
	B                float64 // difficulty exponent
	C                float64 // stability exponent
	D                float64 // retention effect scaler
	DesiredRetention float64 // target recall probability (e.g. 0.9 for 90%)

	HardFactor float64 // dampens stability growth for Hard (<1)
	EasyBonus  float64 // boosts the resulting stability for Easy (>1)

	// InitialStability holds the baseline stability for a card's first
	// review, indexed by rating. A card with no review history starts
	// from these values regardless of the rating chosen.
	InitialStability map[domain.Rating]float64

	InitialDifficulty float64 // baseline difficulty for a Good first review
	DifficultyStep    float64 // per-rating shift applied on first review

	AgainMinutes int // relearning delay after an Again rating
	MaxInterval  int // upper bound on scheduled days
}

// DefaultParams provides a sensible starting parameter set.
func DefaultParams() *Params {
	return &Params{
		A:                0.2,
		B:                0.5,
		C:                0.1,
		D:                4.0,
		DesiredRetention: 0.9,
		HardFactor:       0.5,
		EasyBonus:        1.3,
		InitialStability: map[domain.Rating]float64{
			domain.Again: 1,
			domain.Hard:  1.2,
			domain.Good:  3,
			domain.Easy:  7,
		},
		InitialDifficulty: 5,
		DifficultyStep:    1,
		AgainMinutes:      10,
		MaxInterval:       36500,
	}
}

// nextStability applies the growth formula for a successful review:
// S' = S * (1 + a * D^(-b) * S^c * (e^(d * (1-R)) - 1))
// Hard growth is dampened by HardFactor; Easy results are scaled by
// EasyBonus. Again resets stability to the baseline.
func (p *Params) nextStability(stability, difficulty float64, rating domain.Rating) float64 {
	if rating == domain.Again {
		return p.InitialStability[domain.Again]
	}

	if stability < 1 {
		stability = 1
	}
	if difficulty < 1 {
		difficulty = 1
	}

	factor := p.A * math.Pow(difficulty, -p.B) * math.Pow(stability, p.C)
	exponent := p.D * (1 - p.DesiredRetention)
	growth := factor * (math.Exp(exponent) - 1)

	switch rating {
	case domain.Hard:
		return stability * (1 + growth*p.HardFactor)
	case domain.Easy:
		return stability * (1 + growth) * p.EasyBonus
	default:
		return stability * (1 + growth)
	}
}

// nextDifficulty adjusts difficulty for a repeat review. Failing a card
// makes it harder, Easy makes it slightly easier, Good leaves it alone.
func (p *Params) nextDifficulty(difficulty float64, rating domain.Rating) float64 {
	switch rating {
	case domain.Again:
		difficulty += 0.5
	case domain.Hard:
		difficulty += 0.1
	case domain.Easy:
		difficulty -= 0.1
	}
	return clampDifficulty(difficulty)
}

// initialDifficulty is the baseline difficulty for a card's first review.
func (p *Params) initialDifficulty(rating domain.Rating) float64 {
	d := p.InitialDifficulty + float64(domain.Good-rating)*p.DifficultyStep
	return clampDifficulty(d)
}

// nextIntervalDays converts a stability into whole scheduled days,
// targeting the desired retention threshold. At the conventional 90%
// target the interval equals the stability.
func (p *Params) nextIntervalDays(stability float64) int {
	factor := math.Log(p.DesiredRetention) / math.Log(0.9)
	days := int(math.Round(stability * factor))
	if days < 1 {
		days = 1
	}
	if days > p.MaxInterval {
		days = p.MaxInterval
	}
	return days
}

func clampDifficulty(d float64) float64 {
	return math.Min(10, math.Max(1, d))
}
