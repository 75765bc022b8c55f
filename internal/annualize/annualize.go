// Package annualize maps per-period returns and confidence-interval
// bounds to annual scale via stable geometric compounding, with guards
// near ruin (r -> -1). Ported from Annualizer.h.
package annualize

import (
	"errors"
	"math"
)

// ErrInvalidArgument covers a non-positive or non-finite
// annualization factor and unsupported timeframe.
var ErrInvalidArgument = errors.New("annualize: invalid argument")

const (
	defaultEps  = 1e-12
	defaultBump = 1e-7
)

// Timeframe enumerates the periods computeAnnualizationFactor
// recognizes.
type Timeframe int

const (
	Daily Timeframe = iota
	Weekly
	Monthly
	Quarterly
	Yearly
	Intraday
)

// Factor returns the number of periods per year for timeframe.
// intradayMinutesPerBar is required (and must be > 0) only when
// timeframe is Intraday.
func Factor(timeframe Timeframe, intradayMinutesPerBar int, tradingDaysPerYear, tradingHoursPerDay float64) (float64, error) {
	if tradingDaysPerYear == 0 {
		tradingDaysPerYear = 252.0
	}
	if tradingHoursPerDay == 0 {
		tradingHoursPerDay = 6.5
	}
	switch timeframe {
	case Daily:
		return tradingDaysPerYear, nil
	case Weekly:
		return 52.0, nil
	case Monthly:
		return 12.0, nil
	case Quarterly:
		return 4.0, nil
	case Yearly:
		return 1.0, nil
	case Intraday:
		if intradayMinutesPerBar == 0 {
			return 0, ErrInvalidArgument
		}
		barsPerHour := 60.0 / float64(intradayMinutesPerBar)
		if barsPerHour <= 0 || tradingDaysPerYear <= 0 || tradingHoursPerDay <= 0 {
			return 0, ErrInvalidArgument
		}
		return tradingHoursPerDay * barsPerHour * tradingDaysPerYear, nil
	default:
		return 0, ErrInvalidArgument
	}
}

// EffectiveFactor returns max(1, annualizedTrades*medianHoldBars), the
// trade-frequency-adjusted annualization factor used when a strategy's
// holding period diverges from the raw per-bar cadence.
func EffectiveFactor(annualizedTrades, medianHoldBars float64) float64 {
	return math.Max(1.0, annualizedTrades*medianHoldBars)
}

func validateK(k float64) error {
	if !(k > 0) || math.IsNaN(k) || math.IsInf(k, 0) {
		return ErrInvalidArgument
	}
	return nil
}

// One annualizes a single per-period return r over K periods per
// year: y = exp(K*log1p(r)) - 1, clamping r above -1 and bumping a
// degenerate y back above -1.
func One(r, k, eps, bump float64) (float64, error) {
	if err := validateK(k); err != nil {
		return 0, err
	}
	if eps <= 0 {
		eps = defaultEps
	}
	if bump <= 0 {
		bump = defaultBump
	}
	rClip := r
	if !(rClip > -1) {
		rClip = -1 + eps
	}
	y := math.Exp(k*math.Log1p(rClip)) - 1.0
	if y <= -1.0 {
		y = -1.0 + bump
	}
	return y, nil
}

// Deannualize is the exact inverse of One.
func Deannualize(rAnnual, k, eps, bump float64) (float64, error) {
	if err := validateK(k); err != nil {
		return 0, err
	}
	if eps <= 0 {
		eps = defaultEps
	}
	if bump <= 0 {
		bump = defaultBump
	}
	rClamped := rAnnual
	if !(rClamped > -1) {
		rClamped = -1 + eps
	}
	lp1 := math.Log1p(rClamped)
	r := math.Exp(lp1/k) - 1.0
	if r <= -1.0 {
		r = -1.0 + bump
	}
	return r, nil
}

// Triplet is a (lower, mean, upper) bound trio, annualized or
// deannualized element-wise; the transform is monotone so ordering is
// preserved.
type Triplet struct {
	Lower, Mean, Upper float64
}

// AnnualizeTriplet applies One to each of t's fields.
func AnnualizeTriplet(t Triplet, k, eps, bump float64) (Triplet, error) {
	lower, err := One(t.Lower, k, eps, bump)
	if err != nil {
		return Triplet{}, err
	}
	mean, err := One(t.Mean, k, eps, bump)
	if err != nil {
		return Triplet{}, err
	}
	upper, err := One(t.Upper, k, eps, bump)
	if err != nil {
		return Triplet{}, err
	}
	return Triplet{Lower: lower, Mean: mean, Upper: upper}, nil
}

// DeannualizeTriplet applies Deannualize to each of t's fields.
func DeannualizeTriplet(t Triplet, k, eps, bump float64) (Triplet, error) {
	lower, err := Deannualize(t.Lower, k, eps, bump)
	if err != nil {
		return Triplet{}, err
	}
	mean, err := Deannualize(t.Mean, k, eps, bump)
	if err != nil {
		return Triplet{}, err
	}
	upper, err := Deannualize(t.Upper, k, eps, bump)
	if err != nil {
		return Triplet{}, err
	}
	return Triplet{Lower: lower, Mean: mean, Upper: upper}, nil
}
