// Package fixedmath provides overflow-free integer ratio arithmetic for
// balance and share computations. All consensus-relevant pro-rata math in the
// runtime goes through MulDiv/MulDivRound so results are identical on every
// replica; floating point is never used.
package fixedmath

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"

	"github.com/fair-squares/go-fairsquares/common/errs"
)

// MulDiv returns floor(a*b/den) with a 128-bit intermediate.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, errors.Wrap(errs.MathError, "division by zero")
	}
	q := uint128.From64(a).Mul64(b).Div64(den)
	if q.Hi != 0 {
		return 0, errors.Wrapf(errs.Overflow, "muldiv %d*%d/%d overflows uint64", a, b, den)
	}
	return q.Lo, nil
}

// MulDivRound returns a*b/den rounded half away from zero.
func MulDivRound(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, errors.Wrap(errs.MathError, "division by zero")
	}
	q, rem := uint128.From64(a).Mul64(b).QuoRem64(den)
	if rem >= den-rem {
		q = q.Add64(1)
	}
	if q.Hi != 0 {
		return 0, errors.Wrapf(errs.Overflow, "muldiv %d*%d/%d overflows uint64", a, b, den)
	}
	return q.Lo, nil
}

// Percent is a fixed-point fraction in parts-per-million. The unit is fine
// enough to carry the parts-per-thousand shares the fund tracks without loss.
type Percent uint64

const (
	// One is 100%.
	One Percent = 1_000_000
	// Permill is 0.1%.
	Permill Percent = 1_000
)

// FromPercent converts whole percents, e.g. FromPercent(20) == 20%.
func FromPercent(p uint64) Percent {
	return Percent(p * 10_000)
}

// FromPermill converts parts-per-thousand.
func FromPermill(p uint64) Percent {
	return Percent(p) * Permill
}

// RatioOf returns part/total as a Percent, rounded down.
// RatioOf(0, 0) is 0.
func RatioOf(part, total uint64) Percent {
	if total == 0 {
		return 0
	}
	r, err := MulDiv(part, uint64(One), total)
	if err != nil {
		// part/total <= 2^64 ratios above 100% can overflow only with
		// absurd inputs; saturate rather than poison callers.
		return Percent(^uint64(0))
	}
	return Percent(r)
}

// Mul returns floor(p * amount), saturating at the uint64 bound.
func (p Percent) Mul(amount uint64) uint64 {
	v, err := MulDiv(amount, uint64(p), uint64(One))
	if err != nil {
		return ^uint64(0)
	}
	return v
}

// MulRound returns p * amount rounded half away from zero, saturating.
func (p Percent) MulRound(amount uint64) uint64 {
	v, err := MulDivRound(amount, uint64(p), uint64(One))
	if err != nil {
		return ^uint64(0)
	}
	return v
}

// Permill truncates the fraction to parts-per-thousand.
func (p Percent) AsPermill() uint64 {
	return uint64(p / Permill)
}
