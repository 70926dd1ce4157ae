package types

import (
	"math"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

const (
	// AmplitudeScale is the fixed-point scale for amplitude and span values:
	// both are expressed in basis points of the reference price.
	AmplitudeScale uint64 = 10_000

	// AmplitudeSaturated is returned when the relative deviation cannot be
	// represented (zero price, 256-bit overflow, or a result wider than u64).
	AmplitudeSaturated uint64 = math.MaxUint64
)

var (
	ten        = big.NewInt(10)
	maxUint64  = new(big.Int).SetUint64(math.MaxUint64)
	scaleValue = new(big.Int).SetUint64(AmplitudeScale)
)

// RescaleSafe converts value from fromDecimals to toDecimals one digit at a time.
// Once the value truncates to zero it stops dividing; zero is propagated as-is.
// Used on raw provider output, where zero is a legitimate reading.
func RescaleSafe(value sdkmath.Uint, fromDecimals, toDecimals uint32) (sdkmath.Uint, error) {
	return rescale(value, fromDecimals, toDecimals, true)
}

// RescalePrecise converts value from fromDecimals to toDecimals one digit at a
// time without any short-circuit, for amounts already validated as non-zero.
func RescalePrecise(value sdkmath.Uint, fromDecimals, toDecimals uint32) (sdkmath.Uint, error) {
	return rescale(value, fromDecimals, toDecimals, false)
}

func rescale(value sdkmath.Uint, from, to uint32, stopAtZero bool) (sdkmath.Uint, error) {
	if value.IsNil() {
		value = sdkmath.ZeroUint()
	}
	v := value.BigInt()
	for from < to {
		if stopAtZero && v.Sign() == 0 {
			return sdkmath.ZeroUint(), nil
		}
		v.Mul(v, ten)
		if v.BitLen() > sdkmath.MaxBitLen {
			return sdkmath.Uint{}, ErrPriceOverflow.Wrapf("rescaling %s from %d to %d decimals", value, from, to)
		}
		from++
	}
	for from > to {
		if stopAtZero && v.Sign() == 0 {
			return sdkmath.ZeroUint(), nil
		}
		v.Quo(v, ten)
		from--
	}
	return sdkmath.NewUintFromBigInt(v), nil
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b sdkmath.Uint) sdkmath.Uint {
	if a.GTE(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

// MulDiv returns a*b/c truncated toward zero. ok is false when c is zero or
// the intermediate product does not fit in 256 bits.
func MulDiv(a, b, c sdkmath.Uint) (sdkmath.Uint, bool) {
	if c.IsZero() {
		return sdkmath.Uint{}, false
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if product.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Uint{}, false
	}
	return sdkmath.NewUintFromBigInt(product.Quo(product, c.BigInt())), true
}

// RelativeDeviation returns |value - reference| * AmplitudeScale / reference.
// The reference is always the divisor. Returns AmplitudeSaturated when the
// reference is zero or the result is not representable as u64.
func RelativeDeviation(reference, value sdkmath.Uint) uint64 {
	if reference.IsNil() || reference.IsZero() {
		return AmplitudeSaturated
	}
	if value.IsNil() {
		value = sdkmath.ZeroUint()
	}
	diff := AbsDiff(reference, value)
	scaled, ok := MulDiv(diff, sdkmath.NewUintFromBigInt(scaleValue), reference)
	if !ok || scaled.BigInt().Cmp(maxUint64) > 0 {
		return AmplitudeSaturated
	}
	return scaled.Uint64()
}

// Amplitude is the relative divergence of secondary from primary. Primary is
// the divisor, so Amplitude(a, b) and Amplitude(b, a) generally differ.
func Amplitude(primary, secondary sdkmath.Uint) uint64 {
	if secondary.IsNil() || secondary.IsZero() {
		return AmplitudeSaturated
	}
	return RelativeDeviation(primary, secondary)
}
