// Package domain holds the order-book core: fixed-point arithmetic, canonical
// event types, and the per-venue limit order book.
package domain

import (
	"math"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"github.com/quantmesh/lobagg/internal/apperror"
)

// scaleDigits is the number of fractional digits carried by every Decimal.
const scaleDigits = 18

// maxMagnitudeBits bounds the logical storage width of a Decimal to 128 bits,
// even though the underlying uint256.Int has 256 bits of headroom for the
// widened multiply/divide domain.
const maxMagnitudeBits = 127

var scale = uint256.NewInt(1)

var scaleBig = new(big.Int)
var scaleRat = new(big.Rat)

func init() {
	for i := 0; i < scaleDigits; i++ {
		scale.Mul(scale, uint256.NewInt(10))
	}
	scaleBig = scale.ToBig()
	scaleRat.SetInt(scaleBig)
}

// Decimal is a signed fixed-point number scaled by 10^18. The magnitude is
// stored in a uint256.Int so that the same type serves as both the bounded
// (<=127 bit) storage domain and the widened multiplication/division domain:
// two operands that individually fit in 128 bits produce a product that
// always fits in 256 bits without wraparound.
type Decimal struct {
	neg bool
	mag uint256.Int
}

// Zero is the additive identity.
var Zero = Decimal{}

func overflowErr(context string) error {
	return apperror.New(apperror.CodeOverflow, apperror.WithContext(context))
}

func divideByZeroErr(context string) error {
	return apperror.New(apperror.CodeDivideByZero, apperror.WithContext(context))
}

func parseErr(raw string) error {
	return apperror.New(apperror.CodeParseError, apperror.WithContext("decimal: "+raw))
}

func fromMag(neg bool, mag uint256.Int) (Decimal, error) {
	if mag.BitLen() > maxMagnitudeBits {
		return Decimal{}, overflowErr("magnitude exceeds 128 bits")
	}
	if mag.IsZero() {
		neg = false
	}
	return Decimal{neg: neg, mag: mag}, nil
}

// FromRawBigInt builds a Decimal directly from its scaled integer
// representation (i.e. value * 10^18 already applied).
func FromRawBigInt(v *big.Int) (Decimal, error) {
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	var mag uint256.Int
	if overflow := mag.SetFromBig(abs); overflow {
		return Decimal{}, overflowErr("raw value exceeds 256 bits")
	}
	return fromMag(neg, mag)
}

// FromInteger scales a whole number by 10^18.
func FromInteger(i int64) (Decimal, error) {
	neg := i < 0
	u := uint64(i)
	if neg {
		u = uint64(-i)
	}
	var mag uint256.Int
	mag.SetUint64(u)
	mag.Mul(&mag, scale)
	return fromMag(neg, mag)
}

// FromDouble converts a float64 into a Decimal using an exact big.Rat
// intermediate and round-half-to-even, so the conversion is banker-safe
// rather than inheriting float64's own rounding artifacts.
func FromDouble(f float64) (Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Decimal{}, parseErr("non-finite float")
	}
	if f == 0 {
		return Zero, nil
	}

	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		return Decimal{}, parseErr("unrepresentable float")
	}
	r.Mul(r, scaleRat)

	neg := r.Sign() < 0
	if neg {
		r.Neg(r)
	}

	num := r.Num()
	den := r.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))

	doubled := new(big.Int).Lsh(rem, 1)
	switch doubled.Cmp(den) {
	case 1:
		q.Add(q, big.NewInt(1))
	case 0:
		if q.Bit(0) == 1 {
			q.Add(q, big.NewInt(1))
		}
	}

	var mag uint256.Int
	if overflow := mag.SetFromBig(q); overflow {
		return Decimal{}, overflowErr("from_double result exceeds 256 bits")
	}
	return fromMag(neg, mag)
}

// FromString parses an optionally-signed decimal literal: a required integer
// part, an optional '.' followed by up to 18 fractional digits. Extra
// fractional digits are truncated; missing ones are right-padded with zero.
func FromString(s string) (Decimal, error) {
	orig := s
	if s == "" {
		return Decimal{}, parseErr(orig)
	}

	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}

	if strings.Count(s, ".") > 1 {
		return Decimal{}, parseErr(orig)
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}

	if intPart == "" {
		return Decimal{}, parseErr(orig)
	}
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return Decimal{}, parseErr(orig)
		}
	}
	for _, c := range fracPart {
		if c < '0' || c > '9' {
			return Decimal{}, parseErr(orig)
		}
	}

	if len(fracPart) > scaleDigits {
		fracPart = fracPart[:scaleDigits]
	}
	for len(fracPart) < scaleDigits {
		fracPart += "0"
	}

	digits := strings.TrimLeft(intPart+fracPart, "0")
	if digits == "" {
		digits = "0"
	}

	bi, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, parseErr(orig)
	}

	var mag uint256.Int
	if overflow := mag.SetFromBig(bi); overflow {
		return Decimal{}, overflowErr("parsed value exceeds 256 bits")
	}
	return fromMag(neg, mag)
}

// ToString formats the Decimal with exactly precision fractional digits.
// precision is clamped to [0, 18].
func (d Decimal) ToString(precision int) string {
	if precision < 0 {
		precision = 0
	}
	if precision > scaleDigits {
		precision = scaleDigits
	}

	digits := d.mag.ToBig().String()
	for len(digits) <= scaleDigits {
		digits = "0" + digits
	}
	intPart := digits[:len(digits)-scaleDigits]
	fracPart := digits[len(digits)-scaleDigits:]

	sign := ""
	if d.neg && !d.mag.IsZero() {
		sign = "-"
	}

	if precision == 0 {
		return sign + intPart
	}
	return sign + intPart + "." + fracPart[:precision]
}

// String formats with full 18-digit precision.
func (d Decimal) String() string {
	return d.ToString(scaleDigits)
}

// ToDouble converts back to a float64, losing precision beyond float64's
// own mantissa width.
func (d Decimal) ToDouble() float64 {
	r := new(big.Rat).SetInt(d.mag.ToBig())
	r.Quo(r, scaleRat)
	f, _ := r.Float64()
	if d.neg {
		f = -f
	}
	return f
}

// IsZero reports whether the value is exactly zero.
func (d Decimal) IsZero() bool { return d.mag.IsZero() }

// IsNegative reports whether the value is strictly less than zero.
func (d Decimal) IsNegative() bool { return d.neg && !d.mag.IsZero() }

// IsPositive reports whether the value is strictly greater than zero.
func (d Decimal) IsPositive() bool { return !d.neg && !d.mag.IsZero() }

// Sign returns -1, 0, or 1.
func (d Decimal) Sign() int {
	if d.mag.IsZero() {
		return 0
	}
	if d.neg {
		return -1
	}
	return 1
}

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	if d.mag.IsZero() {
		return d
	}
	return Decimal{neg: !d.neg, mag: d.mag}
}

// Cmp returns -1, 0, or 1 as d is less than, equal to, or greater than o.
func (d Decimal) Cmp(o Decimal) int {
	ds, os := d.Sign(), o.Sign()
	if ds != os {
		if ds < os {
			return -1
		}
		return 1
	}
	if ds == 0 {
		return 0
	}
	magCmp := d.mag.Cmp(&o.mag)
	if ds < 0 {
		return -magCmp
	}
	return magCmp
}

// Equal reports whether d and o carry the same value.
func (d Decimal) Equal(o Decimal) bool { return d.Cmp(o) == 0 }

// GreaterThan reports d > o.
func (d Decimal) GreaterThan(o Decimal) bool { return d.Cmp(o) > 0 }

// LessThan reports d < o.
func (d Decimal) LessThan(o Decimal) bool { return d.Cmp(o) < 0 }

// Add returns d + o, failing with Overflow if the result needs more than
// 128 bits.
func (d Decimal) Add(o Decimal) (Decimal, error) {
	if d.neg == o.neg {
		var mag uint256.Int
		mag.Add(&d.mag, &o.mag)
		return fromMag(d.neg, mag)
	}
	if d.mag.Cmp(&o.mag) >= 0 {
		var mag uint256.Int
		mag.Sub(&d.mag, &o.mag)
		return fromMag(d.neg, mag)
	}
	var mag uint256.Int
	mag.Sub(&o.mag, &d.mag)
	return fromMag(o.neg, mag)
}

// Sub returns d - o.
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	return d.Add(o.Neg())
}

// Mul returns d * o. Both operands are widened to the 256-bit uint256
// domain before multiplying; since each magnitude is bounded to 127 bits,
// the product (<=254 bits) never wraps before it is divided back down by
// the scale factor.
func (d Decimal) Mul(o Decimal) (Decimal, error) {
	var wide uint256.Int
	wide.Mul(&d.mag, &o.mag)
	wide.Div(&wide, scale)
	return fromMag(d.neg != o.neg, wide)
}

// Div returns d / o, failing with DivideByZero when o is zero and Overflow
// if the quotient needs more than 128 bits.
func (d Decimal) Div(o Decimal) (Decimal, error) {
	if o.mag.IsZero() {
		return Decimal{}, divideByZeroErr("division by zero")
	}
	var num uint256.Int
	num.Mul(&d.mag, scale)
	var q uint256.Int
	q.Div(&num, &o.mag)
	return fromMag(d.neg != o.neg, q)
}
