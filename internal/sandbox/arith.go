package sandbox

import (
	"math"
	"math/big"
	"strings"
)

const (
	maxIntBits    = 1 << 20
	maxStringLen  = 1 << 20
	overflowError = "OverflowError"
)

// ndarray is a numpy array. Operators on it work elementwise; plain lists
// keep Python's sequence rules for + and *.
type ndarray []any

func asSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case ndarray:
		return []any(x), true
	}
	return nil, false
}

func isArray(v any) bool {
	_, ok := v.(ndarray)
	return ok
}

func toArray(xs []any) ndarray {
	out := make(ndarray, len(xs))
	for i, x := range xs {
		if inner, ok := asSlice(x); ok {
			out[i] = toArray(inner)
			continue
		}
		out[i] = x
	}
	return out
}

func operandErr(op string, a, b any) error {
	return typeErr("unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(a), typeName(b))
}

// broadcast applies op pairwise when both operands are arrays and against
// every element when one side is a scalar.
func broadcast(op fn, a, b any) (any, error) {
	xs, aSeq := asSlice(a)
	ys, bSeq := asSlice(b)
	var out ndarray
	switch {
	case aSeq && bSeq:
		if len(xs) != len(ys) {
			return nil, valueErr("operands could not be broadcast together with shapes (%d,) (%d,)", len(xs), len(ys))
		}
		out = make(ndarray, len(xs))
		for i := range xs {
			r, err := op(elem(xs[i]), elem(ys[i]))
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
	case aSeq:
		out = make(ndarray, len(xs))
		for i, x := range xs {
			r, err := op(elem(x), b)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
	default:
		out = make(ndarray, len(ys))
		for i, y := range ys {
			r, err := op(a, elem(y))
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
	}
	return out, nil
}

// elem lifts nested lists inside an array so rows broadcast too.
func elem(v any) any {
	if xs, ok := v.([]any); ok {
		return toArray(xs)
	}
	return v
}

func integral(v any) (*big.Int, bool) {
	if b, ok := v.(*big.Int); ok {
		return b, true
	}
	if i, ok := toInt(v); ok {
		return big.NewInt(int64(i)), true
	}
	return nil, false
}

// numeric applies an arithmetic operator with Python's int/float rules.
// Integer results never wrap; they grow into *big.Int.
func numeric(symbol string, a, b any, intOp func(z, x, y *big.Int) *big.Int, floatOp func(x, y float64) float64) (any, error) {
	if x, ok := integral(a); ok {
		if y, ok := integral(b); ok {
			return bigResult(intOp(new(big.Int), x, y)), nil
		}
	}
	x, err := toFloat(a)
	if err != nil {
		return nil, operandErr(symbol, a, b)
	}
	y, err := toFloat(b)
	if err != nil {
		return nil, operandErr(symbol, a, b)
	}
	return floatOp(x, y), nil
}

func pyAdd(args ...any) (any, error) {
	a, b := args[0], args[1]
	if isArray(a) || isArray(b) {
		return broadcast(pyAdd, a, b)
	}
	if s, ok := a.(string); ok {
		t, ok := b.(string)
		if !ok {
			return nil, typeErr("can only concatenate str (not \"%s\") to str", typeName(b))
		}
		if len(s)+len(t) > maxStringLen {
			return nil, valueErr("string of %d bytes exceeds the limit of %d", len(s)+len(t), maxStringLen)
		}
		return s + t, nil
	}
	if xs, ok := a.([]any); ok {
		ys, ok := b.([]any)
		if !ok {
			return nil, typeErr("can only concatenate list (not \"%s\") to list", typeName(b))
		}
		if len(xs)+len(ys) > MaxArrayLen {
			return nil, valueErr("list of %d items exceeds the limit of %d", len(xs)+len(ys), MaxArrayLen)
		}
		out := make([]any, 0, len(xs)+len(ys))
		return append(append(out, xs...), ys...), nil
	}
	return numeric("+", a, b, (*big.Int).Add, func(x, y float64) float64 { return x + y })
}

func pySub(args ...any) (any, error) {
	a, b := args[0], args[1]
	if isArray(a) || isArray(b) {
		return broadcast(pySub, a, b)
	}
	return numeric("-", a, b, (*big.Int).Sub, func(x, y float64) float64 { return x - y })
}

func pyMul(args ...any) (any, error) {
	a, b := args[0], args[1]
	if isArray(a) || isArray(b) {
		return broadcast(pyMul, a, b)
	}
	if n, ok := toInt(b); ok {
		if out, ok, err := repeat(a, n); ok {
			return out, err
		}
	}
	if n, ok := toInt(a); ok {
		if out, ok, err := repeat(b, n); ok {
			return out, err
		}
	}
	return numeric("*", a, b, (*big.Int).Mul, func(x, y float64) float64 { return x * y })
}

// repeat implements sequence * int. The bool result reports whether seq was
// a sequence at all.
func repeat(seq any, n int) (any, bool, error) {
	if n < 0 {
		n = 0
	}
	switch x := seq.(type) {
	case string:
		if n > 0 && len(x) > maxStringLen/n {
			return nil, true, valueErr("string repetition exceeds the limit of %d bytes", maxStringLen)
		}
		return strings.Repeat(x, n), true, nil
	case []any:
		if n > 0 && len(x) > MaxArrayLen/n {
			return nil, true, valueErr("list repetition exceeds the limit of %d items", MaxArrayLen)
		}
		out := make([]any, 0, len(x)*n)
		for i := 0; i < n; i++ {
			out = append(out, x...)
		}
		return out, true, nil
	}
	return nil, false, nil
}

func pyPow(args ...any) (any, error) {
	a, b := args[0], args[1]
	if isArray(a) || isArray(b) {
		return broadcast(pyPow, a, b)
	}
	if x, ok := integral(a); ok {
		if y, ok := integral(b); ok && y.Sign() >= 0 {
			return intPow(x, y)
		}
	}
	x, err := toFloat(a)
	if err != nil {
		return nil, operandErr("**", a, b)
	}
	y, err := toFloat(b)
	if err != nil {
		return nil, operandErr("**", a, b)
	}
	if x == 0 && y < 0 {
		return nil, zeroDivErr("0.0 cannot be raised to a negative power")
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return nil, &pyError{kind: overflowError, msg: "(34, 'Numerical result out of range')"}
	}
	return r, nil
}

// intPow computes base**exp exactly. Results wider than maxIntBits are
// refused instead of being computed.
func intPow(base, exp *big.Int) (any, error) {
	if base.CmpAbs(big.NewInt(1)) > 0 {
		if !exp.IsInt64() || exp.Int64() > maxIntBits || exp.Int64()*int64(base.BitLen()) > maxIntBits {
			return nil, &pyError{kind: overflowError, msg: "integer result too large to compute"}
		}
	}
	return bigResult(new(big.Int).Exp(base, exp, nil)), nil
}
