package sandbox

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

type pyError struct {
	kind string
	msg  string
}

func (e *pyError) Error() string { return e.kind + ": " + e.msg }

func typeErr(format string, args ...any) error {
	return &pyError{kind: "TypeError", msg: fmt.Sprintf(format, args...)}
}

func valueErr(format string, args ...any) error {
	return &pyError{kind: "ValueError", msg: fmt.Sprintf(format, args...)}
}

func syntaxErr(format string, args ...any) error {
	return &pyError{kind: "SyntaxError", msg: fmt.Sprintf(format, args...)}
}

func zeroDivErr(msg string) error {
	return &pyError{kind: "ZeroDivisionError", msg: msg}
}

type fn = func(args ...any) (any, error)

func constants() map[string]any {
	return map[string]any{
		"math_pi":  math.Pi,
		"math_e":   math.E,
		"math_tau": 2 * math.Pi,
		"math_inf": math.Inf(1),
		"math_nan": math.NaN(),
		"np_pi":    math.Pi,
		"np_e":     math.E,
		"np_inf":   math.Inf(1),
		"np_nan":   math.NaN(),
	}
}

func functionOptions() []expr.Option {
	table := map[string]fn{
		divFunc: pyDiv,
		modFunc: pyMod,
		powFunc: pyPow,
		addFunc: pyAdd,
		subFunc: pySub,
		mulFunc: pyMul,

		"abs":   builtinAbs,
		"round": builtinRound,
		"min":   reduceExtreme("min", func(a, b float64) bool { return a < b }),
		"max":   reduceExtreme("max", func(a, b float64) bool { return a > b }),
		"sum":   builtinSum,
		"len":   builtinLen,
		"range": builtinRange,
		"int":   builtinInt,
		"float": builtinFloat,
		"list":  builtinList,
		"str":   builtinStr,

		"math_sqrt":      scalar(math.Sqrt, nonNegative),
		"math_sin":       scalar(math.Sin, nil),
		"math_cos":       scalar(math.Cos, nil),
		"math_tan":       scalar(math.Tan, nil),
		"math_asin":      scalar(math.Asin, unitRange),
		"math_acos":      scalar(math.Acos, unitRange),
		"math_atan":      scalar(math.Atan, nil),
		"math_exp":       scalar(math.Exp, nil),
		"math_log10":     scalar(math.Log10, positive),
		"math_log2":      scalar(math.Log2, positive),
		"math_fabs":      scalar(math.Abs, nil),
		"math_degrees":   scalar(func(x float64) float64 { return x * 180 / math.Pi }, nil),
		"math_radians":   scalar(func(x float64) float64 { return x * math.Pi / 180 }, nil),
		"math_floor":     rounding(math.Floor),
		"math_ceil":      rounding(math.Ceil),
		"math_log":       mathLog,
		"math_atan2":     binary(math.Atan2),
		"math_hypot":     binary(math.Hypot),
		"math_pow":       binary(math.Pow),
		"math_factorial": mathFactorial,
		"math_gcd":       mathGCD,
		"math_comb":      mathComb,
		"math_perm":      mathPerm,

		"np_sin":      elementwise(math.Sin),
		"np_cos":      elementwise(math.Cos),
		"np_tan":      elementwise(math.Tan),
		"np_exp":      elementwise(math.Exp),
		"np_sqrt":     elementwise(math.Sqrt),
		"np_log":      elementwise(math.Log),
		"np_abs":      elementwise(math.Abs),
		"np_array":    npArray,
		"np_linspace": npLinspace,
		"np_arange":   npArange,
		"np_dot":      npDot,
		"np_sum":      npReduce(kahanSum, true),
		"np_prod":     npReduce(product, true),
		"np_mean":     npReduce(mean, false),
		"np_std":      npReduce(stddev, false),
		"np_min":      npReduce(func(xs []float64) float64 { return extreme(xs, math.Min) }, true),
		"np_max":      npReduce(func(xs []float64) float64 { return extreme(xs, math.Max) }, true),
		"np_cumsum":   npCumsum,
		"np_zeros":    filled(0),
		"np_ones":     filled(1),
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	opts := make([]expr.Option, 0, len(names))
	for _, name := range names {
		opts = append(opts, expr.Function(name, table[name]))
	}
	return opts
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f, nil
	}
	return 0, typeErr("must be real number, not %s", typeName(v))
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case int32:
		return int(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func isList(v any) bool {
	_, ok := asSlice(v)
	return ok
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case int, int64, int32, *big.Int:
		return "int"
	case float64, float32:
		return "float"
	case bool:
		return "bool"
	case string:
		return "str"
	case []any:
		return "list"
	case ndarray:
		return "numpy.ndarray"
	case map[string]any:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}

func arity(name string, args []any, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return typeErr("%s() takes exactly %d argument(s) (%d given)", name, lo, len(args))
		}
		return typeErr("%s() takes from %d to %d arguments (%d given)", name, lo, hi, len(args))
	}
	return nil
}

func pyDiv(args ...any) (any, error) {
	a, b := args[0], args[1]
	if isArray(a) || isArray(b) {
		return broadcast(pyDiv, a, b)
	}
	if isList(a) || isList(b) {
		return nil, typeErr("unsupported operand type(s) for /: '%s' and '%s'", typeName(a), typeName(b))
	}
	x, err := toFloat(a)
	if err != nil {
		return nil, err
	}
	y, err := toFloat(b)
	if err != nil {
		return nil, err
	}
	if y == 0 {
		return nil, zeroDivErr("division by zero")
	}
	return x / y, nil
}

func pyMod(args ...any) (any, error) {
	a, b := args[0], args[1]
	if isArray(a) || isArray(b) {
		return broadcast(pyMod, a, b)
	}
	if i, ok := toInt(a); ok {
		if j, ok := toInt(b); ok {
			if j == 0 {
				return nil, zeroDivErr("integer modulo by zero")
			}
			return ((i % j) + j) % j, nil
		}
	}
	x, err := toFloat(a)
	if err != nil {
		return nil, typeErr("unsupported operand type(s) for %%: '%s' and '%s'", typeName(a), typeName(b))
	}
	y, err := toFloat(b)
	if err != nil {
		return nil, typeErr("unsupported operand type(s) for %%: '%s' and '%s'", typeName(a), typeName(b))
	}
	if y == 0 {
		return nil, zeroDivErr("float modulo")
	}
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r, nil
}

func scalar(f func(float64) float64, check func(float64) error) fn {
	return func(args ...any) (any, error) {
		if err := arity("math function", args, 1, 1); err != nil {
			return nil, err
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(x); err != nil {
				return nil, err
			}
		}
		return f(x), nil
	}
}

func nonNegative(x float64) error {
	if x < 0 {
		return valueErr("math domain error")
	}
	return nil
}

func positive(x float64) error {
	if x <= 0 {
		return valueErr("math domain error")
	}
	return nil
}

func unitRange(x float64) error {
	if x < -1 || x > 1 {
		return valueErr("math domain error")
	}
	return nil
}

func rounding(f func(float64) float64) fn {
	return func(args ...any) (any, error) {
		if err := arity("math function", args, 1, 1); err != nil {
			return nil, err
		}
		if i, ok := toInt(args[0]); ok {
			return i, nil
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, valueErr("cannot convert float %s to integer", formatFloat(x))
		}
		return int(f(x)), nil
	}
}

func binary(f func(float64, float64) float64) fn {
	return func(args ...any) (any, error) {
		if err := arity("math function", args, 2, 2); err != nil {
			return nil, err
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat(args[1])
		if err != nil {
			return nil, err
		}
		return f(x, y), nil
	}
}

func mathLog(args ...any) (any, error) {
	if err := arity("log", args, 1, 2); err != nil {
		return nil, err
	}
	x, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	if err := positive(x); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return math.Log(x), nil
	}
	base, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	if err := positive(base); err != nil {
		return nil, err
	}
	if base == 1 {
		return nil, zeroDivErr("float division by zero")
	}
	return math.Log(x) / math.Log(base), nil
}

func integralArg(name string, v any) (int, error) {
	if i, ok := toInt(v); ok {
		return i, nil
	}
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		return 0, typeErr("%s() only accepts integral values", name)
	}
	return 0, typeErr("'%s' object cannot be interpreted as an integer", typeName(v))
}

func bigResult(b *big.Int) any {
	if b.IsInt64() {
		return int(b.Int64())
	}
	return b
}

func mathFactorial(args ...any) (any, error) {
	if err := arity("factorial", args, 1, 1); err != nil {
		return nil, err
	}
	n, err := integralArg("factorial", args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, valueErr("factorial() not defined for negative values")
	}
	if n > 5000 {
		return nil, valueErr("factorial() argument should not exceed 5000")
	}
	return bigResult(new(big.Int).MulRange(1, int64(n))), nil
}

func mathGCD(args ...any) (any, error) {
	result := 0
	for _, a := range args {
		n, err := integralArg("gcd", a)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n = -n
		}
		for n != 0 {
			result, n = n, result%n
		}
	}
	return result, nil
}

func combArgs(name string, args []any) (int, int, error) {
	if err := arity(name, args, 2, 2); err != nil {
		return 0, 0, err
	}
	n, err := integralArg(name, args[0])
	if err != nil {
		return 0, 0, err
	}
	k, err := integralArg(name, args[1])
	if err != nil {
		return 0, 0, err
	}
	if n < 0 || k < 0 {
		return 0, 0, valueErr("%s() arguments must be non-negative integers", name)
	}
	return n, k, nil
}

func mathComb(args ...any) (any, error) {
	n, k, err := combArgs("comb", args)
	if err != nil {
		return nil, err
	}
	if k > n {
		return 0, nil
	}
	return bigResult(new(big.Int).Binomial(int64(n), int64(k))), nil
}

func mathPerm(args ...any) (any, error) {
	n, k, err := combArgs("perm", args)
	if err != nil {
		return nil, err
	}
	if k > n {
		return 0, nil
	}
	if k == 0 {
		return 1, nil
	}
	return bigResult(new(big.Int).MulRange(int64(n-k+1), int64(n))), nil
}

func builtinAbs(args ...any) (any, error) {
	if err := arity("abs", args, 1, 1); err != nil {
		return nil, err
	}
	if i, ok := toInt(args[0]); ok {
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	x, err := toFloat(args[0])
	if err != nil {
		return nil, typeErr("bad operand type for abs(): '%s'", typeName(args[0]))
	}
	return math.Abs(x), nil
}

func builtinRound(args ...any) (any, error) {
	if err := arity("round", args, 1, 2); err != nil {
		return nil, err
	}
	x, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 || args[1] == nil {
		if i, ok := toInt(args[0]); ok {
			return i, nil
		}
		return int(math.RoundToEven(x)), nil
	}
	digits, ok := toInt(args[1])
	if !ok {
		return nil, typeErr("'%s' object cannot be interpreted as an integer", typeName(args[1]))
	}
	if i, ok := toInt(args[0]); ok && digits >= 0 {
		return i, nil
	}
	scale := math.Pow(10, float64(digits))
	return math.RoundToEven(x*scale) / scale, nil
}

// numericArgs accepts either f(a, b, ...) or f(list).
func numericArgs(name string, args []any) ([]any, error) {
	if len(args) == 1 {
		if xs, ok := asSlice(args[0]); ok {
			return flatten(xs), nil
		}
		return nil, typeErr("'%s' object is not iterable", typeName(args[0]))
	}
	if len(args) == 0 {
		return nil, typeErr("%s expected at least 1 argument, got 0", name)
	}
	return args, nil
}

func reduceExtreme(name string, better func(a, b float64) bool) fn {
	return func(args ...any) (any, error) {
		items, err := numericArgs(name, args)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, valueErr("%s() arg is an empty sequence", name)
		}
		best := items[0]
		bestF, err := toFloat(best)
		if err != nil {
			return nil, err
		}
		for _, it := range items[1:] {
			f, err := toFloat(it)
			if err != nil {
				return nil, err
			}
			if better(f, bestF) {
				best, bestF = it, f
			}
		}
		return best, nil
	}
}

func builtinSum(args ...any) (any, error) {
	if err := arity("sum", args, 1, 2); err != nil {
		return nil, err
	}
	xs, ok := asSlice(args[0])
	if !ok {
		return nil, typeErr("'%s' object is not iterable", typeName(args[0]))
	}
	var start any = 0
	if len(args) == 2 {
		start = args[1]
	}
	allInt := true
	total := 0
	if i, ok := toInt(start); ok {
		total = i
	} else {
		allInt = false
	}
	for _, x := range xs {
		i, ok := toInt(x)
		if !ok {
			allInt = false
			break
		}
		total += i
	}
	if allInt {
		return total, nil
	}
	f, err := toFloat(start)
	if err != nil {
		return nil, err
	}
	vals := []float64{f}
	for _, x := range xs {
		v, err := toFloat(x)
		if err != nil {
			return nil, typeErr("unsupported operand type(s) for +: 'float' and '%s'", typeName(x))
		}
		vals = append(vals, v)
	}
	return kahanSum(vals), nil
}

func builtinLen(args ...any) (any, error) {
	if err := arity("len", args, 1, 1); err != nil {
		return nil, err
	}
	if xs, ok := asSlice(args[0]); ok {
		return len(xs), nil
	}
	switch x := args[0].(type) {
	case string:
		return len([]rune(x)), nil
	case map[string]any:
		return len(x), nil
	}
	return nil, typeErr("object of type '%s' has no len()", typeName(args[0]))
}

func builtinRange(args ...any) (any, error) {
	if err := arity("range", args, 1, 3); err != nil {
		return nil, err
	}
	ints := make([]int, len(args))
	for i, a := range args {
		n, ok := toInt(a)
		if !ok {
			return nil, typeErr("'%s' object cannot be interpreted as an integer", typeName(a))
		}
		ints[i] = n
	}
	start, stop, step := 0, ints[0], 1
	if len(ints) >= 2 {
		start, stop = ints[0], ints[1]
	}
	if len(ints) == 3 {
		step = ints[2]
	}
	if step == 0 {
		return nil, valueErr("range() arg 3 must not be zero")
	}
	count := 0
	if step > 0 && stop > start {
		count = (stop - start + step - 1) / step
	} else if step < 0 && stop < start {
		count = (start - stop - step - 1) / -step
	}
	if count > MaxArrayLen {
		return nil, valueErr("range of %d items exceeds the limit of %d", count, MaxArrayLen)
	}
	out := make([]any, count)
	for i := range out {
		out[i] = start + i*step
	}
	return out, nil
}

func builtinInt(args ...any) (any, error) {
	if err := arity("int", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return 0, nil
	}
	switch x := args[0].(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, valueErr("invalid literal for int() with base 10: '%s'", x)
		}
		return n, nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, valueErr("cannot convert float %s to integer", formatFloat(x))
		}
		return int(math.Trunc(x)), nil
	}
	if i, ok := toInt(args[0]); ok {
		return i, nil
	}
	return nil, typeErr("int() argument must be a string or a number, not '%s'", typeName(args[0]))
}

func builtinFloat(args ...any) (any, error) {
	if err := arity("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return 0.0, nil
	}
	if s, ok := args[0].(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, valueErr("could not convert string to float: '%s'", s)
		}
		return f, nil
	}
	return toFloat(args[0])
}

func builtinList(args ...any) (any, error) {
	if err := arity("list", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return []any{}, nil
	}
	if xs, ok := asSlice(args[0]); ok {
		return append([]any(nil), xs...), nil
	}
	switch x := args[0].(type) {
	case string:
		out := make([]any, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, typeErr("'%s' object is not iterable", typeName(args[0]))
}

func builtinStr(args ...any) (any, error) {
	if err := arity("str", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return "", nil
	}
	return formatTop(args[0]), nil
}

func flatten(xs []any) []any {
	out := make([]any, 0, len(xs))
	for _, x := range xs {
		if inner, ok := asSlice(x); ok {
			out = append(out, flatten(inner)...)
			continue
		}
		out = append(out, x)
	}
	return out
}

func floats(v any) ([]float64, error) {
	xs, ok := asSlice(v)
	if !ok {
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
	flat := flatten(xs)
	out := make([]float64, len(flat))
	for i, x := range flat {
		f, err := toFloat(x)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func elementwise(f func(float64) float64) fn {
	var apply func(v any) (any, error)
	apply = func(v any) (any, error) {
		if xs, ok := asSlice(v); ok {
			out := make(ndarray, len(xs))
			for i, x := range xs {
				r, err := apply(x)
				if err != nil {
					return nil, err
				}
				out[i] = r
			}
			return out, nil
		}
		x, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return f(x), nil
	}
	return func(args ...any) (any, error) {
		if err := arity("numpy function", args, 1, 1); err != nil {
			return nil, err
		}
		return apply(args[0])
	}
}

func npArray(args ...any) (any, error) {
	if err := arity("array", args, 1, 1); err != nil {
		return nil, err
	}
	xs, ok := asSlice(args[0])
	if !ok {
		return args[0], nil
	}
	if len(xs) > MaxArrayLen {
		return nil, valueErr("array of %d items exceeds the limit of %d", len(xs), MaxArrayLen)
	}
	return toArray(xs), nil
}

func npLinspace(args ...any) (any, error) {
	if err := arity("linspace", args, 2, 3); err != nil {
		return nil, err
	}
	start, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	stop, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	num := 50
	if len(args) == 3 {
		n, ok := toInt(args[2])
		if !ok {
			return nil, typeErr("'%s' object cannot be interpreted as an integer", typeName(args[2]))
		}
		num = n
	}
	if num < 0 {
		return nil, valueErr("Number of samples, %d, must be non-negative.", num)
	}
	if num > MaxArrayLen {
		return nil, valueErr("array of %d items exceeds the limit of %d", num, MaxArrayLen)
	}
	out := make(ndarray, num)
	if num == 1 {
		out[0] = start
		return out, nil
	}
	step := (stop - start) / float64(num-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	if num > 1 {
		out[num-1] = stop
	}
	return out, nil
}

func npArange(args ...any) (any, error) {
	if err := arity("arange", args, 1, 3); err != nil {
		return nil, err
	}
	allInt := true
	for _, a := range args {
		if _, ok := toInt(a); !ok {
			allInt = false
		}
	}
	if allInt {
		r, err := builtinRange(args...)
		if err != nil {
			return nil, err
		}
		return toArray(r.([]any)), nil
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat(a)
		if err != nil {
			return nil, err
		}
		vals[i] = f
	}
	start, stop, step := 0.0, vals[0], 1.0
	if len(vals) >= 2 {
		start, stop = vals[0], vals[1]
	}
	if len(vals) == 3 {
		step = vals[2]
	}
	if step == 0 {
		return nil, zeroDivErr("division by zero")
	}
	count := int(math.Ceil((stop - start) / step))
	if count < 0 {
		count = 0
	}
	if count > MaxArrayLen {
		return nil, valueErr("array of %d items exceeds the limit of %d", count, MaxArrayLen)
	}
	out := make(ndarray, count)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}

func npDot(args ...any) (any, error) {
	if err := arity("dot", args, 2, 2); err != nil {
		return nil, err
	}
	if !isList(args[0]) || !isList(args[1]) {
		return pyMul(args[0], args[1])
	}
	a, _ := asSlice(args[0])
	b, _ := asSlice(args[1])
	if len(a) != len(b) {
		return nil, valueErr("shapes (%d,) and (%d,) not aligned", len(a), len(b))
	}
	allInt := true
	intTotal := 0
	var total float64
	for i := range a {
		x, xok := toInt(a[i])
		y, yok := toInt(b[i])
		if xok && yok {
			intTotal += x * y
		} else {
			allInt = false
		}
		xf, err := toFloat(a[i])
		if err != nil {
			return nil, err
		}
		yf, err := toFloat(b[i])
		if err != nil {
			return nil, err
		}
		total += xf * yf
	}
	if allInt {
		return intTotal, nil
	}
	return total, nil
}

// npReduce wraps a reduction. With keepInt set, integer input yields an
// integer result the way numpy keeps the int64 dtype.
func npReduce(f func([]float64) float64, keepInt bool) fn {
	return func(args ...any) (any, error) {
		if err := arity("numpy reduction", args, 1, 1); err != nil {
			return nil, err
		}
		vals, err := floats(args[0])
		if err != nil {
			return nil, err
		}
		r := f(vals)
		if xs, ok := asSlice(args[0]); ok && keepInt && allInts(flatten(xs)) && math.Abs(r) < 1<<53 {
			return int(r), nil
		}
		return r, nil
	}
}

func allInts(xs []any) bool {
	for _, x := range xs {
		if _, ok := toInt(x); !ok {
			return false
		}
	}
	return len(xs) > 0
}

func npCumsum(args ...any) (any, error) {
	if err := arity("cumsum", args, 1, 1); err != nil {
		return nil, err
	}
	xs, ok := asSlice(args[0])
	if !ok {
		return ndarray{args[0]}, nil
	}
	flat := flatten(xs)
	out := make(ndarray, len(flat))
	if allInts(flat) {
		total := 0
		for i, x := range flat {
			n, _ := toInt(x)
			total += n
			out[i] = total
		}
		return out, nil
	}
	var total float64
	for i, x := range flat {
		f, err := toFloat(x)
		if err != nil {
			return nil, err
		}
		total += f
		out[i] = total
	}
	return out, nil
}

func filled(v float64) fn {
	return func(args ...any) (any, error) {
		if err := arity("zeros/ones", args, 1, 1); err != nil {
			return nil, err
		}
		n, ok := toInt(args[0])
		if !ok {
			return nil, typeErr("'%s' object cannot be interpreted as an integer", typeName(args[0]))
		}
		if n < 0 {
			return nil, valueErr("negative dimensions are not allowed")
		}
		if n > MaxArrayLen {
			return nil, valueErr("array of %d items exceeds the limit of %d", n, MaxArrayLen)
		}
		out := make(ndarray, n)
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
}

func kahanSum(xs []float64) float64 {
	var sum, c float64
	for _, x := range xs {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

func product(xs []float64) float64 {
	p := 1.0
	for _, x := range xs {
		p *= x
	}
	return p
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return kahanSum(xs) / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := mean(xs)
	var acc float64
	for _, x := range xs {
		acc += (x - m) * (x - m)
	}
	return math.Sqrt(acc / float64(len(xs)))
}

func extreme(xs []float64, pick func(a, b float64) float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	out := xs[0]
	for _, x := range xs[1:] {
		out = pick(out, x)
	}
	return out
}
