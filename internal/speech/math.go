package speech

import (
	"regexp"
	"strings"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

func rw(pattern, repl string) rewrite {
	return rewrite{re: regexp.MustCompile(pattern), repl: repl}
}

var (
	displayMathRe = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	inlineMathRe  = regexp.MustCompile(`\$([^$]+?)\$`)

	structureRewrites = []rewrite{
		rw(`\\int_\{(.+?)\}\^\{(.+?)\}`, " integral from ${1} to ${2} "),
		rw(`\\sum_\{(.+?)\}\^\{(.+?)\}`, " sum from ${1} to ${2} "),
		rw(`\\lim_\{(.+?)\s*\\to\s*(.+?)\}`, " limit as ${1} approaches ${2} "),
	}
	fracRewrite    = rw(`\\frac\{([^{}]+?)\}\{([^{}]+?)\}`, " ${1} over ${2} ")
	scriptRewrites = []rewrite{
		rw(`\\sqrt\{([^{}]+?)\}`, " square root of ${1} "),
		rw(`\^\{([^{}]+?)\}`, " to the power of ${1} "),
		rw(`\^([0-9A-Za-z])`, " to the power of ${1} "),
		rw(`_\{([^{}]+?)\}`, " sub ${1} "),
		rw(`_([0-9A-Za-z])`, " sub ${1} "),
	}
	residualMarkup = strings.NewReplacer(`\`, "", "{", "", "}", "")
	spaceRunRe     = regexp.MustCompile(`[ \t]{2,}`)
)

// mathSymbols is applied in order; multi-character commands precede the
// single-character operators they contain.
var mathSymbols = [][2]string{
	{`\alpha`, "alpha"},
	{`\beta`, "beta"},
	{`\gamma`, "gamma"},
	{`\delta`, "delta"},
	{`\epsilon`, "epsilon"},
	{`\theta`, "theta"},
	{`\lambda`, "lambda"},
	{`\mu`, "mu"},
	{`\sigma`, "sigma"},
	{`\phi`, "phi"},
	{`\omega`, "omega"},
	{`\pi`, "pi"},
	{`\infty`, "infinity"},
	{`\approx`, "approximately"},
	{`\neq`, "not equal to"},
	{`\leq`, "less than or equal to"},
	{`\geq`, "greater than or equal to"},
	{`\pm`, "plus or minus"},
	{`\cdot`, "times"},
	{`\times`, "times"},
	{`\partial`, "partial"},
	{`\int`, "integral"},
	{`\sum`, "sum"},
	{`\to`, "approaches"},
	{"=", "equals"},
	{"+", "plus"},
	{"-", "minus"},
	{"/", "over"},
	{"<", "less than"},
	{">", "greater than"},
}

// MathToSpeech rewrites every $...$ and $$...$$ span into spoken words.
func MathToSpeech(text string) string {
	text = displayMathRe.ReplaceAllStringFunc(text, func(m string) string {
		return speakMath(m[2 : len(m)-2])
	})
	return inlineMathRe.ReplaceAllStringFunc(text, func(m string) string {
		return speakMath(m[1 : len(m)-1])
	})
}

func speakMath(expr string) string {
	for _, r := range structureRewrites {
		expr = r.re.ReplaceAllString(expr, r.repl)
	}
	// Twice, so one level of nested fractions is expanded.
	expr = fracRewrite.re.ReplaceAllString(expr, fracRewrite.repl)
	expr = fracRewrite.re.ReplaceAllString(expr, fracRewrite.repl)
	for _, r := range scriptRewrites {
		expr = r.re.ReplaceAllString(expr, r.repl)
	}
	for _, s := range mathSymbols {
		expr = strings.ReplaceAll(expr, s[0], " "+s[1]+" ")
	}
	expr = residualMarkup.Replace(expr)
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(expr, " "))
}
