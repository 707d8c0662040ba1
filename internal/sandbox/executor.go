// Package sandbox evaluates short Python-flavoured numeric snippets produced
// by the language model. Only assignments, print calls and bare expressions
// are understood; there is no file, network or process access to reach.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
)

const (
	DefaultTimeout   = 2 * time.Second
	MaxStatements    = 200
	MaxArrayLen      = 100000
	maxExprNodes     = 5000
	noResultMessage  = "Code executed, but no explicit 'result' variable was set and no output was printed."
	failurePrefix    = "Code execution failed due to an error: "
	resultVar        = "result"
	divFunc, modFunc = "py_div", "py_mod"
	powFunc          = "py_pow"
	addFunc, subFunc = "py_add", "py_sub"
	mulFunc          = "py_mul"
)

var (
	importRe   = regexp.MustCompile(`^import\s+(.+)$`)
	fromRe     = regexp.MustCompile(`^from\s+([\w.]+)\s+import\s+(.+)$`)
	augRe      = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(\*\*|[+\-*/%])=\s*(.+)$`)
	assignRe   = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=([^=].*)$`)
	printRe    = regexp.MustCompile(`^print\s*\((.*)\)$`)
	compoundRe = regexp.MustCompile(`^(for|while|def|class|if|elif|else|try|except|finally|with|lambda|async|await|return|yield|global|nonlocal|del|raise|assert|pass|break|continue)\b`)
	tolistRe   = regexp.MustCompile(`\.tolist\(\s*\)`)
	literalRes = []rewrite{
		{regexp.MustCompile(`\bTrue\b`), "true"},
		{regexp.MustCompile(`\bFalse\b`), "false"},
		{regexp.MustCompile(`\bNone\b`), "nil"},
	}
	reservedNames = map[string]bool{
		"true": true, "false": true, "nil": true, "in": true, "not": true,
		"and": true, "or": true, "let": true, "matches": true, "contains": true,
		"startsWith": true, "endsWith": true,
	}
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// Executor runs snippets. The zero value is not usable; call New.
type Executor struct {
	timeout time.Duration
	funcs   []expr.Option
	consts  map[string]any
}

func New(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		timeout: timeout,
		funcs:   functionOptions(),
		consts:  constants(),
	}
}

// Failed reports whether out is a rendered execution failure.
func Failed(out string) bool {
	return strings.HasPrefix(out, failurePrefix)
}

// Run executes src and returns the text to hand back to the model. It never
// returns an error; failures are rendered as a message.
func (e *Executor) Run(ctx context.Context, src string) string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.run(ctx, src)
	if err != nil {
		return failurePrefix + classify(err).Error()
	}
	return out
}

func (e *Executor) run(ctx context.Context, src string) (string, error) {
	stmts, err := splitStatements(src)
	if err != nil {
		return "", err
	}
	s := &state{
		exec:    e,
		vars:    map[string]any{},
		modules: map[string]string{"math": "math", "np": "np", "numpy": "np"},
		aliases: map[string]string{},
	}
	if len(stmts) > MaxStatements {
		return "", valueErr("too many statements (%d > %d)", len(stmts), MaxStatements)
	}
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return "", &pyError{kind: "TimeoutError", msg: "execution time limit exceeded"}
		}
		if err := s.exec1(stmt); err != nil {
			return "", err
		}
	}

	if v, ok := s.vars[resultVar]; ok {
		return formatTop(v), nil
	}
	if s.printed.Len() > 0 {
		return strings.TrimRight(s.printed.String(), "\n"), nil
	}
	return noResultMessage, nil
}

type state struct {
	exec    *Executor
	vars    map[string]any
	modules map[string]string // local alias -> canonical namespace
	aliases map[string]string // bare name from "from x import y" -> namespaced name
	printed strings.Builder
}

func (s *state) exec1(stmt string) error {
	if m := importRe.FindStringSubmatch(stmt); m != nil {
		s.registerImport(m[1])
		return nil
	}
	if m := fromRe.FindStringSubmatch(stmt); m != nil {
		s.registerFromImport(m[1], m[2])
		return nil
	}
	if m := compoundRe.FindStringSubmatch(stmt); m != nil {
		return syntaxErr("'%s' statements are not supported", m[1])
	}
	if m := augRe.FindStringSubmatch(stmt); m != nil {
		stmt = fmt.Sprintf("%s = %s %s (%s)", m[1], m[1], m[2], m[3])
	}
	if m := assignRe.FindStringSubmatch(stmt); m != nil {
		name := m[1]
		if reservedNames[name] {
			return syntaxErr("cannot assign to %s", name)
		}
		v, err := s.eval(m[2])
		if err != nil {
			return err
		}
		s.vars[name] = v
		return nil
	}
	if m := printRe.FindStringSubmatch(stmt); m != nil {
		return s.print(m[1])
	}
	_, err := s.eval(stmt)
	return err
}

func (s *state) print(args string) error {
	if strings.TrimSpace(args) == "" {
		s.printed.WriteByte('\n')
		return nil
	}
	v, err := s.eval("[" + args + "]")
	if err != nil {
		return err
	}
	items, _ := v.([]any)
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = formatTop(it)
	}
	s.printed.WriteString(strings.Join(parts, " "))
	s.printed.WriteByte('\n')
	return nil
}

func (s *state) registerImport(spec string) {
	for _, part := range strings.Split(spec, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		canon, ok := canonicalModule(fields[0])
		if !ok {
			continue
		}
		alias := fields[0]
		if len(fields) == 3 && fields[1] == "as" {
			alias = fields[2]
		}
		s.modules[alias] = canon
	}
}

func (s *state) registerFromImport(module, names string) {
	canon, ok := canonicalModule(module)
	if !ok {
		return
	}
	for _, part := range strings.Split(strings.Trim(names, "() "), ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		local := fields[0]
		if len(fields) == 3 && fields[1] == "as" {
			local = fields[2]
		}
		s.aliases[local] = canon + "_" + fields[0]
	}
}

func canonicalModule(name string) (string, bool) {
	switch name {
	case "math":
		return "math", true
	case "numpy", "np":
		return "np", true
	}
	return "", false
}

// translate maps Python spellings onto names the evaluator knows.
func (s *state) translate(src string) string {
	src = tolistRe.ReplaceAllString(src, "")
	for _, r := range literalRes {
		src = r.re.ReplaceAllString(src, r.repl)
	}
	mods := make([]string, 0, len(s.modules))
	for alias := range s.modules {
		mods = append(mods, regexp.QuoteMeta(alias))
	}
	nsRe := regexp.MustCompile(`\b(` + strings.Join(mods, "|") + `)\.([A-Za-z_]\w*)`)
	src = nsRe.ReplaceAllStringFunc(src, func(m string) string {
		alias, attr, _ := strings.Cut(m, ".")
		return s.modules[alias] + "_" + attr
	})
	for local, target := range s.aliases {
		re := regexp.MustCompile(`(^|[^.\w])` + regexp.QuoteMeta(local) + `\b`)
		src = re.ReplaceAllString(src, "${1}"+target)
	}
	return src
}

func (s *state) eval(src string) (any, error) {
	src = s.translate(strings.TrimSpace(src))
	env := make(map[string]any, len(s.vars)+len(s.exec.consts))
	for k, v := range s.exec.consts {
		env[k] = v
	}
	for k, v := range s.vars {
		env[k] = v
	}
	opts := append([]expr.Option{
		expr.Env(env),
		expr.DisableAllBuiltins(),
		expr.Patch(operatorPatcher{}),
		expr.MaxNodes(maxExprNodes),
	}, s.exec.funcs...)

	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, &compileError{err: err}
	}
	return runProgram(program, env)
}

func runProgram(program *vm.Program, env map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = typeErr("%v", r)
		}
	}()
	return expr.Run(program, env)
}

// operatorPatcher routes Python operators whose semantics differ from the
// evaluator's through checked functions.
type operatorPatcher struct{}

func (operatorPatcher) Visit(node *ast.Node) {
	if un, ok := (*node).(*ast.UnaryNode); ok && un.Operator == "-" {
		switch un.Node.(type) {
		case *ast.IntegerNode, *ast.FloatNode:
			return
		}
		ast.Patch(node, &ast.CallNode{
			Callee:    &ast.IdentifierNode{Value: subFunc},
			Arguments: []ast.Node{&ast.IntegerNode{Value: 0}, un.Node},
		})
		return
	}
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}
	var fn string
	switch bin.Operator {
	case "+":
		fn = addFunc
	case "-":
		fn = subFunc
	case "*":
		fn = mulFunc
	case "/":
		fn = divFunc
	case "%":
		fn = modFunc
	case "**", "^":
		fn = powFunc
	default:
		return
	}
	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: fn},
		Arguments: []ast.Node{bin.Left, bin.Right},
	})
}

type compileError struct{ err error }

func (c *compileError) Error() string { return c.err.Error() }
func (c *compileError) Unwrap() error { return c.err }

var locationRe = regexp.MustCompile(`\s*\(\d+:\d+\)$`)

// classify turns evaluator failures into Python-style error kinds.
func classify(err error) *pyError {
	var pe *pyError
	if errors.As(err, &pe) {
		return pe
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	msg = locationRe.ReplaceAllString(strings.TrimSpace(msg), "")

	var ce *compileError
	if !errors.As(err, &ce) {
		return &pyError{kind: "TypeError", msg: msg}
	}
	switch {
	case strings.HasPrefix(msg, "unknown name "):
		name := strings.TrimPrefix(msg, "unknown name ")
		for _, ns := range []string{"math", "np"} {
			if rest, ok := strings.CutPrefix(name, ns+"_"); ok {
				name = ns + "." + rest
			}
		}
		return &pyError{kind: "NameError", msg: fmt.Sprintf("name '%s' is not defined", name)}
	case strings.Contains(msg, "invalid operation"), strings.Contains(msg, "mismatched types"),
		strings.Contains(msg, "not enough arguments"), strings.Contains(msg, "too many arguments"):
		return &pyError{kind: "TypeError", msg: msg}
	default:
		return &pyError{kind: "SyntaxError", msg: msg}
	}
}

// splitStatements strips comments, joins bracketed continuation lines and
// splits on newlines and semicolons outside string literals.
func splitStatements(src string) ([]string, error) {
	var (
		stmts []string
		cur   strings.Builder
		depth int
		quote rune
	)
	flush := func() error {
		line := cur.String()
		cur.Reset()
		if strings.TrimSpace(line) == "" {
			return nil
		}
		if line[0] == ' ' || line[0] == '\t' {
			return syntaxErr("unexpected indent")
		}
		stmts = append(stmts, strings.TrimSpace(line))
		return nil
	}

	runes := []rune(strings.ReplaceAll(src, "\r\n", "\n"))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			cur.WriteRune(r)
			switch {
			case r == '\\' && i+1 < len(runes):
				i++
				cur.WriteRune(runes[i])
			case r == quote:
				quote = 0
			case r == '\n':
				return nil, syntaxErr("unterminated string literal")
			}
			continue
		}
		switch {
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == '#':
			for i+1 < len(runes) && runes[i+1] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			return nil, syntaxErr("floor division '//' is not supported, use int(a / b)")
		case r == '(' || r == '[' || r == '{':
			depth++
			cur.WriteRune(r)
		case r == ')' || r == ']' || r == '}':
			depth--
			cur.WriteRune(r)
		case (r == '\n' || r == ';') && depth <= 0:
			depth = 0
			if err := flush(); err != nil {
				return nil, err
			}
			for r == ';' && i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\t') {
				i++
			}
		case r == '\n':
			cur.WriteRune(' ')
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, syntaxErr("unterminated string literal")
	}
	if depth > 0 {
		return nil, syntaxErr("unexpected EOF while parsing")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return stmts, nil
}
