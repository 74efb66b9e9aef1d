package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dop251/goja"
)

const defaultCalcTimeout = time.Second

var (
	reCalcNumber = regexp.MustCompile(`^(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	reCalcName   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

// calcPrelude binds the whitelisted math names as plain globals. Division
// and modulo follow Python semantics: zero divisors raise, and the sign of
// a modulo follows the divisor. round rounds half to even.
const calcPrelude = `
const sqrt = Math.sqrt, abs = Math.abs, floor = Math.floor, ceil = Math.ceil,
	pow = Math.pow, min = Math.min, max = Math.max,
	log = Math.log, exp = Math.exp, sin = Math.sin, cos = Math.cos, tan = Math.tan;
const pi = Math.PI, e = Math.E;
const round = (x) => {
	const r = Math.round(x);
	return (Math.abs(x % 1) === 0.5 && r % 2 !== 0) ? r - 1 : r;
};
const pdiv = (a, b) => {
	if (b === 0) throw "division by zero";
	return a / b;
};
const pmod = (a, b) => {
	if (b === 0) throw "division by zero";
	const r = a % b;
	return (r !== 0 && (r < 0) !== (b < 0)) ? r + b : r;
};
`

// calcFuncs maps each callable name to its minimum and maximum argument
// count; -1 means unbounded.
var calcFuncs = map[string][2]int{
	"sqrt": {1, 1}, "abs": {1, 1}, "floor": {1, 1}, "ceil": {1, 1}, "round": {1, 1},
	"log": {1, 1}, "exp": {1, 1}, "sin": {1, 1}, "cos": {1, 1}, "tan": {1, 1},
	"pow": {2, 2}, "min": {2, -1}, "max": {2, -1},
}

var calcConsts = map[string]bool{"pi": true, "e": true}

// Calculator evaluates arithmetic expressions in an isolated goja runtime.
// Expressions are parsed here and re-emitted as fully parenthesised
// JavaScript, so nothing beyond the arithmetic grammar reaches the engine.
type Calculator struct {
	timeout time.Duration
}

// NewCalculator returns a Calculator; timeout <= 0 selects one second.
func NewCalculator(timeout time.Duration) *Calculator {
	if timeout <= 0 {
		timeout = defaultCalcTimeout
	}
	return &Calculator{timeout: timeout}
}

// Eval returns the numeric value of expression.
func (c *Calculator) Eval(ctx context.Context, expression string) (float64, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return 0, errors.New("empty expression")
	}
	js, err := compileCalc(expr)
	if err != nil {
		return 0, err
	}

	vm := goja.New()
	if _, err := vm.RunString(calcPrelude); err != nil {
		return 0, fmt.Errorf("calculator init: %w", err)
	}

	stop := time.AfterFunc(c.timeout, func() { vm.Interrupt("timeout") })
	defer stop.Stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("cancelled")
		case <-done:
		}
	}()

	val, err := vm.RunString(js)
	if err != nil {
		return 0, calcError(err)
	}

	switch v := val.Export().(type) {
	case int64:
		return float64(v), nil
	case float64:
		if math.IsNaN(v) {
			return 0, errors.New("math domain error")
		}
		if math.IsInf(v, 0) {
			return 0, errors.New("result is out of range")
		}
		return v, nil
	default:
		return 0, fmt.Errorf("expression did not produce a number")
	}
}

func calcError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("evaluation %v", interrupted.Value())
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return errors.New(exc.Value().String())
	}
	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return fmt.Errorf("invalid syntax: %s", syntax.Message)
	}
	return err
}

type calcToken struct {
	kind byte // 'n' number, 'i' name, 'o' operator or punctuation
	text string
}

func lexCalc(expr string) ([]calcToken, error) {
	var toks []calcToken
	for i := 0; i < len(expr); {
		rest := expr[i:]
		c := rest[0]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case (c >= '0' && c <= '9') || c == '.':
			lit := reCalcNumber.FindString(rest)
			if lit == "" {
				return nil, errors.New("invalid syntax")
			}
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", lit)
			}
			if len(lit) > 1 && lit[0] == '0' && strings.Trim(lit, "0123456789") == "" && strings.Trim(lit, "0") != "" {
				return nil, errors.New("leading zeros in decimal integer literals are not permitted")
			}
			toks = append(toks, calcToken{kind: 'n', text: strconv.FormatFloat(v, 'g', -1, 64)})
			i += len(lit)
		case reCalcName.MatchString(rest):
			name := reCalcName.FindString(rest)
			if _, ok := calcFuncs[name]; !ok && !calcConsts[name] {
				return nil, fmt.Errorf("name '%s' is not defined", name)
			}
			toks = append(toks, calcToken{kind: 'i', text: name})
			i += len(name)
		case strings.HasPrefix(rest, "//"):
			return nil, errors.New("floor division '//' is not supported")
		case strings.HasPrefix(rest, "**"):
			toks = append(toks, calcToken{kind: 'o', text: "**"})
			i += 2
		case strings.IndexByte("+-*/%^(),", c) >= 0:
			toks = append(toks, calcToken{kind: 'o', text: string(c)})
			i++
		default:
			r, _ := utf8.DecodeRuneInString(rest)
			return nil, fmt.Errorf("invalid character %q", r)
		}
	}
	return toks, nil
}

// compileCalc parses expr with Python operator precedence and returns the
// equivalent JavaScript:
//
//	expr  = term {("+" | "-") term}
//	term  = unary {("*" | "/" | "%") unary}
//	unary = ("+" | "-") unary | power
//	power = atom [("**" | "^") unary]
//	atom  = number | const | func "(" expr {"," expr} ")" | "(" expr ")"
func compileCalc(expr string) (string, error) {
	toks, err := lexCalc(expr)
	if err != nil {
		return "", err
	}
	p := &calcParser{toks: toks}
	js, err := p.expr()
	if err != nil {
		return "", err
	}
	if p.pos < len(p.toks) {
		return "", p.unexpected()
	}
	return js, nil
}

type calcParser struct {
	toks []calcToken
	pos  int
}

func (p *calcParser) op(ops ...string) (string, bool) {
	if p.pos >= len(p.toks) || p.toks[p.pos].kind != 'o' {
		return "", false
	}
	for _, o := range ops {
		if p.toks[p.pos].text == o {
			p.pos++
			return o, true
		}
	}
	return "", false
}

func (p *calcParser) unexpected() error {
	if p.pos >= len(p.toks) {
		return errors.New("invalid syntax: unexpected end of expression")
	}
	return fmt.Errorf("invalid syntax near '%s'", p.toks[p.pos].text)
}

func (p *calcParser) expr() (string, error) {
	left, err := p.term()
	if err != nil {
		return "", err
	}
	for {
		o, ok := p.op("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.term()
		if err != nil {
			return "", err
		}
		left = "(" + left + " " + o + " " + right + ")"
	}
}

func (p *calcParser) term() (string, error) {
	left, err := p.unary()
	if err != nil {
		return "", err
	}
	for {
		o, ok := p.op("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return "", err
		}
		switch o {
		case "/":
			left = "pdiv(" + left + ", " + right + ")"
		case "%":
			left = "pmod(" + left + ", " + right + ")"
		default:
			left = "(" + left + " * " + right + ")"
		}
	}
}

func (p *calcParser) unary() (string, error) {
	if o, ok := p.op("+", "-"); ok {
		operand, err := p.unary()
		if err != nil {
			return "", err
		}
		return "(" + o + operand + ")", nil
	}
	return p.power()
}

func (p *calcParser) power() (string, error) {
	base, err := p.atom()
	if err != nil {
		return "", err
	}
	if _, ok := p.op("**", "^"); !ok {
		return base, nil
	}
	exponent, err := p.unary()
	if err != nil {
		return "", err
	}
	return "(" + base + " ** " + exponent + ")", nil
}

func (p *calcParser) atom() (string, error) {
	if p.pos >= len(p.toks) {
		return "", p.unexpected()
	}
	tok := p.toks[p.pos]
	switch {
	case tok.kind == 'n':
		p.pos++
		return tok.text, nil
	case tok.kind == 'i' && calcConsts[tok.text]:
		p.pos++
		if p.pos < len(p.toks) && p.toks[p.pos].text == "(" {
			return "", fmt.Errorf("'%s' is not callable", tok.text)
		}
		return tok.text, nil
	case tok.kind == 'i':
		p.pos++
		return p.call(tok.text)
	case tok.kind == 'o' && tok.text == "(":
		p.pos++
		inner, err := p.expr()
		if err != nil {
			return "", err
		}
		if _, ok := p.op(")"); !ok {
			return "", p.unexpected()
		}
		return "(" + inner + ")", nil
	}
	return "", p.unexpected()
}

func (p *calcParser) call(name string) (string, error) {
	if _, ok := p.op("("); !ok {
		return "", fmt.Errorf("%s() must be called with arguments", name)
	}
	var args []string
	for {
		arg, err := p.expr()
		if err != nil {
			return "", err
		}
		args = append(args, arg)
		if _, ok := p.op(","); !ok {
			break
		}
	}
	if _, ok := p.op(")"); !ok {
		return "", p.unexpected()
	}

	arity := calcFuncs[name]
	if len(args) < arity[0] || (arity[1] >= 0 && len(args) > arity[1]) {
		return "", fmt.Errorf("%s() takes %s, got %d", name, arityText(arity), len(args))
	}
	return name + "(" + strings.Join(args, ", ") + ")", nil
}

func arityText(a [2]int) string {
	switch {
	case a[0] == a[1] && a[0] == 1:
		return "exactly one argument"
	case a[0] == a[1]:
		return fmt.Sprintf("exactly %d arguments", a[0])
	default:
		return fmt.Sprintf("at least %d arguments", a[0])
	}
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ---------------------------------------------------------------------------
// EvalExpressionTool
// ---------------------------------------------------------------------------

// EvalExpressionTool is the ReAct agent's arithmetic tool.
type EvalExpressionTool struct {
	calc *Calculator
}

func NewEvalExpressionTool(calc *Calculator) *EvalExpressionTool {
	return &EvalExpressionTool{calc: calc}
}

func (t *EvalExpressionTool) Name() string { return string(ToolEvalExpression) }
func (t *EvalExpressionTool) Description() string {
	return "Evaluate a mathematical expression and return the numerical result. " +
		"Use it for arithmetic, expressions with parentheses and any numeric computation."
}
func (t *EvalExpressionTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"expression": {
				"type": "string",
				"description": "A mathematical expression, e.g. \"(12 + 3) * 5\""
			}
		},
		"required": ["expression"]
	}`)
}

func (t *EvalExpressionTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	expr, _ := params["expression"].(string)
	v, err := t.calc.Eval(ctx, expr)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return "The result is: " + FormatNumber(v), nil
}

// ---------------------------------------------------------------------------
// CalculatorTool
// ---------------------------------------------------------------------------

// CalculatorTool is the editor's calculator; it answers with a JSON payload.
type CalculatorTool struct {
	calc *Calculator
}

func NewCalculatorTool(calc *Calculator) *CalculatorTool {
	return &CalculatorTool{calc: calc}
}

func (t *CalculatorTool) Name() string { return string(ToolCalculator) }
func (t *CalculatorTool) Description() string {
	return "Perform mathematical calculations. Use this when the user needs to calculate numbers or solve math problems."
}
func (t *CalculatorTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"expression": {"type": "string", "description": "Expression to evaluate"}
		},
		"required": ["expression"]
	}`)
}

func (t *CalculatorTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	expr, _ := params["expression"].(string)
	v, err := t.calc.Eval(ctx, expr)
	if err != nil {
		return jsonResult(map[string]any{
			"success": false,
			"error":   "Invalid expression: " + err.Error(),
			"result":  nil,
		}), nil
	}
	return jsonResult(map[string]any{
		"success":    true,
		"result":     v,
		"expression": expr,
	}), nil
}

// jsonResult encodes a tool payload; encoding a map of plain values cannot fail.
func jsonResult(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(b)
}
