package context

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// macroPattern matches `${...}`; the inner expression is not nested-brace
// aware (spec.md §3 doesn't call for nesting), so a non-greedy match up
// to the first `}` is sufficient.
var macroPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// identifierPattern matches a single dotted key per §6 "Macro syntax":
// `[a-zA-Z][a-zA-Z0-9_.]*`.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.]*$`)

// identifierTokenPattern finds identifier-shaped tokens inside an
// arithmetic expression so they can be swapped for govaluate-safe
// parameter names before evaluation.
var identifierTokenPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_.]*`)

var whitelistedFunctionNames = map[string]bool{
	"str": true, "int": true, "float": true, "pow": true, "round": true,
}

func evaluatorFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"str": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("str() takes exactly one argument")
			}
			return ToString(args[0]), nil
		},
		"int": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("int() takes exactly one argument")
			}
			return math.Trunc(toFloat(args[0])), nil
		},
		"float": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("float() takes exactly one argument")
			}
			return toFloat(args[0]), nil
		},
		"pow": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("pow() takes exactly two arguments")
			}
			return math.Pow(toFloat(args[0]), toFloat(args[1])), nil
		},
		"round": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("round() takes exactly one argument")
			}
			return math.Round(toFloat(args[0])), nil
		},
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

// resolution is the outcome of trying to resolve one `${...}` macro.
type resolution struct {
	text     string
	resolved bool
}

// resolveMacro resolves a single `${expr}` body (without the surrounding
// `${` `}`) against the context's current flat projection.
func (c *Context) resolveMacro(expr string) resolution {
	// ${key|default}
	if idx := strings.IndexByte(expr, '|'); idx >= 0 {
		key := strings.TrimSpace(expr[:idx])
		def := expr[idx+1:]
		if identifierPattern.MatchString(key) {
			if v, ok := c.get(key); ok {
				return resolution{ToString(v), true}
			}
			return resolution{def, true}
		}
	}
	// ${key}
	if identifierPattern.MatchString(strings.TrimSpace(expr)) {
		key := strings.TrimSpace(expr)
		if v, ok := c.get(key); ok {
			return resolution{ToString(v), true}
		}
		c.warnUnresolved(key)
		return resolution{"", false}
	}
	// ${arithmetic expression}
	return c.resolveExpression(expr)
}

func (c *Context) warnUnresolved(key string) {
	if c.IsDeclared(key) {
		return // declared but missing: silent, leave default (here: literal)
	}
	if c.warned.Contains(key) {
		return
	}
	c.warned.Add(key)
	c.logger.Printf("macro: unknown key %q left unresolved", key)
}

func (c *Context) resolveExpression(expr string) resolution {
	paramNames := map[string]string{} // original identifier -> safe param name
	rewritten := identifierTokenPattern.ReplaceAllStringFunc(expr, func(tok string) string {
		if whitelistedFunctionNames[tok] {
			return tok
		}
		if isFollowedByParen(expr, tok) {
			return tok
		}
		safe, ok := paramNames[tok]
		if !ok {
			safe = fmt.Sprintf("v%d", len(paramNames))
			paramNames[tok] = safe
		}
		return safe
	})

	parameters := map[string]interface{}{}
	allResolved := true
	for orig, safe := range paramNames {
		v, ok := c.get(orig)
		if !ok {
			c.warnUnresolved(orig)
			allResolved = false
			continue
		}
		parameters[safe] = toGovaluateValue(v)
	}
	if !allResolved {
		return resolution{"", false}
	}

	evalExpr, err := govaluate.NewEvaluableExpressionWithFunctions(rewritten, evaluatorFunctions())
	if err != nil {
		c.logger.Printf("macro: invalid expression %q: %v", expr, err)
		return resolution{"", false}
	}
	result, err := evalExpr.Evaluate(parameters)
	if err != nil {
		c.logger.Printf("macro: failed to evaluate %q: %v", expr, err)
		return resolution{"", false}
	}
	return resolution{ToString(result), true}
}

func toGovaluateValue(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
		return t
	default:
		return v
	}
}

// isFollowedByParen reports whether the occurrence of tok in expr is
// immediately followed by '(' (i.e. it's a function call, not a variable).
func isFollowedByParen(expr, tok string) bool {
	idx := strings.Index(expr, tok)
	for idx >= 0 {
		after := idx + len(tok)
		if after < len(expr) {
			rest := strings.TrimLeft(expr[after:], " \t")
			if strings.HasPrefix(rest, "(") {
				return true
			}
		}
		next := strings.Index(expr[idx+1:], tok)
		if next < 0 {
			break
		}
		idx = idx + 1 + next
	}
	return false
}

// resolveString resolves every `${...}` in s once, returning the new
// string and whether anything changed.
func (c *Context) resolveString(s string) (string, bool) {
	changed := false
	out := macroPattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[2 : len(m)-1]
		r := c.resolveMacro(inner)
		if r.resolved {
			changed = true
			return r.text
		}
		return m
	})
	return out, changed
}

// Render resolves macros across the whole tree to a fixed point (§3
// "Resolution is iterative to a fixed point"). It is idempotent: calling
// it again after it has converged is a no-op (§8 testable property).
func (c *Context) Render() {
	const maxPasses = 64
	for pass := 0; pass < maxPasses; pass++ {
		c.rebuildFlat()
		changedAny := false
		newRoot := c.renderValue(c.root, &changedAny).(map[string]interface{})
		c.root = newRoot
		if !changedAny {
			break
		}
	}
	c.rebuildFlat()
}

func (c *Context) renderValue(v interface{}, changedAny *bool) interface{} {
	switch t := v.(type) {
	case string:
		if !macroPattern.MatchString(t) {
			return t
		}
		out, changed := c.resolveString(t)
		if changed {
			*changedAny = true
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, vv := range t {
			out[k] = c.renderValue(vv, changedAny)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = c.renderValue(vv, changedAny)
		}
		return out
	default:
		return v
	}
}

// RenderString resolves macros in a single string to a fixed point
// against the context's current (already-rendered) state. Used by the
// stream factory / pipe tree for strings composed after Render() has run
// (e.g. a file-gen heredoc body built from several context fields).
func (c *Context) RenderString(s string) string {
	for i := 0; i < 64; i++ {
		out, changed := c.resolveString(s)
		s = out
		if !changed {
			break
		}
	}
	return s
}
