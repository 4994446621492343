package pipeline

import (
	"strconv"
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/parser"
)

// Evaluation statuses. Folding never fails hard: an expression the
// evaluator cannot handle degrades to a status string.
const (
	statusConstant    = "constant"
	statusNotConstant = "not_constant"
	statusDependent   = "value_dependent"
	statusUndefined   = "undefined"
)

// evalConstant folds an expression to a value where syntax allows it.
// It handles literals, arithmetic, logic, comparisons, and conditional
// selection; anything touching names, calls, or memory comes back
// not_constant, and sizeof comes back value_dependent since the target
// layout is unknown here.
func evalConstant(node *tree_sitter.Node, source []byte) (value, status string) {
	v, status := fold(node, source)
	if status != statusConstant {
		return "", status
	}
	return v.render(), statusConstant
}

type constVal struct {
	kind byte // 'i', 'f', 'b', 's'
	i    int64
	f    float64
	b    bool
	s    string
}

func intVal(i int64) (constVal, string) { return constVal{kind: 'i', i: i}, statusConstant }

func floatVal(f float64) (constVal, string) { return constVal{kind: 'f', f: f}, statusConstant }

func boolVal(b bool) (constVal, string) { return constVal{kind: 'b', b: b}, statusConstant }

func (v constVal) render() string {
	switch v.kind {
	case 'i':
		return strconv.FormatInt(v.i, 10)
	case 'f':
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case 'b':
		if v.b {
			return "true"
		}
		return "false"
	}
	return v.s
}

func (v constVal) truthy() bool {
	switch v.kind {
	case 'i':
		return v.i != 0
	case 'f':
		return v.f != 0
	case 'b':
		return v.b
	}
	return v.s != "" && v.s != "nullptr"
}

func (v constVal) asFloat() float64 {
	switch v.kind {
	case 'i':
		return float64(v.i)
	case 'b':
		if v.b {
			return 1
		}
		return 0
	}
	return v.f
}

func (v constVal) asInt() (int64, bool) {
	switch v.kind {
	case 'i':
		return v.i, true
	case 'b':
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func fold(node *tree_sitter.Node, source []byte) (constVal, string) {
	if node == nil {
		return constVal{}, statusNotConstant
	}
	switch node.Kind() {
	case "number_literal", "user_defined_literal":
		return foldNumber(parser.NodeText(node, source))
	case "true":
		return boolVal(true)
	case "false":
		return boolVal(false)
	case "null", "nullptr":
		return constVal{kind: 's', s: "nullptr"}, statusConstant
	case "char_literal":
		return foldChar(parser.NodeText(node, source))
	case "string_literal", "raw_string_literal", "concatenated_string":
		return constVal{kind: 's', s: parser.NodeText(node, source)}, statusConstant
	case "parenthesized_expression":
		if node.NamedChildCount() == 0 {
			return constVal{}, statusNotConstant
		}
		return fold(node.NamedChild(0), source)
	case "unary_expression":
		return foldUnary(node, source)
	case "binary_expression":
		return foldBinary(node, source)
	case "conditional_expression":
		cond, status := fold(node.ChildByFieldName("condition"), source)
		if status != statusConstant {
			return constVal{}, status
		}
		if cond.truthy() {
			return fold(node.ChildByFieldName("consequence"), source)
		}
		return fold(node.ChildByFieldName("alternative"), source)
	case "comma_expression":
		if _, status := fold(node.ChildByFieldName("left"), source); status != statusConstant {
			return constVal{}, status
		}
		return fold(node.ChildByFieldName("right"), source)
	case "cast_expression":
		return fold(node.ChildByFieldName("value"), source)
	case "sizeof_expression", "alignof_expression":
		return constVal{}, statusDependent
	}
	return constVal{}, statusNotConstant
}

func foldNumber(text string) (constVal, string) {
	s := strings.ReplaceAll(text, "'", "")
	lower := strings.ToLower(s)
	// Hex digits collide with the f/F suffix, so hex and binary forms
	// only shed integer suffixes.
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") {
		s = strings.TrimRight(s, "uUlLzZ")
	} else {
		s = strings.TrimRight(s, "uUlLzZfF")
	}
	if s == "" {
		return constVal{}, statusNotConstant
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return intVal(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatVal(f)
	}
	return constVal{}, statusNotConstant
}

func foldChar(text string) (constVal, string) {
	open := strings.IndexByte(text, '\'')
	end := strings.LastIndexByte(text, '\'')
	if open < 0 || end <= open {
		return constVal{}, statusNotConstant
	}
	body := text[open+1 : end]
	if body == "" {
		return constVal{}, statusNotConstant
	}
	if body[0] == '\\' {
		r, _, tail, err := strconv.UnquoteChar(body, '\'')
		if err != nil || tail != "" {
			return constVal{}, statusNotConstant
		}
		return intVal(int64(r))
	}
	r, size := utf8.DecodeRuneInString(body)
	if size != len(body) {
		// multicharacter literal, implementation-defined value
		return constVal{}, statusNotConstant
	}
	return intVal(int64(r))
}

func foldUnary(node *tree_sitter.Node, source []byte) (constVal, string) {
	op := ""
	if o := node.ChildByFieldName("operator"); o != nil {
		op = parser.NodeText(o, source)
	}
	v, status := fold(node.ChildByFieldName("argument"), source)
	if status != statusConstant {
		return constVal{}, status
	}
	switch op {
	case "-":
		if v.kind == 'f' {
			return floatVal(-v.f)
		}
		if i, ok := v.asInt(); ok {
			return intVal(-i)
		}
	case "+":
		if v.kind == 'i' || v.kind == 'f' || v.kind == 'b' {
			return v, statusConstant
		}
	case "!":
		return boolVal(!v.truthy())
	case "~":
		if i, ok := v.asInt(); ok {
			return intVal(^i)
		}
	}
	return constVal{}, statusNotConstant
}

func foldBinary(node *tree_sitter.Node, source []byte) (constVal, string) {
	op := ""
	if o := node.ChildByFieldName("operator"); o != nil {
		op = parser.NodeText(o, source)
	}
	left, status := fold(node.ChildByFieldName("left"), source)
	if status != statusConstant {
		return constVal{}, status
	}

	// Logical operators short-circuit, so a determined left side makes
	// the whole expression constant regardless of the right.
	switch op {
	case "&&":
		if !left.truthy() {
			return boolVal(false)
		}
	case "||":
		if left.truthy() {
			return boolVal(true)
		}
	}

	right, status := fold(node.ChildByFieldName("right"), source)
	if status != statusConstant {
		return constVal{}, status
	}

	switch op {
	case "&&":
		return boolVal(left.truthy() && right.truthy())
	case "||":
		return boolVal(left.truthy() || right.truthy())
	}

	if left.kind == 'f' || right.kind == 'f' {
		l, r := left.asFloat(), right.asFloat()
		switch op {
		case "+":
			return floatVal(l + r)
		case "-":
			return floatVal(l - r)
		case "*":
			return floatVal(l * r)
		case "/":
			if r == 0 {
				return constVal{}, statusUndefined
			}
			return floatVal(l / r)
		case "==":
			return boolVal(l == r)
		case "!=":
			return boolVal(l != r)
		case "<":
			return boolVal(l < r)
		case ">":
			return boolVal(l > r)
		case "<=":
			return boolVal(l <= r)
		case ">=":
			return boolVal(l >= r)
		}
		return constVal{}, statusNotConstant
	}

	li, lok := left.asInt()
	ri, rok := right.asInt()
	if !lok || !rok {
		return constVal{}, statusNotConstant
	}
	switch op {
	case "+":
		return intVal(li + ri)
	case "-":
		return intVal(li - ri)
	case "*":
		return intVal(li * ri)
	case "/":
		if ri == 0 {
			return constVal{}, statusUndefined
		}
		return intVal(li / ri)
	case "%":
		if ri == 0 {
			return constVal{}, statusUndefined
		}
		return intVal(li % ri)
	case "<<":
		if ri < 0 || ri >= 64 {
			return constVal{}, statusUndefined
		}
		return intVal(li << uint(ri))
	case ">>":
		if ri < 0 || ri >= 64 {
			return constVal{}, statusUndefined
		}
		return intVal(li >> uint(ri))
	case "&":
		return intVal(li & ri)
	case "|":
		return intVal(li | ri)
	case "^":
		return intVal(li ^ ri)
	case "==":
		return boolVal(li == ri)
	case "!=":
		return boolVal(li != ri)
	case "<":
		return boolVal(li < ri)
	case ">":
		return boolVal(li > ri)
	case "<=":
		return boolVal(li <= ri)
	case ">=":
		return boolVal(li >= ri)
	}
	return constVal{}, statusNotConstant
}
