package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/dexpr/lang"
)

// Signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // callee as written, e.g. "Math.Pow" or "s.Trim"
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// signature is a callable's parameter and result type names, each rendered
// with its registered alias where one exists.
type signature struct {
	name     string
	params   []string
	result   string
	variadic bool
}

func (s signature) String() string {
	str := s.name + "(" + strings.Join(s.params, ", ") + ")"
	if s.result != "" {
		str += " " + s.result
	}

	return str
}

// detectFunctionCall reports whether the cursor is inside the argument list
// of a call, and if so the callee and the index of the current argument.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	// Find the innermost unclosed '(' before the cursor.
	open := -1
	depth := 0

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')', ']':
			depth++
		case '(', '[':
			if depth > 0 {
				depth--
			} else if r == '(' {
				open = i
			} else {
				return functionCall{}
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && !isIdentRune(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// lookupSignature returns the signature of the callee name that best fits a
// call with at least argIndex+1 arguments. Member callees "x.m" resolve the
// receiver chain x statically.
func lookupSignature(env *lang.Environment, name string, argIndex int) (signature, bool) {
	parent, member, ok := cutLast(name, ".")
	if !ok {
		id, ok := env.Lookup(name)
		if !ok {
			return signature{}, false
		}

		return identSignature(env, id, argIndex)
	}

	recv, ok := resolvePath(env, parent)
	if !ok {
		return signature{}, false
	}

	var sigs []signature

	for _, m := range methods(recv) {
		if sameName(env, m.Name, member) {
			sigs = append(sigs, funcSignature(env, m.Name, m.Type, methodSkip(recv)))
		}
	}

	for _, x := range extensions(env, recv) {
		if sameName(env, x.Name, member) {
			sigs = append(sigs, overloadSignature(env, x.Name, x.Overload(), 1))
		}
	}

	return bestFit(sigs, argIndex)
}

func identSignature(env *lang.Environment, id lang.Identifier, argIndex int) (signature, bool) {
	if fs, ok := id.(*lang.FunctionSet); ok {
		sigs := make([]signature, len(fs.Overloads))
		for i, o := range fs.Overloads {
			sigs[i] = overloadSignature(env, fs.Name(), o, 0)
		}

		return bestFit(sigs, argIndex)
	}

	if t := id.Type(); t != nil && t.Kind() == reflect.Func {
		return funcSignature(env, id.Name(), t, 0), true
	}

	return signature{}, false
}

// bestFit prefers the first signature that accepts argIndex+1 arguments.
func bestFit(sigs []signature, argIndex int) (signature, bool) {
	if len(sigs) == 0 {
		return signature{}, false
	}

	for _, s := range sigs {
		if s.variadic || len(s.params) > argIndex {
			return s, true
		}
	}

	return sigs[0], true
}

func overloadSignature(env *lang.Environment, name string, o *lang.Overload, skip int) signature {
	s := signature{name: name, variadic: o.Variadic}

	for i := skip; i < len(o.Params); i++ {
		s.params = append(s.params, paramName(env, o.Params[i], o.Variadic && i == len(o.Params)-1))
	}

	if o.Result != nil {
		s.result = aliasName(env, o.Result)
	}

	return s
}

func funcSignature(env *lang.Environment, name string, t reflect.Type, skip int) signature {
	s := signature{name: name, variadic: t.IsVariadic()}

	for i := skip; i < t.NumIn(); i++ {
		s.params = append(s.params, paramName(env, t.In(i), t.IsVariadic() && i == t.NumIn()-1))
	}

	if t.NumOut() > 0 {
		s.result = aliasName(env, t.Out(0))
	}

	return s
}

func paramName(env *lang.Environment, t reflect.Type, variadic bool) string {
	if variadic {
		return aliasName(env, t.Elem()) + "..."
	}

	return aliasName(env, t)
}

// aliasName prefers the registered alias of t.
func aliasName(env *lang.Environment, t reflect.Type) string {
	if t == nil {
		return "null"
	}

	if alias, ok := env.AliasOf(t); ok {
		return alias
	}

	return t.String()
}

// renderSignatureHint renders sig with the parameter at argIndex
// highlighted. A variadic parameter stays highlighted for every argument
// past its position.
func renderSignatureHint(sig signature, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(sig.name))
	b.WriteString(signatureStyle.Render("("))

	last := len(sig.params) - 1

	for i, p := range sig.params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		if argIndex == i || (sig.variadic && i == last && argIndex > i) {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	if sig.result != "" {
		b.WriteString(signatureStyle.Render(" " + sig.result))
	}

	return b.String()
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}

	return s, "", false
}
