package repl

import (
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/dexpr/lang"
)

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds returns the identifier at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits
// between two non-identifier characters (after a space or a dot, at the
// start of the line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	for start = cursor; start > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isIdentRune(r) {
			break
		}

		start -= size
	}

	for end = cursor; end < len(input); {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isIdentRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For input "x + cfg.http.ho" with the word "ho", the parent path
// is "cfg.http". Returns "" for words that are not preceded by a dot.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")

	pos := len(prefix)
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && !isIdentRune(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(prefix[pos:], ".")
}

// resolvePath returns the static type of a member-access chain. The head is
// a variable, a function referenced as a value, or a type alias used as a
// static receiver; each further segment selects a struct field or a
// string-keyed map entry.
func resolvePath(env *lang.Environment, path string) (reflect.Type, bool) {
	segments := strings.Split(path, ".")

	var t reflect.Type

	if id, ok := env.Lookup(segments[0]); ok {
		t = id.Type()
	} else if td, ok := env.LookupType(segments[0]); ok {
		t = td.Type
	}

	for _, seg := range segments[1:] {
		if t == nil {
			break
		}

		t = memberType(env, t, seg)
	}

	return t, t != nil
}

func memberType(env *lang.Environment, t reflect.Type, name string) reflect.Type {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	if st.Kind() == reflect.Struct {
		f, ok := st.FieldByNameFunc(func(s string) bool { return sameName(env, s, name) })
		if ok && f.IsExported() {
			return f.Type
		}
	}

	if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
		return t.Elem()
	}

	return nil
}

// methods returns the method set callable on an addressable value of t.
func methods(t reflect.Type) []reflect.Method {
	mt := t
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		mt = reflect.PointerTo(t)
	}

	ms := make([]reflect.Method, mt.NumMethod())
	for i := range ms {
		ms[i] = mt.Method(i)
	}

	return ms
}

// methodSkip is the number of leading receiver parameters in the method
// types returned by [methods].
func methodSkip(t reflect.Type) int {
	if t.Kind() == reflect.Interface {
		return 0
	}

	return 1
}

// extensions returns the registered extension methods whose receiver
// accepts t.
func extensions(env *lang.Environment, t reflect.Type) []*lang.Extension {
	var xs []*lang.Extension

	for _, td := range env.Types() {
		for _, x := range td.Extensions {
			o := x.Overload()
			if o != nil && len(o.Params) > 0 && t.AssignableTo(o.Params[0]) {
				xs = append(xs, x)
			}
		}
	}

	return xs
}

func sameName(env *lang.Environment, a, b string) bool {
	if env.Settings().CaseInsensitive {
		return strings.EqualFold(a, b)
	}

	return a == b
}

// completion is a completion candidate list along with the names in it that
// are callable.
type completion struct {
	names    []string
	callable map[string]bool
}

// childCandidates returns the completions valid after parent. For an empty
// parent these are all identifiers, type aliases and keywords; otherwise
// the fields, methods and extension methods of the parent's static type.
func childCandidates(env *lang.Environment, parent string) completion {
	c := completion{callable: make(map[string]bool)}

	if parent == "" {
		c.names = append(env.Names(), lang.Keywords()...)

		for _, id := range env.Identifiers() {
			if _, ok := id.(*lang.FunctionSet); ok {
				c.callable[id.Name()] = true
			}
		}

		return c
	}

	t, ok := resolvePath(env, parent)
	if !ok {
		return c
	}

	add := func(name string, callable bool) {
		if !slices.Contains(c.names, name) {
			c.names = append(c.names, name)
		}

		c.callable[name] = c.callable[name] || callable
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	if st.Kind() == reflect.Struct {
		for i := range st.NumField() {
			if f := st.Field(i); f.IsExported() {
				add(f.Name, f.Type.Kind() == reflect.Func)
			}
		}
	}

	for _, m := range methods(t) {
		add(m.Name, true)
	}

	for _, x := range extensions(env, t) {
		add(x.Name, true)
	}

	slices.Sort(c.names)

	return c
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidates, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a dot (member access), it returns all
// members as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates completion,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" || strings.ContainsRune(input[:wordStart], ' ') {
			return nil, candidates, wordStart, wordEnd
		}

		candidates.names = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)
		candidates = childCandidates(m.shell.interp.Environment(), parent)

		if word == "" {
			if parent == "" || len(candidates.names) == 0 {
				return nil, candidates, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates.names))
			for i, c := range candidates.names {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates.names) == 0 {
		return nil, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates.names), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing)
// uses the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	callable map[string]bool,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, callable[match.Str], tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && i < len(matches)-1 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Callables are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, callable, selected bool) string {
	base := suggestionStyle
	highlight := base.Bold(true)

	if selected {
		base = selectedStyle
		highlight = selectedStyle.Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if callable {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
