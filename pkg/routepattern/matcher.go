package routepattern

import (
	"regexp"
	"strings"
)

// paramClass is the character class a named parameter matches.
const paramClass = `[a-zA-Z0-9._-]+`

// Capture is a single captured value.
// Matched is false when the capture belongs to an optional section that did
// not take part in the match.
type Capture struct {
	Value   string
	Matched bool
}

// Captures is the ordered list of values captured by a match.
type Captures []Capture

// Values returns the captured strings. Unmatched captures are empty strings.
func (c Captures) Values() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = v.Value
	}
	return out
}

// Get returns the i-th capture and whether it participated in the match.
// Out of range indexes report false.
func (c Captures) Get(i int) (string, bool) {
	if i < 0 || i >= len(c) {
		return "", false
	}
	return c[i].Value, c[i].Matched
}

// Matcher is a compiled route template.
// It is immutable and safe for concurrent use.
type Matcher struct {
	re       *regexp.Regexp
	template string
	names    []string
}

// Compile converts a route template into a Matcher.
func Compile(template string) (*Matcher, error) {
	nodes, err := parse(template, tokenize(template))
	if err != nil {
		return nil, err
	}

	var (
		b     strings.Builder
		names []string
	)
	b.WriteString("^")
	names = emit(&b, nodes, names)
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, &CompileError{Template: template, Offset: -1, Reason: err.Error()}
	}

	return &Matcher{re: re, template: template, names: names}, nil
}

// MustCompile is like Compile but panics on error.
// It simplifies initialization of package-level route tables.
func MustCompile(template string) *Matcher {
	m, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return m
}

// FromRegexp wraps an already formed regular expression.
// The expression is used as is; callers are responsible for anchoring it.
// Capture names come from the expression's named groups.
func FromRegexp(re *regexp.Regexp) *Matcher {
	return &Matcher{
		re:       re,
		template: re.String(),
		names:    append([]string(nil), re.SubexpNames()[1:]...),
	}
}

// Match reports whether fragment matches the whole template and returns the
// captured values in template order.
func (m *Matcher) Match(fragment string) (Captures, bool) {
	idx := m.re.FindStringSubmatchIndex(fragment)
	if idx == nil {
		return nil, false
	}

	caps := make(Captures, len(idx)/2-1)
	for i := range caps {
		from, to := idx[2*(i+1)], idx[2*(i+1)+1]
		if from < 0 {
			continue
		}
		caps[i] = Capture{Value: fragment[from:to], Matched: true}
	}
	return caps, true
}

// MatchString reports whether s matches without extracting captures.
func (m *Matcher) MatchString(s string) bool {
	return m.re.MatchString(s)
}

// Names returns the capture names in capture order.
// Anonymous wildcards and capturing optional sections have an empty name.
func (m *Matcher) Names() []string {
	return append([]string(nil), m.names...)
}

// Template returns the source template.
func (m *Matcher) Template() string {
	return m.template
}

// String returns the compiled regular expression.
func (m *Matcher) String() string {
	return m.re.String()
}

type node struct {
	text     string
	children []node
	kind     tokenKind
}

// parse builds a tree from the token stream, checking bracket balance.
func parse(template string, tokens []token) ([]node, error) {
	type frame struct {
		nodes  []node
		open   tokenKind
		offset int
	}

	stack := []frame{{}}
	for _, t := range tokens {
		top := &stack[len(stack)-1]
		switch t.kind {
		case tokenLiteral, tokenParam, tokenWildcard:
			top.nodes = append(top.nodes, node{kind: t.kind, text: t.text})

		case tokenOptionalOpen, tokenGroupOpen:
			stack = append(stack, frame{open: t.kind, offset: t.offset})

		case tokenOptionalClose, tokenGroupClose:
			want := tokenOptionalOpen
			if t.kind == tokenGroupClose {
				want = tokenGroupOpen
			}
			if len(stack) == 1 {
				return nil, &CompileError{Template: template, Offset: t.offset, Reason: "unexpected closing bracket"}
			}
			if top.open != want {
				return nil, &CompileError{Template: template, Offset: t.offset, Reason: "mismatched closing bracket"}
			}
			if len(top.nodes) == 0 {
				return nil, &CompileError{Template: template, Offset: top.offset, Reason: "empty optional section"}
			}
			closed := node{kind: top.open, children: top.nodes}
			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			parent.nodes = append(parent.nodes, closed)
		}
	}

	if len(stack) > 1 {
		return nil, &CompileError{Template: template, Offset: stack[len(stack)-1].offset, Reason: "unclosed bracket"}
	}
	return stack[0].nodes, nil
}

// emit writes the regular expression for nodes and returns the extended
// capture name list.
func emit(b *strings.Builder, nodes []node, names []string) []string {
	for _, n := range nodes {
		switch n.kind {
		case tokenLiteral:
			b.WriteString(regexp.QuoteMeta(n.text))
		case tokenParam:
			b.WriteString("(" + paramClass + ")")
			names = append(names, n.text)
		case tokenWildcard:
			b.WriteString("(.*)")
			names = append(names, n.text)
		case tokenOptionalOpen:
			if hasCapture(n.children) {
				b.WriteString("(?:")
			} else {
				b.WriteString("(")
				names = append(names, "")
			}
			names = emit(b, n.children, names)
			b.WriteString(")?")
		case tokenGroupOpen:
			b.WriteString("(?:")
			names = emit(b, n.children, names)
			b.WriteString(")?")
		}
	}
	return names
}

func hasCapture(nodes []node) bool {
	for _, n := range nodes {
		switch n.kind {
		case tokenParam, tokenWildcard:
			return true
		case tokenOptionalOpen, tokenGroupOpen:
			if hasCapture(n.children) {
				return true
			}
		}
	}
	return false
}
