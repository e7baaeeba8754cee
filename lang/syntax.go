package lang

import (
	"reflect"
	"strings"
)

// Node is an unbound syntax tree node produced by the parser.
type Node interface {
	Pos() Span
	String() string
}

// Literal is a constant value written in expression text. A nil Type denotes
// the null literal.
type Literal struct {
	Span  Span
	Type  reflect.Type
	Value any
}

// Ident is a bare name.
type Ident struct {
	Span Span
	Name string
}

// Member is a dotted member access: X.Name.
type Member struct {
	Span     Span
	X        Node
	Name     string
	NameSpan Span
}

// Index is an index access: X[Args].
type Index struct {
	Span Span
	X    Node
	Args []Node
}

// Unary is a prefix operation.
type Unary struct {
	Span Span
	Op   string
	X    Node
}

// Binary is an infix operation.
type Binary struct {
	Span Span
	Op   string
	X, Y Node
}

// Conditional is Cond ? Then : Else.
type Conditional struct {
	Span       Span
	Cond       Node
	Then, Else Node
}

// Call is an invocation: Fun(Args).
type Call struct {
	Span Span
	Fun  Node
	Args []Node
}

// Assign is an assignment; Op is "=" or a compound form such as "+=".
type Assign struct {
	Span   Span
	Op     string
	Target Node
	Value  Node
}

// LambdaLit is an anonymous function literal: (a, b) => body.
type LambdaLit struct {
	Span   Span
	Params []*Ident
	Body   Node
}

func (n *Literal) Pos() Span     { return n.Span }
func (n *Ident) Pos() Span       { return n.Span }
func (n *Member) Pos() Span      { return n.Span }
func (n *Index) Pos() Span       { return n.Span }
func (n *Unary) Pos() Span       { return n.Span }
func (n *Binary) Pos() Span      { return n.Span }
func (n *Conditional) Pos() Span { return n.Span }
func (n *Call) Pos() Span        { return n.Span }
func (n *Assign) Pos() Span      { return n.Span }
func (n *LambdaLit) Pos() Span   { return n.Span }

func (n *Literal) String() string {
	if n.Type == nil {
		return "null"
	}

	return formatConst(n.Value)
}

func (n *Ident) String() string { return n.Name }

func (n *Member) String() string { return n.X.String() + "." + n.Name }

func (n *Index) String() string {
	return n.X.String() + "[" + joinNodes(n.Args) + "]"
}

func (n *Unary) String() string { return n.Op + n.X.String() }

func (n *Binary) String() string {
	return "(" + n.X.String() + " " + n.Op + " " + n.Y.String() + ")"
}

func (n *Conditional) String() string {
	return "(" + n.Cond.String() + " ? " + n.Then.String() + " : " +
		n.Else.String() + ")"
}

func (n *Call) String() string {
	return n.Fun.String() + "(" + joinNodes(n.Args) + ")"
}

func (n *Assign) String() string {
	return n.Target.String() + " " + n.Op + " " + n.Value.String()
}

func (n *LambdaLit) String() string {
	names := make([]string, len(n.Params))
	for i, p := range n.Params {
		names[i] = p.Name
	}

	return "(" + strings.Join(names, ", ") + ") => " + n.Body.String()
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}

	return strings.Join(parts, ", ")
}

// dottedName returns "a.b.c" for a chain of members rooted at an identifier.
func dottedName(n Node) (string, bool) {
	switch n := n.(type) {
	case *Ident:
		return n.Name, true
	case *Member:
		if s, ok := dottedName(n.X); ok {
			return s + "." + n.Name, true
		}
	}

	return "", false
}
