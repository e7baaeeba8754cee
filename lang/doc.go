// Package lang implements an embeddable interpreter for a small, statically
// checked C-family expression language.
//
// A host registers variables, overloaded functions, type aliases and
// conversions in an [Environment], then parses expression text into an
// [Expression]: a type-checked, compiled value that can be invoked any
// number of times with arguments bound to declared parameters.
//
// # Pipeline
//
// Text flows through these stages:
//
//	Lexer → Parser → Binder → Pipeline → Compiler → Expression.Invoke
//
//   - The [Lexer] produces tokens: identifiers, numeric, string and char
//     literals, and punctuation.
//   - [ParseSyntax] builds an untyped [Node] tree by recursive descent with
//     C precedence. Assignment and lambda forms are enabled by [Settings].
//   - [Bind] resolves names and overloads against the environment and
//     inserts implicit conversions, producing a typed [Expr] tree.
//   - The [Pipeline] runs named passes over the bound tree. The built-in
//     reflection guard rejects reflective operations before anything runs.
//   - The compiler turns the tree into closures evaluated against a fresh
//     parameter frame per invocation.
//
// # Grammar
//
// Informal EBNF, lowest precedence first:
//
//	Expr        → Lambda | Assignment
//	Lambda      → (Ident | '(' [Ident {',' Ident}] ')') '=>' Expr
//	Assignment  → Conditional [AssignOp Expr]
//	Conditional → LogicalOr ['?' Expr ':' Expr]
//	LogicalOr   → LogicalAnd {'||' LogicalAnd}
//	LogicalAnd  → BitOr {'&&' BitOr}
//	BitOr       → BitXor {'|' BitXor}
//	BitXor      → BitAnd {'^' BitAnd}
//	BitAnd      → Equality {'&' Equality}
//	Equality    → Relational {('==' | '!=') Relational}
//	Relational  → Shift {('<' | '<=' | '>' | '>=') Shift}
//	Shift       → Additive {('<<' | '>>') Additive}
//	Additive    → Term {('+' | '-') Term}
//	Term        → Unary {('*' | '/' | '%') Unary}
//	Unary       → ('-' | '+' | '!' | '~') Unary | Postfix
//	Postfix     → Primary {'.' Ident | '[' Args ']' | '(' [Args] ')'}
//	Primary     → Literal | Ident | '(' Expr ')'
//
// # Example
//
//	env := lang.NewEnvironment()
//	_ = env.SetFunction("double", func(x int) int { return 2 * x })
//
//	in := lang.New(lang.WithEnvironment(env))
//	e, err := in.Parse(ctx, "double(x) + 1", reflect.TypeFor[int](),
//		lang.Parameter{Name: "x", Type: reflect.TypeFor[int]()})
//	if err != nil {
//		return err
//	}
//
//	v, err := e.Invoke(10) // 21
//
// # Overloads
//
// Functions registered under one name form an overload set. A call selects
// the unique applicable overload whose parameter conversions are no worse
// than every other's and better in at least one position; conversions rank
// exact, then widening, then user-registered, then late-bound. If no
// overload is unique the call fails with [ErrAmbiguousOverload].
//
// # Late binding
//
// With [WithLateBinding], members of interface-typed values and of values
// implementing [MemberLookup] that are unknown at bind time are resolved
// against the runtime value when the expression is invoked.
//
// # Errors
//
// Every error is an [*Error] derived from a sentinel such as
// [ErrUnknownIdentifier], so errors.Is identifies it. [KindOf] classifies an
// error by stage, and [Error.Snippet] renders the source span it refers to.
package lang
