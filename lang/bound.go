package lang

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Expr is a node of a bound, type-checked expression tree. Bound trees are
// immutable; passes that change a tree return a new one.
type Expr interface {
	Pos() Span
	// Type returns the static result type, or nil for the null constant.
	Type() reflect.Type
	String() string
}

// Const is a constant value.
type Const struct {
	Span  Span
	Typ   reflect.Type
	Value reflect.Value
}

// ParamRef reads a declared parameter (Depth 0) or a parameter of an
// enclosing lambda (Depth counts lambda scopes outward).
type ParamRef struct {
	Span     Span
	Name     string
	Typ      reflect.Type
	Depth    int
	Index    int
	Declared bool
}

// VarRef reads an environment variable.
type VarRef struct {
	Span Span
	Var  *Variable
}

// FieldRef reads a struct field.
type FieldRef struct {
	Span  Span
	X     Expr
	Field reflect.StructField
}

// IndexRef reads an element of a slice, array, string or map.
type IndexRef struct {
	Span  Span
	X     Expr
	Index Expr
	Typ   reflect.Type
}

// MethodCall calls an instance method (Method >= 0) or an extension method
// (Method < 0, receiver passed as the first argument) on Recv.
type MethodCall struct {
	Span     Span
	Recv     Expr
	Name     string
	Method   int
	AddrRecv bool // method needs a pointer to a copy of the receiver
	Overload *Overload
	Args     []Expr
}

// FuncCall calls an overload of an environment function.
type FuncCall struct {
	Span     Span
	Func     *FunctionSet
	Overload *Overload
	Args     []Expr
}

// ValueCall calls a func-typed value.
type ValueCall struct {
	Span     Span
	Fn       Expr
	Overload *Overload
	Args     []Expr
}

// Convert converts X to Typ, through a user conversion if User is set.
type Convert struct {
	Span     Span
	X        Expr
	Typ      reflect.Type
	User     *Overload
	Explicit bool
}

// UnaryOp is a prefix operation.
type UnaryOp struct {
	Span Span
	Op   string
	X    Expr
}

// BinaryOp is an infix operation. Operands of arithmetic, bitwise and
// comparison operators have already been converted to a common type.
type BinaryOp struct {
	Span Span
	Op   string
	X, Y Expr
	Typ  reflect.Type
}

// Cond is a conditional expression.
type Cond struct {
	Span       Span
	Test       Expr
	Then, Else Expr
	Typ        reflect.Type
}

// AssignOp stores Value into the location denoted by Target and yields the
// stored value. Compound assignments are expanded so Value already
// includes the operation.
type AssignOp struct {
	Span   Span
	Op     string
	Target Expr
	Value  Expr
}

// Lambda is a function literal bound to the func type Typ.
type Lambda struct {
	Span   Span
	Params []string
	Body   Expr
	Typ    reflect.Type
}

// DynamicMember reads a member resolved against the runtime value of X.
type DynamicMember struct {
	Span    Span
	X       Expr
	Name    string
	Guarded bool
}

// DynamicCall calls a method resolved against the runtime value of X.
type DynamicCall struct {
	Span    Span
	X       Expr
	Name    string
	Args    []Expr
	Guarded bool
}

// DynamicIndex indexes the runtime value of X.
type DynamicIndex struct {
	Span    Span
	X       Expr
	Index   Expr
	Guarded bool
}

// DynamicOp applies an operator to runtime values. Y is nil for unary
// operators.
type DynamicOp struct {
	Span    Span
	Op      string
	X, Y    Expr
	Guarded bool
}

func (e *Const) Pos() Span         { return e.Span }
func (e *ParamRef) Pos() Span      { return e.Span }
func (e *VarRef) Pos() Span        { return e.Span }
func (e *FieldRef) Pos() Span      { return e.Span }
func (e *IndexRef) Pos() Span      { return e.Span }
func (e *MethodCall) Pos() Span    { return e.Span }
func (e *FuncCall) Pos() Span      { return e.Span }
func (e *ValueCall) Pos() Span     { return e.Span }
func (e *Convert) Pos() Span       { return e.Span }
func (e *UnaryOp) Pos() Span       { return e.Span }
func (e *BinaryOp) Pos() Span      { return e.Span }
func (e *Cond) Pos() Span          { return e.Span }
func (e *AssignOp) Pos() Span      { return e.Span }
func (e *Lambda) Pos() Span        { return e.Span }
func (e *DynamicMember) Pos() Span { return e.Span }
func (e *DynamicCall) Pos() Span   { return e.Span }
func (e *DynamicIndex) Pos() Span  { return e.Span }
func (e *DynamicOp) Pos() Span     { return e.Span }

func (e *Const) Type() reflect.Type         { return e.Typ }
func (e *ParamRef) Type() reflect.Type      { return e.Typ }
func (e *VarRef) Type() reflect.Type        { return e.Var.typ }
func (e *FieldRef) Type() reflect.Type      { return e.Field.Type }
func (e *IndexRef) Type() reflect.Type      { return e.Typ }
func (e *MethodCall) Type() reflect.Type    { return e.Overload.ResultType() }
func (e *FuncCall) Type() reflect.Type      { return e.Overload.ResultType() }
func (e *ValueCall) Type() reflect.Type     { return e.Overload.ResultType() }
func (e *Convert) Type() reflect.Type       { return e.Typ }
func (e *UnaryOp) Type() reflect.Type       { return e.X.Type() }
func (e *BinaryOp) Type() reflect.Type      { return e.Typ }
func (e *Cond) Type() reflect.Type          { return e.Typ }
func (e *AssignOp) Type() reflect.Type      { return e.Target.Type() }
func (e *Lambda) Type() reflect.Type        { return e.Typ }
func (e *DynamicMember) Type() reflect.Type { return anyType }
func (e *DynamicCall) Type() reflect.Type   { return anyType }
func (e *DynamicIndex) Type() reflect.Type  { return anyType }
func (e *DynamicOp) Type() reflect.Type     { return anyType }

func (e *Const) String() string {
	if !e.Value.IsValid() {
		return "null"
	}

	return formatConst(e.Value.Interface())
}

func (e *ParamRef) String() string { return e.Name }
func (e *VarRef) String() string   { return e.Var.name }

func (e *FieldRef) String() string { return e.X.String() + "." + e.Field.Name }

func (e *IndexRef) String() string {
	return e.X.String() + "[" + e.Index.String() + "]"
}

func (e *MethodCall) String() string {
	return e.Recv.String() + "." + e.Name + "(" + joinExprs(e.Args) + ")"
}

func (e *FuncCall) String() string {
	return e.Func.name + "(" + joinExprs(e.Args) + ")"
}

func (e *ValueCall) String() string {
	return e.Fn.String() + "(" + joinExprs(e.Args) + ")"
}

func (e *Convert) String() string {
	return typeName(e.Typ) + "(" + e.X.String() + ")"
}

func (e *UnaryOp) String() string { return e.Op + e.X.String() }

func (e *BinaryOp) String() string {
	return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")"
}

func (e *Cond) String() string {
	return "(" + e.Test.String() + " ? " + e.Then.String() + " : " +
		e.Else.String() + ")"
}

func (e *AssignOp) String() string {
	return e.Target.String() + " = " + e.Value.String()
}

func (e *Lambda) String() string {
	return "(" + strings.Join(e.Params, ", ") + ") => " + e.Body.String()
}

func (e *DynamicMember) String() string { return e.X.String() + "." + e.Name }

func (e *DynamicCall) String() string {
	return e.X.String() + "." + e.Name + "(" + joinExprs(e.Args) + ")"
}

func (e *DynamicIndex) String() string {
	return e.X.String() + "[" + e.Index.String() + "]"
}

func (e *DynamicOp) String() string {
	if e.Y == nil {
		return e.Op + e.X.String()
	}

	return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")"
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, x := range exprs {
		parts[i] = x.String()
	}

	return strings.Join(parts, ", ")
}

func formatConst(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case rune:
		return strconv.QuoteRune(v)
	default:
		return fmt.Sprint(v)
	}
}
