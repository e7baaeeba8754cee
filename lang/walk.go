package lang

import "slices"

// Children returns the direct sub-expressions of x in evaluation order.
func Children(x Expr) []Expr {
	switch x := x.(type) {
	case *FieldRef:
		return []Expr{x.X}
	case *IndexRef:
		return []Expr{x.X, x.Index}
	case *MethodCall:
		return append([]Expr{x.Recv}, x.Args...)
	case *FuncCall:
		return slices.Clone(x.Args)
	case *ValueCall:
		return append([]Expr{x.Fn}, x.Args...)
	case *Convert:
		return []Expr{x.X}
	case *UnaryOp:
		return []Expr{x.X}
	case *BinaryOp:
		return []Expr{x.X, x.Y}
	case *Cond:
		return []Expr{x.Test, x.Then, x.Else}
	case *AssignOp:
		return []Expr{x.Target, x.Value}
	case *Lambda:
		return []Expr{x.Body}
	case *DynamicMember:
		return []Expr{x.X}
	case *DynamicCall:
		return append([]Expr{x.X}, x.Args...)
	case *DynamicIndex:
		return []Expr{x.X, x.Index}
	case *DynamicOp:
		if x.Y == nil {
			return []Expr{x.X}
		}

		return []Expr{x.X, x.Y}
	case *sliceLit:
		return slices.Clone(x.Elems)
	}

	return nil
}

// withChildren returns a shallow copy of x with its sub-expressions
// replaced by kids, which must be ordered as [Children] returns them.
func withChildren(x Expr, kids []Expr) Expr {
	switch x := x.(type) {
	case *FieldRef:
		c := *x
		c.X = kids[0]

		return &c
	case *IndexRef:
		c := *x
		c.X, c.Index = kids[0], kids[1]

		return &c
	case *MethodCall:
		c := *x
		c.Recv, c.Args = kids[0], kids[1:]

		return &c
	case *FuncCall:
		c := *x
		c.Args = kids

		return &c
	case *ValueCall:
		c := *x
		c.Fn, c.Args = kids[0], kids[1:]

		return &c
	case *Convert:
		c := *x
		c.X = kids[0]

		return &c
	case *UnaryOp:
		c := *x
		c.X = kids[0]

		return &c
	case *BinaryOp:
		c := *x
		c.X, c.Y = kids[0], kids[1]

		return &c
	case *Cond:
		c := *x
		c.Test, c.Then, c.Else = kids[0], kids[1], kids[2]

		return &c
	case *AssignOp:
		c := *x
		c.Target, c.Value = kids[0], kids[1]

		return &c
	case *Lambda:
		c := *x
		c.Body = kids[0]

		return &c
	case *DynamicMember:
		c := *x
		c.X = kids[0]

		return &c
	case *DynamicCall:
		c := *x
		c.X, c.Args = kids[0], kids[1:]

		return &c
	case *DynamicIndex:
		c := *x
		c.X, c.Index = kids[0], kids[1]

		return &c
	case *DynamicOp:
		c := *x
		c.X = kids[0]

		if len(kids) > 1 {
			c.Y = kids[1]
		}

		return &c
	case *sliceLit:
		c := *x
		c.Elems = kids

		return &c
	}

	return x
}

// Walk calls fn for x and, while fn returns true, for every descendant in
// depth-first order.
func Walk(x Expr, fn func(Expr) bool) {
	if x == nil || !fn(x) {
		return
	}

	for _, c := range Children(x) {
		Walk(c, fn)
	}
}

// Rewrite rebuilds x bottom-up, replacing every node with the result of fn.
// Nodes whose children are unchanged are passed to fn as is.
func Rewrite(x Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	kids := Children(x)
	changed := false

	for i, c := range kids {
		r, err := Rewrite(c, fn)
		if err != nil {
			return nil, err
		}

		if r != c {
			kids[i] = r
			changed = true
		}
	}

	if changed {
		x = withChildren(x, kids)
	}

	return fn(x)
}
