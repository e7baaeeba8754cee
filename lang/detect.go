package lang

// Detection lists the names an expression references, each sorted.
type Detection struct {
	Identifiers []string // registered identifiers
	Types       []string // registered type aliases
	Params      []string // declared parameters
	Unresolved  []string // names resolving to none of the above
}

// detector walks a syntax tree resolving names the way the binder does, but
// records unknown names instead of failing.
type detector struct {
	env        *Environment
	children   bool
	params     []Parameter
	scopes     []scope
	idents     map[string]struct{}
	types      map[string]struct{}
	used       map[string]struct{}
	unresolved map[string]struct{}
}

// Detect reports the identifiers, types and unresolved names referenced by
// text, which only needs to parse. With children set, member chains rooted
// at a referenced name also report their dotted paths ("a.b", "a.b.c") in
// the set of the root name.
//
// Names matching one of params resolve to that parameter first, even when
// the environment also defines them, exactly as [Interpreter.Parse] binds
// them. Parameter types are not consulted.
func Detect(
	env *Environment,
	text string,
	children bool,
	params ...Parameter,
) (*Detection, error) {
	root, err := ParseSyntax(text, env.settings.Grammar())
	if err != nil {
		return nil, withSource(err, text)
	}

	d := &detector{
		env:        env,
		children:   children,
		params:     params,
		idents:     make(map[string]struct{}),
		types:      make(map[string]struct{}),
		used:       make(map[string]struct{}),
		unresolved: make(map[string]struct{}),
	}

	d.walk(root)

	return &Detection{
		Identifiers: sortedKeys(d.idents),
		Types:       sortedKeys(d.types),
		Params:      sortedKeys(d.used),
		Unresolved:  sortedKeys(d.unresolved),
	}, nil
}

// name records the identifier name and returns the set of names it
// belongs to, or nil for lambda parameters, declared parameters and type
// aliases.
func (d *detector) name(name string) map[string]struct{} {
	r := resolveName(d.env, d.params, d.scopes, name)

	switch r.kind {
	case nameLambda:
		return nil
	case nameParam:
		d.used[r.name] = struct{}{}

		return nil
	case nameType:
		d.types[r.name] = struct{}{}

		return nil
	case nameIdent:
		d.idents[r.name] = struct{}{}

		return d.idents
	}

	d.unresolved[r.name] = struct{}{}

	return d.unresolved
}

func (d *detector) walk(n Node) {
	switch n := n.(type) {
	case *Ident:
		d.name(n.Name)

	case *Member:
		if d.children {
			if path, ok := dottedName(n); ok {
				root, _ := dottedName(rootOf(n))
				if set := d.name(root); set != nil {
					set[path] = struct{}{}
				}

				// Record the intermediate paths too.
				if m, ok := n.X.(*Member); ok {
					d.walk(m)
				}

				return
			}
		}

		d.walk(n.X)

	case *Index:
		d.walk(n.X)

		for _, a := range n.Args {
			d.walk(a)
		}

	case *Unary:
		d.walk(n.X)

	case *Binary:
		d.walk(n.X)
		d.walk(n.Y)

	case *Conditional:
		d.walk(n.Cond)
		d.walk(n.Then)
		d.walk(n.Else)

	case *Call:
		d.walk(n.Fun)

		for _, a := range n.Args {
			d.walk(a)
		}

	case *Assign:
		d.walk(n.Target)
		d.walk(n.Value)

	case *LambdaLit:
		s := scope{names: make([]string, len(n.Params))}
		for i, p := range n.Params {
			s.names[i] = p.Name
		}

		d.scopes = append(d.scopes, s)
		d.walk(n.Body)
		d.scopes = d.scopes[:len(d.scopes)-1]
	}
}

// rootOf returns the innermost receiver of a member chain.
func rootOf(n *Member) Node {
	x := n.X
	for {
		m, ok := x.(*Member)
		if !ok {
			return x
		}

		x = m.X
	}
}
