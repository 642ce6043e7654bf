package attrspace

// bindings is an immutable variable environment. spec.md §9's design notes
// call for passing an immutable environment down and returning either a
// new environment or failure, rather than mutating a shared map and
// unwinding by hand on backtrack. bind returns a new bindings value sharing
// the old one's backing map only when no write is needed (isBound), and a
// fresh copy-on-write map otherwise, so a caller that discards a failed
// branch's bindings never observes its tentative writes.
type bindings struct {
	m map[string]string
}

func emptyBindings() bindings {
	return bindings{}
}

// value returns the concrete string bound to name, if any.
func (b bindings) value(name string) (string, bool) {
	if b.m == nil {
		return "", false
	}
	v, ok := b.m[name]
	return v, ok
}

// isBound reports whether v is already bound to some variable in b — used
// to implement the "distinctness within a node" rule of spec.md §4.5: a
// candidate value already bound to a different variable is skipped when
// enumerating fresh bindings.
func (b bindings) isBound(v string) bool {
	for _, bound := range b.m {
		if bound == v {
			return true
		}
	}
	return false
}

// bind returns a new bindings with name bound to value, copy-on-write.
func (b bindings) bind(name, value string) bindings {
	m := make(map[string]string, len(b.m)+1)
	for k, v := range b.m {
		m[k] = v
	}
	m[name] = value
	return bindings{m: m}
}

// resolve substitutes t against b: a bound variable becomes its constant
// value; an unbound variable or the wildcard is returned as-is.
func resolve(t Term, b bindings) Term {
	if !t.IsVar() {
		return t
	}
	if v, ok := b.value(t.VarName()); ok {
		return ConstTerm(v)
	}
	return t
}
