package attrspace

import (
	"sort"
	"strings"
)

// This file is the Query Evaluator of spec.md §4.5: complies checks whether
// a single candidate id satisfies a conjunction of Leaf conditions, and
// search enumerates every (root id, bindings) solution for a whole
// Condition tree. Both share evalLeaf/evalChildren, which resolve each
// term against the current bindings and dispatch to one of four lookup
// strategies depending on which of (name, value) is already fixed.
//
// When SearchOptions.UseMappings is set, every level of the tree also tries
// the Mapping-Aware Evaluator (mapping_eval.go, partition.go) before giving
// up on a node: a sibling group of Leaf conditions that fails literally may
// still hold via a stored mapping's original AttrSet, and that retry
// recurses through reference children exactly like the literal path (spec.md
// §4.6).

// Bindings is the caller-facing view of one query solution's variable
// assignments.
type Bindings map[string]string

func (b bindings) export() Bindings {
	out := make(Bindings, len(b.m))
	for k, v := range b.m {
		out[k] = v
	}
	return out
}

const evalOp = "query"

// SearchOptions configures Search.
type SearchOptions struct {
	// UseMappings enables the Mapping-Aware Evaluator: a sibling group of
	// Leaf conditions that doesn't hold literally may still be satisfied by
	// substituting a stored mapping's original AttrSet, including through
	// recursive reference children (spec.md §4.6).
	UseMappings bool
}

// SearchResult is one satisfying assignment: the matched root entity id,
// plus the bindings of any variables in the query tree.
type SearchResult struct {
	ID       string
	Bindings Bindings
}

// match is the internal (id, bindings) pair evalRoot accumulates before
// Search exports it.
type match struct {
	id string
	b  bindings
}

// Search evaluates root against the data space and returns one SearchResult
// per satisfying assignment.
func (ds *DataSpace) Search(root *Condition, opts SearchOptions) ([]SearchResult, error) {
	var raw []match
	err := ds.read(func(f facade) error {
		sols, err := ds.evalRoot(f, root, opts.UseMappings)
		if err != nil {
			return err
		}
		raw = sols
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, len(raw))
	for i, m := range raw {
		out[i] = SearchResult{ID: m.id, Bindings: m.b.export()}
	}
	return out, nil
}

// Complies reports whether id satisfies every leaf in conds (a conjunction),
// per spec.md §4.5's existence-only entry point, without mapping awareness.
func (ds *DataSpace) Complies(id string, conds []*Condition) (bool, error) {
	var ok bool
	err := ds.read(func(f facade) error {
		sols, err := ds.evalChildren(f, conds, id, emptyBindings(), false)
		if err != nil {
			return err
		}
		ok = len(sols) > 0
		return nil
	})
	return ok, err
}

func (ds *DataSpace) evalRoot(f facade, root *Condition, useMappings bool) ([]match, error) {
	valueTerm := resolve(root.Value(), emptyBindings())

	var ids []string
	if valueTerm.IsConst() {
		id := valueTerm.ConstText()
		key, err := storeEntityKey(evalOp, id)
		if err != nil {
			return nil, err
		}
		if f.get(tblStore, key) == nil {
			return nil, nil
		}
		ids = []string{id}
	} else {
		for _, row := range f.scan(tblStore) {
			parts := splitTokens(string(row.Key))
			if len(parts) == 1 {
				ids = append(ids, parts[0])
			}
		}
	}

	var out []match
	for _, id := range ids {
		b := emptyBindings()
		if valueTerm.IsVar() {
			b = b.bind(valueTerm.VarName(), id)
		}
		sols, err := ds.evalChildrenMapped(f, root.Children(), id, b, useMappings)
		if err != nil {
			return nil, err
		}
		for _, s := range sols {
			out = append(out, match{id: id, b: s})
		}
	}
	return out, nil
}

// evalChildren threads bindings through children in sequence, so that a
// variable bound while evaluating one sibling constrains the next — plain
// conjunction, not an independent per-child check. useMappings is threaded
// into each leaf's own recursive descent through reference children.
func (ds *DataSpace) evalChildren(f facade, children []*Condition, id string, b bindings, useMappings bool) ([]bindings, error) {
	frontier := []bindings{b}
	for _, child := range children {
		var next []bindings
		for _, cur := range frontier {
			sols, err := ds.evalLeaf(f, child, id, cur, useMappings)
			if err != nil {
				return nil, err
			}
			next = append(next, sols...)
		}
		frontier = next
		if len(frontier) == 0 {
			return nil, nil
		}
	}
	return frontier, nil
}

// evalChildrenMapped evaluates children against id via the plain conjunction
// first; if that yields nothing and useMappings is set, it retries via the
// Mapping-Aware Evaluator's partition/substitution search (spec.md §4.6).
// This is the entry point used both at the root and through every recursive
// reference child, so a mapping applies no matter how deep in the tree the
// group of leaves it covers sits.
func (ds *DataSpace) evalChildrenMapped(f facade, children []*Condition, id string, b bindings, useMappings bool) ([]bindings, error) {
	direct, err := ds.evalChildren(f, children, id, b, useMappings)
	if err != nil {
		return nil, err
	}
	if len(direct) > 0 || !useMappings || len(children) == 0 {
		return direct, nil
	}
	mapped, err := ds.evalChildrenViaMapping(f, children, id, b, useMappings)
	if err != nil {
		return nil, err
	}
	return mapped, nil
}

// evalChildrenViaMapping tries every way of partitioning children's sibling
// leaves into blocks, substituting each fully-concrete block (relative to
// b) with a stored mapping's original AttrSet, and re-evaluating the
// resulting leaf list as a plain conjunction.
func (ds *DataSpace) evalChildrenViaMapping(f facade, children []*Condition, id string, b bindings, useMappings bool) ([]bindings, error) {
	var out []bindings
	for _, partition := range setPartitions(len(children)) {
		options := make([][][]*Condition, len(partition))
		anySubstituted := false
		for bi, block := range partition {
			blockLeaves := make([]*Condition, len(block))
			for i, idx := range block {
				blockLeaves[i] = children[idx]
			}
			opts := [][]*Condition{blockLeaves} // identity option, always available
			queried, ok := concreteAttrSet(blockLeaves, b)
			if ok {
				origs, err := ds.lookupSynonyms(f, id, queried)
				if err != nil {
					return nil, err
				}
				for _, orig := range origs {
					opts = append(opts, attrSetToLeaves(orig))
					anySubstituted = true
				}
			}
			options[bi] = opts
		}
		if !anySubstituted {
			continue // this partition offers nothing the direct check hasn't already tried
		}
		sols, err := ds.combineSubstitutions(f, id, b, useMappings, options, 0, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, sols...)
	}
	return dedupeBindings(out), nil
}

// combineSubstitutions walks the cartesian product of per-block
// substitution options, collecting every combination's solutions.
func (ds *DataSpace) combineSubstitutions(f facade, id string, b bindings, useMappings bool, options [][][]*Condition, bi int, acc []*Condition) ([]bindings, error) {
	if bi == len(options) {
		return ds.evalChildren(f, acc, id, b, useMappings)
	}
	var out []bindings
	for _, opt := range options[bi] {
		sols, err := ds.combineSubstitutions(f, id, b, useMappings, options, bi+1, append(acc, opt...))
		if err != nil {
			return nil, err
		}
		out = append(out, sols...)
	}
	return out, nil
}

// dedupeBindings drops duplicate solutions produced by trying more than one
// mapping substitution combination.
func dedupeBindings(in []bindings) []bindings {
	seen := make(map[string]bool, len(in))
	var out []bindings
	for _, b := range in {
		key := bindingsKey(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}

func bindingsKey(b bindings) string {
	keys := make([]string, 0, len(b.m))
	for k := range b.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(b.m[k])
		sb.WriteByte(';')
	}
	return sb.String()
}

// attrCandidate is one (name, value) pair of id considered as a match for a
// Leaf condition.
type attrCandidate struct{ name, value string }

// evalLeaf resolves cond's name/value terms against b and dispatches to the
// lookup shaped by which terms are already fixed: both fixed uses a direct
// STORE membership check, name-fixed uses a STORE get, value-fixed uses
// IDX2 (or a scan fallback), and both-free enumerates id's whole attribute
// set. Each surviving candidate is then checked against cond's children,
// recursing through the candidate's value as the next id.
func (ds *DataSpace) evalLeaf(f facade, cond *Condition, id string, b bindings, useMappings bool) ([]bindings, error) {
	nameTerm := resolve(cond.Name(), b)
	valueTerm := resolve(cond.Value(), b)

	var candidates []attrCandidate
	switch {
	case nameTerm.IsConst() && valueTerm.IsConst():
		attrKey, err := storeAttrKey(evalOp, id, nameTerm.ConstText())
		if err != nil {
			return nil, err
		}
		if f.valueContains(tblStore, attrKey, valueTerm.ConstText()) {
			candidates = []attrCandidate{{nameTerm.ConstText(), valueTerm.ConstText()}}
		}

	case nameTerm.IsConst():
		values, err := ds.valuesOf(f, evalOp, id, nameTerm.ConstText())
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			candidates = append(candidates, attrCandidate{nameTerm.ConstText(), v})
		}

	case valueTerm.IsConst():
		names, err := ds.namesForValue(f, evalOp, id, valueTerm.ConstText())
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			candidates = append(candidates, attrCandidate{n, valueTerm.ConstText()})
		}

	default:
		names, err := ds.namesOwnedBy(f, evalOp, id)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			values, err := ds.valuesOf(f, evalOp, id, n)
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				candidates = append(candidates, attrCandidate{n, v})
			}
		}
	}

	var out []bindings
	for _, c := range candidates {
		nb, ok := bindCandidate(b, nameTerm, valueTerm, c)
		if !ok {
			continue
		}
		if len(cond.Children()) == 0 || ParseAttrValue(c.value).IsLiteral() {
			// A literal value has no entity to recurse into: any children
			// are trivially satisfied rather than treated as a failed match.
			out = append(out, nb)
			continue
		}
		childSols, err := ds.evalChildrenMapped(f, cond.Children(), c.value, nb, useMappings)
		if err != nil {
			return nil, err
		}
		out = append(out, childSols...)
	}
	return out, nil
}

// bindCandidate extends b with whichever of nameTerm/valueTerm are unbound
// variables, enforcing spec.md §4.5's distinctness rule: a candidate string
// already bound to some other variable cannot be bound again.
func bindCandidate(b bindings, nameTerm, valueTerm Term, c attrCandidate) (bindings, bool) {
	nb := b
	if nameTerm.IsVar() {
		if nb.isBound(c.name) {
			return bindings{}, false
		}
		nb = nb.bind(nameTerm.VarName(), c.name)
	}
	if valueTerm.IsVar() {
		if nb.isBound(c.value) {
			return bindings{}, false
		}
		nb = nb.bind(valueTerm.VarName(), c.value)
	}
	return nb, true
}
