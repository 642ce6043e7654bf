package attrspace

// This file is the Mapping-Aware Evaluator of spec.md §4.6: it lets a
// sibling group of Leaf conditions be satisfied via a stored synonym, not
// just literally. It only ever substitutes fully-concrete blocks (every
// leaf's name and value already resolved to a constant): variables and
// wildcards pass through untouched, since a mapping's original/synonym sets
// are themselves concrete AttrSets. The actual tree walk and partition
// search live in eval.go's evalChildrenMapped/evalChildrenViaMapping, which
// call the helpers here at every node of the query tree, root or nested.

// CompliesMapped is Complies, but additionally accepts id if some partition
// of leaves into blocks lets each block either hold as literally written or
// be replaced by the original AttrSet of a mapping whose recorded synonym
// exactly matches that block (spec.md §9's resolved open question:
// specific-scope mappings are tried before the generic ANY-scoped ones, and
// all alternatives are unioned).
func (ds *DataSpace) CompliesMapped(id string, leaves []*Condition) (bool, error) {
	var ok bool
	err := ds.read(func(f facade) error {
		sols, err := ds.evalChildrenMapped(f, leaves, id, emptyBindings(), true)
		if err != nil {
			return err
		}
		ok = len(sols) > 0
		return nil
	})
	return ok, err
}

// concreteAttrSet resolves every leaf in block against b to a constant
// (name, value) pair, failing if any leaf carries a variable, wildcard, or
// children (a mapping's original set is a flat set of facts, not a nested
// pattern).
func concreteAttrSet(block []*Condition, b bindings) (AttrSet, bool) {
	set := make(AttrSet, 0, len(block))
	for _, leaf := range block {
		nameTerm := resolve(leaf.Name(), b)
		valueTerm := resolve(leaf.Value(), b)
		if !nameTerm.IsConst() || !valueTerm.IsConst() || len(leaf.Children()) != 0 {
			return nil, false
		}
		set = append(set, AttrPair{Name: nameTerm.ConstText(), Value: valueTerm.ConstText()})
	}
	return set, true
}

// attrSetToLeaves converts an AttrSet back into a Leaf condition list with
// no children, suitable for splicing into the leaf list being tested.
func attrSetToLeaves(set AttrSet) []*Condition {
	out := make([]*Condition, len(set))
	for i, p := range set {
		out[i] = NewLeaf(ConstTerm(p.Name), ConstTerm(p.Value))
	}
	return out
}

// lookupSynonyms returns every original AttrSet whose recorded synonym set
// equals queried, checking the entity-specific scope before the generic ANY
// scope and unioning both (spec.md §9's resolved open question). The entity
// holds original; a query written against queried (one of original's
// recorded synonyms) must resolve back to original (spec.md §1, I4).
func (ds *DataSpace) lookupSynonyms(f facade, scope string, queried AttrSet) ([]AttrSet, error) {
	var out []AttrSet
	for _, s := range []string{scope, ANY} {
		if s == ANY && scope == ANY {
			break // avoid checking the generic scope twice
		}
		prefix, err := mapsKeyPrefix(evalOp, s)
		if err != nil {
			return nil, err
		}
		for _, row := range f.scanPrefix(tblMaps, prefix) {
			keyParts := splitTokens(string(row.Key))
			if len(keyParts) != 2 {
				continue
			}
			original, err := deserializeAttrSet(keyParts[1])
			if err != nil {
				return nil, err
			}
			for _, token := range splitTokens(string(row.Value)) {
				set, err := deserializeAttrSet(token)
				if err != nil {
					return nil, err
				}
				if set.Equal(queried) {
					out = append(out, original)
					break
				}
			}
		}
	}
	return out, nil
}
