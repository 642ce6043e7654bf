package attrspace

// This file is the Mutation Engine of spec.md §4.4: insert/delete entity,
// insert/delete attribute (with wildcard key/value), insert/delete
// mapping, and Clear. All index bookkeeping and mapping cascades live here;
// the Query Evaluator and Result Projector only ever read.

// InsertEntity creates a new entity with the given id.
func (ds *DataSpace) InsertEntity(id string) error {
	const op = "insert_entity"
	return ds.write(func(f facade) error {
		key, err := storeEntityKey(op, id)
		if err != nil {
			return err
		}
		if f.get(tblStore, key) != nil {
			return newErr(EntityExists, op, id)
		}
		return f.put(tblStore, key, []byte("1"))
	})
}

// DeleteEntity destroys id and cascades: every outgoing attribute, every
// attribute anywhere whose value equals id, and every mapping scoped to id.
func (ds *DataSpace) DeleteEntity(id string) error {
	const op = "delete_entity"
	return ds.write(func(f facade) error {
		key, err := storeEntityKey(op, id)
		if err != nil {
			return err
		}
		if f.get(tblStore, key) == nil {
			return newErr(NoEntity, op, id)
		}
		if err := f.del(tblStore, key); err != nil {
			return err
		}
		if err := ds.removeAllOutgoing(f, op, id); err != nil {
			return err
		}
		if err := ds.removeAllIncoming(f, op, id); err != nil {
			return err
		}
		_, err = ds.deleteMappingsScoped(f, op, id)
		return err
	})
}

// removeAllOutgoing removes every attribute owned by id, preferring ID_IDX
// (All profile) over a STORE prefix scan.
func (ds *DataSpace) removeAllOutgoing(f facade, op, id string) error {
	names, err := ds.namesOwnedBy(f, op, id)
	if err != nil {
		return err
	}
	for _, name := range names {
		values, err := ds.valuesOf(f, op, id, name)
		if err != nil {
			return err
		}
		for _, value := range values {
			if err := ds.removeAttributePhysical(f, op, id, name, value); err != nil {
				return err
			}
			if err := ds.cascadeMappingsOnRemoval(f, op, id, AttrPair{Name: name, Value: value}); err != nil {
				return err
			}
		}
	}
	return nil
}

// namesOwnedBy returns the distinct attribute names id currently has,
// using ID_IDX when the profile maintains it, else a STORE prefix scan.
func (ds *DataSpace) namesOwnedBy(f facade, op, id string) ([]string, error) {
	if hasAll(ds.profile) {
		key, err := ididxKey(op, id)
		if err != nil {
			return nil, err
		}
		raw := f.get(tblIdIdx, key)
		if raw == nil {
			return nil, nil
		}
		return splitTokens(string(raw)), nil
	}
	prefixStr, err := encode(op, id)
	if err != nil {
		return nil, err
	}
	prefix := []byte(prefixStr + fieldSep)
	rows := f.scanPrefix(tblStore, prefix)
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		parts := splitTokens(string(row.Key))
		if len(parts) != 2 {
			continue
		}
		name := parts[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// valuesOf returns the values id has under name.
func (ds *DataSpace) valuesOf(f facade, op, id, name string) ([]string, error) {
	key, err := storeAttrKey(op, id, name)
	if err != nil {
		return nil, err
	}
	raw := f.get(tblStore, key)
	if raw == nil {
		return nil, nil
	}
	return splitTokens(string(raw)), nil
}

// removeAllIncoming removes every attribute anywhere whose value equals id.
func (ds *DataSpace) removeAllIncoming(f facade, op, id string) error {
	switch {
	case hasAll(ds.profile):
		return ds.removeIncomingViaVIdx(f, op, id)
	case hasInverted(ds.profile):
		return ds.removeIncomingViaIdx1(f, op, id)
	default:
		return ds.removeIncomingViaScan(f, op, id)
	}
}

func (ds *DataSpace) removeIncomingViaVIdx(f facade, op, id string) error {
	key, err := vidxKey(op, id)
	if err != nil {
		return err
	}
	raw := f.get(tblVIdx, key)
	if raw == nil {
		return nil
	}
	owners := splitTokens(string(raw))
	for _, owner := range owners {
		idx2, err := idx2Key(op, owner, id)
		if err != nil {
			return err
		}
		rawNames := f.get(tblIdx2, idx2)
		if rawNames == nil {
			continue
		}
		for _, name := range splitTokens(string(rawNames)) {
			if err := ds.removeAttributePhysical(f, op, owner, name, id); err != nil {
				return err
			}
			if err := ds.cascadeMappingsOnRemoval(f, op, owner, AttrPair{Name: name, Value: id}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ds *DataSpace) removeIncomingViaIdx1(f facade, op, id string) error {
	prefixStr, err := encode(op, id)
	if err != nil {
		return err
	}
	prefix := []byte(prefixStr + fieldSep)
	rows := f.scanPrefix(tblIdx1, prefix)
	for _, row := range rows {
		parts := splitTokens(string(row.Key))
		if len(parts) != 2 {
			continue
		}
		name := parts[1]
		owners := splitTokens(string(row.Value))
		for _, owner := range owners {
			if err := ds.removeAttributePhysical(f, op, owner, name, id); err != nil {
				return err
			}
			if err := ds.cascadeMappingsOnRemoval(f, op, owner, AttrPair{Name: name, Value: id}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ds *DataSpace) removeIncomingViaScan(f facade, op, id string) error {
	rows := f.scan(tblStore)
	for _, row := range rows {
		parts := splitTokens(string(row.Key))
		if len(parts) != 2 {
			continue // entity row, not an attribute row
		}
		owner, name := parts[0], parts[1]
		for _, value := range splitTokens(string(row.Value)) {
			if value != id {
				continue
			}
			if err := ds.removeAttributePhysical(f, op, owner, name, id); err != nil {
				return err
			}
			if err := ds.cascadeMappingsOnRemoval(f, op, owner, AttrPair{Name: name, Value: id}); err != nil {
				return err
			}
		}
	}
	return nil
}

// InsertAttribute records that id has (name, value).
func (ds *DataSpace) InsertAttribute(id, name string, value AttrValue) error {
	const op = "insert_attribute"
	return ds.write(func(f facade) error {
		idKey, err := storeEntityKey(op, id)
		if err != nil {
			return err
		}
		if f.get(tblStore, idKey) == nil {
			return newErr(NoEntity, op, id)
		}
		if !value.IsLiteral() {
			refKey, err := storeEntityKey(op, value.EntityID())
			if err != nil {
				return err
			}
			if f.get(tblStore, refKey) == nil {
				return newErr(NoEntity, op, value.EntityID())
			}
		}
		attrKey, err := storeAttrKey(op, id, name)
		if err != nil {
			return err
		}
		if f.valueContains(tblStore, attrKey, value.String()) {
			return newErr(AttributeExists, op, id+" "+name+" "+value.String())
		}
		return ds.addAttributePhysical(f, op, id, name, value.String())
	})
}

func (ds *DataSpace) addAttributePhysical(f facade, op, id, name, value string) error {
	attrKey, err := storeAttrKey(op, id, name)
	if err != nil {
		return err
	}
	if err := f.addToValue(tblStore, attrKey, value); err != nil {
		return err
	}
	if hasInverted(ds.profile) {
		k1, err := idx1Key(op, value, name)
		if err != nil {
			return err
		}
		if err := f.addToValue(tblIdx1, k1, id); err != nil {
			return err
		}
		k2, err := idx2Key(op, id, value)
		if err != nil {
			return err
		}
		if err := f.addToValue(tblIdx2, k2, name); err != nil {
			return err
		}
	}
	if hasAll(ds.profile) {
		kk, err := kidxKey(op, name)
		if err != nil {
			return err
		}
		if err := f.addToValue(tblKIdx, kk, id); err != nil {
			return err
		}
		kv, err := vidxKey(op, value)
		if err != nil {
			return err
		}
		if err := f.addToValue(tblVIdx, kv, id); err != nil {
			return err
		}
		ki, err := ididxKey(op, id)
		if err != nil {
			return err
		}
		if err := f.addToValue(tblIdIdx, ki, name); err != nil {
			return err
		}
	}
	return nil
}

// removeAttributePhysical removes the exact triple (id,name,value) from
// STORE and every enabled index, maintaining K_IDX/V_IDX/ID_IDX only when
// the removed value was the id's last one under that name (K_IDX, ID_IDX)
// or the owner's last mapping to that value (V_IDX).
func (ds *DataSpace) removeAttributePhysical(f facade, op, id, name, value string) error {
	attrKey, err := storeAttrKey(op, id, name)
	if err != nil {
		return err
	}
	if _, err := f.removeFromValue(tblStore, attrKey, value); err != nil {
		return err
	}
	nameExhausted := f.get(tblStore, attrKey) == nil

	if !hasInverted(ds.profile) {
		return nil
	}

	k1, err := idx1Key(op, value, name)
	if err != nil {
		return err
	}
	if _, err := f.removeFromValue(tblIdx1, k1, id); err != nil {
		return err
	}

	k2, err := idx2Key(op, id, value)
	if err != nil {
		return err
	}
	if _, err := f.removeFromValue(tblIdx2, k2, name); err != nil {
		return err
	}
	valueExhausted := f.get(tblIdx2, k2) == nil

	if !hasAll(ds.profile) {
		return nil
	}

	if nameExhausted {
		kk, err := kidxKey(op, name)
		if err != nil {
			return err
		}
		if _, err := f.removeFromValue(tblKIdx, kk, id); err != nil {
			return err
		}
		ki, err := ididxKey(op, id)
		if err != nil {
			return err
		}
		if _, err := f.removeFromValue(tblIdIdx, ki, name); err != nil {
			return err
		}
	}
	if valueExhausted {
		kv, err := vidxKey(op, value)
		if err != nil {
			return err
		}
		if _, err := f.removeFromValue(tblVIdx, kv, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAttribute removes attributes of id matching (name, value), where
// either may be ANY (spec.md §4.4's four shapes).
func (ds *DataSpace) DeleteAttribute(id string, name, value Term) error {
	const op = "delete_attribute"
	return ds.write(func(f facade) error {
		idKey, err := storeEntityKey(op, id)
		if err != nil {
			return err
		}
		if f.get(tblStore, idKey) == nil {
			return newErr(NoEntity, op, id)
		}

		pairs, err := ds.matchAttributePairs(f, op, id, name, value)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			return newErr(NoAttribute, op, id)
		}
		for _, p := range pairs {
			if err := ds.removeAttributePhysical(f, op, id, p.Name, p.Value); err != nil {
				return err
			}
			if err := ds.cascadeMappingsOnRemoval(f, op, id, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// matchAttributePairs resolves the four DeleteAttribute shapes to a
// concrete list of (name,value) pairs currently owned by id.
func (ds *DataSpace) matchAttributePairs(f facade, op, id string, name, value Term) ([]AttrPair, error) {
	switch {
	case name.IsAny() && value.IsAny():
		names, err := ds.namesOwnedBy(f, op, id)
		if err != nil {
			return nil, err
		}
		var pairs []AttrPair
		for _, n := range names {
			values, err := ds.valuesOf(f, op, id, n)
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				pairs = append(pairs, AttrPair{Name: n, Value: v})
			}
		}
		return pairs, nil

	case name.IsAny():
		v := value.ConstText()
		names, err := ds.namesForValue(f, op, id, v)
		if err != nil {
			return nil, err
		}
		pairs := make([]AttrPair, len(names))
		for i, n := range names {
			pairs[i] = AttrPair{Name: n, Value: v}
		}
		return pairs, nil

	case value.IsAny():
		n := name.ConstText()
		values, err := ds.valuesOf(f, op, id, n)
		if err != nil {
			return nil, err
		}
		pairs := make([]AttrPair, len(values))
		for i, v := range values {
			pairs[i] = AttrPair{Name: n, Value: v}
		}
		return pairs, nil

	default:
		n, v := name.ConstText(), value.ConstText()
		attrKey, err := storeAttrKey(op, id, n)
		if err != nil {
			return nil, err
		}
		if !f.valueContains(tblStore, attrKey, v) {
			return nil, nil
		}
		return []AttrPair{{Name: n, Value: v}}, nil
	}
}

// namesForValue returns the names under which id holds value, using IDX2
// when available, else a STORE prefix scan.
func (ds *DataSpace) namesForValue(f facade, op, id, value string) ([]string, error) {
	if hasInverted(ds.profile) {
		key, err := idx2Key(op, id, value)
		if err != nil {
			return nil, err
		}
		raw := f.get(tblIdx2, key)
		if raw == nil {
			return nil, nil
		}
		return splitTokens(string(raw)), nil
	}
	names, err := ds.namesOwnedBy(f, op, id)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		values, err := ds.valuesOf(f, op, id, n)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if v == value {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

// cascadeMappingsOnRemoval implements spec.md §4.4's mapping cascade: when
// pair p is removed from entity id, prune it out of every mapping row
// scoped to id (specific-scope mappings only; generic mappings are keyed on
// the wildcard scope and never reference a concrete entity's attribute
// list, so they are untouched by attribute removal).
func (ds *DataSpace) cascadeMappingsOnRemoval(f facade, op, id string, p AttrPair) error {
	prefix, err := mapsKeyPrefix(op, id)
	if err != nil {
		return err
	}
	rows := f.scanPrefix(tblMaps, prefix)
	for _, row := range rows {
		if err := ds.pruneMappingRow(f, op, row, p); err != nil {
			return err
		}
	}
	return nil
}

// pruneMappingRow removes p from the original (encoded in row.Key) and from
// every synonym (encoded in row.Value). A multi-pair original that still
// contains other pairs after p is removed is re-keyed under the pruned set
// rather than dropped outright; the row is only dropped once the pruned
// original (or the surviving synonym list) becomes empty.
func (ds *DataSpace) pruneMappingRow(f facade, op string, row kv, p AttrPair) error {
	keyParts := splitTokens(string(row.Key))
	if len(keyParts) != 2 {
		return nil
	}
	scope := keyParts[0]
	original, err := deserializeAttrSet(keyParts[1])
	if err != nil {
		return err
	}

	rekeyed := false
	if original.Contains(p) {
		original = original.Without(p)
		rekeyed = true
	}
	if len(original) == 0 {
		return f.del(tblMaps, row.Key)
	}

	synonyms := splitTokens(string(row.Value))
	var kept []string
	for _, s := range synonyms {
		set, err := deserializeAttrSet(s)
		if err != nil {
			return err
		}
		if set.Contains(p) {
			set = set.Without(p)
			if len(set) == 0 {
				continue // synonym vanished
			}
		}
		if original.IsSubsetOf(set) || set.IsSubsetOf(original) {
			continue // invariant I4: neither may contain the other
		}
		reserialized, err := serializeAttrSet(set)
		if err != nil {
			return err
		}
		kept = append(kept, reserialized)
	}

	if len(kept) == 0 {
		return f.del(tblMaps, row.Key)
	}
	joined, err := joinTokens(op, kept...)
	if err != nil {
		return err
	}
	if !rekeyed {
		return f.put(tblMaps, row.Key, []byte(joined))
	}
	if err := f.del(tblMaps, row.Key); err != nil {
		return err
	}
	newKey, err := mapsKey(op, scope, original)
	if err != nil {
		return err
	}
	return f.put(tblMaps, newKey, []byte(joined))
}

// InsertMapping records that original may be substituted by synonyms for
// scope (empty scope means the generic/ANY mapping).
func (ds *DataSpace) InsertMapping(scope string, original, synonyms AttrSet) error {
	const op = "insert_mapping"
	return ds.write(func(f facade) error {
		if original.IsSubsetOf(synonyms) || synonyms.IsSubsetOf(original) {
			return newErr(InvalidInput, op, "")
		}
		if scope != "" && scope != ANY {
			idKey, err := storeEntityKey(op, scope)
			if err != nil {
				return err
			}
			if f.get(tblStore, idKey) == nil {
				return newErr(NoEntity, op, scope)
			}
			// A scope-specific mapping only applies to a fact the entity
			// actually has, so every pair in original must already exist.
			for _, p := range original {
				attrKey, err := storeAttrKey(op, scope, p.Name)
				if err != nil {
					return err
				}
				if !f.valueContains(tblStore, attrKey, p.Value) {
					return newErr(NoAttribute, op, scope+" "+p.Name)
				}
			}
		}
		key, err := mapsKey(op, scope, original)
		if err != nil {
			return err
		}
		serializedSyn, err := serializeAttrSet(synonyms)
		if err != nil {
			return err
		}
		if f.valueContains(tblMaps, key, serializedSyn) {
			return newErr(MappingExists, op, scope)
		}
		return f.addToValue(tblMaps, key, serializedSyn)
	})
}

// DeleteMapping removes mapping rows for scope. A nil original means "every
// original for this scope"; a nil synonyms means "every synonym for the
// given (scope, original)".
func (ds *DataSpace) DeleteMapping(scope string, original, synonyms AttrSet) error {
	const op = "delete_mapping"
	return ds.write(func(f facade) error {
		if scope != "" && scope != ANY {
			idKey, err := storeEntityKey(op, scope)
			if err != nil {
				return err
			}
			if f.get(tblStore, idKey) == nil {
				return newErr(NoEntity, op, scope)
			}
		}

		if original == nil {
			n, err := ds.deleteMappingsScoped(f, op, scope)
			if err != nil {
				return err
			}
			if n == 0 {
				return newErr(NoMapping, op, scope)
			}
			return nil
		}

		key, err := mapsKey(op, scope, original)
		if err != nil {
			return err
		}
		if synonyms == nil {
			if f.get(tblMaps, key) == nil {
				return newErr(NoMapping, op, scope)
			}
			return f.del(tblMaps, key)
		}

		serializedSyn, err := serializeAttrSet(synonyms)
		if err != nil {
			return err
		}
		changed, err := f.removeFromValue(tblMaps, key, serializedSyn)
		if err != nil {
			return err
		}
		if !changed {
			return newErr(NoMapping, op, scope)
		}
		return nil
	})
}

// deleteMappingsScoped removes every MAPS row scoped to scope (used by
// DeleteEntity's cascade and by DeleteMapping's original=ANY shape), and
// returns how many rows were removed.
func (ds *DataSpace) deleteMappingsScoped(f facade, op, scope string) (int, error) {
	if scope == "" {
		scope = ANY
	}
	prefix, err := mapsKeyPrefix(op, scope)
	if err != nil {
		return 0, err
	}
	rows := f.scanPrefix(tblMaps, prefix)
	for _, row := range rows {
		if err := f.del(tblMaps, row.Key); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// Clear truncates every table (spec.md §4.4).
func (ds *DataSpace) Clear() error {
	return ds.write(func(f facade) error {
		for _, table := range tablesForProfile(ds.profile) {
			if err := f.truncate(table); err != nil {
				return err
			}
		}
		return nil
	})
}

// RebuildIndexes re-derives every auxiliary index from STORE, leaving
// STORE and MAPS untouched. This is the "index rebuild" path spec.md §9's
// design notes call for as the recovery story for a crash mid-mutation.
func (ds *DataSpace) RebuildIndexes() error {
	const op = "rebuild_indexes"
	return ds.write(func(f facade) error {
		for _, table := range auxTablesForProfile(ds.profile) {
			if err := f.truncate(table); err != nil {
				return err
			}
		}
		rows := f.scan(tblStore)
		for _, row := range rows {
			parts := splitTokens(string(row.Key))
			if len(parts) != 2 {
				continue // entity row
			}
			id, name := parts[0], parts[1]
			for _, value := range splitTokens(string(row.Value)) {
				if err := ds.addAttributePhysical(f, op, id, name, value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
