package attrspace

import (
	"bytes"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Profile selects which auxiliary index tables are maintained alongside
// STORE and MAPS (spec.md §4.3). Query and mutation semantics are identical
// across profiles; the profile only trades write cost for read cost.
type Profile int

const (
	// StoreOnly maintains only STORE and MAPS.
	StoreOnly Profile = iota
	// Inverted additionally maintains IDX1 and IDX2.
	Inverted
	// All additionally maintains K_IDX, V_IDX, and ID_IDX.
	All
)

func (p Profile) String() string {
	switch p {
	case StoreOnly:
		return "StoreOnly"
	case Inverted:
		return "Inverted"
	case All:
		return "All"
	default:
		return "Unknown"
	}
}

// Table bucket names, one flat namespace each (spec.md §4.3).
const (
	tblStore = "STORE"
	tblMaps  = "MAPS"
	tblIdx1  = "IDX1"
	tblIdx2  = "IDX2"
	tblKIdx  = "K_IDX"
	tblVIdx  = "V_IDX"
	tblIdIdx = "ID_IDX"
)

// tablesForProfile lists every bucket that must exist for p, in a stable
// order used at open time and by Clear/RebuildIndexes.
func tablesForProfile(p Profile) []string {
	tables := []string{tblStore, tblMaps}
	if p == Inverted || p == All {
		tables = append(tables, tblIdx1, tblIdx2)
	}
	if p == All {
		tables = append(tables, tblKIdx, tblVIdx, tblIdIdx)
	}
	return tables
}

// auxTablesForProfile lists the index tables that RebuildIndexes may
// truncate and repopulate (everything except STORE and MAPS).
func auxTablesForProfile(p Profile) []string {
	tables := tablesForProfile(p)
	out := tables[:0:0]
	for _, t := range tables {
		if t != tblStore && t != tblMaps {
			out = append(out, t)
		}
	}
	return out
}

func hasInverted(p Profile) bool { return p == Inverted || p == All }
func hasAll(p Profile) bool      { return p == All }

// --- STORE keys ---

func storeEntityKey(op, id string) ([]byte, error) {
	s, err := encode(op, id)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func storeAttrKey(op, id, name string) ([]byte, error) {
	s, err := joinTokens(op, id, name)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// --- IDX1: enc(value) S enc(name) -> ids ---

func idx1Key(op, value, name string) ([]byte, error) {
	s, err := joinTokens(op, value, name)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// --- IDX2: enc(id) S enc(value) -> names ---

func idx2Key(op, id, value string) ([]byte, error) {
	s, err := joinTokens(op, id, value)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// --- K_IDX: enc(name) -> ids ---

func kidxKey(op, name string) ([]byte, error) {
	s, err := encode(op, name)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// --- V_IDX: enc(value) -> ids ---

func vidxKey(op, value string) ([]byte, error) {
	s, err := encode(op, value)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// --- ID_IDX: enc(id) -> names ---

func ididxKey(op, id string) ([]byte, error) {
	s, err := encode(op, id)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// --- MAPS ---

// AttrPair is one (name, value) pair, the atom AttrSet is built from.
type AttrPair struct {
	Name  string `msgpack:"n"`
	Value string `msgpack:"v"`
}

// AttrSet is an unordered set of attribute pairs, the key shape of a
// mapping (spec.md §3). Equality and serialization are order-independent:
// callers may pass pairs in any order.
type AttrSet []AttrPair

func (s AttrSet) sorted() AttrSet {
	out := make(AttrSet, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Contains reports whether p is a member of s.
func (s AttrSet) Contains(p AttrPair) bool {
	for _, q := range s {
		if q == p {
			return true
		}
	}
	return false
}

// Without returns a copy of s with p removed (if present).
func (s AttrSet) Without(p AttrPair) AttrSet {
	out := make(AttrSet, 0, len(s))
	for _, q := range s {
		if q != p {
			out = append(out, q)
		}
	}
	return out
}

// IsSubsetOf reports whether every pair of s is also in other.
func (s AttrSet) IsSubsetOf(other AttrSet) bool {
	for _, p := range s {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Equal reports set equality (order-independent).
func (s AttrSet) Equal(other AttrSet) bool {
	return s.IsSubsetOf(other) && other.IsSubsetOf(s)
}

// serializeAttrSet is a deterministic, reversible encoding of a sorted
// AttrSet, used as the key/value shape stored in MAPS (spec.md §4.3). It is
// msgpack, the teacher's own value encoding (doc.go, encoding.go), applied
// to a canonically sorted slice so that set-equal AttrSets serialize
// identically regardless of caller-supplied order.
func serializeAttrSet(set AttrSet) (string, error) {
	sorted := set.sorted()
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(sorted); err != nil {
		msgpack.PutEncoder(enc)
		return "", newErrf(InvalidInput, "serialize_attrset", "", err)
	}
	msgpack.PutEncoder(enc)
	return buf.String(), nil
}

// deserializeAttrSet reverses serializeAttrSet.
func deserializeAttrSet(raw string) (AttrSet, error) {
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader([]byte(raw)))
	var set AttrSet
	err := dec.Decode(&set)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, newErrf(InvalidInput, "deserialize_attrset", "", err)
	}
	return set, nil
}

// mapsKey builds the MAPS row key for a given scope ("" scope means the
// generic/ANY mapping) and original AttrSet.
func mapsKey(op, scope string, original AttrSet) ([]byte, error) {
	if scope == "" {
		scope = ANY
	}
	serialized, err := serializeAttrSet(original)
	if err != nil {
		return nil, err
	}
	s, err := joinTokens(op, scope, serialized)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// mapsKeyPrefix builds the byte prefix all mapping rows scoped to id share:
// "enc(id) S". Used by the mapping cascade on attribute removal (spec.md
// §4.4) to enumerate every mapping that could reference a removed pair.
func mapsKeyPrefix(op, scope string) ([]byte, error) {
	enc, err := encode(op, scope)
	if err != nil {
		return nil, err
	}
	return []byte(enc + fieldSep), nil
}
