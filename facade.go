package attrspace

import "bytes"

// facade is the thin typed wrapper over the ordered KV store described in
// spec.md §4.2: point get/put/delete/truncate, a forward scan (with
// prefix filtering done by the caller, not the backend), and three
// multi-value helpers that treat a value cell as a separator-delimited
// set of tokens.
type facade struct {
	tx storageTx
}

func (f facade) get(table string, key []byte) []byte {
	b := f.tx.Bucket(table)
	if b == nil {
		return nil
	}
	return b.Get(key)
}

func (f facade) put(table string, key, value []byte) error {
	b, err := f.tx.CreateBucket(table)
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

func (f facade) del(table string, key []byte) error {
	b := f.tx.Bucket(table)
	if b == nil {
		return nil
	}
	return b.Delete(key)
}

func (f facade) truncate(table string) error {
	if f.tx.Bucket(table) == nil {
		_, err := f.tx.CreateBucket(table)
		return err
	}
	return f.tx.Truncate(table)
}

// kv is one key/value pair returned by scan/scanPrefix.
type kv struct {
	Key   []byte
	Value []byte
}

// scan performs a full forward scan of table.
func (f facade) scan(table string) []kv {
	b := f.tx.Bucket(table)
	if b == nil {
		return nil
	}
	var out []kv
	c := b.Cursor()
	for k, v := c.Next(); k != nil; k, v = c.Next() {
		out = append(out, kv{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
	}
	return out
}

// scanPrefix filters a full forward scan against prefix, exactly as
// spec.md §4.2 mandates ("prefix scans are implemented by filtering a full
// forward iteration against a prefix predicate").
func (f facade) scanPrefix(table string, prefix []byte) []kv {
	b := f.tx.Bucket(table)
	if b == nil {
		return nil
	}
	var out []kv
	c := b.Cursor()
	for k, v := c.Next(); k != nil; k, v = c.Next() {
		if bytes.HasPrefix(k, prefix) {
			out = append(out, kv{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
		}
	}
	return out
}

// valueContains reports whether token appears in the multi-value cell at
// (table, key), either as the entire cell or as one of its
// separator-delimited tokens.
func (f facade) valueContains(table string, key []byte, token string) bool {
	raw := f.get(table, key)
	if raw == nil {
		return false
	}
	for _, t := range splitTokens(string(raw)) {
		if t == token {
			return true
		}
	}
	return false
}

// addToValue appends token to the multi-value cell at (table, key),
// creating it if absent. No-op if token is already present.
func (f facade) addToValue(table string, key []byte, token string) error {
	raw := f.get(table, key)
	if raw == nil {
		enc, err := encode("add_to_value", token)
		if err != nil {
			return err
		}
		return f.put(table, key, []byte(enc))
	}
	tokens := splitTokens(string(raw))
	for _, t := range tokens {
		if t == token {
			return nil
		}
	}
	tokens = append(tokens, token)
	joined, err := joinTokens("add_to_value", tokens...)
	if err != nil {
		return err
	}
	return f.put(table, key, []byte(joined))
}

// removeFromValue removes token from the multi-value cell at (table, key).
// If token was the entire cell, the key is deleted. Returns whether
// anything changed.
func (f facade) removeFromValue(table string, key []byte, token string) (bool, error) {
	raw := f.get(table, key)
	if raw == nil {
		return false, nil
	}
	tokens := splitTokens(string(raw))
	remaining := tokens[:0:0]
	found := false
	for _, t := range tokens {
		if t == token {
			found = true
			continue
		}
		remaining = append(remaining, t)
	}
	if !found {
		return false, nil
	}
	if len(remaining) == 0 {
		return true, f.del(table, key)
	}
	joined, err := joinTokens("remove_from_value", remaining...)
	if err != nil {
		return false, err
	}
	return true, f.put(table, key, []byte(joined))
}
