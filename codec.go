package attrspace

import "strings"

const (
	// fieldSep joins encoded components inside a composite key or a
	// multi-valued cell. It never survives inside an encoded component,
	// which is what makes splitting on it unambiguous.
	fieldSep = "///"

	// invalidToken is the reserved sentinel substituted for fieldSep
	// occurrences during encoding. Users may not embed it themselves.
	invalidToken = "VeRysTr4nGEsTr1Ngn0b0dYW1lLeVerW4NTt0Use4s1d0RKey"

	// ANY is the single-character wildcard recognized in queries and in
	// wildcard-erasing mutations.
	ANY = "*"

	// varSigil marks a query token as a unification variable.
	varSigil = '$'

	// literalQuote delimits a literal (non-reference) attribute value.
	literalQuote = '"'
)

// encode escapes s for storage: every occurrence of the field separator is
// replaced by the invalid token. Fails if s already contains the invalid
// token, since that would make the substitution irreversible.
func encode(op, s string) (string, error) {
	if strings.Contains(s, invalidToken) {
		return "", newErr(InvalidInput, op, s)
	}
	if !strings.Contains(s, fieldSep) {
		return s, nil
	}
	return strings.ReplaceAll(s, fieldSep, invalidToken), nil
}

// decode reverses encode.
func decode(s string) string {
	if !strings.Contains(s, invalidToken) {
		return s
	}
	return strings.ReplaceAll(s, invalidToken, fieldSep)
}

// isLiteral reports whether v is a quoted literal string value.
func isLiteral(v string) bool {
	return len(v) >= 2 && v[0] == literalQuote && v[len(v)-1] == literalQuote
}

// isVariable reports whether v is a query variable ($name), returning its
// bare name.
func isVariable(v string) (name string, ok bool) {
	if len(v) < 2 || v[0] != varSigil {
		return "", false
	}
	return v[1:], true
}

// isAny reports whether v is the wildcard token.
func isAny(v string) bool {
	return v == ANY
}

// joinTokens encodes and joins components with the field separator, failing
// if any component contains the invalid token.
func joinTokens(op string, tokens ...string) (string, error) {
	var bb bytesBuilder
	for i, t := range tokens {
		enc, err := encode(op, t)
		if err != nil {
			return "", err
		}
		if i > 0 {
			bb.Write([]byte(fieldSep))
		}
		bb.Write([]byte(enc))
	}
	return string(bb.Buf), nil
}

// splitTokens splits a composite key or multi-value cell back into decoded
// components. An empty string splits to a single empty component, matching
// the encoding of a zero-token cell being represented by key absence rather
// than an empty string; callers that need "no tokens" use cell absence.
func splitTokens(s string) []string {
	parts := strings.Split(s, fieldSep)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = decode(p)
	}
	return out
}
