package attrspace

// AttrValue is the tagged sum of spec.md's design notes: an attribute value
// is either a quoted literal string or a bare reference to another entity.
// The storage representation of both is the same raw token (the literal
// including its quotes, the reference as the bare id); Literal/Ref/String
// exist so evaluator code never has to re-inspect the leading/trailing
// quote itself.
type AttrValue struct {
	raw     string
	isLit   bool
	litText string // raw with surrounding quotes stripped, valid only if isLit
}

// Literal builds a quoted-literal attribute value from its unquoted text.
func Literal(text string) AttrValue {
	return AttrValue{raw: `"` + text + `"`, isLit: true, litText: text}
}

// Ref builds a reference attribute value pointing at entity id.
func Ref(id string) AttrValue {
	return AttrValue{raw: id, isLit: false}
}

// ParseAttrValue interprets the wire form (spec.md §6: `"..."` for a
// literal, a bare token for a reference) into an AttrValue.
func ParseAttrValue(raw string) AttrValue {
	if isLiteral(raw) {
		return AttrValue{raw: raw, isLit: true, litText: raw[1 : len(raw)-1]}
	}
	return AttrValue{raw: raw, isLit: false}
}

// IsLiteral reports whether v is a literal string rather than a reference.
func (v AttrValue) IsLiteral() bool { return v.isLit }

// Text returns the literal's unquoted text. Only meaningful if IsLiteral.
func (v AttrValue) Text() string { return v.litText }

// EntityID returns the referenced entity id. Only meaningful if !IsLiteral.
func (v AttrValue) EntityID() string { return v.raw }

// String returns the wire form: quoted text for a literal, bare id for a
// reference.
func (v AttrValue) String() string { return v.raw }
