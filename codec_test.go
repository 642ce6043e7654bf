package attrspace

import (
	"errors"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain",
		"has///separator",
		"has///multiple///separators///in///it",
		`"a quoted literal"`,
	}
	for _, s := range cases {
		enc, err := encode("test", s)
		if err != nil {
			t.Fatalf("encode(%q) error: %v", s, err)
		}
		got := decode(enc)
		if got != s {
			t.Fatalf("decode(encode(%q)) = %q, wanted %q", s, got, s)
		}
	}
}

func TestEncode_RejectsInvalidToken(t *testing.T) {
	_, err := encode("test", "contains"+invalidToken+"sentinel")
	if err == nil {
		t.Fatalf("encode with sentinel: err = nil, wanted InvalidInput")
	}
	kind, ok := KindOf(err)
	if !ok || kind != InvalidInput {
		t.Fatalf("KindOf(err) = (%v, %v), wanted (InvalidInput, true)", kind, ok)
	}
}

func TestIsLiteral(t *testing.T) {
	cases := map[string]bool{
		`"hi"`: true,
		`""`:   true,
		`"`:    false,
		`hi`:   false,
		`"hi`:  false,
	}
	for v, want := range cases {
		if got := isLiteral(v); got != want {
			t.Fatalf("isLiteral(%q) = %v, wanted %v", v, got, want)
		}
	}
}

func TestIsVariable(t *testing.T) {
	name, ok := isVariable("$x")
	if !ok || name != "x" {
		t.Fatalf("isVariable($x) = (%q, %v), wanted (x, true)", name, ok)
	}
	if _, ok := isVariable("x"); ok {
		t.Fatalf("isVariable(x) ok = true, wanted false")
	}
	if _, ok := isVariable("$"); ok {
		t.Fatalf("isVariable($) ok = true, wanted false")
	}
}

func TestIsAny(t *testing.T) {
	if !isAny("*") {
		t.Fatalf("isAny(*) = false, wanted true")
	}
	if isAny("**") {
		t.Fatalf("isAny(**) = true, wanted false")
	}
}

func TestJoinSplitTokens_RoundTrip(t *testing.T) {
	joined, err := joinTokens("test", "alice", "likes", `"pie"`)
	if err != nil {
		t.Fatalf("joinTokens error: %v", err)
	}
	got := splitTokens(joined)
	want := []string{"alice", "likes", `"pie"`}
	if len(got) != len(want) {
		t.Fatalf("splitTokens = %v, wanted %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitTokens[%d] = %q, wanted %q", i, got[i], want[i])
		}
	}
}

func TestJoinTokens_EscapesSeparatorUnambiguously(t *testing.T) {
	joined, err := joinTokens("test", "a///b", "c")
	if err != nil {
		t.Fatalf("joinTokens error: %v", err)
	}
	got := splitTokens(joined)
	if len(got) != 2 || got[0] != "a///b" || got[1] != "c" {
		t.Fatalf("splitTokens = %v, wanted [a///b c]", got)
	}
}

func TestJoinTokens_PropagatesInvalidInput(t *testing.T) {
	_, err := joinTokens("test", "ok", invalidToken)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("joinTokens with sentinel: err = %v, wanted InvalidInput", err)
	}
}
