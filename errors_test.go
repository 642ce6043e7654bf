package attrspace

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	e := newErr(NoEntity, "delete_entity", "bob")
	if got, want := e.Error(), "delete_entity: NoEntity bob"; got != want {
		t.Fatalf("Error() = %q, wanted %q", got, want)
	}

	wrapped := newErrf(StoreOpen, "open", "", fmt.Errorf("disk full"))
	if got, want := wrapped.Error(), "open: StoreOpen: disk full"; got != want {
		t.Fatalf("Error() = %q, wanted %q", got, want)
	}
}

func TestError_IsMatchesByKind(t *testing.T) {
	e := newErr(NoAttribute, "delete_attribute", "k")
	if !errors.Is(e, ErrNoAttribute) {
		t.Fatalf("errors.Is(e, ErrNoAttribute) = false, wanted true")
	}
	if errors.Is(e, ErrNoEntity) {
		t.Fatalf("errors.Is(e, ErrNoEntity) = true, wanted false")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	e := newErrf(StoreOpen, "open", "", cause)
	if !errors.Is(e, cause) {
		t.Fatalf("errors.Is(e, cause) = false, wanted true")
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(newErr(EntityExists, "insert_entity", "x"))
	if !ok || kind != EntityExists {
		t.Fatalf("KindOf = (%v, %v), wanted (EntityExists, true)", kind, ok)
	}
	if _, ok := KindOf(fmt.Errorf("plain")); ok {
		t.Fatalf("KindOf(plain error) ok = true, wanted false")
	}
}

func TestErrorKind_String(t *testing.T) {
	cases := map[ErrorKind]string{
		InvalidInput:    "InvalidInput",
		EntityExists:    "EntityExists",
		NoEntity:        "NoEntity",
		AttributeExists: "AttributeExists",
		NoAttribute:     "NoAttribute",
		MappingExists:   "MappingExists",
		NoMapping:       "NoMapping",
		StoreOpen:       "StoreOpen",
		ErrorKind(99):   "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("ErrorKind(%d).String() = %q, wanted %q", kind, got, want)
		}
	}
}
