package attrspace

import "testing"

func TestGetEntity_ExpandsReferencesRecursively(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	seedPeople(t, ds)

	view, err := ds.GetEntity("alice")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if !view.Expanded || view.ID != "alice" {
		t.Fatalf("expected alice expanded, got %+v", view)
	}
	var employer *AttrView
	for i := range view.Attributes {
		if view.Attributes[i].Name == "employer" {
			employer = &view.Attributes[i]
		}
	}
	if employer == nil || !employer.IsRef || employer.Ref == nil {
		t.Fatalf("expected an expanded employer reference, got %+v", employer)
	}
	if !employer.Ref.Expanded || employer.Ref.ID != "acme" {
		t.Fatalf("expected acme expanded via the reference, got %+v", employer.Ref)
	}
}

func TestGetEntity_BreaksCycles(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	mustNil(t, ds.InsertEntity("a"))
	mustNil(t, ds.InsertEntity("b"))
	mustNil(t, ds.InsertAttribute("a", "friend", Ref("b")))
	mustNil(t, ds.InsertAttribute("b", "friend", Ref("a")))

	view, err := ds.GetEntity("a")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if !view.Expanded {
		t.Fatalf("expected the root occurrence of a to be expanded")
	}
	b := view.Attributes[0].Ref
	if b == nil || !b.Expanded || b.ID != "b" {
		t.Fatalf("expected b expanded on first occurrence, got %+v", b)
	}
	backToA := b.Attributes[0].Ref
	if backToA == nil || backToA.Expanded {
		t.Fatalf("expected the second occurrence of a to be an unexpanded stub, got %+v", backToA)
	}
	if backToA.ID != "a" {
		t.Fatalf("expected stub id \"a\", got %q", backToA.ID)
	}
}

func TestGetEntity_LiteralValues(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	seedPeople(t, ds)
	view, err := ds.GetEntity("acme")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if len(view.Attributes) != 1 || view.Attributes[0].IsRef {
		t.Fatalf("expected one literal attribute, got %+v", view.Attributes)
	}
	if view.Attributes[0].Value != "Acme Corp" {
		t.Fatalf("expected unquoted literal text, got %q", view.Attributes[0].Value)
	}
}

func TestGetEntity_UnknownEntityFails(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	_, err := ds.GetEntity("ghost")
	if k, ok := KindOf(err); !ok || k != NoEntity {
		t.Fatalf("expected NoEntity, got %v", err)
	}
}
