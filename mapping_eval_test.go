package attrspace

import "testing"

func TestCompliesMapped_SubstitutesSynonym(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	mustNil(t, ds.InsertEntity("alice"))
	mustNil(t, ds.InsertAttribute("alice", "role", Literal("admin")))

	original := AttrSet{{Name: "role", Value: `"admin"`}}
	synonyms := AttrSet{{Name: "role", Value: `"superuser"`}}
	mustNil(t, ds.InsertMapping("alice", original, synonyms))

	// The entity literally has role=admin, not role=superuser: the direct
	// evaluator must reject a query for the synonym, and the mapping-aware
	// one must accept it by resolving the synonym back to the original.
	direct, err := ds.Complies("alice", []*Condition{NewLeaf(ConstTerm("role"), ConstTerm(`"superuser"`))})
	if err != nil {
		t.Fatalf("Complies: %v", err)
	}
	if direct {
		t.Fatalf("expected direct compliance to fail")
	}

	mapped, err := ds.CompliesMapped("alice", []*Condition{NewLeaf(ConstTerm("role"), ConstTerm(`"superuser"`))})
	if err != nil {
		t.Fatalf("CompliesMapped: %v", err)
	}
	if !mapped {
		t.Fatalf("expected mapped compliance to succeed via the synonym")
	}
}

func TestCompliesMapped_GenericScopeFallback(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	mustNil(t, ds.InsertEntity("bob"))
	mustNil(t, ds.InsertAttribute("bob", "role", Literal("admin")))

	original := AttrSet{{Name: "role", Value: `"admin"`}}
	synonyms := AttrSet{{Name: "role", Value: `"superuser"`}}
	mustNil(t, ds.InsertMapping("", original, synonyms)) // generic/ANY scope

	mapped, err := ds.CompliesMapped("bob", []*Condition{NewLeaf(ConstTerm("role"), ConstTerm(`"superuser"`))})
	if err != nil {
		t.Fatalf("CompliesMapped: %v", err)
	}
	if !mapped {
		t.Fatalf("expected the generic mapping to apply to an unscoped entity")
	}
}

func TestSearch_UseMappingsSubstitutesSynonym(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	mustNil(t, ds.InsertEntity("alice"))
	mustNil(t, ds.InsertAttribute("alice", "role", Literal("admin")))

	original := AttrSet{{Name: "role", Value: `"admin"`}}
	synonyms := AttrSet{{Name: "role", Value: `"superuser"`}}
	mustNil(t, ds.InsertMapping("alice", original, synonyms))

	root := NewRoot(ConstTerm("alice"), NewLeaf(ConstTerm("role"), ConstTerm(`"superuser"`)))

	direct, err := ds.Search(root, SearchOptions{})
	if err != nil {
		t.Fatalf("Search (direct): %v", err)
	}
	if len(direct) != 0 {
		t.Fatalf("expected no direct matches, got %v", direct)
	}

	mapped, err := ds.Search(root, SearchOptions{UseMappings: true})
	if err != nil {
		t.Fatalf("Search (use_mappings): %v", err)
	}
	if len(mapped) != 1 || mapped[0].ID != "alice" {
		t.Fatalf("expected [alice] via the mapping, got %v", mapped)
	}
}

func TestSearch_UseMappingsAppliesThroughReferenceChild(t *testing.T) {
	ds := mustOpenMem(t, All)
	mustNil(t, ds.InsertEntity("alice"))
	mustNil(t, ds.InsertEntity("acme"))
	mustNil(t, ds.InsertAttribute("alice", "employer", Ref("acme")))
	mustNil(t, ds.InsertAttribute("acme", "role", Literal("admin")))

	original := AttrSet{{Name: "role", Value: `"admin"`}}
	synonyms := AttrSet{{Name: "role", Value: `"superuser"`}}
	mustNil(t, ds.InsertMapping("acme", original, synonyms))

	root := NewRoot(ConstTerm("alice"),
		NewLeaf(ConstTerm("employer"), VarTerm("emp"),
			NewLeaf(ConstTerm("role"), ConstTerm(`"superuser"`))))

	direct, err := ds.Search(root, SearchOptions{})
	if err != nil {
		t.Fatalf("Search (direct): %v", err)
	}
	if len(direct) != 0 {
		t.Fatalf("expected no direct matches, got %v", direct)
	}

	mapped, err := ds.Search(root, SearchOptions{UseMappings: true})
	if err != nil {
		t.Fatalf("Search (use_mappings): %v", err)
	}
	if len(mapped) != 1 || mapped[0].Bindings["emp"] != "acme" {
		t.Fatalf("expected emp=acme via the mapping applied to the reference child, got %v", mapped)
	}
}

func TestCompliesMapped_NoMappingFailsLikeDirect(t *testing.T) {
	ds := mustOpenMem(t, StoreOnly)
	mustNil(t, ds.InsertEntity("carol"))
	mustNil(t, ds.InsertAttribute("carol", "role", Literal("guest")))

	mapped, err := ds.CompliesMapped("carol", []*Condition{NewLeaf(ConstTerm("role"), ConstTerm(`"admin"`))})
	if err != nil {
		t.Fatalf("CompliesMapped: %v", err)
	}
	if mapped {
		t.Fatalf("expected no mapping to apply")
	}
}
