package attrspace

import "sort"

// This file is the Result Projector of spec.md §4.7: get_entity renders an
// entity and its outgoing attributes as a tree, following reference values
// into their target entities, breaking cycles with a visited set shared
// across the whole traversal (a first occurrence is expanded; any later
// occurrence of the same id, anywhere in the tree, is rendered id-only).

// AttrView is one rendered (name, value) pair of an EntityView.
type AttrView struct {
	Name  string
	Value string // the literal's unquoted text, or the referenced entity id
	IsRef bool
	Ref   *EntityView // non-nil only when IsRef and this is the value's first occurrence
}

// EntityView is one rendered entity, either fully expanded (Attributes
// populated) or a cycle-truncated id-only stub (Expanded false).
type EntityView struct {
	ID         string
	Expanded   bool
	Attributes []AttrView
}

const projectOp = "get_entity"

// GetEntity renders id and everything reachable from it through reference
// values.
func (ds *DataSpace) GetEntity(id string) (*EntityView, error) {
	var view *EntityView
	err := ds.read(func(f facade) error {
		visited := make(map[string]bool)
		v, err := ds.projectEntity(f, id, visited)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	return view, err
}

func (ds *DataSpace) projectEntity(f facade, id string, visited map[string]bool) (*EntityView, error) {
	if visited[id] {
		return &EntityView{ID: id, Expanded: false}, nil
	}

	key, err := storeEntityKey(projectOp, id)
	if err != nil {
		return nil, err
	}
	if f.get(tblStore, key) == nil {
		return nil, newErr(NoEntity, projectOp, id)
	}
	visited[id] = true

	names, err := ds.namesOwnedBy(f, projectOp, id)
	if err != nil {
		return nil, err
	}
	if ds.opt.SortProjection {
		sort.Strings(names)
	}

	var attrs []AttrView
	for _, name := range names {
		values, err := ds.valuesOf(f, projectOp, id, name)
		if err != nil {
			return nil, err
		}
		if ds.opt.SortProjection {
			sort.Strings(values)
		}
		for _, raw := range values {
			av, err := ds.projectAttr(f, name, raw, visited)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, av)
		}
	}
	return &EntityView{ID: id, Expanded: true, Attributes: attrs}, nil
}

func (ds *DataSpace) projectAttr(f facade, name, raw string, visited map[string]bool) (AttrView, error) {
	value := ParseAttrValue(raw)
	if value.IsLiteral() {
		return AttrView{Name: name, Value: value.Text(), IsRef: false}, nil
	}
	refID := value.EntityID()
	refView, err := ds.projectEntity(f, refID, visited)
	if err != nil {
		if k, ok := KindOf(err); ok && k == NoEntity {
			// A dangling reference (its target was deleted without going
			// through DeleteEntity's cascade, e.g. via RebuildIndexes on a
			// store mutated out of band) still renders as an id-only stub.
			return AttrView{Name: name, Value: refID, IsRef: true, Ref: &EntityView{ID: refID, Expanded: false}}, nil
		}
		return AttrView{}, err
	}
	return AttrView{Name: name, Value: refID, IsRef: true, Ref: refView}, nil
}
