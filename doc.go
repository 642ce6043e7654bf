/*
Package attrspace implements an embedded entity/attribute data space on top
of an ordered key-value store (Bolt, or an in-memory store for tests).

We implement:

1. Entities, opaque string ids owning a multiset of (name, value) attributes,
where a value is either a quoted literal or a bare reference to another
entity.

2. Mappings, per-entity or generic synonymy declarations letting one set of
attribute pairs stand in for another during a query.

3. Tree-structured pattern queries over the attribute graph, with constants,
wildcards, and unification variables, and cycle-safe result projection.

# Technical Details

**Tables.**
The store is organized as six flat namespaces (buckets): STORE, MAPS, and up
to five auxiliary indexes (IDX1, IDX2, K_IDX, V_IDX, ID_IDX) whose presence
is controlled by the configured index profile. Every namespace is derivable
from STORE and MAPS; the rest are pure accelerants.

**Key encoding.**
Composite keys are built by escaping each user string through the Key Codec
and joining the escaped components with a reserved field separator. Because
the separator never survives escaping inside a component, splitting a
composite key or a multi-valued cell back into components is unambiguous.

**Multi-valued cells.**
A cell holding more than one token (attribute values under a name, entity
ids under an index key) stores those tokens joined by the same separator.
The Store Facade's value_contains/add_to_value/remove_from_value helpers are
the only code that manipulates such cells directly.

**Mappings.**
A mapping's key is `scope S serialize(original)`; its value is a
separator-joined list of `serialize(synonym)` strings. serialize is a
deterministic msgpack encoding of a sorted (name,value) slice.
*/
package attrspace
