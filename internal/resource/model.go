// Package resource builds the resource map: one descriptor per operation,
// with parameter validators grouped by location and the success response
// validator.
package resource

// Field is one named member of a location group.
type Field struct {
	Key  string
	Expr string
}

// Param is the validator for one transmission location. Exactly one of Ref
// (a whole-value expression, used for bodies) and Fields is set.
type Param struct {
	Location string
	Ref      string
	Fields   []Field
	Refs     []string
}

// Descriptor is the resource entry for one operation. It is built once and
// never modified.
type Descriptor struct {
	Key      string
	Path     string
	Method   string
	Params   []Param
	Response string // empty when the operation has no 200 schema
	Refs     []string
}

// Resources is the walked resource map in key insertion order together
// with the named schemas it references.
type Resources struct {
	Descriptors []Descriptor
	Used        []string
}

// Lookup returns the descriptor stored under key.
func (r *Resources) Lookup(key string) (Descriptor, bool) {
	for _, d := range r.Descriptors {
		if d.Key == key {
			return d, true
		}
	}
	return Descriptor{}, false
}

// refSet is an insertion-ordered set of identifiers.
type refSet struct {
	list []string
	seen map[string]bool
}

func (s *refSet) add(ids ...string) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	for _, id := range ids {
		if !s.seen[id] {
			s.seen[id] = true
			s.list = append(s.list, id)
		}
	}
}
