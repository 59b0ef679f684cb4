package spec

import "strings"

// Shape is the closed set of schema node shapes: Reference, ArrayOfReference
// or Inline. Values are only produced by Classify.
type Shape interface {
	shape()
}

// Reference is a node that only points at a named schema.
type Reference struct {
	Name string
}

// ArrayOfReference is an array whose items are a Reference.
type ArrayOfReference struct {
	Name string
}

// Inline is any other node; it is translated in place.
type Inline struct {
	Schema *Schema
}

func (Reference) shape()        {}
func (ArrayOfReference) shape() {}
func (Inline) shape()           {}

// Classify decides the shape of s. Keywords next to a $ref are ignored.
func Classify(s *Schema) Shape {
	if s == nil {
		return Inline{}
	}
	if s.Ref != "" {
		return Reference{Name: RefName(s.Ref)}
	}
	if s.Type == "array" && s.Items != nil && s.Items.Ref != "" {
		return ArrayOfReference{Name: RefName(s.Items.Ref)}
	}
	return Inline{Schema: s}
}

// RefName extracts the schema name from a reference pointer such as
// "#/definitions/Pet" or "#/components/schemas/Pet".
func RefName(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return unescapePointerToken(ref)
}

func unescapePointerToken(tok string) string {
	if !strings.Contains(tok, "~") {
		return tok
	}
	tok = strings.ReplaceAll(tok, "~1", "/")
	return strings.ReplaceAll(tok, "~0", "~")
}
