package spec

// Document model produced by Load and consumed by the generators.

// Dialect identifies which OpenAPI shape rules apply to a Document.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectSwagger2
	DialectOpenAPI3
)

func (d Dialect) String() string {
	switch d {
	case DialectSwagger2:
		return "swagger2"
	case DialectOpenAPI3:
		return "openapi3"
	default:
		return "unknown"
	}
}

// Location is where a parameter is transmitted.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
	InBody   Location = "body"
)

// Known reports whether l belongs to the closed set of supported locations.
func (l Location) Known() bool {
	switch l {
	case InPath, InQuery, InHeader, InBody:
		return true
	}
	return false
}

// NoName keys operations that carry no operationId.
const NoName = "noName"

type Document struct {
	Dialect Dialect
	Version string
	Title   string
	Schemas []NamedSchema // document order
	Paths   []PathItem    // document order
}

type NamedSchema struct {
	Name   string
	Schema *Schema
}

type PathItem struct {
	Path    string
	Entries []PathEntry
}

// PathEntry is one key of a path item. Entries that are not operations, or
// whose operation could not be decoded, carry Err and a nil Operation.
type PathEntry struct {
	Method    string
	Operation *Operation
	Err       error
}

type Operation struct {
	OperationID string
	Parameters  []Parameter
	Responses   []Response // document order
}

// Key is the resource key of the operation.
func (o *Operation) Key() string {
	if o.OperationID == "" {
		return NoName
	}
	return o.OperationID
}

// Response returns the response declared for status, if any.
func (o *Operation) Response(status string) (*Response, bool) {
	for i := range o.Responses {
		if o.Responses[i].Status == status {
			return &o.Responses[i], true
		}
	}
	return nil, false
}

type Parameter struct {
	In       Location
	Name     string
	Required bool
	Schema   *Schema // nil when the parameter declares no schema
}

type Response struct {
	Status string
	Schema *Schema
}

// Schema is an ordered JSON-Schema node. Shape decisions are made by Classify.
type Schema struct {
	Ref string

	Type  string
	Types []string // set instead of Type when the document lists several types

	Format      string
	Title       string
	Description string
	Example     any

	Enum       []any
	Const      any
	HasConst   bool
	Default    any
	HasDefault bool
	Nullable   bool

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	MinLength *int
	MaxLength *int
	Pattern   string

	Items    *Schema
	MinItems *int
	MaxItems *int

	Properties []Property
	Required   []string

	AdditionalProperties        *Schema
	AdditionalPropertiesAllowed *bool

	AllOf []*Schema
	AnyOf []*Schema
	OneOf []*Schema
}

type Property struct {
	Name   string
	Schema *Schema
}

// IsRequired reports whether name is listed in Required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// WithoutDocs returns a deep copy of s with presentation-only fields
// (description, title, example) removed at every level.
func (s *Schema) WithoutDocs() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Title = ""
	out.Description = ""
	out.Example = nil
	out.Types = append([]string(nil), s.Types...)
	out.Enum = append([]any(nil), s.Enum...)
	out.Required = append([]string(nil), s.Required...)
	out.Items = s.Items.WithoutDocs()
	out.AdditionalProperties = s.AdditionalProperties.WithoutDocs()
	if s.Properties != nil {
		out.Properties = make([]Property, len(s.Properties))
		for i, p := range s.Properties {
			out.Properties[i] = Property{Name: p.Name, Schema: p.Schema.WithoutDocs()}
		}
	}
	out.AllOf = withoutDocsList(s.AllOf)
	out.AnyOf = withoutDocsList(s.AnyOf)
	out.OneOf = withoutDocsList(s.OneOf)
	return &out
}

func withoutDocsList(in []*Schema) []*Schema {
	if in == nil {
		return nil
	}
	out := make([]*Schema, len(in))
	for i, s := range in {
		out[i] = s.WithoutDocs()
	}
	return out
}
