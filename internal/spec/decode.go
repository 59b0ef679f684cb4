package spec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode builds a Document from a parsed (and bundled) document tree.
// Entries that do not look like operations are kept with an error attached
// so callers can report and skip them; structural problems at the document
// level are returned as errors.
func Decode(root *yaml.Node) (*Document, error) {
	root = deref(root)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, errors.New("decode: document root is not a mapping")
	}
	dialect, version := detectDialect(root)
	if dialect == DialectUnknown {
		return nil, ErrUnsupportedDialect
	}
	d := &decoder{root: root, dialect: dialect}
	doc := &Document{Dialect: dialect, Version: version}
	if info := mapGet(root, "info"); info != nil {
		doc.Title = strings.TrimSpace(scalarString(mapGet(info, "title")))
	}

	schemas, err := d.namedSchemas()
	if err != nil {
		return nil, err
	}
	doc.Schemas = schemas

	paths := mapGet(root, "paths")
	if paths == nil {
		return doc, nil
	}
	if paths.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode: paths at line %d is not a mapping", paths.Line)
	}
	forEachPair(paths, func(key string, value *yaml.Node) {
		doc.Paths = append(doc.Paths, d.pathItem(key, value))
	})
	return doc, nil
}

type decoder struct {
	root    *yaml.Node
	dialect Dialect
}

// httpMethods are the path item keys that hold operations.
var httpMethods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true,
	"patch": true, "head": true, "options": true, "trace": true,
}

func (d *decoder) namedSchemas() ([]NamedSchema, error) {
	var defs *yaml.Node
	switch d.dialect {
	case DialectSwagger2:
		defs = mapGet(d.root, "definitions")
	case DialectOpenAPI3:
		defs = mapGet(mapGet(d.root, "components"), "schemas")
	}
	if defs == nil {
		return nil, nil
	}
	if defs.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode: schema definitions at line %d are not a mapping", defs.Line)
	}
	var out []NamedSchema
	var firstErr error
	forEachPair(defs, func(name string, value *yaml.Node) {
		if firstErr != nil {
			return
		}
		s, err := decodeSchema(value)
		if err != nil {
			firstErr = fmt.Errorf("decode schema %q: %w", name, err)
			return
		}
		out = append(out, NamedSchema{Name: name, Schema: s})
	})
	return out, firstErr
}

func (d *decoder) pathItem(path string, node *yaml.Node) PathItem {
	item := PathItem{Path: path}
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		item.Entries = append(item.Entries, PathEntry{Err: fmt.Errorf("%w: path item is not a mapping", ErrMalformedOperation)})
		return item
	}
	shared, sharedErr := d.parameterList(mapGet(node, "parameters"))
	forEachPair(node, func(key string, value *yaml.Node) {
		if !httpMethods[strings.ToLower(key)] {
			item.Entries = append(item.Entries, PathEntry{Method: key, Err: ErrNotOperation})
			return
		}
		if sharedErr != nil {
			item.Entries = append(item.Entries, PathEntry{Method: key, Err: sharedErr})
			return
		}
		op, err := d.operation(value, shared)
		item.Entries = append(item.Entries, PathEntry{Method: key, Operation: op, Err: err})
	})
	return item
}

func (d *decoder) operation(node *yaml.Node, shared []Parameter) (*Operation, error) {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: operation is not a mapping", ErrMalformedOperation)
	}
	op := &Operation{OperationID: strings.TrimSpace(scalarString(mapGet(node, "operationId")))}

	own, err := d.parameterList(mapGet(node, "parameters"))
	if err != nil {
		return nil, err
	}
	op.Parameters = mergeParameters(shared, own)

	if d.dialect == DialectOpenAPI3 {
		if rb := mapGet(node, "requestBody"); rb != nil {
			body, err := d.requestBody(rb)
			if err != nil {
				return nil, err
			}
			if body != nil {
				op.Parameters = append(op.Parameters, *body)
			}
		}
	}

	if responses := mapGet(node, "responses"); responses != nil {
		if responses.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: responses at line %d is not a mapping", ErrMalformedOperation, responses.Line)
		}
		var rerr error
		forEachPair(responses, func(status string, value *yaml.Node) {
			if rerr != nil {
				return
			}
			r, err := d.response(status, value)
			if err != nil {
				rerr = err
				return
			}
			op.Responses = append(op.Responses, r)
		})
		if rerr != nil {
			return nil, rerr
		}
	}
	return op, nil
}

func (d *decoder) parameterList(node *yaml.Node) ([]Parameter, error) {
	node = deref(node)
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: parameters at line %d is not a list", ErrMalformedOperation, node.Line)
	}
	out := make([]Parameter, 0, len(node.Content))
	for _, item := range node.Content {
		p, err := d.parameter(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// parameterFields are Swagger 2 parameter keys that are not schema keywords.
var parameterFields = map[string]bool{
	"in": true, "name": true, "required": true, "description": true,
	"collectionFormat": true, "allowEmptyValue": true, "schema": true,
	"style": true, "explode": true, "allowReserved": true, "deprecated": true,
	"content": true, "example": true, "examples": true,
}

func (d *decoder) parameter(node *yaml.Node) (Parameter, error) {
	node, err := d.follow(node, "parameters")
	if err != nil {
		return Parameter{}, err
	}
	if node.Kind != yaml.MappingNode {
		return Parameter{}, fmt.Errorf("%w: parameter at line %d is not a mapping", ErrMalformedOperation, node.Line)
	}
	p := Parameter{
		In:       Location(strings.TrimSpace(scalarString(mapGet(node, "in")))),
		Name:     strings.TrimSpace(scalarString(mapGet(node, "name"))),
		Required: scalarBool(mapGet(node, "required")),
	}

	var schemaNode *yaml.Node
	switch {
	case mapGet(node, "schema") != nil:
		schemaNode = mapGet(node, "schema")
	case d.dialect == DialectOpenAPI3 && mapGet(node, "content") != nil:
		schemaNode = mapGet(pickMedia(mapGet(node, "content")), "schema")
	case d.dialect == DialectSwagger2 && p.In != InBody:
		// Swagger 2 non-body parameters carry their type keywords inline.
		synthetic := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		forEachPair(node, func(key string, value *yaml.Node) {
			if parameterFields[key] || strings.HasPrefix(key, "x-") && key != "x-nullable" {
				return
			}
			synthetic.Content = append(synthetic.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
		})
		schemaNode = synthetic
	}
	if schemaNode != nil {
		s, err := decodeSchema(schemaNode)
		if err != nil {
			return Parameter{}, fmt.Errorf("%w: parameter %q: %v", ErrMalformedOperation, p.Name, err)
		}
		p.Schema = s
	}
	return p, nil
}

func (d *decoder) requestBody(node *yaml.Node) (*Parameter, error) {
	node, err := d.follow(node, "requestBodies")
	if err != nil {
		return nil, err
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: requestBody at line %d is not a mapping", ErrMalformedOperation, node.Line)
	}
	p := &Parameter{In: InBody, Name: "body", Required: scalarBool(mapGet(node, "required"))}
	if sn := mapGet(pickMedia(mapGet(node, "content")), "schema"); sn != nil {
		s, err := decodeSchema(sn)
		if err != nil {
			return nil, fmt.Errorf("%w: requestBody: %v", ErrMalformedOperation, err)
		}
		p.Schema = s
	}
	return p, nil
}

func (d *decoder) response(status string, node *yaml.Node) (Response, error) {
	node, err := d.follow(node, "responses")
	if err != nil {
		return Response{}, err
	}
	r := Response{Status: status}
	if node.Kind != yaml.MappingNode {
		return r, fmt.Errorf("%w: response %s at line %d is not a mapping", ErrMalformedOperation, status, node.Line)
	}
	var sn *yaml.Node
	if d.dialect == DialectOpenAPI3 {
		sn = mapGet(pickMedia(mapGet(node, "content")), "schema")
	} else {
		sn = mapGet(node, "schema")
	}
	if sn != nil {
		s, err := decodeSchema(sn)
		if err != nil {
			return r, fmt.Errorf("%w: response %s: %v", ErrMalformedOperation, status, err)
		}
		r.Schema = s
	}
	return r, nil
}

// follow resolves an in-document reference to a reusable component of the
// given kind ("parameters", "responses", "requestBodies") by name lookup.
func (d *decoder) follow(node *yaml.Node, kind string) (*yaml.Node, error) {
	node = deref(node)
	if node == nil {
		return nil, fmt.Errorf("%w: empty %s entry", ErrMalformedOperation, kind)
	}
	ref := scalarString(mapGet(node, "$ref"))
	if ref == "" {
		return node, nil
	}
	var section *yaml.Node
	if d.dialect == DialectOpenAPI3 {
		section = mapGet(mapGet(d.root, "components"), kind)
	} else {
		section = mapGet(d.root, kind)
	}
	target := deref(mapGet(section, RefName(ref)))
	if target == nil {
		return nil, fmt.Errorf("%w: unresolved reference %q", ErrMalformedOperation, ref)
	}
	return target, nil
}

func mergeParameters(shared, own []Parameter) []Parameter {
	if len(shared) == 0 {
		return own
	}
	out := append([]Parameter(nil), shared...)
	for _, p := range own {
		replaced := false
		for i := range out {
			if out[i].In == p.In && out[i].Name == p.Name {
				out[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

// pickMedia prefers application/json, then any JSON media type, then the first entry.
func pickMedia(content *yaml.Node) *yaml.Node {
	content = deref(content)
	if content == nil || content.Kind != yaml.MappingNode || len(content.Content) < 2 {
		return nil
	}
	var jsonish, first *yaml.Node
	for i := 0; i+1 < len(content.Content); i += 2 {
		mime := strings.ToLower(content.Content[i].Value)
		value := content.Content[i+1]
		if first == nil {
			first = value
		}
		if mime == "application/json" {
			return value
		}
		if jsonish == nil && strings.Contains(mime, "json") {
			jsonish = value
		}
	}
	if jsonish != nil {
		return jsonish
	}
	return first
}

func decodeSchema(node *yaml.Node) (*Schema, error) {
	node = deref(node)
	if node == nil {
		return nil, errors.New("empty schema")
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!bool" {
		if node.Value == "true" {
			return &Schema{}, nil
		}
		return nil, fmt.Errorf("line %d: false schema is not supported", node.Line)
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: schema is not a mapping", node.Line)
	}
	s := &Schema{}
	var firstErr error
	fail := func(key string, err error) {
		if firstErr == nil {
			firstErr = fmt.Errorf("line %d: %s: %w", node.Line, key, err)
		}
	}
	forEachPair(node, func(key string, v *yaml.Node) {
		v = deref(v)
		switch key {
		case "$ref":
			s.Ref = scalarString(v)
		case "type":
			if v.Kind == yaml.SequenceNode {
				for _, t := range v.Content {
					s.Types = append(s.Types, scalarString(t))
				}
				if len(s.Types) == 1 {
					s.Type, s.Types = s.Types[0], nil
				}
			} else {
				s.Type = scalarString(v)
			}
		case "format":
			s.Format = scalarString(v)
		case "title":
			s.Title = scalarString(v)
		case "description":
			s.Description = scalarString(v)
		case "pattern":
			s.Pattern = scalarString(v)
		case "example":
			s.Example = decodeValue(v)
		case "enum":
			if v.Kind != yaml.SequenceNode {
				fail(key, errors.New("expected a list"))
				return
			}
			for _, e := range v.Content {
				s.Enum = append(s.Enum, decodeValue(e))
			}
		case "const":
			s.Const, s.HasConst = decodeValue(v), true
		case "default":
			s.Default, s.HasDefault = decodeValue(v), true
		case "nullable", "x-nullable":
			s.Nullable = s.Nullable || scalarBool(v)
		case "minimum":
			s.Minimum = scalarFloat(v)
		case "maximum":
			s.Maximum = scalarFloat(v)
		case "multipleOf":
			s.MultipleOf = scalarFloat(v)
		case "exclusiveMinimum":
			if v.Tag == "!!bool" {
				s.ExclusiveMinimum = scalarBool(v)
			} else if f := scalarFloat(v); f != nil {
				s.Minimum, s.ExclusiveMinimum = f, true
			}
		case "exclusiveMaximum":
			if v.Tag == "!!bool" {
				s.ExclusiveMaximum = scalarBool(v)
			} else if f := scalarFloat(v); f != nil {
				s.Maximum, s.ExclusiveMaximum = f, true
			}
		case "minLength":
			s.MinLength = scalarInt(v)
		case "maxLength":
			s.MaxLength = scalarInt(v)
		case "minItems":
			s.MinItems = scalarInt(v)
		case "maxItems":
			s.MaxItems = scalarInt(v)
		case "items":
			if v.Kind == yaml.SequenceNode {
				if len(v.Content) != 1 {
					return
				}
				v = v.Content[0]
			}
			items, err := decodeSchema(v)
			if err != nil {
				fail(key, err)
				return
			}
			s.Items = items
		case "properties":
			if v.Kind != yaml.MappingNode {
				fail(key, errors.New("expected a mapping"))
				return
			}
			s.Properties = []Property{}
			forEachPair(v, func(name string, pv *yaml.Node) {
				ps, err := decodeSchema(pv)
				if err != nil {
					fail(key+"."+name, err)
					return
				}
				s.Properties = append(s.Properties, Property{Name: name, Schema: ps})
			})
		case "required":
			if v.Kind == yaml.SequenceNode {
				for _, r := range v.Content {
					s.Required = append(s.Required, scalarString(r))
				}
			}
		case "additionalProperties":
			if v.Kind == yaml.ScalarNode {
				allowed := scalarBool(v)
				s.AdditionalPropertiesAllowed = &allowed
				return
			}
			ap, err := decodeSchema(v)
			if err != nil {
				fail(key, err)
				return
			}
			s.AdditionalProperties = ap
		case "allOf", "anyOf", "oneOf":
			if v.Kind != yaml.SequenceNode {
				fail(key, errors.New("expected a list"))
				return
			}
			list := make([]*Schema, 0, len(v.Content))
			for _, item := range v.Content {
				c, err := decodeSchema(item)
				if err != nil {
					fail(key, err)
					return
				}
				list = append(list, c)
			}
			switch key {
			case "allOf":
				s.AllOf = list
			case "anyOf":
				s.AnyOf = list
			default:
				s.OneOf = list
			}
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return s, nil
}

// detectDialect returns the dialect from the root "swagger"/"openapi" key.
func detectDialect(root *yaml.Node) (Dialect, string) {
	if v := strings.TrimSpace(scalarString(mapGet(root, "openapi"))); strings.HasPrefix(v, "3.") {
		return DialectOpenAPI3, v
	}
	if v := strings.TrimSpace(scalarString(mapGet(root, "swagger"))); strings.HasPrefix(v, "2.") {
		return DialectSwagger2, v
	}
	return DialectUnknown, ""
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func mapGet(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}
	return nil
}

func forEachPair(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, n.Content[i+1])
	}
}

func scalarString(n *yaml.Node) string {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func scalarBool(n *yaml.Node) bool {
	b, _ := strconv.ParseBool(strings.ToLower(scalarString(n)))
	return b
}

func scalarFloat(n *yaml.Node) *float64 {
	f, err := strconv.ParseFloat(scalarString(n), 64)
	if err != nil {
		return nil
	}
	return &f
}

func scalarInt(n *yaml.Node) *int {
	f := scalarFloat(n)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

// decodeValue decodes a literal (enum member, default, example) into plain
// JSON-compatible Go values.
func decodeValue(n *yaml.Node) any {
	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return jsonCompatible(v)
}

// jsonCompatible converts YAML mappings with non-string keys into
// map[string]any so the value can be marshaled as JSON.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = jsonCompatible(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = jsonCompatible(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = jsonCompatible(e)
		}
		return t
	default:
		return v
	}
}
