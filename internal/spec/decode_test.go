package spec

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func decodeString(t *testing.T, src string) *Document {
	t.Helper()
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(src), &n); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	doc, err := Decode(&n)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func namedSchema(doc *Document, name string) (*Schema, bool) {
	for _, ns := range doc.Schemas {
		if ns.Name == name {
			return ns.Schema, true
		}
	}
	return nil, false
}

const v2Sample = `swagger: "2.0"
info: {title: Pets, version: "1"}
parameters:
  Limit:
    in: query
    name: limit
    type: integer
    minimum: 1
responses:
  NotFound:
    description: missing
definitions:
  Zebra:
    type: object
    required: [id]
    properties:
      id: {type: integer, format: int64}
      name: {type: string, description: "the name"}
  Apple:
    type: string
    enum: [red, green]
paths:
  /pets/{id}:
    x-internal: true
    parameters:
      - {in: path, name: id, required: true, type: string}
      - {in: header, name: X-Trace, type: string}
    get:
      operationId: getPet
      parameters:
        - {in: header, name: X-Trace, type: string, required: true}
        - $ref: '#/parameters/Limit'
      responses:
        "200":
          description: ok
          schema: {$ref: '#/definitions/Zebra'}
        "404":
          $ref: '#/responses/NotFound'
    post:
      parameters:
        - {in: body, name: body, schema: {$ref: '#/definitions/Zebra'}}
        - {in: formData, name: file, type: file}
      responses:
        200:
          description: ok
    summary: not an operation
    put: "oops"
`

func TestDecode_SchemasKeepDocumentOrder(t *testing.T) {
	t.Parallel()
	doc := decodeString(t, v2Sample)
	if doc.Dialect != DialectSwagger2 || doc.Title != "Pets" {
		t.Fatalf("unexpected header %+v", doc)
	}
	if len(doc.Schemas) != 2 || doc.Schemas[0].Name != "Zebra" || doc.Schemas[1].Name != "Apple" {
		t.Fatalf("expected Zebra, Apple in order, got %+v", doc.Schemas)
	}
	zebra := doc.Schemas[0].Schema
	if len(zebra.Properties) != 2 || zebra.Properties[0].Name != "id" || zebra.Properties[1].Name != "name" {
		t.Fatalf("expected ordered properties, got %+v", zebra.Properties)
	}
	if !zebra.IsRequired("id") || zebra.IsRequired("name") {
		t.Fatalf("unexpected required set %v", zebra.Required)
	}
	if zebra.Properties[1].Schema.Description != "the name" {
		t.Fatalf("description not decoded")
	}
	apple, ok := namedSchema(doc, "Apple")
	if !ok {
		t.Fatalf("Apple not decoded")
	}
	if len(apple.Enum) != 2 || apple.Enum[0] != "red" {
		t.Fatalf("unexpected enum %v", apple.Enum)
	}
}

func TestDecode_PathEntries(t *testing.T) {
	t.Parallel()
	doc := decodeString(t, v2Sample)
	entries := doc.Paths[0].Entries
	methods := map[string]PathEntry{}
	for _, e := range entries {
		methods[e.Method] = e
	}
	for _, key := range []string{"x-internal", "parameters", "summary"} {
		if !errors.Is(methods[key].Err, ErrNotOperation) {
			t.Fatalf("%s: expected ErrNotOperation, got %v", key, methods[key].Err)
		}
	}
	if !errors.Is(methods["put"].Err, ErrMalformedOperation) {
		t.Fatalf("expected malformed put, got %v", methods["put"].Err)
	}

	get := methods["get"].Operation
	if get == nil || get.Key() != "getPet" {
		t.Fatalf("expected getPet, got %+v", methods["get"])
	}
	// path-level id first, X-Trace overridden in place, then the resolved Limit ref.
	if len(get.Parameters) != 3 {
		t.Fatalf("expected 3 parameters, got %+v", get.Parameters)
	}
	if get.Parameters[0].Name != "id" || !get.Parameters[0].Required || get.Parameters[0].Schema.Type != "string" {
		t.Fatalf("unexpected id parameter %+v", get.Parameters[0])
	}
	if get.Parameters[1].Name != "X-Trace" || !get.Parameters[1].Required {
		t.Fatalf("expected operation-level X-Trace to win, got %+v", get.Parameters[1])
	}
	limit := get.Parameters[2]
	if limit.Name != "limit" || limit.In != InQuery || limit.Schema.Type != "integer" || *limit.Schema.Minimum != 1 {
		t.Fatalf("unexpected limit parameter %+v", limit)
	}
	if r, ok := get.Response("200"); !ok || r.Schema.Ref != "#/definitions/Zebra" {
		t.Fatalf("unexpected 200 response %+v", r)
	}
	if r, ok := get.Response("404"); !ok || r.Schema != nil {
		t.Fatalf("expected resolved 404 without schema, got %+v", r)
	}

	post := methods["post"].Operation
	if post.Key() != NoName {
		t.Fatalf("expected noName key, got %q", post.Key())
	}
	if post.Parameters[2].In != InBody || post.Parameters[3].In != Location("formData") {
		t.Fatalf("unexpected post parameters %+v", post.Parameters)
	}
	if _, ok := post.Response("200"); !ok {
		t.Fatalf("integer status key should decode as \"200\"")
	}
}

func TestDecode_OpenAPI3(t *testing.T) {
	t.Parallel()
	doc := decodeString(t, `openapi: 3.0.3
info: {title: Pets, version: "1"}
components:
  schemas:
    Pet:
      type: object
      properties:
        tag: {type: string, nullable: true}
  requestBodies:
    PetBody:
      required: true
      content:
        text/plain: {schema: {type: string}}
        application/json: {schema: {$ref: '#/components/schemas/Pet'}}
paths:
  /pets:
    post:
      operationId: addPet
      parameters:
        - in: cookie
          name: session
          schema: {type: string}
      requestBody: {$ref: '#/components/requestBodies/PetBody'}
      responses:
        "200":
          description: ok
          content:
            application/problem+json: {schema: {type: string}}
            application/vnd.pets+json:
              schema:
                type: array
                items: {$ref: '#/components/schemas/Pet'}
`)
	if doc.Dialect != DialectOpenAPI3 || len(doc.Schemas) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !doc.Schemas[0].Schema.Properties[0].Schema.Nullable {
		t.Fatalf("nullable not decoded")
	}
	op := doc.Paths[0].Entries[0].Operation
	if len(op.Parameters) != 2 {
		t.Fatalf("expected cookie + body parameters, got %+v", op.Parameters)
	}
	body := op.Parameters[1]
	if body.In != InBody || body.Name != "body" || !body.Required || body.Schema.Ref != "#/components/schemas/Pet" {
		t.Fatalf("unexpected body %+v", body)
	}
	r, _ := op.Response("200")
	if r.Schema.Type != "string" {
		t.Fatalf("expected first json media type, got %+v", r.Schema)
	}
}

func TestDecode_SchemaKeywords(t *testing.T) {
	t.Parallel()
	var n yaml.Node
	src := `
type: [string, "null"]
minLength: 2
maxLength: 5
pattern: '^a'
default: abc
exclusiveMinimum: 3
additionalProperties: false
allOf: [{type: object}, {$ref: '#/definitions/A'}]
`
	if err := yaml.Unmarshal([]byte(src), &n); err != nil {
		t.Fatal(err)
	}
	s, err := decodeSchema(&n)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(s.Types) != 2 || s.Type != "" {
		t.Fatalf("expected type list, got %q %v", s.Type, s.Types)
	}
	if *s.MinLength != 2 || *s.MaxLength != 5 || s.Pattern != "^a" {
		t.Fatalf("string constraints lost: %+v", s)
	}
	if !s.HasDefault || s.Default != "abc" {
		t.Fatalf("default lost: %+v", s)
	}
	if !s.ExclusiveMinimum || *s.Minimum != 3 {
		t.Fatalf("numeric exclusiveMinimum not folded: %+v", s)
	}
	if s.AdditionalPropertiesAllowed == nil || *s.AdditionalPropertiesAllowed {
		t.Fatalf("additionalProperties false lost")
	}
	if len(s.AllOf) != 2 || s.AllOf[1].Ref != "#/definitions/A" {
		t.Fatalf("allOf lost: %+v", s.AllOf)
	}
}

func TestDecode_RejectsUnknownDialect(t *testing.T) {
	t.Parallel()
	var n yaml.Node
	_ = yaml.Unmarshal([]byte("info: {title: x}\n"), &n)
	if _, err := Decode(&n); !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
}
