package spec

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestBundle_CircularInlineRef(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeSpec(t, dir, "a.yaml", `
node:
  type: object
  properties:
    next: {$ref: 'b.yaml#/node'}
`)
	writeSpec(t, dir, "b.yaml", `
node:
  type: object
  properties:
    prev: {$ref: 'a.yaml#/node'}
`)
	root := writeSpec(t, dir, "swagger.yaml", `
swagger: "2.0"
info: {title: t, version: "1"}
paths:
  /n:
    get:
      responses:
        "200":
          description: ok
          schema: {$ref: 'a.yaml#/node'}
`)
	_, err := Load(context.Background(), root, WithValidation(ValidateOff))
	var se *SpecError
	if !errors.As(err, &se) || !strings.Contains(se.Message, "circular external reference") {
		t.Fatalf("expected circular reference error, got %v", err)
	}
}

func TestBundle_SelfReferencingExternalSchemaTerminates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeSpec(t, dir, "tree.yaml", `
components:
  schemas:
    Tree:
      type: object
      properties:
        children:
          type: array
          items: {$ref: '#/components/schemas/Tree'}
`)
	root := writeSpec(t, dir, "openapi.yaml", `
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Forest:
      type: array
      items: {$ref: 'tree.yaml#/components/schemas/Tree'}
`)
	doc, err := Load(context.Background(), root, WithValidation(ValidateOff))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tree, ok := namedSchema(doc, "Tree")
	if !ok {
		t.Fatalf("expected hoisted Tree, got %+v", doc.Schemas)
	}
	if got := tree.Properties[0].Schema.Items.Ref; got != "#/components/schemas/Tree" {
		t.Fatalf("expected local self ref, got %q", got)
	}
}

func TestPointer(t *testing.T) {
	t.Parallel()
	var n yaml.Node
	if err := yaml.Unmarshal([]byte("a:\n  b~c:\n    - x\n    - y\n  d/e: z\n"), &n); err != nil {
		t.Fatal(err)
	}
	if got, err := pointer(&n, "/a/b~0c/1"); err != nil || got.Value != "y" {
		t.Fatalf("unexpected %v %v", got, err)
	}
	if got, err := pointer(&n, "/a/d~1e"); err != nil || got.Value != "z" {
		t.Fatalf("unexpected %v %v", got, err)
	}
	if _, err := pointer(&n, "/a/missing"); err == nil {
		t.Fatalf("expected error for missing token")
	}
}
