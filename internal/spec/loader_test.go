package spec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeSpec(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, err := Load(ctx, "file:///etc/hosts")
	if err == nil {
		t.Fatalf("expected error for file:// URL")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != InputError {
		t.Fatalf("expected InputError, got %v", se.Code)
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, err := Load(ctx, "ftp://example.com/spec.yaml")
	if err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	url := "http://127.0.0.1:1/spec.yaml"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	if err == nil {
		t.Fatalf("expected network error")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
}

func TestLoad_RetriesTransientHTTPErrors(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("swagger: \"2.0\"\ninfo: {title: t, version: \"1\"}\npaths: {}\n"))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/swagger.yaml", WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Dialect != DialectSwagger2 {
		t.Fatalf("expected swagger2 dialect, got %v", doc.Dialect)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestLoad_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/missing.yaml", WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestLoad_UnsupportedDialect(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, t.TempDir(), "asyncapi.yaml", `
asyncapi: 2.6.0
info: {title: Events, version: "1"}
`)
	_, err := Load(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != UnsupportedDialect {
		t.Fatalf("expected UnsupportedDialect code, got %v", err)
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, t.TempDir(), "broken.yaml", "swagger: \"2.0\"\npaths: [unclosed\n")
	_, err := Load(context.Background(), path)
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestLoad_V3_InvalidSpec_Strict(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, t.TempDir(), "bad.yaml", `
openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`)
	_, err := Load(context.Background(), path, WithValidation(ValidateStrict))
	if err == nil {
		t.Fatalf("expected validation error for incomplete responses")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ValidationError && se.Code != ParseError { // parser version differences
		t.Fatalf("expected ValidationError/ParseError, got %v", se.Code)
	}
	if se.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

func TestLoad_V3_InvalidSpec_WarnProceeds(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, t.TempDir(), "bad.yaml", `
openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      operationId: getPet
      responses: {}
`)
	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("warn mode should proceed, got %v", err)
	}
	if len(doc.Paths) != 1 || doc.Paths[0].Entries[0].Operation.OperationID != "getPet" {
		t.Fatalf("unexpected paths: %+v", doc.Paths)
	}
}

func TestLoad_V2_Success(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, t.TempDir(), "swagger.yaml", `
swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
paths:
  "/hello":
    get:
      responses:
        "200":
          description: ok
`)
	doc, err := Load(context.Background(), path, WithValidation(ValidateStrict))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Dialect != DialectSwagger2 || doc.Version != "2.0" || doc.Title != "Sample" {
		t.Fatalf("unexpected document header: %+v", doc)
	}
}

func TestLoad_V2_Strict_Failure(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, t.TempDir(), "swagger-bad.yaml", `
swagger: "2.0"
paths: {}
`)
	_, err := Load(context.Background(), path, WithValidation(ValidateStrict))
	if err == nil {
		t.Fatalf("expected conversion or validation error")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ConversionError && se.Code != ValidationError && se.Code != ParseError {
		t.Fatalf("expected ConversionError/ValidationError/ParseError, got %v", se.Code)
	}
}

func TestLoad_BundlesExternalFileRefs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeSpec(t, dir, "models.yaml", `
definitions:
  Pet:
    type: object
    properties:
      id: {type: integer}
      owner: {$ref: '#/definitions/Owner'}
  Owner:
    type: object
    properties:
      name: {type: string}
`)
	writeSpec(t, dir, "params.yaml", `
limit:
  in: query
  name: limit
  type: integer
`)
	root := writeSpec(t, dir, "swagger.yaml", `
swagger: "2.0"
info: {title: Split, version: "1"}
paths:
  /pets:
    get:
      operationId: listPets
      parameters:
        - $ref: 'params.yaml#/limit'
      responses:
        "200":
          description: ok
          schema:
            type: array
            items: {$ref: 'models.yaml#/definitions/Pet'}
`)
	doc, err := Load(context.Background(), root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var names []string
	for _, s := range doc.Schemas {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "Pet,Owner" {
		t.Fatalf("expected hoisted schemas Pet,Owner, got %v", names)
	}
	op := doc.Paths[0].Entries[0].Operation
	if len(op.Parameters) != 1 || op.Parameters[0].Name != "limit" || op.Parameters[0].In != InQuery {
		t.Fatalf("expected inlined limit parameter, got %+v", op.Parameters)
	}
	r, ok := op.Response("200")
	if !ok || r.Schema.Items.Ref != "#/definitions/Pet" {
		t.Fatalf("expected rewritten local ref, got %+v", r)
	}
}

func TestLoad_BlocksFileRefsFromRemoteRoot(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`swagger: "2.0"
info: {title: t, version: "1"}
paths: {}
definitions:
  Pet: {$ref: 'file:///etc/passwd#/x'}
`))
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/swagger.yaml", WithMaxRetries(1))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError || !strings.Contains(se.Message, "blocked file ref") {
		t.Fatalf("expected blocked file ref, got %v", err)
	}
}
