// Package catalog emits the named-schema catalog: one validator per schema
// declared in the document, whether or not any operation uses it.
package catalog

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mark3labs/swagger2zod/internal/spec"
	"github.com/mark3labs/swagger2zod/internal/zod"
)

// ErrIdentifierCollision is returned when two schema names map to the same
// identifier.
var ErrIdentifierCollision = errors.New("catalog: schema identifier collision")

// Entry is one catalog definition.
type Entry struct {
	Name  string // document name
	Ident string
	Expr  string
	Doc   string // sanitized description, empty when docs are off
	// Recursive is set when the schema reaches itself through references;
	// such declarations need an explicit type annotation.
	Recursive bool
}

// Options configures Emit.
type Options struct {
	Docs bool
}

// Emit translates every named schema in document order.
func Emit(doc *spec.Document, opts Options) ([]Entry, error) {
	policy := bluemonday.StrictPolicy()
	owners := map[string]string{}
	refs := map[string][]string{}
	out := make([]Entry, 0, len(doc.Schemas))
	for _, ns := range doc.Schemas {
		id := zod.Identifier(ns.Name)
		if prev, ok := owners[id]; ok {
			return nil, fmt.Errorf("%w: %q and %q both become %s", ErrIdentifierCollision, prev, ns.Name, id)
		}
		owners[id] = ns.Name
		expr := zod.Translate(ns.Schema)
		refs[id] = expr.Refs
		e := Entry{Name: ns.Name, Ident: id, Expr: expr.Code}
		if opts.Docs && ns.Schema != nil {
			e.Doc = docComment(policy, ns.Schema)
		}
		out = append(out, e)
	}
	for i := range out {
		out[i].Recursive = reaches(refs, out[i].Ident, out[i].Ident)
	}
	return out, nil
}

// reaches reports whether target is reachable from the references of from.
func reaches(refs map[string][]string, from, target string) bool {
	seen := map[string]bool{}
	stack := append([]string(nil), refs[from]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, refs[id]...)
	}
	return false
}

// docComment builds comment text from title and description with markup
// removed and comment terminators neutralized.
func docComment(p *bluemonday.Policy, s *spec.Schema) string {
	var parts []string
	for _, raw := range []string{s.Title, s.Description} {
		text := strings.TrimSpace(html.UnescapeString(p.Sanitize(raw)))
		if text != "" && (len(parts) == 0 || parts[0] != text) {
			parts = append(parts, text)
		}
	}
	text := strings.Join(parts, "\n\n")
	text = strings.ReplaceAll(text, "*/", "*\\/")
	return strings.ReplaceAll(text, "\r\n", "\n")
}
