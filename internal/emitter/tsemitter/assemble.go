package tsemitter

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/mark3labs/swagger2zod/internal/catalog"
	"github.com/mark3labs/swagger2zod/internal/resource"
	"github.com/mark3labs/swagger2zod/internal/zod"
)

// GeneratedHeader starts every generated file. Existing files without it
// are never overwritten unless forced.
const GeneratedHeader = "// Code generated by swagger2zod. DO NOT EDIT."

// ErrInconsistentArtifacts is returned when the resource map would mention
// a name that is not imported, or import a name the catalog lacks.
var ErrInconsistentArtifacts = errors.New("tsemitter: resource map and catalog are inconsistent")

// SchemaView is one catalog entry as seen by the catalog template.
type SchemaView struct {
	Ident     string
	Expr      string
	DocLines  []string
	Recursive bool
}

// CatalogContext is the rendering input of the named-schema catalog.
type CatalogContext struct {
	Header  string
	Schemas []SchemaView
}

type FieldView struct {
	Key  string
	Expr string
}

type ParamView struct {
	Key    string
	Ref    string
	Fields []FieldView
}

type ResourceView struct {
	Key      string
	Path     string
	Method   string
	Params   []ParamView
	Response string
}

// ResourceContext is the rendering input of the resource map.
type ResourceContext struct {
	Header        string
	Imports       []string
	CatalogModule string
	Resources     []ResourceView
}

// Assemble builds both rendering contexts and checks that every name the
// resource map mentions is imported and every import exists in the catalog.
// Keys and literals are rendered here so templates stay free of logic.
func Assemble(entries []catalog.Entry, res *resource.Resources, catalogModule, source string) (*CatalogContext, *ResourceContext, error) {
	header := GeneratedHeader
	if s := strings.TrimSpace(source); s != "" {
		header += "\n// Source: " + strings.ReplaceAll(s, "\n", " ")
	}

	cc := &CatalogContext{Header: header, Schemas: make([]SchemaView, 0, len(entries))}
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Ident] = true
		v := SchemaView{Ident: e.Ident, Expr: e.Expr, Recursive: e.Recursive}
		if e.Doc != "" {
			v.DocLines = strings.Split(e.Doc, "\n")
		}
		cc.Schemas = append(cc.Schemas, v)
	}

	imported := make(map[string]bool, len(res.Used))
	for _, name := range res.Used {
		if !known[name] {
			return nil, nil, fmt.Errorf("%w: %s is imported but not declared in the catalog", ErrInconsistentArtifacts, name)
		}
		imported[name] = true
	}

	rc := &ResourceContext{
		Header:        header,
		Imports:       append([]string(nil), res.Used...),
		CatalogModule: zod.Literal(catalogModule),
		Resources:     make([]ResourceView, 0, len(res.Descriptors)),
	}
	for _, d := range res.Descriptors {
		for _, ref := range d.Refs {
			if !imported[ref] {
				return nil, nil, fmt.Errorf("%w: %s references %s which is not imported", ErrInconsistentArtifacts, d.Key, ref)
			}
		}
		v := ResourceView{
			Key:      zod.PropertyKey(d.Key),
			Path:     zod.Literal(d.Path),
			Method:   zod.Literal(d.Method),
			Response: d.Response,
		}
		for _, p := range d.Params {
			pv := ParamView{Key: zod.PropertyKey(p.Location), Ref: p.Ref}
			for _, f := range p.Fields {
				pv.Fields = append(pv.Fields, FieldView{Key: zod.PropertyKey(f.Key), Expr: f.Expr})
			}
			v.Params = append(v.Params, pv)
		}
		rc.Resources = append(rc.Resources, v)
	}
	return cc, rc, nil
}

// ModuleSpecifier returns the relative import path of toFile as seen from
// fromFile, e.g. ("resources.ts", "generated-schemas.ts") -> "./generated-schemas".
func ModuleSpecifier(fromFile, toFile string) string {
	rel, err := filepath.Rel(filepath.Dir(fromFile), toFile)
	if err != nil {
		rel = filepath.Base(toFile)
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}
