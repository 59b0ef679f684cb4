package tsemitter

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Template identifiers. A templates directory may override either file.
const (
	CatalogTemplate   = "catalog.ts.tpl"
	ResourcesTemplate = "resources.ts.tpl"
)

//go:embed templates/*.tpl
var embedded embed.FS

// Renderer renders the two artifact templates.
type Renderer struct {
	set *pongo2.TemplateSet
}

// NewRenderer builds a template set that looks in overrideDir first (when
// set) and then in the embedded templates.
func NewRenderer(overrideDir string) (*Renderer, error) {
	var loaders []pongo2.TemplateLoader
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		l, err := pongo2.NewLocalFileSystemLoader(dir)
		if err != nil {
			return nil, fmt.Errorf("tsemitter: templates dir %q: %w", dir, err)
		}
		loaders = append(loaders, l)
	}
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("tsemitter: embedded templates: %w", err)
	}
	loaders = append(loaders, pongo2.NewFSLoader(sub))
	return &Renderer{set: pongo2.NewSet("swagger2zod", loaders...)}, nil
}

// Catalog renders the named-schema catalog.
func (r *Renderer) Catalog(c *CatalogContext) (string, error) {
	return r.render(CatalogTemplate, pongo2.Context{
		"header":  c.Header,
		"schemas": c.Schemas,
	})
}

// Resources renders the resource map.
func (r *Renderer) Resources(c *ResourceContext) (string, error) {
	return r.render(ResourcesTemplate, pongo2.Context{
		"header":         c.Header,
		"imports":        c.Imports,
		"catalog_module": c.CatalogModule,
		"resources":      c.Resources,
	})
}

func (r *Renderer) render(name string, ctx pongo2.Context) (string, error) {
	tpl, err := r.set.FromFile(name)
	if err != nil {
		return "", fmt.Errorf("tsemitter: load template %s: %w", name, err)
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("tsemitter: render %s: %w", name, err)
	}
	return out, nil
}
