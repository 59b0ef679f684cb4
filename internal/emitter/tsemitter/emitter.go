// Package tsemitter assembles, renders, formats and writes the two
// TypeScript artifacts: the named-schema catalog and the resource map.
package tsemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/swagger2zod/internal/catalog"
	"github.com/mark3labs/swagger2zod/internal/resource"
)

// Options controls how the artifacts are rendered and written.
type Options struct {
	OutDir        string // required; target directory
	CatalogFile   string // defaults to generated-schemas.ts
	ResourcesFile string // defaults to resources.ts
	TemplatesDir  string // optional template overrides
	FormatCommand string // optional external formatter
	Source        string // recorded in the header
	Force         bool   // overwrite files not generated by us
	DryRun        bool   // don't write, only plan
	Logger        zerolog.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files and the resource map's import list.
type Result struct {
	Planned []PlannedFile
	Imports []string
}

const (
	DefaultCatalogFile   = "generated-schemas.ts"
	DefaultResourcesFile = "resources.ts"
)

// Emit renders both artifacts in memory and writes them together. Nothing
// is written when either render fails.
func Emit(ctx context.Context, entries []catalog.Entry, res *resource.Resources, opts Options) (*Result, error) {
	if res == nil {
		return nil, fmt.Errorf("tsemitter: nil resources")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("tsemitter: OutDir is required")
	}
	catalogFile := defaultString(opts.CatalogFile, DefaultCatalogFile)
	resourcesFile := defaultString(opts.ResourcesFile, DefaultResourcesFile)
	if filepath.Clean(catalogFile) == filepath.Clean(resourcesFile) {
		return nil, fmt.Errorf("tsemitter: catalog and resource map cannot share the file name %q", catalogFile)
	}

	cc, rc, err := Assemble(entries, res, ModuleSpecifier(resourcesFile, catalogFile), opts.Source)
	if err != nil {
		return nil, err
	}
	renderer, err := NewRenderer(opts.TemplatesDir)
	if err != nil {
		return nil, err
	}

	var catalogText, resourcesText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := renderer.Catalog(cc)
		if err != nil {
			return err
		}
		catalogText, err = finish(gctx, out, opts.FormatCommand)
		return err
	})
	g.Go(func() error {
		out, err := renderer.Resources(rc)
		if err != nil {
			return err
		}
		resourcesText, err = finish(gctx, out, opts.FormatCommand)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := []outFile{
		{rel: filepath.ToSlash(catalogFile), content: []byte(catalogText)},
		{rel: filepath.ToSlash(resourcesFile), content: []byte(resourcesText)},
	}
	planned := make([]PlannedFile, 0, len(files))
	for _, f := range files {
		planned = append(planned, PlannedFile{RelPath: f.rel, Size: len(f.content), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, files, opts.Force); err != nil {
			return nil, err
		}
		for _, f := range files {
			opts.Logger.Info().Str("file", filepath.Join(opts.OutDir, f.rel)).Int("bytes", len(f.content)).Msg("wrote artifact")
		}
	}
	return &Result{Planned: planned, Imports: rc.Imports}, nil
}

func finish(ctx context.Context, text, command string) (string, error) {
	text = Format(text)
	if strings.TrimSpace(command) == "" {
		return text, nil
	}
	return External(ctx, command, text)
}

func defaultString(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
