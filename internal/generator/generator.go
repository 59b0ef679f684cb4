// Package generator runs the whole pipeline: load the document, build the
// catalog and the resource map, then render and write both artifacts.
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mark3labs/swagger2zod/internal/catalog"
	"github.com/mark3labs/swagger2zod/internal/config"
	"github.com/mark3labs/swagger2zod/internal/emitter/tsemitter"
	"github.com/mark3labs/swagger2zod/internal/resource"
	"github.com/mark3labs/swagger2zod/internal/spec"
)

// Dialect policies.
const (
	DialectIgnore = "ignore"
	DialectWarn   = "warn"
	DialectError  = "error"
)

// Result summarizes one run.
type Result struct {
	// Skipped is set when the document dialect is unsupported and the
	// policy allows finishing without output.
	Skipped    bool
	OutDir     string
	Schemas    int
	Operations int
	Imports    []string
	Planned    []tsemitter.PlannedFile
}

// Run executes the pipeline described by cfg. Nothing is written when any
// stage fails.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Result, error) {
	if cfg == nil {
		return nil, errors.New("generator: nil config")
	}
	res := &Result{OutDir: cfg.Output.Dir}

	doc, err := spec.Load(ctx, cfg.Input,
		spec.WithHTTPTimeout(cfg.Loader.Timeout),
		spec.WithMaxRetries(cfg.Loader.Retries),
		spec.WithBackoffBase(cfg.Loader.Backoff),
		spec.WithAllowFileRefs(cfg.Loader.FileRefs),
		spec.WithValidation(spec.ValidationMode(cfg.Loader.Validate)),
		spec.WithLogger(log),
	)
	if err != nil {
		if errors.Is(err, spec.ErrUnsupportedDialect) {
			switch cfg.Policy.Dialect {
			case DialectIgnore:
				res.Skipped = true
				return res, nil
			case DialectError:
				return nil, err
			default:
				log.Warn().Str("file", cfg.Input).Err(err).Msg("unsupported document dialect; nothing generated")
				res.Skipped = true
				return res, nil
			}
		}
		log.Error().Str("file", cfg.Input).Err(err).Msg("failed to load document")
		return nil, err
	}

	entries, err := catalog.Emit(doc, catalog.Options{Docs: cfg.Output.Docs})
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	resources, err := resource.Walk(doc, resource.Options{
		UnknownLocation: resource.LocationPolicy(cfg.Policy.Location),
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("build resource map: %w", err)
	}
	log.Debug().Int("schemas", len(entries)).Int("operations", len(resources.Descriptors)).
		Int("imports", len(resources.Used)).Msg("built artifacts")

	out, err := tsemitter.Emit(ctx, entries, resources, tsemitter.Options{
		OutDir:        cfg.Output.Dir,
		CatalogFile:   cfg.Output.Catalog,
		ResourcesFile: cfg.Output.Resources,
		TemplatesDir:  cfg.Templates.Dir,
		FormatCommand: cfg.Format.Command,
		Source:        doc.Title,
		Force:         cfg.Force,
		DryRun:        cfg.DryRun,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	res.Schemas = len(entries)
	res.Operations = len(resources.Descriptors)
	res.Imports = out.Imports
	res.Planned = out.Planned
	return res, nil
}
