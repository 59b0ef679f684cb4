package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/swagger2zod/internal/config"
	"github.com/mark3labs/swagger2zod/internal/generator"
	"github.com/mark3labs/swagger2zod/internal/logging"
)

// generateFlags maps generate flags to the config keys they override.
var generateFlags = []struct {
	flag string
	key  string
}{
	{"input", "input"},
	{"out", "output.dir"},
	{"catalog-file", "output.catalog"},
	{"resources-file", "output.resources"},
	{"templates", "templates.dir"},
	{"format-cmd", "format.command"},
	{"on-unknown-location", "policy.location"},
	{"on-unsupported-dialect", "policy.dialect"},
	{"validate", "loader.validate"},
	{"log-format", "log.format"},
	{"dry-run", "dryrun"},
	{"force", "force"},
}

// streams carries the writers a runner reports to.
type streams struct {
	Out io.Writer
	Err io.Writer
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the zod schema catalog and resource map from an OpenAPI/Swagger document",
		Long: "Generate the zod schema catalog and resource map from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, environment variables (SWAGGER2ZOD_*), config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2zod generate --input petstore.yaml --out ./src/api
  swagger2zod --config swagger2zod.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg, streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory (default \"out\")")
	flags.String("catalog-file", "", "File name of the schema catalog (default \"generated-schemas.ts\")")
	flags.String("resources-file", "", "File name of the resource map (default \"resources.ts\")")
	flags.String("templates", "", "Directory with catalog.ts.tpl/resources.ts.tpl overrides")
	flags.String("format-cmd", "", "External formatter run on each artifact via stdin/stdout")
	flags.String("on-unknown-location", "", "Parameters with an unknown location: drop|warn|error")
	flags.String("on-unsupported-dialect", "", "Documents that are not Swagger 2.x/OpenAPI 3.x: ignore|warn|error")
	flags.String("validate", "", "Document validation: off|warn|strict")
	flags.String("log-format", "", "Log output format: console|json")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing files that were not generated by swagger2zod")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	overrides, err := generateOverrides(cmd.Flags())
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return nil, newUsageError(fmt.Sprintf("generate: %v", err))
		}
		return nil, newUsageError(fmt.Sprintf("generate: %v\nHint: check the --config path.", err))
	}
	return cfg, nil
}

// generateOverrides collects the flags the user set explicitly.
func generateOverrides(flags *pflag.FlagSet) (map[string]any, error) {
	overrides := map[string]any{}
	for _, f := range generateFlags {
		if !flags.Changed(f.flag) {
			continue
		}
		switch f.flag {
		case "dry-run", "force":
			value, err := flags.GetBool(f.flag)
			if err != nil {
				return nil, err
			}
			overrides[f.key] = value
		default:
			value, err := flags.GetString(f.flag)
			if err != nil {
				return nil, err
			}
			overrides[f.key] = strings.TrimSpace(value)
		}
	}
	if flags.Changed("verbose") {
		verbose, err := flags.GetBool("verbose")
		if err != nil {
			return nil, err
		}
		if verbose {
			overrides["log.level"] = "debug"
		}
	}
	return overrides, nil
}

func runGenerate(ctx context.Context, cfg *config.Config, s streams) error {
	log := logging.New(cfg.Log.Level, cfg.Log.Format, s.Err)

	absOut := cfg.Output.Dir
	if ap, err := filepath.Abs(cfg.Output.Dir); err == nil {
		absOut = ap
	}

	res, err := generator.Run(ctx, cfg, log)
	if err != nil {
		return friendlyError(err, absOut)
	}

	switch {
	case res.Skipped:
		fmt.Fprintf(s.Out, "Nothing generated: %s is not a Swagger 2.x or OpenAPI 3.x document\n", cfg.Input)
	case cfg.DryRun:
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(s.Out, absOut, paths)
	default:
		fmt.Fprintf(s.Out, "Generated %d schemas and %d operations in %s\n", res.Schemas, res.Operations, absOut)
	}
	return nil
}

func printPlan(w io.Writer, outDir string, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}
