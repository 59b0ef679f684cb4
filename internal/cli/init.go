package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2zod/internal/config"
)

const defaultConfigFile = "swagger2zod.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath  string
	Force       bool
	Verbose     bool
	Interactive bool
}

// initAnswers are the values collected by init --interactive.
type initAnswers struct {
	Input     string
	OutputDir string
	LogLevel  string
}

// prompter asks the interactive init questions.
type prompter interface {
	Input(ctx context.Context, message, def string, required bool) (string, error)
	Select(ctx context.Context, message string, options []string, def string) (string, error)
}

var (
	initRunner  = runInit
	newPrompter = func() prompter { return surveyPrompter{} }
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swagger2zod configuration file",
		Long: "Scaffold a commented swagger2zod configuration file that documents available options. " +
			"With --interactive, prompts for the most common values and writes them uncommented.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			interactive, err := cmd.Flags().GetBool("interactive")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath:  out,
				Force:       force,
				Verbose:     verbose,
				Interactive: interactive,
			}
			return initRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")
	cmd.Flags().BoolP("interactive", "i", false, "Prompt for input, output directory and log level")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	var answers *initAnswers
	if cfg.Interactive {
		answers, err = askInitAnswers(ctx, newPrompter())
		if err != nil {
			return err
		}
	}
	content := sampleConfig(answers)
	if answers != nil {
		if _, err := config.Parse([]byte(content)); err != nil {
			return newUsageError(fmt.Sprintf("init: %v", err))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func askInitAnswers(ctx context.Context, p prompter) (*initAnswers, error) {
	input, err := p.Input(ctx, "Path or URL of the Swagger/OpenAPI document:", "", true)
	if err != nil {
		return nil, promptError(err)
	}
	outDir, err := p.Input(ctx, "Output directory:", config.Defaults()["output.dir"].(string), false)
	if err != nil {
		return nil, promptError(err)
	}
	level, err := p.Select(ctx, "Log level:", logLevels, "info")
	if err != nil {
		return nil, promptError(err)
	}
	return &initAnswers{
		Input:     strings.TrimSpace(input),
		OutputDir: strings.TrimSpace(outDir),
		LogLevel:  level,
	}, nil
}

func promptError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return newUsageError("init: aborted")
	}
	return fmt.Errorf("init: prompt: %w", err)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, message, def string, required bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	var opts []survey.AskOpt
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(&survey.Input{Message: message, Default: def}, &out, opts...); err != nil {
		return "", err
	}
	return out, nil
}

func (surveyPrompter) Select(ctx context.Context, message string, options []string, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	if err := survey.AskOne(&survey.Select{Message: message, Options: options, Default: def}, &out); err != nil {
		return "", err
	}
	return out, nil
}

// sampleConfig renders the commented example config. Answered values are
// written uncommented.
func sampleConfig(a *initAnswers) string {
	input := "# input: ./openapi.yaml"
	outDir := "  # dir: ./out"
	level := "  # level: info"
	if a != nil {
		input = "input: " + yamlString(a.Input)
		if a.OutputDir != "" {
			outDir = "  dir: " + yamlString(a.OutputDir)
		}
		if a.LogLevel != "" {
			level = "  level: " + a.LogLevel
		}
	}
	return fmt.Sprintf(sampleConfigYAML, input, outDir, level)
}

func yamlString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# swagger2zod configuration (YAML)
# All fields are optional except input. Precedence, highest first:
# command-line flags, SWAGGER2ZOD_* environment variables
# (e.g. SWAGGER2ZOD_OUTPUT_DIR), this file, built-in defaults.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
%s

output:
  # Directory receiving both generated files.
%s
  # File name of the named-schema catalog.
  # catalog: generated-schemas.ts
  # File name of the resource map; it imports from the catalog.
  # resources: resources.ts
  # Emit schema titles/descriptions as doc comments in the catalog.
  # docs: true

templates:
  # Directory holding catalog.ts.tpl and/or resources.ts.tpl overrides.
  # dir: ./templates

format:
  # External formatter fed each artifact on stdin, e.g. "npx prettier --parser typescript".
  # command: ""

policy:
  # Parameters whose location is not path/query/body/header: drop|warn|error.
  # location: warn
  # Documents that are not Swagger 2.x or OpenAPI 3.x: ignore|warn|error.
  # dialect: warn

loader:
  # Per-request HTTP timeout, attempts and backoff base for remote documents.
  # timeout: 10s
  # retries: 3
  # backoff: 200ms
  # Document validation: off|warn|strict.
  # validate: warn
  # Allow local file $refs from a document fetched over HTTP.
  # filerefs: false

log:
%s
  # format: console

# Preview planned outputs without writing files.
# dryrun: false

# Overwrite existing files that were not generated by swagger2zod.
# force: false
`
