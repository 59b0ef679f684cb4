package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the swagger2zod CLI until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swagger2zod",
		Short: "Generate zod validators and a resource map from Swagger/OpenAPI documents",
		Long: "swagger2zod reads a Swagger 2.0 or OpenAPI 3.x document and writes two TypeScript files: " +
			"a catalog of zod validators for every named schema and a resource map describing each operation.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagUsageError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	g := newGenerateCmd()
	g.SetFlagErrorFunc(flagUsageError)
	cmd.AddCommand(g)

	i := newInitCmd()
	i.SetFlagErrorFunc(flagUsageError)
	cmd.AddCommand(i)

	return cmd
}

func flagUsageError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
