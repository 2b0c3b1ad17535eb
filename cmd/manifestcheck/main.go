package main

import (
	"fmt"
	"os"

	"github.com/manifestcheck/manifestcheck/pkg/cli"
	"github.com/manifestcheck/manifestcheck/pkg/console"
	"github.com/manifestcheck/manifestcheck/pkg/constants"
	"github.com/spf13/cobra"
)

// Build-time variables set by the release pipeline
var (
	version = "dev"
)

// Global flags
var (
	verbose    bool
	schemaPath string
	strict     bool
)

// buildOptions merges the project config with command-line flags.
func buildOptions() (cli.Options, error) {
	cfg, err := cli.LoadConfig(".")
	if err != nil {
		return cli.Options{}, err
	}
	cfg.Merge(schemaPath, strict)
	return cli.Options{
		SchemaPath: cfg.Schema,
		Strict:     cfg.Strict,
		Verbose:    verbose,
		Exclude:    cfg.Exclude,
	}, nil
}

var rootCmd = &cobra.Command{
	Use:   constants.CLIName,
	Short: "Advisory linter for Kubernetes YAML manifests",
	Long: `manifestcheck validates Kubernetes YAML manifests against a schema-derived
adjacency model and reports warning diagnostics with source positions.

It is advisory by design: documents are annotated, never rejected, so it is
safe to run against manifests that are still being authored.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [files or directories...]",
	Short: "Validate manifests and print warnings",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := buildOptions()
		if err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
		if _, err := cli.ValidateCommand(args, opts); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and revalidate manifests on change",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		opts, err := buildOptions()
		if err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
		if err := cli.WatchCommand(dir, opts); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run a stdio MCP server exposing manifest validation to editors",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := buildOptions()
		if err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
		if err := cli.MCPServerCommand(cmd.Context(), version, opts); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", constants.CLIName, version)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "path to a schema JSON file (overrides the embedded Kubernetes schema)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "additionally run full JSON-schema validation")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
