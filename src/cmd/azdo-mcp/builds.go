package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"azdo-mcp/src/azdo"
	"azdo-mcp/src/view"
)

var buildsJSON bool

// buildsCmd prints the latest completed build of a branch
var buildsCmd = &cobra.Command{
	Use:   "builds [branch]",
	Short: "Show the latest completed build of a branch",
	Long: `Show the latest completed build of a branch for the configured
build definition. The branch defaults to main.

Example:
  azdo-mcp builds
  azdo-mcp builds feature/login --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch := "main"
		if len(args) == 1 {
			branch = args[0]
		}

		log := consoleLogger()
		a, err := newApp(cmd.Context(), appConfig, log)
		if err != nil {
			return err
		}
		defer a.Close()

		builds, err := a.svc.GetBuildsByBranch(cmd.Context(), branch, 0)
		if err != nil {
			return err
		}

		return printBuilds(cmd.OutOrStdout(), builds, buildsJSON)
	},
}

func init() {
	buildsCmd.Flags().BoolVar(&buildsJSON, "json", false, "print the full JSON result")
	rootCmd.AddCommand(buildsCmd)
}

func printBuilds(w io.Writer, builds []azdo.Build, asJSON bool) error {
	if asJSON {
		return writeJSON(w, builds)
	}
	_, err := fmt.Fprint(w, view.NewRenderer().Builds(builds))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
