package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"azdo-mcp/src/azdo"
	"azdo-mcp/src/provider"
	"azdo-mcp/src/sanitize"
	"azdo-mcp/src/view"
)

var (
	logsOutDir string
	logsClean  bool
)

// logsCmd prints the job logs of a build
var logsCmd = &cobra.Command{
	Use:   "logs <build>",
	Short: "Show the job logs of a build",
	Long: `Show the job logs of a build. The build is an id or a results URL.

With --out the log text of every job is written to
<dir>/<buildId>_<logId>_log.txt.

Example:
  azdo-mcp logs 1234
  azdo-mcp logs "https://dev.azure.com/org/project/_build/results?buildId=1234" --out ./logs`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := provider.ParseBuildRef(args[0])
		if err != nil {
			return err
		}

		log := consoleLogger()
		if err := provider.CheckScope(ref, appConfig.URL, appConfig.Project); err != nil {
			log.Warn("build URL is outside the configured project, using the build id only", "error", err)
		}

		a, err := newApp(cmd.Context(), appConfig, log)
		if err != nil {
			return err
		}
		defer a.Close()

		logs, err := a.svc.GetBuildLogs(cmd.Context(), ref.BuildID)
		if err != nil {
			return err
		}

		if logsOutDir != "" {
			paths, err := writeLogFiles(appFs, logsOutDir, logs, logsClean)
			if err != nil {
				return err
			}
			for _, p := range paths {
				log.Info("wrote log", "path", p)
			}
		}

		return printLogs(cmd.OutOrStdout(), logs)
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsOutDir, "out", "", "directory to write the log texts to")
	logsCmd.Flags().BoolVar(&logsClean, "clean", false, "strip escape codes and timestamps from written logs")
	rootCmd.AddCommand(logsCmd)
}

func printLogs(w io.Writer, logs []azdo.BuildLog) error {
	_, err := fmt.Fprint(w, view.NewRenderer().Logs(logs))
	return err
}

// writeLogFiles writes one file per log and returns the paths written.
func writeLogFiles(fs afero.Fs, dir string, logs []azdo.BuildLog, clean bool) ([]string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(logs))
	for _, l := range logs {
		content := l.Content
		if clean {
			content = sanitize.Clean(content, 0)
		}

		path := filepath.Join(dir, fmt.Sprintf("%d_%d_log.txt", l.BuildID, l.LogID))
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
