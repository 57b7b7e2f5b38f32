package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"azdo-mcp/src/azdo"
	"azdo-mcp/src/broker"
	"azdo-mcp/src/logger"
	"azdo-mcp/src/provider"
	"azdo-mcp/src/view"
)

var archiveJSON bool

// stderrIsTerminal reports whether progress can be drawn. Replaced in tests.
var stderrIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// archiveCmd saves the logs of the good and bad branches
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the job logs of the good and bad branches",
	Long: `Save the job logs of every completed build on the good and bad
branches under BasePath/Good/<buildId> and BasePath/Bad/<buildId>.
Jobs that were retried get their current log and one file per
failed previous attempt.

When stderr is a terminal a progress line is drawn there while the
archive runs, and log lines go only to the log file.

Example:
  AZDO_BASE_PATH=/var/azdo azdo-mcp archive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !stderrIsTerminal() {
			a, err := newApp(ctx, appConfig, consoleLogger())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.ArchiveLogs(ctx)
			if err != nil {
				return err
			}
			return printArchive(cmd.OutOrStdout(), result)
		}

		// The progress line owns stderr, so logs go to the file only.
		log, closeLog, err := logger.New(logger.Options{
			Dir:     appConfig.LogDir,
			Level:   appConfig.LogLevel,
			Console: io.Discard,
		})
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer closeLog()

		a, err := newApp(ctx, appConfig, log)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := archiveWithProgress(ctx, a, os.Stderr)
		if err != nil {
			return err
		}
		return printArchive(cmd.OutOrStdout(), result)
	},
}

// archiveWithProgress runs the archive under a bubbletea program fed by the
// archive events of the app's local broker.
func archiveWithProgress(ctx context.Context, a *app, out io.Writer) (*azdo.ArchiveResult, error) {
	model := view.NewArchiveProgress(func() (*azdo.ArchiveResult, error) {
		return a.svc.ArchiveLogs(ctx)
	})
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(out),
	)

	unsubscribe := a.backends.Local.Subscribe(broker.TopicLogsArchived, view.ForwardArchived(p.Send))
	defer unsubscribe()

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return final.(view.ArchiveProgress).Result()
}

func printArchive(w io.Writer, result *azdo.ArchiveResult) error {
	if archiveJSON {
		return writeJSON(w, result)
	}
	_, err := fmt.Fprint(w, view.NewRenderer().Archive(result))
	return err
}

// archivedCmd lists the archived logs of a build
var archivedCmd = &cobra.Command{
	Use:   "archived <build>",
	Short: "List the archived logs of a build",
	Long: `List the archived log files of a build from the archive index.
The in-memory index only knows files written by the same process, so
this is useful with POSTGRES_DSN set.

Example:
  azdo-mcp archived 1234`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := provider.ParseBuildRef(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), appConfig, consoleLogger())
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.svc.ListArchived(cmd.Context(), ref.BuildID)
		if err != nil {
			return err
		}

		if archiveJSON {
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), view.NewRenderer().Archived(entries))
		return err
	},
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveJSON, "json", false, "print the result as JSON")
	archivedCmd.Flags().BoolVar(&archiveJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(archivedCmd)
}
