package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"azdo-mcp/src/azdo"
	"azdo-mcp/src/store"
)

// Column widths for free-text cells.
const (
	branchWidth = 32
	nameWidth   = 40
	pathWidth   = 72
)

// Renderer formats results as terminal tables.
type Renderer struct {
	styles *StyleConfig
}

// NewRenderer creates a Renderer with the default palette.
func NewRenderer() *Renderer {
	return &Renderer{styles: DefaultStyles()}
}

// Builds renders one row per build.
func (r *Renderer) Builds(builds []azdo.Build) string {
	if len(builds) == 0 {
		return "No builds found.\n"
	}

	rows := make([][]string, 0, len(builds))
	results := make([]string, 0, len(builds))
	for _, b := range builds {
		rows = append(rows, []string{
			strconv.Itoa(b.BuildID),
			b.BuildNumber,
			Truncate(ShortBranch(b.BranchName), branchWidth),
			b.Status,
			b.Result,
			formatTime(b.StartedAt),
			b.WebURL,
		})
		results = append(results, b.Result)
	}

	return r.table([]string{"ID", "NUMBER", "BRANCH", "STATUS", "RESULT", "STARTED", "URL"}, rows, 4, results)
}

// Logs renders one row per job log.
func (r *Renderer) Logs(logs []azdo.BuildLog) string {
	if len(logs) == 0 {
		return "No job logs found.\n"
	}

	rows := make([][]string, 0, len(logs))
	results := make([]string, 0, len(logs))
	for _, l := range logs {
		errCount := "-"
		if l.ErrorCount != nil {
			errCount = strconv.Itoa(*l.ErrorCount)
		}
		rows = append(rows, []string{
			strconv.Itoa(l.LogID),
			Truncate(l.TaskName, nameWidth),
			strconv.Itoa(l.Attempt),
			l.Result,
			errCount,
			strconv.Itoa(len(l.Content)),
		})
		results = append(results, l.Result)
	}

	return r.table([]string{"LOG", "JOB", "ATTEMPT", "RESULT", "ERRORS", "BYTES"}, rows, 3, results)
}

// Archive renders the per-branch archive summary.
func (r *Renderer) Archive(result *azdo.ArchiveResult) string {
	var b strings.Builder

	for _, branch := range result.Branches {
		title := fmt.Sprintf("%s  %s", branch.Bucket, ShortBranch(branch.Branch))
		fmt.Fprintln(&b, r.styles.TitleStyle().Render(title))

		ids := make([]string, 0, len(branch.Builds))
		for _, build := range branch.Builds {
			ids = append(ids, strconv.Itoa(build.BuildID))
		}
		if len(ids) == 0 {
			ids = append(ids, "none")
		}

		fmt.Fprintf(&b, "  builds: %s\n", strings.Join(ids, ", "))
		fmt.Fprintf(&b, "  files:  %d\n", branch.Files)
		if branch.Error != "" {
			fmt.Fprintf(&b, "  error:  %s\n", r.styles.ResultStyle("failed").Render(branch.Error))
		}
	}

	return b.String()
}

// Archived renders the index entries of a build.
func (r *Renderer) Archived(entries []store.ArchivedLog) string {
	if len(entries) == 0 {
		return "No archived logs.\n"
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Kind,
			strconv.Itoa(e.Attempt),
			strconv.Itoa(e.LogID),
			strconv.FormatInt(e.Bytes, 10),
			truncateLeft(e.Path, pathWidth),
		})
	}

	return r.table([]string{"KIND", "ATTEMPT", "LOG", "BYTES", "PATH"}, rows, -1, nil)
}

// table renders rows with a header. Cells in resultCol are colored by the
// matching entry in results.
func (r *Renderer) table(headers []string, rows [][]string, resultCol int, results []string) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.HeaderStyle()
			}
			if col == resultCol && row >= 0 && row < len(results) {
				return r.styles.ResultStyle(results[row])
			}
			return r.styles.CellStyle()
		})

	return t.Render() + "\n"
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
