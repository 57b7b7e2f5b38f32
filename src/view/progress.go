package view

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"azdo-mcp/src/azdo"
	"azdo-mcp/src/broker"
	"azdo-mcp/src/store"
)

// ArchivedMsg reports one log file written to the archive.
type ArchivedMsg store.ArchivedLog

type archiveDoneMsg struct {
	result *azdo.ArchiveResult
	err    error
}

// ArchiveProgress runs an archive and shows the files written so far.
// Files arrive as ArchivedMsg, usually from ForwardArchived.
type ArchiveProgress struct {
	spinner spinner.Model
	styles  *StyleConfig
	run     func() (*azdo.ArchiveResult, error)

	files  int
	bytes  int64
	builds map[string]struct{}
	last   string

	done   bool
	result *azdo.ArchiveResult
	err    error
}

// NewArchiveProgress creates the model. run is started by Init.
func NewArchiveProgress(run func() (*azdo.ArchiveResult, error)) ArchiveProgress {
	styles := DefaultStyles()
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Partial)),
	)
	return ArchiveProgress{
		spinner: s,
		styles:  styles,
		run:     run,
		builds:  make(map[string]struct{}),
	}
}

func runArchive(run func() (*azdo.ArchiveResult, error)) tea.Cmd {
	return func() tea.Msg {
		result, err := run()
		return archiveDoneMsg{result: result, err: err}
	}
}

func (m ArchiveProgress) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, runArchive(m.run))
}

func (m ArchiveProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ArchivedMsg:
		m.files++
		m.bytes += msg.Bytes
		m.last = fmt.Sprintf("%s/%d", msg.Bucket, msg.BuildID)
		m.builds[m.last] = struct{}{}
		return m, nil

	case archiveDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

// View is empty once the archive is done; the caller prints the summary.
func (m ArchiveProgress) View() string {
	if m.done {
		return ""
	}

	target := "builds"
	if m.last != "" {
		target = m.last
	}
	counts := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Render(
		fmt.Sprintf("%d files from %d builds, %s", m.files, len(m.builds), humanize.Bytes(uint64(m.bytes))))

	return fmt.Sprintf("%s Archiving %s  %s\n", m.spinner.View(), m.styles.TitleStyle().Render(target), counts)
}

// Result returns the outcome of the archive run.
func (m ArchiveProgress) Result() (*azdo.ArchiveResult, error) {
	if !m.done {
		return nil, fmt.Errorf("archive did not finish")
	}
	return m.result, m.err
}

// ForwardArchived returns a broker handler that decodes archive events and
// passes them to send, typically tea.Program.Send.
func ForwardArchived(send func(tea.Msg)) broker.Handler {
	return func(msg broker.Message) {
		var entry store.ArchivedLog
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			return
		}
		send(ArchivedMsg(entry))
	}
}
