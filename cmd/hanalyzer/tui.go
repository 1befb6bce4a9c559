package main

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/reusee/hanalyzer/datasets"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/orchestrators"
)

type pane int

const (
	filesPane pane = iota
	datasetsPane
)

type tickMsg time.Time

type model struct {
	o        *orchestrators.Orchestrator
	interval time.Duration
	snapshot orchestrators.Snapshot
	focus    pane
	fileRow  int
	dataRow  int
	width    int
	help     help.Model
}

func newModel(o *orchestrators.Orchestrator, interval time.Duration) *model {
	return &model{
		o:        o,
		interval: interval,
		snapshot: o.Snapshot(),
		help:     help.New(),
	}
}

func (m *model) tick() tea.Cmd {
	return tea.Every(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return m.tick()
}

// entry is one row of the file pane.
type entry struct {
	name  string
	isDir bool
}

func (m *model) entries() (ret []entry) {
	if m.snapshot.Path != "" && m.snapshot.Path != "/" {
		ret = append(ret, entry{name: "..", isDir: true})
	}
	for _, dir := range m.snapshot.Listing.Directories {
		ret = append(ret, entry{name: dir, isDir: true})
	}
	for _, file := range m.snapshot.Listing.Files {
		ret = append(ret, entry{name: file})
	}
	return
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tickMsg:
		m.o.Update()
		m.snapshot = m.o.Snapshot()
		m.fileRow = clamp(m.fileRow, len(m.entries()))
		m.dataRow = clamp(m.dataRow, len(m.snapshot.Datasets))
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {

		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Switch):
			if m.focus == filesPane {
				m.focus = datasetsPane
			} else {
				m.focus = filesPane
			}

		case key.Matches(msg, keys.Up):
			if m.focus == filesPane {
				m.fileRow = clamp(m.fileRow-1, len(m.entries()))
			} else {
				m.dataRow = clamp(m.dataRow-1, len(m.snapshot.Datasets))
			}

		case key.Matches(msg, keys.Down):
			if m.focus == filesPane {
				m.fileRow = clamp(m.fileRow+1, len(m.entries()))
			} else {
				m.dataRow = clamp(m.dataRow+1, len(m.snapshot.Datasets))
			}

		case key.Matches(msg, keys.Back):
			m.o.Up()
			m.fileRow = 0

		case key.Matches(msg, keys.Open):
			if m.focus == filesPane {
				m.open()
			}

		case key.Matches(msg, keys.Refresh):
			m.o.Refresh()

		case key.Matches(msg, keys.Play):
			m.o.TogglePlay()

		case key.Matches(msg, keys.Step):
			m.o.Step()

		case key.Matches(msg, keys.Save):
			m.o.SaveManifest()

		case key.Matches(msg, keys.Confirm):
			if d, ok := m.selectedDataset(); ok {
				m.o.Confirm(d.ID)
			}

		case key.Matches(msg, keys.Cancel):
			if d, ok := m.selectedDataset(); ok {
				m.o.Cancel(d.ID)
			}

		case key.Matches(msg, keys.Retry):
			if d, ok := m.selectedDataset(); ok {
				m.o.Retry(d.ID)
			}

		case key.Matches(msg, keys.Format):
			if d, ok := m.selectedDataset(); ok && d.State == datasets.AwaitingConfirmation {
				_ = m.o.SetDescriptor(d.ID, models.NewLoadDescriptor(d.Path, nextSourceType(d.Type)))
			}

		}
	}
	return m, nil
}

func (m *model) open() {
	entries := m.entries()
	if m.fileRow >= len(entries) {
		return
	}
	e := entries[m.fileRow]
	switch {
	case e.name == "..":
		m.o.Up()
		m.fileRow = 0
	case e.isDir:
		m.o.Enter(e.name)
		m.fileRow = 0
	case strings.HasSuffix(e.name, models.ReplayFileSuffix):
		m.o.SetSession(strings.TrimSuffix(e.name, models.ReplayFileSuffix))
	default:
		filePath := path.Join(m.snapshot.Path, e.name)
		m.o.EnqueueDataset(models.NewLoadDescriptor(filePath, guessSourceType(e.name)))
		m.focus = datasetsPane
		m.dataRow = len(m.snapshot.Datasets)
	}
}

func (m *model) selectedDataset() (orchestrators.DatasetStatus, bool) {
	if m.dataRow >= len(m.snapshot.Datasets) {
		return orchestrators.DatasetStatus{}, false
	}
	return m.snapshot.Datasets[m.dataRow], true
}

func guessSourceType(name string) models.SourceType {
	switch strings.ToLower(path.Ext(name)) {
	case ".txt":
		return models.KITTI
	case ".dat", ".ndev":
		return models.NDEV
	}
	return models.CommaSep
}

func nextSourceType(t models.SourceType) models.SourceType {
	switch t {
	case models.CommaSep:
		return models.NDEV
	case models.NDEV:
		return models.KITTI
	}
	return models.CommaSep
}

func clamp(i, n int) int {
	return max(0, min(i, n-1))
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00D7FF"))
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("#00D7FF"))
	selectedStyle = lipgloss.NewStyle().
			Reverse(true)
	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FAFFF"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))
)

var stateStyles = map[datasets.LoadState]lipgloss.Style{
	datasets.AwaitingConfirmation: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")),
	datasets.Queued:               dimStyle,
	datasets.Loading:              lipgloss.NewStyle().Foreground(lipgloss.Color("#00D7FF")),
	datasets.Loaded:               lipgloss.NewStyle().Foreground(lipgloss.Color("#5FFF87")),
	datasets.Failed:               errorStyle,
	datasets.Canceled:             dimStyle,
}

func (m *model) View() string {
	s := m.snapshot
	var b strings.Builder

	b.WriteString(titleStyle.Render("hanalyzer"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  tick %d", s.Ticks)))
	b.WriteString("\n")

	left, right := paneStyle, paneStyle
	if m.focus == filesPane {
		left = focusedPaneStyle
	} else {
		right = focusedPaneStyle
	}
	paneWidth := 40
	if m.width > 0 {
		paneWidth = max(20, m.width/2-4)
	}
	b.WriteString(lipgloss.JoinHorizontal(
		lipgloss.Top,
		left.Width(paneWidth).Render(m.filesView()),
		right.Width(paneWidth).Render(m.datasetsView()),
	))
	b.WriteString("\n")
	b.WriteString(m.replayView())
	b.WriteString("\n")
	b.WriteString(m.seriesView())
	b.WriteString("\n")
	b.WriteString(m.manifestView())
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m *model) filesView() string {
	s := m.snapshot
	var lines []string
	header := "files " + s.Path
	if s.Pending {
		header += " …"
	}
	lines = append(lines, titleStyle.Render(header))
	if s.ListingErr != "" {
		lines = append(lines, errorStyle.Render(s.ListingErr))
	}
	if !s.HasListing {
		lines = append(lines, dimStyle.Render("loading"))
		return strings.Join(lines, "\n")
	}
	for i, e := range m.entries() {
		line := e.name
		if e.isDir {
			line = dirStyle.Render(line + "/")
		}
		if m.focus == filesPane && i == m.fileRow {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *model) datasetsView() string {
	s := m.snapshot
	lines := []string{titleStyle.Render("datasets")}
	if len(s.Datasets) == 0 {
		lines = append(lines, dimStyle.Render("none"))
	}
	for i, d := range s.Datasets {
		line := fmt.Sprintf("#%d %s [%s] %s",
			d.ID,
			d.Name,
			d.Type,
			stateStyles[d.State].Render(d.State.String()),
		)
		switch d.State {
		case datasets.Loaded:
			line += dimStyle.Render(fmt.Sprintf(" %d rows × %d cols in %s",
				d.Rows, len(d.Columns), d.Duration.Round(time.Millisecond)))
		case datasets.Failed:
			line += " " + errorStyle.Render(d.Error)
		}
		if m.focus == datasetsPane && i == m.dataRow {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *model) replayView() string {
	r := m.snapshot.Replay
	if r.Session == "" {
		return dimStyle.Render("replay: no session")
	}
	total := "?"
	if r.TotalKnown {
		total = fmt.Sprint(r.Total)
	}
	state := "paused"
	if r.Playing {
		state = "playing"
	}
	line := fmt.Sprintf("replay %s: frame %d/%d of %s, epoch %d, %s, latency %s",
		r.Session,
		r.Cursor+1, r.Frames, total,
		r.Epoch,
		state,
		r.MeanLatency.Round(time.Microsecond),
	)
	if r.Current != nil {
		line += fmt.Sprintf(", t=%.2f, %d entities", r.Current.Timestamp, len(r.Current.Entities))
	}
	if r.Error != "" {
		line += " " + errorStyle.Render(r.Error)
	}
	return line
}

func (m *model) seriesView() string {
	if len(m.snapshot.Series) == 0 {
		return dimStyle.Render("series: none")
	}
	parts := make([]string, 0, len(m.snapshot.Series))
	for _, s := range m.snapshot.Series {
		part := fmt.Sprintf("%s(%s) %d rows", s.ID, s.Kind, s.Rows)
		if s.Dropped > 0 {
			part += errorStyle.Render(fmt.Sprintf(" %d dropped", s.Dropped))
		}
		parts = append(parts, part)
	}
	return "series: " + strings.Join(parts, ", ")
}

func (m *model) manifestView() string {
	ms := m.snapshot.Manifest
	switch {
	case ms.Saving:
		return dimStyle.Render("manifest: saving")
	case ms.Error != "":
		return errorStyle.Render("manifest: " + ms.Error)
	case !ms.SavedAt.IsZero():
		return dimStyle.Render("manifest: saved at " + ms.SavedAt.Format(time.TimeOnly))
	}
	return ""
}
