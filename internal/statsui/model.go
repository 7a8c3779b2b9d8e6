// Package statsui provides the Bubble Tea stats browser.
package statsui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/stats"
)

const (
	tabWords = iota
	tabChords
	tabBanlist
)

const maxColumnWidth = 40

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// wordSorts is the cycle order of the sort key on the word and chord tabs.
// Chords have no speed, the report lists them by frequency instead.
var wordSorts = []model.SortField{
	model.SortScore,
	model.SortFrequency,
	model.SortLastUsed,
	model.SortAverageSpeed,
	model.SortText,
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	src  stats.Source
	opts model.ListOptions

	banSort model.SortField
	banDesc bool

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	tables    []table.Model

	width  int
	height int

	searchMode  bool
	searchInput textinput.Model
}

// NewModel constructs a stats UI model listing with opts.
func NewModel(src stats.Source, opts model.ListOptions) *Model {
	m := &Model{
		src:     src,
		opts:    opts,
		banSort: model.SortDateAdded,
		banDesc: true,
		tabs:    []string{"Words", "Chords", "Banlist"},
	}
	m.searchInput = newSearchInput()
	m.tables = make([]table.Model, len(m.tabs))
	for i := range m.tables {
		m.tables[i] = table.New(table.WithHeight(1))
		m.tables[i].SetStyles(tableStyles())
	}
	m.tables[m.activeTab].Focus()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.searchMode {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "c":
			m.opts.Case = nextCaseMode(m.opts.Case)
			m.refreshReport()
			return m, nil
		case "s":
			if m.activeTab == tabBanlist {
				m.banSort = nextBanSort(m.banSort)
			} else {
				m.opts.SortBy = nextSort(m.opts.SortBy)
			}
			m.refreshReport()
			return m, nil
		case "o":
			if m.activeTab == tabBanlist {
				m.banDesc = !m.banDesc
			} else {
				m.opts.Descending = !m.opts.Descending
			}
			m.refreshReport()
			return m, nil
		case "/":
			return m.startSearch()
		case "g", "home":
			m.tables[m.activeTab].GotoTop()
			return m, nil
		case "G", "end":
			m.tables[m.activeTab].GotoBottom()
			return m, nil
		default:
			var cmd tea.Cmd
			m.tables[m.activeTab], cmd = m.tables[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newSearchInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Search: "
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.tables {
		m.tables[i].SetWidth(m.width)
		// One line is taken by the header border.
		m.tables[i].SetHeight(max(bodyHeight-1, 1))
	}
	m.searchInput.Width = max(10, m.width-lipgloss.Width(m.searchInput.Prompt)-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.tables[m.activeTab].Blur()
	m.activeTab = (m.activeTab + delta + count) % count
	m.tables[m.activeTab].Focus()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	if m.searchMode {
		return tabs + "\n" + m.searchInput.View()
	}
	return tabs + "\n" + headerStyle.Render(runewidth.Truncate(m.summary(), m.width, "…"))
}

func (m *Model) summary() string {
	search := m.opts.Search
	if search == "" {
		search = "-"
	}
	if m.activeTab == tabBanlist {
		return fmt.Sprintf("Banned: %d  sort=%s %s  search=%s",
			len(m.report.Banned), m.banSort, orderName(m.banDesc), search)
	}
	sortBy := m.opts.SortBy
	if m.activeTab == tabChords && sortBy == model.SortAverageSpeed {
		sortBy = model.SortFrequency
	}
	return fmt.Sprintf("Words: %d  Chords: %d  case=%s  sort=%s %s  search=%s",
		m.report.NumWords, m.report.NumChords, m.opts.Case, sortBy, orderName(m.opts.Descending), search)
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Scroll: up/down  Case: c  Sort: s  Order: o  Search: /  Quit: q"
	if m.searchMode {
		help = "enter: apply  esc: cancel"
	}
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody() string {
	if m.errMsg != "" {
		return "Failed to load stats."
	}
	if len(m.tables[m.activeTab].Rows()) == 0 {
		switch m.activeTab {
		case tabWords:
			return "No words found."
		case tabChords:
			return "No chords found."
		default:
			return "No banned words."
		}
	}
	return tableMutedStyle.Render(m.tables[m.activeTab].View())
}

func (m *Model) startSearch() (tea.Model, tea.Cmd) {
	m.searchMode = true
	m.searchInput.SetValue(m.opts.Search)
	m.searchInput.CursorEnd()
	return m, m.searchInput.Focus()
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searchMode = false
		m.searchInput.Blur()
		m.opts.Search = m.searchInput.Value()
		m.refreshReport()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.src, m.opts)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	report.Banned = filterBanned(report.Banned, m.opts.Search)
	stats.SortBanlist(report.Banned, m.banSort, m.banDesc)
	m.report = report

	setTable(&m.tables[tabWords], stats.WordHeaders, stats.WordRows(report.Words))
	setTable(&m.tables[tabChords], stats.ChordHeaders, stats.ChordRows(report.Chords))
	setTable(&m.tables[tabBanlist], stats.BanlistHeaders, stats.BanlistRows(report.Banned))
	m.updateLayout()
}

func filterBanned(entries []model.BanlistEntry, search string) []model.BanlistEntry {
	if search == "" {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if strings.Contains(e.Word, search) {
			out = append(out, e)
		}
	}
	return out
}

// setTable replaces columns and rows, sizing each column to its widest cell.
func setTable(t *table.Model, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		cells := make(table.Row, len(row))
		for i, cell := range row {
			cell = runewidth.Truncate(cell, maxColumnWidth, "…")
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
			cells[i] = cell
		}
		tableRows = append(tableRows, cells)
	}
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: widths[i]}
	}
	// Rows must shrink before columns do or the table indexes past the new column count.
	t.SetRows(nil)
	t.SetColumns(columns)
	t.SetRows(tableRows)
	t.GotoTop()
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func nextCaseMode(mode model.CaseMode) model.CaseMode {
	for i, m := range model.CaseModes {
		if m == mode {
			return model.CaseModes[(i+1)%len(model.CaseModes)]
		}
	}
	return model.CaseModes[0]
}

func nextSort(field model.SortField) model.SortField {
	for i, f := range wordSorts {
		if f == field {
			return wordSorts[(i+1)%len(wordSorts)]
		}
	}
	return wordSorts[0]
}

func nextBanSort(field model.SortField) model.SortField {
	if field == model.SortDateAdded {
		return model.SortText
	}
	return model.SortDateAdded
}

func orderName(descending bool) string {
	if descending {
		return "desc"
	}
	return "asc"
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
