package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/listing"
	"github.com/hostelctl/hostelctl/internal/model"
	"github.com/hostelctl/hostelctl/internal/tui/themes"
)

// DefaultBannerTTL is how long an error banner stays up.
const DefaultBannerTTL = 4 * time.Second

// chromeHeight is the number of lines around the table.
const chromeHeight = 7

type banner struct {
	text     string
	severity api.Severity
	seq      int
}

// ListModel browses one screen with infinite scroll.
type ListModel[T model.Entity] struct {
	ctx       context.Context
	ctrl      *listing.Controller[T]
	screen    listing.Screen[T]
	keys      KeyMap
	theme     themes.Theme
	snap      listing.Snapshot[T]
	search    textinput.Model
	table     table.Model
	banner    banner
	help      help.Model
	spinner   spinner.Model
	bannerTTL time.Duration
	width     int
	height    int
	searching bool
}

// NewListModel creates a model over ctrl. Nothing is fetched until Init.
func NewListModel[T model.Entity](ctx context.Context, screen listing.Screen[T], ctrl *listing.Controller[T], opts ...Option) ListModel[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	columns := make([]table.Column, len(screen.Columns))
	for i, col := range screen.Columns {
		columns[i] = table.Column{Title: col.Title, Width: col.Width}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(cfg.Height-chromeHeight, 3)),
	)
	s := table.DefaultStyles()
	s.Header = cfg.Theme.Header
	s.Selected = cfg.Theme.Selected
	t.SetStyles(s)

	search := textinput.New()
	search.Placeholder = "Search " + strings.ToLower(screen.Title) + "..."
	search.CharLimit = 64
	search.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	return ListModel[T]{
		ctx:       ctx,
		ctrl:      ctrl,
		screen:    screen,
		keys:      cfg.Keys,
		theme:     cfg.Theme,
		table:     t,
		search:    search,
		spinner:   sp,
		help:      help.New(),
		bannerTTL: cfg.BannerTTL,
		width:     cfg.Width,
		height:    cfg.Height,
		snap:      ctrl.Snapshot(),
	}
}

// Init loads the first page.
func (m ListModel[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reload())
}

// Update handles messages.
func (m ListModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(m.height-chromeHeight, 3))
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.sync()
		err := m.ctrl.TakeError()
		if err == nil {
			err = msg.err
		}
		if err != nil {
			text := api.UserMessage(err)
			if api.IsRetryable(err) {
				text += " Press r to retry."
			}
			return m.alert(api.SeverityOf(err), text)
		}
		return m, nil

	case bannerExpiredMsg:
		if msg.seq == m.banner.seq {
			m.banner.text = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m ListModel[T]) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()

	case key.Matches(msg, m.keys.Search):
		if !m.ctrl.Supports(listing.KeySearch) {
			return m.alert(api.SeverityInfo, m.screen.Title+" cannot be searched")
		}
		m.searching = true
		m.search.SetValue(m.snap.Filters.Search)
		m.search.CursorEnd()
		m.table.Blur()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Status):
		statuses := m.ctrl.Statuses()
		if len(statuses) == 0 {
			return m.alert(api.SeverityInfo, m.screen.Title+" have no status filter")
		}
		next := nextStatus(statuses, m.snap.Filters.Status)
		return m.applyFilters(func(f *listing.FilterSet) error { return f.SetStatus(next) })

	case key.Matches(msg, m.keys.Quick):
		if !m.ctrl.Supports(listing.KeyQuickFilter) {
			return m.alert(api.SeverityInfo, m.screen.Title+" have no date filter")
		}
		next := nextQuick(m.snap.Filters.Quick)
		return m.applyFilters(func(f *listing.FilterSet) error { return f.SetQuickFilter(next) })

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.ClearFilters()
		m.sync()
		return m, m.reload()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if m.ctrl.ShouldLoadMore(m.table.Cursor()) {
		return m, tea.Batch(cmd, m.loadMore())
	}
	return m, cmd
}

func (m ListModel[T]) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		value := m.search.Value()
		m.endSearch()
		return m.applyFilters(func(f *listing.FilterSet) error { return f.SetSearch(value) })

	case key.Matches(msg, m.keys.Cancel):
		m.endSearch()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *ListModel[T]) endSearch() {
	m.searching = false
	m.search.Blur()
	m.table.Focus()
}

// applyFilters changes the filters now and reloads in the background, so
// the badge updates before the new page arrives.
func (m ListModel[T]) applyFilters(fn func(*listing.FilterSet) error) (tea.Model, tea.Cmd) {
	if err := m.ctrl.UpdateFilters(fn); err != nil {
		return m.alert(api.SeverityError, api.UserMessage(err))
	}
	m.sync()
	return m, m.reload()
}

func (m ListModel[T]) reload() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_ = ctrl.Reset(ctx)
		return loadedMsg{}
	}
}

func (m ListModel[T]) loadMore() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_, _ = ctrl.LoadMore(ctx)
		return loadedMsg{}
	}
}

// sync copies the controller state into the table.
func (m *ListModel[T]) sync() {
	m.snap = m.ctrl.Snapshot()

	rows := make([]table.Row, len(m.snap.Items))
	for i, item := range m.snap.Items {
		rows[i] = m.screen.Row(item)
	}
	m.table.SetRows(rows)
	if !m.snap.Appended && m.snap.State == listing.StateLoaded {
		m.table.GotoTop()
	}
}

func (m ListModel[T]) alert(severity api.Severity, text string) (tea.Model, tea.Cmd) {
	m.banner = banner{text: text, severity: severity, seq: m.banner.seq + 1}
	seq := m.banner.seq
	return m, tea.Tick(m.bannerTTL, func(time.Time) tea.Msg {
		return bannerExpiredMsg{seq: seq}
	})
}

// View renders the list.
func (m ListModel[T]) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	if summary := describeFilters(m.snap.Filters); summary != "" {
		b.WriteString(m.theme.Subtitle.Render(summary))
		b.WriteString("\n")
	}
	if m.banner.text != "" {
		b.WriteString(bannerStyle(m.theme, m.banner.severity).Render(m.banner.text))
		b.WriteString("\n")
	}
	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m ListModel[T]) headerView() string {
	parts := []string{m.theme.Title.Render(m.screen.Title)}
	if n := m.snap.Active; n > 0 {
		label := "1 filter"
		if n > 1 {
			label = fmt.Sprintf("%d filters", n)
		}
		parts = append(parts, m.theme.Badge.Render(label))
	}
	if m.snap.Cursor.Trusted {
		parts = append(parts, m.theme.Subtitle.Render(countLabel(len(m.snap.Items), m.snap.Fetched, m.snap.Pagination.Total)))
	}
	return strings.Join(parts, "  ")
}

func (m ListModel[T]) footerView() string {
	switch {
	case m.snap.State == listing.StateLoading:
		return m.spinner.View() + " " + m.theme.StatusPending.Render("Loading...")
	case m.snap.Cursor.Trusted && len(m.snap.Items) == 0:
		return m.theme.StatusPending.Render("No records match the current filters")
	case m.snap.Cursor.Trusted && !m.snap.Cursor.HasMore:
		return m.theme.StatusPending.Render("End of list")
	default:
		return ""
	}
}

// countLabel reports shown records against the server total. A page-local
// filter can hide records, in which case the fetched count is given too.
func countLabel(shown, fetched, total int) string {
	if shown != fetched {
		return fmt.Sprintf("%d shown (%d of %d loaded)", shown, fetched, total)
	}
	return fmt.Sprintf("%d of %d", shown, total)
}

func bannerStyle(theme themes.Theme, severity api.Severity) lipgloss.Style {
	switch severity {
	case api.SeverityInfo:
		return theme.StatusInfo
	case api.SeverityWarning, api.SeverityConflict:
		return theme.StatusWarning
	default:
		return theme.StatusError
	}
}

// nextStatus cycles through statuses and then back to no status.
func nextStatus(statuses []string, current string) string {
	if current == "" {
		return statuses[0]
	}
	for i, s := range statuses {
		if s == current && i+1 < len(statuses) {
			return statuses[i+1]
		}
	}
	return ""
}

// nextQuick cycles through the quick filters and then back to none.
func nextQuick(current listing.QuickFilter) listing.QuickFilter {
	if current == "" {
		return listing.QuickFilters[0]
	}
	for i, q := range listing.QuickFilters {
		if q == current && i+1 < len(listing.QuickFilters) {
			return listing.QuickFilters[i+1]
		}
	}
	return ""
}

// describeFilters summarizes the active filters on one line.
func describeFilters(f listing.Filters) string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("status", f.Status)
	switch {
	case f.Quick != "":
		add("period", strings.ToLower(strings.ReplaceAll(string(f.Quick), "_", " ")))
	case !f.StartDate.IsZero() || !f.EndDate.IsZero():
		add("from", f.StartDate.String())
		add("to", f.EndDate.String())
	case f.Month != 0 || f.Year != 0:
		period := ""
		if f.Month != 0 {
			period = time.Month(f.Month).String()
		}
		if f.Year != 0 {
			period = strings.TrimSpace(fmt.Sprintf("%s %d", period, f.Year))
		}
		add("period", period)
	}
	if f.RoomID != 0 {
		add("room", fmt.Sprint(f.RoomID))
	}
	if f.BedID != 0 {
		add("bed", fmt.Sprint(f.BedID))
	}
	if f.TenantID != 0 {
		add("tenant", fmt.Sprint(f.TenantID))
	}
	add("type", f.ExpenseType)
	add("search", quoteIf(f.Search))
	for _, flag := range []listing.Key{listing.FlagPendingRent, listing.FlagCheckedOut} {
		if f.Flag(flag) {
			parts = append(parts, strings.ReplaceAll(string(flag), "_", " "))
		}
	}

	return strings.Join(parts, " · ")
}

func quoteIf(s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("%q", s)
}
