package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/listing"
	"github.com/hostelctl/hostelctl/internal/stats"
	"github.com/hostelctl/hostelctl/internal/tui/themes"
)

// RenderTable draws rows as a bordered table for non-interactive output.
func RenderTable(theme themes.Theme, headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Bold.Padding(0, 1)
			}
			return theme.Normal.Padding(0, 1)
		})
	return t.Render()
}

// RenderListSummary describes a page of a list below its table.
func RenderListSummary(theme themes.Theme, shown, fetched int, cursor listing.Cursor, total, active int) string {
	parts := []string{countLabel(shown, fetched, total)}
	if active > 0 {
		parts = append(parts, theme.Badge.Render(fmt.Sprintf("%d active", active)))
	}
	if cursor.HasMore {
		parts = append(parts, fmt.Sprintf("more after page %d", cursor.Page))
	}
	return theme.Subtitle.Render(strings.Join(parts, "  "))
}

// RenderAlert formats err as one line styled by severity.
func RenderAlert(theme themes.Theme, err error) string {
	severity := api.SeverityOf(err)
	return bannerStyle(theme, severity).Render(fmt.Sprintf("[%s] %s", severity, api.UserMessage(err)))
}

// RenderDashboard draws the statistics summary.
func RenderDashboard(theme themes.Theme, s stats.Summary, location string) string {
	var b strings.Builder

	title := "Dashboard"
	if location != "" {
		title += " · " + location
	}
	b.WriteString(theme.Title.Render(title))
	b.WriteString("\n\n")

	if s.HaveStats {
		st := s.Stats
		occupancy := "-"
		if st.TotalBeds > 0 {
			occupancy = fmt.Sprintf("%d%%", st.OccupiedBeds*100/st.TotalBeds)
		}
		cards := []string{
			card(theme, "Collected this month", listing.Money(st.MonthlyCollection)),
			card(theme, "Expenses this month", listing.Money(st.MonthlyExpenses)),
			card(theme, "Pending rent", fmt.Sprintf("%s (%d)", listing.Money(st.PendingRentAmount), st.PendingRentCount)),
			card(theme, "Occupancy", fmt.Sprintf("%s of %d beds", occupancy, st.TotalBeds)),
			card(theme, "Active tenants", fmt.Sprint(st.ActiveTenants)),
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		b.WriteString("\n")
	}

	if len(s.Totals) > 0 {
		names := make([]string, 0, len(s.Totals))
		for name := range s.Totals {
			names = append(names, name)
		}
		slices.Sort(names)

		rows := make([][]string, len(names))
		for i, name := range names {
			rows[i] = []string{name, fmt.Sprint(s.Totals[name])}
		}
		b.WriteString(RenderTable(theme, []string{"List", "Records"}, rows))
		b.WriteString("\n")
	}

	if len(s.Stale) > 0 {
		b.WriteString(theme.StatusWarning.Render("Could not refresh: " + strings.Join(s.Stale, ", ")))
		b.WriteString("\n")
	}
	if !s.UpdatedAt.IsZero() {
		b.WriteString(theme.StatusPending.Render("Updated " + s.UpdatedAt.Format(time.Kitchen)))
		b.WriteString("\n")
	}

	return b.String()
}

func card(theme themes.Theme, label, value string) string {
	return theme.RoundedBox.Render(theme.Subtitle.Render(label) + "\n" + theme.Bold.Render(value))
}
