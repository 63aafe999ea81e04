package tui

import (
	"fmt"
	"sort"

	"veloplan/internal/service"
	"veloplan/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	units        Units
	data         *service.DashboardData
	loading      bool
	err          error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, units Units) DashboardModel {
	return DashboardModel{
		queryService: qs,
		units:        units,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.GetDashboardData()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available. Press 's' to sync with Strava."
	}

	var sections []string

	// Top row: rider profile and best efforts side by side
	profileCard := m.renderProfileCard()
	effortsCard := m.renderEffortsCard()
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, profileCard, "  ", effortsCard)
	sections = append(sections, topRow)

	rides := m.renderRecentRides()
	sections = append(sections, rides)

	help := statusStyle.Render("Press 'r' to refresh, 's' to sync, '3' to plan pacing")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderProfileCard() string {
	title := cardTitleStyle.Render("Rider Profile")

	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)

	var lines []string
	if phys := m.data.Physiology; phys != nil {
		lines = append(lines,
			RenderMetric("Critical Power", FormatPower(phys.CriticalPower), ""),
			RenderMetric("W' Capacity", fmt.Sprintf("%.1f kJ", phys.WPrime/1000), ""),
		)
		if phys.RSquared != nil {
			lines = append(lines, RenderMetric("Fit R²", fmt.Sprintf("%.3f", *phys.RSquared), ""))
		}
		lines = append(lines, "", mutedStyle.Render(describeSource(phys)))
	} else {
		lines = append(lines,
			"No profile yet.",
			"",
			mutedStyle.Render("Sync power-meter rides or set"),
			mutedStyle.Render("rider.critical_power in config."),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(38).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func describeSource(phys *store.Physiology) string {
	if phys.Source == store.PhysiologySourceArchetype && phys.Archetype != nil {
		return "Estimated from " + *phys.Archetype + " archetype"
	}
	return "Fitted from ride best efforts"
}

func (m DashboardModel) renderEffortsCard() string {
	title := cardTitleStyle.Render("Best Efforts")

	if len(m.data.BestEfforts) == 0 {
		return cardStyle.Width(30).Render(lipgloss.JoinVertical(lipgloss.Left, title, "No power data yet"))
	}

	durations := make([]int, 0, len(m.data.BestEfforts))
	for d := range m.data.BestEfforts {
		durations = append(durations, d)
	}
	sort.Ints(durations)

	var lines []string
	for _, d := range durations {
		lines = append(lines, RenderMetric(formatEffortDuration(d), FormatPower(m.data.BestEfforts[d]), ""))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(30).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderRecentRides() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Recent Rides (%d total)", m.data.TotalRides))

	if len(m.data.RecentRides) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No rides yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-24s  %8s  %7s  %6s  %6s",
		"Date", "Name", "Distance", "Time", "Avg W", "NP"))

	var rows []string
	rows = append(rows, header)

	for i, a := range m.data.RecentRides {
		if i >= 5 {
			break
		}

		avgW := "-"
		if a.AverageWatts != nil {
			avgW = fmt.Sprintf("%.0f", *a.AverageWatts)
		}

		np := "-"
		if a.WeightedAverageWatts != nil {
			np = fmt.Sprintf("%.0f", *a.WeightedAverageWatts)
		}

		row := tableRowStyle.Render(fmt.Sprintf("%-10s  %-24s  %8s  %7s  %6s  %6s",
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 24),
			m.units.FormatDistance(a.Distance),
			FormatDuration(float64(a.MovingTime)),
			avgW,
			np,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func formatEffortDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dmin", seconds/60)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
