package tui

import (
	"fmt"

	"veloplan/internal/service"
	"veloplan/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// PlannerModel is the pacing planner screen. It starts as a ride
// picker; selecting a ride runs the optimizer over its route and
// shows the resulting plan.
type PlannerModel struct {
	queryService *service.QueryService
	units        Units

	rides    []store.Activity
	cursor   int
	offset   int
	pageSize int

	plan    *service.CoursePlan
	loading bool
	err     error
}

// NewPlannerModel creates a new planner model
func NewPlannerModel(qs *service.QueryService, units Units) PlannerModel {
	return PlannerModel{
		queryService: qs,
		units:        units,
		pageSize:     15,
		loading:      true,
	}
}

// Init initializes the planner screen
func (m PlannerModel) Init() tea.Cmd {
	return m.loadRides
}

type ridesLoadedMsg struct {
	rides []store.Activity
	err   error
}

type planLoadedMsg struct {
	plan *service.CoursePlan
	err  error
}

func (m PlannerModel) loadRides() tea.Msg {
	rides, err := m.queryService.ListRides(m.pageSize, m.offset)
	return ridesLoadedMsg{rides: rides, err: err}
}

func (m PlannerModel) loadPlan(activityID int64) tea.Cmd {
	return func() tea.Msg {
		plan, err := m.queryService.PlanPacing(activityID)
		return planLoadedMsg{plan: plan, err: err}
	}
}

// Update handles messages
func (m PlannerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ridesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.rides = msg.rides
		if m.cursor >= len(m.rides) {
			m.cursor = 0
		}

	case planLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.plan = msg.plan

	case tea.KeyMsg:
		if m.plan != nil || m.err != nil {
			switch msg.String() {
			case "esc", "backspace":
				m.plan = nil
				m.err = nil
				return m, nil
			}
			if m.plan != nil {
				return m, nil
			}
		}

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
				m.loading = true
				return m, m.loadRides
			}
		case "down", "j":
			if m.cursor < len(m.rides)-1 {
				m.cursor++
			} else if len(m.rides) == m.pageSize {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadRides
			}
		case "r":
			m.loading = true
			return m, m.loadRides
		case "enter":
			if len(m.rides) > 0 && m.cursor < len(m.rides) {
				m.loading = true
				return m, m.loadPlan(m.rides[m.cursor].ID)
			}
		}
	}
	return m, nil
}

// View renders the planner screen
func (m PlannerModel) View() string {
	if m.loading {
		return "\n  Working..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)) +
			"\n" + statusStyle.Render("  Press esc to go back")
	}

	if m.plan != nil {
		return m.renderPlan()
	}

	return m.renderPicker()
}

func (m PlannerModel) renderPicker() string {
	if len(m.rides) == 0 {
		return "\n  No rides stored. Press 's' to sync with Strava."
	}

	var sections []string

	title := cardTitleStyle.Render("Pick a ride to pace")
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-10s  %-28s  %8s  %8s",
		"Date", "Name", "Distance", "Climb"))
	sections = append(sections, header)

	for i, a := range m.rides {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-10s  %-28s  %8s  %8s",
			cursor,
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 28),
			m.units.FormatDistance(a.Distance),
			m.units.FormatElevation(a.TotalElevationGain),
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: plan pacing  j/k: navigate  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlannerModel) renderPlan() string {
	var sections []string

	summary := m.renderSummaryCard()
	segs := m.renderSegmentTable()
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, summary, "  ", segs)
	sections = append(sections, topRow)

	if elevation := m.renderElevation(); elevation != "" {
		sections = append(sections, elevation)
	}
	sections = append(sections, m.renderSweepTable())

	help := statusStyle.Render("  esc: back to ride list")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlannerModel) renderSummaryCard() string {
	title := cardTitleStyle.Render("Pacing Plan - " + truncateName(m.plan.Activity.Name, 24))

	a := m.plan.Analysis
	powerLine := RenderMetric("Target Power", FormatPower(a.PowerW), "")
	if m.plan.Result.FromFallback {
		powerLine += "\n" + warningStyle.Render("  conservative fallback")
	}

	lines := []string{
		powerLine,
		RenderMetric("Est. Time", FormatDuration(a.TotalSec), ""),
		RenderMetric("Distance", fmt.Sprintf("%.1f km", a.TotalDistanceKm), ""),
		RenderMetric("Avg Speed", fmt.Sprintf("%.1f km/h", a.AvgSpeedKmh), ""),
		RenderMetric("Climbing", fmt.Sprintf("%.0f m", a.ElevationGainM), ""),
		"",
		RenderMetric("W' Used", fmt.Sprintf("%.0f%%", a.WUtilizationPct), ""),
		RenderMetric("W' Left", fmt.Sprintf("%.1f kJ", a.FinalWRemainingJ/1000), ""),
		RenderMetric("Work", fmt.Sprintf("%.0f kJ", a.TotalEnergyKJ), ""),
		RenderMetric("IF", fmt.Sprintf("%.2f", a.IntensityFactor), ""),
		RenderMetric("TSS", fmt.Sprintf("%.0f", a.TSSEstimate), ""),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m PlannerModel) renderSegmentTable() string {
	title := cardTitleStyle.Render("Segments")

	header := tableHeaderStyle.Render(fmt.Sprintf("%3s  %7s  %6s  %7s  %7s",
		"#", "Dist", "Grade", "Speed", "W' left"))

	var rows []string
	rows = append(rows, header)

	for i, r := range m.plan.Result.Outcome.Results {
		flag := " "
		if r.SpeedEstimated {
			flag = "~"
		}
		row := tableRowStyle.Render(fmt.Sprintf("%3d  %5.2fkm  %+5.1f%%  %5.1f%s  %6.1fkJ",
			i+1,
			r.Segment.DistanceM/1000,
			r.Segment.Gradient*100,
			r.SpeedMS*3.6, flag,
			r.WRemainingJ/1000,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m PlannerModel) renderElevation() string {
	points := m.plan.Course.Points
	if len(points) < 3 {
		return ""
	}

	// Downsample long traces so the chart stays terminal-width.
	const maxSamples = 70
	step := 1
	if len(points) > maxSamples {
		step = len(points) / maxSamples
	}
	series := make([]float64, 0, maxSamples)
	for i := 0; i < len(points); i += step {
		series = append(series, points[i].AltitudeM)
	}

	title := cardTitleStyle.Render("Elevation Profile")
	graph := asciigraph.Plot(series,
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.Precision(0),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m PlannerModel) renderSweepTable() string {
	title := cardTitleStyle.Render("What if you rode harder?")

	header := tableHeaderStyle.Render(fmt.Sprintf("%8s  %10s  %9s", "Power", "Time", "W' left"))

	var rows []string
	rows = append(rows, header)

	for _, row := range m.plan.Sweep {
		timeStr := "blows up"
		wLeft := "-"
		if row.Outcome.Feasible() {
			timeStr = FormatDuration(row.Outcome.TotalSec)
			wLeft = fmt.Sprintf("%.1f kJ", row.Outcome.FinalWRemainingJ/1000)
		}

		line := fmt.Sprintf("%7.0fW  %10s  %9s", row.PowerW, timeStr, wLeft)
		if !row.Outcome.Feasible() {
			rows = append(rows, tableRowStyle.Render(errorStyle.Render(line)))
		} else {
			rows = append(rows, tableRowStyle.Render(line))
		}
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}
