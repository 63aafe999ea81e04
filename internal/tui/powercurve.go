package tui

import (
	"fmt"

	"veloplan/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// PowerCurveModel is the power-duration curve screen model
type PowerCurveModel struct {
	queryService *service.QueryService
	data         *service.PowerCurveData
	loading      bool
	err          error
}

// NewPowerCurveModel creates a new power curve model
func NewPowerCurveModel(qs *service.QueryService) PowerCurveModel {
	return PowerCurveModel{
		queryService: qs,
		loading:      true,
	}
}

// Init initializes the power curve screen
func (m PowerCurveModel) Init() tea.Cmd {
	return m.loadData
}

type powerCurveMsg struct {
	data *service.PowerCurveData
	err  error
}

func (m PowerCurveModel) loadData() tea.Msg {
	data, err := m.queryService.GetPowerCurve()
	if err != nil {
		return powerCurveMsg{err: err}
	}
	return powerCurveMsg{data: data}
}

// Update handles messages
func (m PowerCurveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case powerCurveMsg:
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

// View renders the power curve screen
func (m PowerCurveModel) View() string {
	if m.loading {
		return "\n  Loading power curve..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || len(m.data.Points) == 0 {
		return "\n  No power data yet. Press 's' to sync power-meter rides."
	}

	var sections []string

	if len(m.data.Points) > 2 {
		sections = append(sections, m.renderChart())
	}
	sections = append(sections, m.renderTable())

	help := statusStyle.Render("Press 'r' to refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PowerCurveModel) renderChart() string {
	title := cardTitleStyle.Render("Power Curve - Best Efforts by Duration")

	series := make([]float64, len(m.data.Points))
	for i, p := range m.data.Points {
		series[i] = p.BestWatts
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(0),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m PowerCurveModel) renderTable() string {
	title := cardTitleStyle.Render("Measured vs Model")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %8s  %8s  %8s",
		"Duration", "Best", "Model", "Delta"))

	var rows []string
	rows = append(rows, header)

	for _, p := range m.data.Points {
		model := "-"
		delta := "-"
		if m.data.Physiology != nil {
			model = fmt.Sprintf("%.0f W", p.ModelWatts)
			delta = fmt.Sprintf("%+.0f W", p.BestWatts-p.ModelWatts)
		}

		row := tableRowStyle.Render(fmt.Sprintf("%-10s  %7.0fW  %8s  %8s",
			formatEffortDuration(p.DurationSec), p.BestWatts, model, delta))
		rows = append(rows, row)
	}

	if phys := m.data.Physiology; phys != nil {
		footer := statusStyle.Render(fmt.Sprintf("Model: P(t) = %.0f + %.0f/t", phys.CriticalPower, phys.WPrime))
		rows = append(rows, footer)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}
