package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qualtrack/internal/bootstrap/logging"
	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/usecase/qualification"
)

const maxActionLines = 6

// Service is the part of the qualification service the dashboard reads and drives.
type Service interface {
	ListEquipment(ctx context.Context, statuses []string) ([]qualification.EquipmentView, error)
	GetEquipmentStatus(ctx context.Context, equipmentID uint64) (qualification.EquipmentStatusView, error)
	Summary(ctx context.Context) (qualification.Summary, error)
	SweepRequalifications(ctx context.Context, actor string) (qualification.SweepResult, error)
}

type Options struct {
	StatusFilter    string
	Actor           string
	RefreshInterval time.Duration
}

type model struct {
	ctx             context.Context
	service         Service
	actor           string
	refreshInterval time.Duration

	filters     []string
	filterIndex int

	items         []qualification.EquipmentView
	selectedIndex int
	detail        qualification.EquipmentStatusView
	hasDetail     bool
	summary       qualification.Summary
	status        string
	actions       []string
}

type equipmentLoadedMsg struct {
	items   []qualification.EquipmentView
	summary qualification.Summary
	err     error
}

type detailLoadedMsg struct {
	equipmentID uint64
	detail      qualification.EquipmentStatusView
	err         error
}

type sweepDoneMsg struct {
	result qualification.SweepResult
	err    error
}

type tickMsg struct{}

// NewModel builds the read-mostly equipment console. The filter cycles through every equipment status.
func NewModel(ctx context.Context, service Service, options Options) tea.Model {
	filters := []string{""}
	for _, s := range domainqual.EquipmentStatuses() {
		filters = append(filters, string(s))
	}
	filterIndex := 0
	for i, f := range filters {
		if strings.EqualFold(f, strings.TrimSpace(options.StatusFilter)) {
			filterIndex = i
		}
	}

	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &model{
		ctx:             logging.WithAttrs(ctx, slog.String("component", "dashboard")),
		service:         service,
		actor:           firstNonEmpty(strings.TrimSpace(options.Actor), "System"),
		refreshInterval: interval,
		filters:         filters,
		filterIndex:     filterIndex,
		status:          "loading",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.loadEquipmentCmd(), m.tickCmd())
}

func (m *model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadEquipmentCmd(), m.tickCmd())
	case equipmentLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		m.summary = msg.summary
		if len(m.items) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "no equipment"
			return m, nil
		}
		if m.selectedIndex >= len(m.items) {
			m.selectedIndex = len(m.items) - 1
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		m.status = fmt.Sprintf("refreshed, %d equipment", len(m.items))
		return m, m.loadDetailCmd()
	case detailLoadedMsg:
		selected, found := m.selected()
		if !found || selected.EquipmentID != msg.equipmentID {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case sweepDoneMsg:
		if msg.err != nil {
			m.status = "sweep failed: " + msg.err.Error()
			m.appendAction("sweep failed: " + msg.err.Error())
			return m, nil
		}
		m.status = fmt.Sprintf("sweep checked %d, changed %d", msg.result.Checked, len(msg.result.Changed))
		if len(msg.result.Failed) > 0 {
			m.status += fmt.Sprintf(", failed %d", len(msg.result.Failed))
		}
		m.appendAction(m.status)
		for _, change := range msg.result.Changed {
			m.appendAction(fmt.Sprintf("%s %s -> %s (due %s)", change.Tag, change.From, change.To, change.DueDate))
		}
		for _, failure := range msg.result.Failed {
			m.appendAction(fmt.Sprintf("equipment %d: %s", failure.EquipmentID, failure.Error))
		}
		return m, m.loadEquipmentCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadEquipmentCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.items)-1 {
				m.selectedIndex++
				return m, m.loadDetailCmd()
			}
			return m, nil
		case "f":
			m.filterIndex = (m.filterIndex + 1) % len(m.filters)
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "filter: " + firstNonEmpty(m.filters[m.filterIndex], "all")
			return m, m.loadEquipmentCmd()
		case "s":
			m.status = "running requalification sweep"
			return m, m.sweepCmd()
		}
	}
	return m, nil
}

func (m *model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Qualification Dashboard"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"filter=%s actor=%s refresh=%s",
		firstNonEmpty(m.filters[m.filterIndex], "all"),
		m.actor,
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Summary"))
	builder.WriteString("\n")
	s := m.summary
	builder.WriteString(fmt.Sprintf(
		"total=%d qualified=%d in_progress=%d not_started=%d failed=%d\n",
		s.Total, s.Qualified, s.InProgress, s.NotStarted, s.Failed,
	))
	builder.WriteString(fmt.Sprintf(
		"maintenance=%d revalidation=%d due=%d overdue=%d\n\n",
		s.UnderMaintenance, s.RevalidationRequired, s.RequalificationDue, s.Overdue,
	))

	builder.WriteString(sectionStyle.Render("Equipment"))
	builder.WriteString("\n")
	if len(m.items) == 0 {
		builder.WriteString(dimStyle.Render("- no equipment"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.items {
			line := fmt.Sprintf("%s [%s] %s dept=%s next_due=%s",
				item.Tag,
				statusStyle(item.Status).Render(item.Status),
				item.Name,
				item.Department,
				firstNonEmpty(item.NextDueDate, "-"),
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> ") + line)
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		d := m.detail
		builder.WriteString(fmt.Sprintf("Tag: %s (assigned=%t)\n", d.Tag, d.TagAssigned))
		builder.WriteString(fmt.Sprintf("Status: %s\n", d.Status))
		builder.WriteString(fmt.Sprintf("Open breakdowns: %d  Pending revalidation: %d\n", d.OpenBreakdowns, d.PendingRevalidation))
		builder.WriteString(fmt.Sprintf("Next due: %s  Standing: %s\n", firstNonEmpty(d.NextDueDate, "-"), firstNonEmpty(d.RequalificationStanding, "-")))
		builder.WriteString(phaseLine(d.Phases))
		builder.WriteString("\n\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Actions"))
	builder.WriteString("\n")
	if len(m.actions) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.actions {
			builder.WriteString("- " + line + "\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  f filter  s sweep  g refresh  q quit"))
	return builder.String()
}

func (m *model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *model) loadEquipmentCmd() tea.Cmd {
	var statuses []string
	if f := m.filters[m.filterIndex]; f != "" {
		statuses = []string{f}
	}
	return func() tea.Msg {
		items, err := m.service.ListEquipment(m.ctx, statuses)
		if err != nil {
			return equipmentLoadedMsg{err: err}
		}
		summary, err := m.service.Summary(m.ctx)
		if err != nil {
			return equipmentLoadedMsg{err: err}
		}
		return equipmentLoadedMsg{items: items, summary: summary}
	}
}

func (m *model) loadDetailCmd() tea.Cmd {
	selected, found := m.selected()
	if !found {
		return nil
	}
	return func() tea.Msg {
		detail, err := m.service.GetEquipmentStatus(m.ctx, selected.EquipmentID)
		return detailLoadedMsg{equipmentID: selected.EquipmentID, detail: detail, err: err}
	}
}

func (m *model) sweepCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.service.SweepRequalifications(m.ctx, m.actor)
		if err != nil {
			logging.Warn(m.ctx, "dashboard sweep failed", slog.Any("err", errs.Loggable(err)))
		}
		return sweepDoneMsg{result: result, err: err}
	}
}

func (m *model) selected() (qualification.EquipmentView, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return qualification.EquipmentView{}, false
	}
	return m.items[m.selectedIndex], true
}

func (m *model) appendAction(line string) {
	m.actions = append(m.actions, time.Now().Format("15:04:05")+" "+line)
	if len(m.actions) > maxActionLines {
		m.actions = m.actions[len(m.actions)-maxActionLines:]
	}
}

// phaseLine renders URS>DQ>... with a lock mark on phases the gate still holds back.
func phaseLine(phases []qualification.PhaseView) string {
	parts := make([]string, 0, len(phases))
	for _, p := range phases {
		mark := ""
		if !p.Unlocked {
			mark = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%s:%s", p.Phase, mark, p.Status))
	}
	return "Phases: " + strings.Join(parts, "  ")
}

func statusStyle(status string) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch domainqual.Status(status) {
	case domainqual.StatusQualified:
		return style.Foreground(lipgloss.Color("42"))
	case domainqual.StatusFailed, domainqual.StatusOverdue:
		return style.Foreground(lipgloss.Color("196"))
	case domainqual.StatusUnderMaintenance, domainqual.StatusRevalidationRequired, domainqual.StatusRequalificationDue:
		return style.Foreground(lipgloss.Color("214"))
	default:
		return style
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
