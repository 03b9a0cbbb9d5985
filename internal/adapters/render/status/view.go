package status

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

func renderView(status application.CastStatus, s styles) string {
	lines := []string{
		s.title.Render("Cast Status"),
		s.header.Render(headerLine(status)),
	}

	if len(status.Agents) == 0 {
		lines = append(lines, s.empty.Render("No agents configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, agent := range status.Agents {
		lines = append(lines, s.section.Render(renderAgent(agent, status.Now, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderCompact prints the header and one line per agent.
func renderCompact(status application.CastStatus, s styles) string {
	lines := []string{s.header.Render(headerLine(status))}
	for _, agent := range status.Agents {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.agent.Render(agentTitle(agent.Profile)),
			" ",
			roleBadge(agent.Role, s),
			" ",
			presenceLabel(agent.Online, s),
			" ",
			s.detail.Render(fmt.Sprintf("%02d-%02d", agent.Window.Wake, agent.Window.Sleep)),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(status application.CastStatus) string {
	parts := []string{fmt.Sprintf("agents: %d", len(status.Agents))}
	if status.Rotation.Lead != "" {
		parts = append(parts, "lead: "+string(status.Rotation.Lead))
	}
	if status.Theme != "" {
		parts = append(parts, "theme: "+status.Theme)
	}
	parts = append(parts, fmt.Sprintf("memories: %d", status.Memories))
	if !status.Now.IsZero() {
		parts = append(parts, "now: "+status.Now.Format("15:04 Mon 02 Jan"))
	}

	return strings.Join(parts, " | ")
}

func renderAgent(agent application.AgentStatus, now time.Time, s styles) string {
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.agent.Render(agentTitle(agent.Profile)),
		" ",
		roleBadge(agent.Role, s),
		" ",
		presenceLabel(agent.Online, s),
	)

	parts := []string{
		title,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.detail.Render(fmt.Sprintf("window: %02d:00 -> %02d:00", agent.Window.Wake, agent.Window.Sleep)),
			" ",
			renderDayBar(agent.Window, now, s),
		),
		s.detail.Render(lastSpokeLine(agent.LastSpoke, now)),
	}

	if closest := closestLine(agent.Affinity); closest != "" {
		parts = append(parts, s.detail.Render(closest))
	}
	if agent.SignoffDate != "" {
		parts = append(parts, s.detail.Render(fmt.Sprintf("signs off at %02d:00", agent.Window.Sleep)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func agentTitle(profile domain.AgentProfile) string {
	name := profile.DisplayName()
	if name == string(profile.ID) {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, profile.ID)
}

func roleBadge(role domain.Role, s styles) string {
	if role == "" {
		return ""
	}
	label := "[" + string(role) + "]"
	if role == domain.RoleLead {
		return s.roleLead.Render(label)
	}
	return s.roleOther.Render(label)
}

func presenceLabel(online bool, s styles) string {
	if online {
		return s.online.Render("online")
	}
	return s.offline.Render("offline")
}

// renderDayBar draws one cell per hour: awake hours filled, the current hour marked.
func renderDayBar(window domain.ScheduleWindow, now time.Time, s styles) string {
	var b strings.Builder
	for hour := 0; hour < 24; hour++ {
		switch {
		case !now.IsZero() && hour == now.Hour():
			b.WriteString(s.barNow.Render("|"))
		case window.Online(hour):
			b.WriteString(s.barAwake.Render("="))
		default:
			b.WriteString(s.barAsleep.Render("-"))
		}
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		b.String(),
		s.barBracket.Render("]"),
	)
}

func lastSpokeLine(last, now time.Time) string {
	if last.IsZero() {
		return "last spoke: never"
	}
	if now.IsZero() {
		return "last spoke: " + last.Format(time.RFC3339)
	}

	elapsed := now.Sub(last)
	switch {
	case elapsed < time.Minute:
		return "last spoke: just now"
	case elapsed < time.Hour:
		return "last spoke: " + plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return "last spoke: " + plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return "last spoke: " + plural(int(math.Floor(elapsed.Hours()/24)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// closestLine names the strongest relationships, highest first.
func closestLine(affinity map[domain.AgentID]float64) string {
	if len(affinity) == 0 {
		return ""
	}

	ids := make([]domain.AgentID, 0, len(affinity))
	for id := range affinity {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if affinity[ids[i]] != affinity[ids[j]] {
			return affinity[ids[i]] > affinity[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > 3 {
		ids = ids[:3]
	}

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s (%g)", id, affinity[id]))
	}
	return "closest: " + strings.Join(parts, ", ")
}
