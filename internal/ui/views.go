package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#005F87"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	doneIcon    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
	activeIcon  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
	pendingIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#005F87")).
			Padding(0, 1).
			Width(56)
)

// renderProcessingView renders the full TUI frame.
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Whisperdog 🐕 - Dual-Source Recording Processor"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s + %s",
		filepath.Base(m.MicPath), filepath.Base(m.SysPath))))
	b.WriteString("\n\n")

	b.WriteString(renderStages(m))
	b.WriteString("\n")
	b.WriteString(renderDetails(m))

	for _, w := range m.Warnings {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("⚠ " + w))
	}

	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Press q to abort"))

	return b.String()
}

// renderStages lists the pipeline stages with their status icons.
func renderStages(m Model) string {
	var b strings.Builder
	for i, name := range StageNames {
		stage := i + 1
		icon := pendingIcon
		switch {
		case m.Done || stage < m.Stage:
			icon = doneIcon
		case stage == m.Stage:
			icon = activeIcon
		}
		fmt.Fprintf(&b, " %s %s\n", icon, name)
	}
	return b.String()
}

// renderDetails renders the active-stage progress bar and the level meters.
func renderDetails(m Model) string {
	var content strings.Builder

	if m.Stage >= 1 && m.Stage <= len(StageNames) {
		fmt.Fprintf(&content, "Stage %d/%d: %s\n", m.Stage, len(StageNames), StageNames[m.Stage-1])
	}
	content.WriteString(renderProgressBar(m.Progress, 40))
	content.WriteString("\n\n")

	content.WriteString(fmt.Sprintf("Mic %s %6.1f dB\n", renderLevelMeter(m.MicDB, 30), m.MicDB))
	content.WriteString(fmt.Sprintf("Sys %s %6.1f dB", renderLevelMeter(m.SysDB, 30), m.SysDB))

	return boxStyle.Render(content.String())
}

// renderProgressBar renders a fixed-width progress bar.
func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return fmt.Sprintf("[%s%s] %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		progress*100)
}

// renderLevelMeter renders a dB level as a meter spanning -60..0 dBFS.
func renderLevelMeter(db float64, width int) string {
	const floorDB = -60.0
	frac := (db - floorDB) / -floorDB
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	bar := strings.Repeat("▮", filled) + strings.Repeat("▯", width-filled)

	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	switch {
	case db >= -3.0:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	case db >= -12.0:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	}
	return style.Render(bar)
}
