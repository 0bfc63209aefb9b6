// Package report renders the analysis output of a processing run: per-track
// level tables, the gain decisions, the attributed timeline, and actionable
// recording tips.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xblabs/WhisperDog-sub002/internal/activity"
	"github.com/xblabs/WhisperDog-sub002/internal/levels"
	"github.com/xblabs/WhisperDog-sub002/internal/normalize"
)

// Data collects everything one processing run learned about a track pair.
type Data struct {
	MicPath string
	SysPath string

	SampleRate int
	TotalMS    int64

	Mic levels.TrackAnalysis
	Sys levels.TrackAnalysis

	Normalization normalize.Result

	Timeline []activity.Segment
}

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#005F87"))
	sourceStyles = map[activity.Source]lipgloss.Style{
		activity.SourceUser:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		activity.SourceSystem:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAAA")),
		activity.SourceBoth:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		activity.SourceSilence: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
)

// Render produces the full styled report.
func Render(d *Data) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Track Levels"))
	b.WriteString("\n")
	b.WriteString(levelsTable(d).String())
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Normalization"))
	b.WriteString("\n")
	b.WriteString(normalizationSummary(&d.Normalization))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Attribution Timeline"))
	b.WriteString("\n")
	b.WriteString(RenderTimeline(d.Timeline, d.TotalMS))
	b.WriteString("\n")

	if tips := GenerateTips(d); len(tips) > 0 {
		b.WriteString(sectionStyle.Render("Recording Tips"))
		b.WriteString("\n")
		for _, tip := range tips {
			fmt.Fprintf(&b, "  • %s\n", tip.Message)
		}
	}

	return b.String()
}

// levelsTable builds the Mic/System metric comparison table.
func levelsTable(d *Data) *MetricTable {
	flag := func(set bool) string {
		if set {
			return "yes"
		}
		return "no"
	}

	return &MetricTable{
		Headers: []string{"Mic", "System"},
		Rows: []MetricRow{
			{
				Label:  "RMS Level",
				Values: []string{fmt.Sprintf("%.1f", d.Mic.RMSDB), fmt.Sprintf("%.1f", d.Sys.RMSDB)},
				Unit:   "dBFS",
			},
			{
				Label:  "Peak Level",
				Values: []string{fmt.Sprintf("%.1f", d.Mic.PeakDB), fmt.Sprintf("%.1f", d.Sys.PeakDB)},
				Unit:   "dBFS",
			},
			{
				Label:  "Dynamic Range",
				Values: []string{fmt.Sprintf("%.1f", d.Mic.DynamicRangeDB), fmt.Sprintf("%.1f", d.Sys.DynamicRangeDB)},
				Unit:   "dB",
			},
			{
				Label:  "Duration",
				Values: []string{fmt.Sprintf("%d", d.Mic.DurationMS), fmt.Sprintf("%d", d.Sys.DurationMS)},
				Unit:   "ms",
			},
			{
				Label:  "Clipped",
				Values: []string{flag(d.Mic.IsClipped), flag(d.Sys.IsClipped)},
			},
			{
				Label:  "Silent",
				Values: []string{flag(d.Mic.IsSilent), flag(d.Sys.IsSilent)},
			},
		},
	}
}

// normalizationSummary describes the gain decision in one or two lines.
func normalizationSummary(r *normalize.Result) string {
	var b strings.Builder
	if !r.WasProcessed {
		b.WriteString("  skipped (tracks already balanced, silent, or normalization disabled)\n")
	} else {
		fmt.Fprintf(&b, "  mic gain %+.1f dB, system gain %+.1f dB\n", r.MicGainDB, r.SysGainDB)
	}
	if r.Warning != "" {
		fmt.Fprintf(&b, "  warning: %s\n", r.Warning)
	}
	return b.String()
}

// RenderTimeline renders the attributed segments with each source's share of
// the total duration.
func RenderTimeline(timeline []activity.Segment, totalMS int64) string {
	if len(timeline) == 0 {
		return "  (no attributable audio)\n"
	}

	var b strings.Builder
	for _, seg := range timeline {
		share := 0.0
		if totalMS > 0 {
			share = float64(seg.DurationMS()) / float64(totalMS) * 100.0
		}
		label := sourceStyles[seg.Source].Render(fmt.Sprintf("%-7s", seg.Source))
		fmt.Fprintf(&b, "  %s - %s  %s %5.1f%%\n",
			formatMS(seg.StartMS), formatMS(seg.EndMS), label, share)
	}

	b.WriteString("\n")
	for _, src := range []activity.Source{activity.SourceUser, activity.SourceSystem, activity.SourceBoth, activity.SourceSilence} {
		ms := SourceDurationMS(timeline, src)
		if ms == 0 {
			continue
		}
		share := float64(ms) / float64(totalMS) * 100.0
		fmt.Fprintf(&b, "  %s total: %s (%.1f%%)\n",
			sourceStyles[src].Render(src.String()), formatMS(ms), share)
	}
	return b.String()
}

// SourceDurationMS sums the time attributed to one source.
func SourceDurationMS(timeline []activity.Segment, src activity.Source) int64 {
	var total int64
	for _, seg := range timeline {
		if seg.Source == src {
			total += seg.DurationMS()
		}
	}
	return total
}
