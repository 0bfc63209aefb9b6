package report

import (
	"testing"

	"github.com/xblabs/WhisperDog-sub002/internal/activity"
	"github.com/xblabs/WhisperDog-sub002/internal/levels"
)

// cleanRun returns measurements for a healthy recording that fires no tips.
func cleanRun(t *testing.T) *Data {
	t.Helper()
	track := levels.TrackAnalysis{
		RMSDB:          -20,
		PeakDB:         -5,
		DynamicRangeDB: 15,
		DurationMS:     10000,
	}
	mic := track
	mic.DynamicRangeDB = 20
	return &Data{
		TotalMS:  10000,
		Mic:      mic,
		Sys:      track,
		Timeline: []activity.Segment{{StartMS: 0, EndMS: 10000, Source: activity.SourceUser}},
	}
}

func ruleIDs(tips []Tip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

func hasRule(tips []Tip, id string) bool {
	for _, tip := range tips {
		if tip.RuleID == id {
			return true
		}
	}
	return false
}

func TestGenerateTipsNil(t *testing.T) {
	if tips := GenerateTips(nil); tips != nil {
		t.Errorf("GenerateTips(nil) = %v, want nil", tips)
	}
}

func TestGenerateTipsCleanRun(t *testing.T) {
	tips := GenerateTips(cleanRun(t))
	if len(tips) != 0 {
		t.Errorf("clean run produced tips: %v", ruleIDs(tips))
	}
}

func TestGenerateTipsSingleRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Data)
		want   string
	}{
		{
			"mic clipping",
			func(d *Data) { d.Mic.IsClipped = true },
			"mic_clipping",
		},
		{
			"system clipping",
			func(d *Data) { d.Sys.IsClipped = true },
			"system_clipping",
		},
		{
			"mic too quiet",
			func(d *Data) { d.Mic.RMSDB = -42 },
			"mic_too_quiet",
		},
		{
			"channel imbalance",
			func(d *Data) { d.Sys.RMSDB = -34 },
			"channel_imbalance",
		},
		{
			"heavy crosstalk",
			func(d *Data) {
				d.Timeline = []activity.Segment{
					{StartMS: 0, EndMS: 4000, Source: activity.SourceBoth},
					{StartMS: 4000, EndMS: 10000, Source: activity.SourceUser},
				}
			},
			"heavy_crosstalk",
		},
		{
			"mostly silence",
			func(d *Data) {
				d.Timeline = []activity.Segment{
					{StartMS: 0, EndMS: 7000, Source: activity.SourceSilence},
					{StartMS: 7000, EndMS: 10000, Source: activity.SourceUser},
				}
			},
			"mostly_silence",
		},
		{
			"noisy mic",
			func(d *Data) { d.Mic.DynamicRangeDB = 10 },
			"noisy_mic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := cleanRun(t)
			tt.mutate(d)
			tips := GenerateTips(d)
			if !hasRule(tips, tt.want) {
				t.Errorf("tips = %v, want rule %q", ruleIDs(tips), tt.want)
			}
		})
	}
}

func TestGenerateTipsClippingExcludesQuietAndNoisy(t *testing.T) {
	// A clipping mic explains both a squashed dynamic range and a low RMS
	// reading; the specific tip replaces the generic ones.
	d := cleanRun(t)
	d.Mic.IsClipped = true
	d.Mic.RMSDB = -42
	d.Mic.DynamicRangeDB = 5

	tips := GenerateTips(d)
	if !hasRule(tips, "mic_clipping") {
		t.Fatalf("tips = %v, want mic_clipping", ruleIDs(tips))
	}
	if hasRule(tips, "mic_too_quiet") || hasRule(tips, "noisy_mic") {
		t.Errorf("tips = %v, quiet/noisy rules must yield to mic_clipping", ruleIDs(tips))
	}
}

func TestGenerateTipsOrderAndCap(t *testing.T) {
	// Fire five compatible rules at once: output is sorted by priority and
	// capped at MaxTips.
	d := cleanRun(t)
	d.Sys.IsClipped = true     // 8
	d.Mic.RMSDB = -42          // 7, and 22 dB below sys: imbalance (6)
	d.Mic.DynamicRangeDB = 10  // 4
	d.Timeline = []activity.Segment{
		{StartMS: 0, EndMS: 4000, Source: activity.SourceBoth}, // crosstalk (5)
		{StartMS: 4000, EndMS: 10000, Source: activity.SourceUser},
	}

	tips := GenerateTips(d)
	if len(tips) != MaxTips {
		t.Fatalf("got %d tips, want cap of %d: %v", len(tips), MaxTips, ruleIDs(tips))
	}
	for i := 1; i < len(tips); i++ {
		if tips[i].Priority > tips[i-1].Priority {
			t.Errorf("tips out of priority order: %v", ruleIDs(tips))
		}
	}
	if tips[0].RuleID != "system_clipping" {
		t.Errorf("top tip = %q, want system_clipping", tips[0].RuleID)
	}
	if hasRule(tips, "noisy_mic") {
		t.Errorf("lowest-priority rule survived the cap: %v", ruleIDs(tips))
	}
}

func TestGenerateTipsShortTimelineSkipsShareRules(t *testing.T) {
	d := cleanRun(t)
	d.TotalMS = 500
	d.Timeline = []activity.Segment{{StartMS: 0, EndMS: 500, Source: activity.SourceBoth}}

	tips := GenerateTips(d)
	if hasRule(tips, "heavy_crosstalk") || hasRule(tips, "mostly_silence") {
		t.Errorf("share rules fired on a %dms timeline: %v", d.TotalMS, ruleIDs(tips))
	}
}

func TestSourceDurationMS(t *testing.T) {
	timeline := []activity.Segment{
		{StartMS: 0, EndMS: 300, Source: activity.SourceUser},
		{StartMS: 300, EndMS: 500, Source: activity.SourceSystem},
		{StartMS: 500, EndMS: 900, Source: activity.SourceUser},
		{StartMS: 900, EndMS: 1000, Source: activity.SourceSilence},
	}

	if got := SourceDurationMS(timeline, activity.SourceUser); got != 700 {
		t.Errorf("USER duration = %d, want 700", got)
	}
	if got := SourceDurationMS(timeline, activity.SourceBoth); got != 0 {
		t.Errorf("BOTH duration = %d, want 0", got)
	}
}
