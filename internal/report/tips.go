package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/xblabs/WhisperDog-sub002/internal/activity"
	"github.com/xblabs/WhisperDog-sub002/internal/mains"
)

// Tip is a single piece of actionable recording advice derived from the
// level measurements and the attribution timeline.
type Tip struct {
	Priority int    // higher = more important (1-10)
	Message  string // human-readable advice, one or two sentences
	RuleID   string // identifier for testing/logging
}

// MaxTips is the maximum number of tips to return.
const MaxTips = 4

// Tuning thresholds for the tip rules.
const (
	quietRMSDB          = -35.0 // below this, input gain is too low
	imbalanceDB         = 12.0  // RMS gap that exceeds what normalization fixes cleanly
	crosstalkShare      = 0.30  // BOTH share suggesting speaker bleed
	silenceShare        = 0.60  // SILENCE share suggesting a routing problem
	lowDynamicRangeDB   = 18.0  // speech squashed against its noise floor
	minTimelineForShare = 1000  // ms; share-based rules need a meaningful baseline
)

// GenerateTips analyses a processing run and returns prioritised recording
// improvement suggestions, most important first.
func GenerateTips(d *Data) []Tip {
	if d == nil {
		return nil
	}

	var tips []Tip
	fired := make(map[string]bool)

	rules := []func(*Data) *Tip{
		tipMicClipping,
		tipSystemClipping,
		tipMicTooQuiet,
		tipChannelImbalance,
		tipHeavyCrosstalk,
		tipMostlySilence,
		tipNoisyMic,
	}

	for _, rule := range rules {
		if tip := rule(d); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxTips {
		tips = tips[:MaxTips]
	}
	return tips
}

// applyExclusions drops tips that are redundant when a more specific tip has
// already fired: a clipping mic is not also "too quiet", and a squashed
// dynamic range on a clipped track is the clipping, not room noise.
func applyExclusions(tips []Tip, fired map[string]bool) []Tip {
	var result []Tip
	for _, tip := range tips {
		switch tip.RuleID {
		case "mic_too_quiet", "noisy_mic":
			if fired["mic_clipping"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

func tipMicClipping(d *Data) *Tip {
	if !d.Mic.IsClipped {
		return nil
	}
	return &Tip{
		Priority: 9,
		RuleID:   "mic_clipping",
		Message:  "Your microphone is clipping. Lower its input gain until peaks stay below -6 dBFS; clipped audio cannot be repaired afterwards.",
	}
}

func tipSystemClipping(d *Data) *Tip {
	if !d.Sys.IsClipped {
		return nil
	}
	return &Tip{
		Priority: 8,
		RuleID:   "system_clipping",
		Message:  "The system audio is clipping. Reduce the application or OS output volume; the recorder captures the signal before your speakers do.",
	}
}

func tipMicTooQuiet(d *Data) *Tip {
	if d.Mic.IsSilent || d.Mic.RMSDB >= quietRMSDB {
		return nil
	}
	return &Tip{
		Priority: 7,
		RuleID:   "mic_too_quiet",
		Message: fmt.Sprintf("Your microphone averages %.0f dBFS, which forces heavy amplification and raises the noise floor. Increase input gain or move closer to the mic.",
			d.Mic.RMSDB),
	}
}

func tipChannelImbalance(d *Data) *Tip {
	if d.Mic.IsSilent || d.Sys.IsSilent {
		return nil
	}
	gap := math.Abs(d.Mic.RMSDB - d.Sys.RMSDB)
	if gap < imbalanceDB {
		return nil
	}
	return &Tip{
		Priority: 6,
		RuleID:   "channel_imbalance",
		Message: fmt.Sprintf("Mic and system levels differ by %.0f dB. Normalization compensates, but matching them at the source keeps both tracks out of the noise floor.",
			gap),
	}
}

func tipHeavyCrosstalk(d *Data) *Tip {
	if d.TotalMS < minTimelineForShare {
		return nil
	}
	both := SourceDurationMS(d.Timeline, activity.SourceBoth)
	if float64(both)/float64(d.TotalMS) <= crosstalkShare {
		return nil
	}
	return &Tip{
		Priority: 5,
		RuleID:   "heavy_crosstalk",
		Message:  "A large share of the recording registers on both tracks at once. If you are not actually talking over the system audio, use headphones so the mic stops picking up the speakers.",
	}
}

func tipMostlySilence(d *Data) *Tip {
	if d.TotalMS < minTimelineForShare {
		return nil
	}
	silent := SourceDurationMS(d.Timeline, activity.SourceSilence)
	if float64(silent)/float64(d.TotalMS) <= silenceShare {
		return nil
	}
	return &Tip{
		Priority: 3,
		RuleID:   "mostly_silence",
		Message:  "Most of the recording is silence on both tracks. Check that the capture devices are the ones actually in use.",
	}
}

// tipNoisyMic fires when the mic track's dynamic range is squashed: speech
// peaks sitting close to the average level usually mean a loud, steady noise
// floor underneath.
func tipNoisyMic(d *Data) *Tip {
	if d.Mic.IsSilent || d.Mic.IsClipped || d.Mic.DynamicRangeDB >= lowDynamicRangeDB {
		return nil
	}
	return &Tip{
		Priority: 4,
		RuleID:   "noisy_mic",
		Message: fmt.Sprintf("The mic track has only %.0f dB of dynamic range, which suggests constant background noise. If it is a steady buzz, look for a ground loop; on your power grid it will sit at %.0f Hz and its harmonics.",
			d.Mic.DynamicRangeDB, mains.HumFundamentalHz()),
	}
}
