// Package normalize balances the loudness of a microphone track and a system
// output track before they are merged into a single recording. Gain decisions
// are headroom-protected: no track is ever pushed back into clipping to reach
// the loudness target.
package normalize

import (
	"fmt"
	"math"

	"github.com/xblabs/WhisperDog-sub002/internal/levels"
)

// Gain solving limits. These are deliberately exported: callers surface them
// in help text and settings forms, and the tuning tests pin them down.
const (
	// BalanceThresholdDB: tracks whose RMS levels differ by less than this
	// are already comparable and are passed through untouched.
	BalanceThresholdDB = 6.0

	// MaxGainDB clamps the magnitude of any applied gain, positive or
	// negative. Larger corrections amplify noise floors beyond usefulness.
	MaxGainDB = 20.0

	// HeadroomDB is the margin below 0 dBFS that a post-gain peak must not
	// exceed.
	HeadroomDB = 3.0

	// ShortRecordingMS: clips below this duration have too few samples for
	// a stable RMS estimate, so their gain is anchored on peak instead.
	ShortRecordingMS = 1000

	// ClippedAttenuationDB is the target peak when both tracks arrive
	// clipped and can only be attenuated.
	ClippedAttenuationDB = -6.0

	// DefaultTargetRMSDB is the loudness target used when the caller has no
	// configured preference.
	DefaultTargetRMSDB = -20.0
)

// Result holds the outcome of one normalization pass. The sample slices alias
// the inputs whenever no gain was applied to that track; callers that mutate
// buffers afterwards must copy first.
type Result struct {
	MicSamples []int16
	SysSamples []int16
	MicGainDB  float64 // gain actually applied to the mic track (0.0 if untouched)
	SysGainDB  float64 // gain actually applied to the system track (0.0 if untouched)

	// WasProcessed is false when normalization was skipped entirely:
	// disabled, both tracks silent, or levels already balanced.
	WasProcessed bool

	// Warning is non-empty when clipping was detected on the input.
	// The pipeline logs it; it never blocks processing.
	Warning string
}

// ForMerge decides and applies per-track gain so both tracks reach comparable
// loudness before merging.
//
// Decision order, first match wins:
//  1. disabled                          -> pass-through
//  2. both tracks silent                -> pass-through
//  3. RMS difference < BalanceThresholdDB -> pass-through
//  4. both tracks clipped               -> attenuate each to ClippedAttenuationDB
//  5. otherwise                         -> headroom-protected gain per track
//
// Returns levels.ErrInvalidInput for empty buffers or a non-positive sample
// rate. Callers fall back to the original tracks on error; a failed
// normalization must never abort the recording pipeline.
func ForMerge(mic, sys []int16, sampleRate int, targetRMSDB float64, enabled bool) (Result, error) {
	if !enabled {
		return Result{MicSamples: mic, SysSamples: sys}, nil
	}

	micAnalysis, err := levels.Analyze(mic, sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("mic track: %w", err)
	}
	sysAnalysis, err := levels.Analyze(sys, sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("system track: %w", err)
	}

	if micAnalysis.IsSilent && sysAnalysis.IsSilent {
		return Result{MicSamples: mic, SysSamples: sys}, nil
	}

	if math.Abs(micAnalysis.RMSDB-sysAnalysis.RMSDB) < BalanceThresholdDB {
		return Result{MicSamples: mic, SysSamples: sys}, nil
	}

	if micAnalysis.IsClipped && sysAnalysis.IsClipped {
		// Both tracks flat-topped: the loudness information needed for a
		// meaningful target is gone. Pull each peak down to a safe level
		// independently and let the caller surface the warning.
		micGain := ClippedAttenuationDB - micAnalysis.PeakDB
		sysGain := ClippedAttenuationDB - sysAnalysis.PeakDB
		return Result{
			MicSamples:   applyGain(mic, micGain),
			SysSamples:   applyGain(sys, sysGain),
			MicGainDB:    micGain,
			SysGainDB:    sysGain,
			WasProcessed: true,
			Warning:      "both tracks clipped; attenuated",
		}, nil
	}

	micGain := computeGain(micAnalysis, targetRMSDB)
	sysGain := computeGain(sysAnalysis, targetRMSDB)

	result := Result{
		MicSamples:   applyGain(mic, micGain),
		SysSamples:   applyGain(sys, sysGain),
		MicGainDB:    micGain,
		SysGainDB:    sysGain,
		WasProcessed: true,
	}
	if micAnalysis.IsClipped || sysAnalysis.IsClipped {
		result.Warning = "clipping detected on input"
	}
	return result, nil
}

// computeGain solves for the gain that moves one track toward the loudness
// target without breaking the headroom guarantee.
//
// Strategy:
//   - Silent tracks are left alone; amplifying a noise floor helps nobody.
//   - Short clips target by peak: target + headroom placed where the peak
//     should land, since the RMS of a sub-second clip is dominated by however
//     much of it happens to be speech.
//   - Everything else targets by RMS directly.
//
// The desired gain is then capped so the post-gain peak stays at or below
// -HeadroomDB dBFS, and finally clamped to +/-MaxGainDB.
func computeGain(a levels.TrackAnalysis, targetRMSDB float64) float64 {
	if a.IsSilent {
		return 0.0
	}

	var desired float64
	if a.DurationMS < ShortRecordingMS {
		desired = (targetRMSDB + HeadroomDB) - a.PeakDB
	} else {
		desired = targetRMSDB - a.RMSDB
	}

	// Largest gain that keeps the post-gain peak at or below -HeadroomDB.
	maxAllowed := -HeadroomDB - a.PeakDB

	return clamp(math.Min(desired, maxAllowed), -MaxGainDB, MaxGainDB)
}

// applyGain multiplies every sample by the linear equivalent of gainDB.
// A gain of exactly 0.0 dB returns the input slice unmodified, byte for byte
// and without allocation. Samples that overflow 16-bit range are hard-clamped;
// with the headroom math above that is a last-resort safety net, not the
// primary clipping-avoidance mechanism.
func applyGain(samples []int16, gainDB float64) []int16 {
	if gainDB == 0.0 {
		return samples
	}

	multiplier := levels.DBToLinear(gainDB)
	adjusted := make([]int16, len(samples))
	for i, s := range samples {
		v := float64(s) * multiplier
		switch {
		case v > math.MaxInt16:
			adjusted[i] = math.MaxInt16
		case v < math.MinInt16:
			adjusted[i] = math.MinInt16
		default:
			adjusted[i] = int16(v)
		}
	}
	return adjusted
}

// clamp restricts val to the range [min, max].
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
