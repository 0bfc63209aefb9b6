// Package activity attributes each time slice of a dual-source recording to
// the microphone, the system output, both, or neither. Classification works on
// fixed windows in linear RMS space; the raw interval sequence is then merged,
// debounced, and smoothed into a compact timeline the transcript-attribution
// stage can map text spans onto.
package activity

import (
	"fmt"
	"math"

	"github.com/xblabs/WhisperDog-sub002/internal/levels"
)

const (
	// DefaultSampleIntervalMS is the classification window size.
	DefaultSampleIntervalMS = 100

	// DefaultActivityThreshold is the linear RMS above which a window
	// counts as active. Roughly -46 dBFS: above typical room tone, below
	// quiet speech.
	DefaultActivityThreshold = 0.005

	// DefaultDominanceRatio is the linear RMS ratio one source needs over
	// the other before it is declared the sole origin of a window. Below
	// it, simultaneous activity is genuine crosstalk.
	DefaultDominanceRatio = 3.0

	// MinRMSForRatio floors ratio denominators so a near-silent track
	// cannot produce an absurd dominance ratio through division by ~0.
	MinRMSForRatio = 0.0001

	// maxSmoothableBothMS is the longest BOTH segment the smoothing pass
	// will relabel. Longer BOTH segments are kept: sustained comparable
	// levels on both tracks are real overlap, not a classification blip.
	maxSmoothableBothMS = 500
)

// Source identifies what produced a slice of the recording.
type Source int

const (
	SourceSilence Source = iota
	SourceUser
	SourceSystem
	SourceBoth
)

// String returns the label used in transcripts and reports.
func (s Source) String() string {
	switch s {
	case SourceUser:
		return "USER"
	case SourceSystem:
		return "SYSTEM"
	case SourceBoth:
		return "BOTH"
	default:
		return "SILENCE"
	}
}

// Segment is one attributed span of the timeline. EndMS is exclusive.
// A valid timeline is contiguous, non-overlapping, sorted by StartMS, and
// covers [0, total duration) exactly once.
type Segment struct {
	StartMS int64
	EndMS   int64
	Source  Source
}

// DurationMS returns the segment length in milliseconds.
func (s Segment) DurationMS() int64 {
	return s.EndMS - s.StartMS
}

// Options configures one tracking pass. All values are caller-supplied; the
// tracker holds no hidden defaults of its own.
type Options struct {
	IntervalMS        int64   // classification window size
	ActivityThreshold float64 // linear RMS cutoff for active/inactive
	DominanceRatio    float64 // RMS ratio required to call a single winner
}

// DefaultOptions returns the standard tracking configuration.
func DefaultOptions() Options {
	return Options{
		IntervalMS:        DefaultSampleIntervalMS,
		ActivityThreshold: DefaultActivityThreshold,
		DominanceRatio:    DefaultDominanceRatio,
	}
}

// Track classifies both tracks into an attributed timeline.
//
// The tracks may differ in length; the shorter one is padded with silence to
// the end of its trailing window. Returns levels.ErrInvalidInput when either
// buffer is empty, the sample rate is not positive, or the options are
// degenerate (non-positive interval or dominance ratio).
func Track(mic, sys []int16, sampleRate int, opts Options) ([]Segment, error) {
	if len(mic) == 0 {
		return nil, fmt.Errorf("mic track: %w: empty sample buffer", levels.ErrInvalidInput)
	}
	if len(sys) == 0 {
		return nil, fmt.Errorf("system track: %w: empty sample buffer", levels.ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", levels.ErrInvalidInput, sampleRate)
	}
	if opts.IntervalMS <= 0 {
		return nil, fmt.Errorf("%w: interval %dms", levels.ErrInvalidInput, opts.IntervalMS)
	}
	if opts.DominanceRatio <= 0 {
		return nil, fmt.Errorf("%w: dominance ratio %g", levels.ErrInvalidInput, opts.DominanceRatio)
	}

	samplesPerInterval := int(opts.IntervalMS) * sampleRate / 1000
	if samplesPerInterval == 0 {
		return nil, fmt.Errorf("%w: interval %dms too short for rate %d", levels.ErrInvalidInput, opts.IntervalMS, sampleRate)
	}

	maxLen := len(mic)
	if len(sys) > maxLen {
		maxLen = len(sys)
	}
	totalMS := int64(maxLen) * 1000 / int64(sampleRate)
	if totalMS == 0 {
		// Sub-millisecond recording: nothing attributable.
		return nil, nil
	}

	// Step 1+2: window both tracks and classify each interval. Boundaries
	// are derived from sample indices, not accumulated interval lengths:
	// when samplesPerInterval does not divide into whole milliseconds the
	// two clocks drift apart, and only the sample clock matches the audio.
	numIntervals := (maxLen + samplesPerInterval - 1) / samplesPerInterval
	segments := make([]Segment, 0, numIntervals)
	for i := 0; i < numIntervals; i++ {
		start := i * samplesPerInterval
		end := start + samplesPerInterval
		if end > maxLen {
			end = maxLen
		}
		micRMS := windowRMS(mic, start, samplesPerInterval)
		sysRMS := windowRMS(sys, start, samplesPerInterval)

		segments = append(segments, Segment{
			StartMS: int64(start) * 1000 / int64(sampleRate),
			EndMS:   int64(end) * 1000 / int64(sampleRate),
			Source:  classify(micRMS, sysRMS, opts.ActivityThreshold, opts.DominanceRatio),
		})
	}

	// Step 3: collapse consecutive same-source intervals.
	segments = mergeSameSource(segments)

	// Step 4: absorb micro-blips shorter than two intervals.
	segments = debounce(segments, 2*opts.IntervalMS)

	// Step 5: relabel short BOTH segments sandwiched by a single source.
	segments = smoothBoth(segments)

	return segments, nil
}

// windowRMS returns the linear RMS of one window. Windows reaching past the
// end of the track are treated as padded with silence: the sum runs over the
// available samples but the mean divides by the full window size.
func windowRMS(samples []int16, start, size int) float64 {
	if start >= len(samples) {
		return 0
	}
	end := start + size
	if end > len(samples) {
		end = len(samples)
	}
	var sumSquares float64
	for _, s := range samples[start:end] {
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares/float64(size)) / levels.MaxSampleValue
}

// classify attributes one window by relative dominance.
//
// When both tracks are active the ratio decides: a source must dominate by
// more than dominanceRatio to be declared the sole origin; anything less is
// genuine overlap. The comparisons are strict, so a ratio exactly at the
// boundary stays BOTH.
func classify(micRMS, sysRMS, threshold, dominanceRatio float64) Source {
	micActive := micRMS >= threshold
	sysActive := sysRMS >= threshold

	switch {
	case !micActive && !sysActive:
		return SourceSilence
	case micActive && !sysActive:
		return SourceUser
	case !micActive && sysActive:
		return SourceSystem
	}

	ratio := math.Max(micRMS, MinRMSForRatio) / math.Max(sysRMS, MinRMSForRatio)
	switch {
	case ratio > dominanceRatio:
		return SourceUser // mic dominates; system side is bleed, not speech
	case ratio < 1.0/dominanceRatio:
		return SourceSystem
	default:
		return SourceBoth
	}
}

// mergeSameSource collapses consecutive segments with the same source.
func mergeSameSource(segments []Segment) []Segment {
	if len(segments) == 0 {
		return segments
	}
	merged := segments[:1]
	for _, seg := range segments[1:] {
		last := &merged[len(merged)-1]
		if seg.Source == last.Source && seg.StartMS == last.EndMS {
			last.EndMS = seg.EndMS
		} else {
			merged = append(merged, seg)
		}
	}
	return merged
}

// debounce absorbs segments shorter than minDurationMS into their context.
// A short segment takes the source of its preceding segment (the following
// one when it is first); re-running the merge pass then collapses it away.
// Repeats until the timeline is stable. Relabeled counts only actual source
// changes, so a short segment that already matches its context cannot keep
// the loop spinning.
func debounce(segments []Segment, minDurationMS int64) []Segment {
	for len(segments) > 1 {
		relabeled := false
		for i := range segments {
			if segments[i].DurationMS() >= minDurationMS {
				continue
			}
			neighbor := i - 1
			if i == 0 {
				neighbor = 1
			}
			if segments[i].Source != segments[neighbor].Source {
				segments[i].Source = segments[neighbor].Source
				relabeled = true
			}
		}
		if !relabeled {
			break
		}
		segments = mergeSameSource(segments)
	}
	return segments
}

// smoothBoth relabels short BOTH segments whose context identifies a single
// speaker: crosstalk classification flickers at speech onsets and releases,
// and a sub-half-second BOTH wedged inside one speaker's turn is such a
// flicker rather than a real interjection.
//
// Rules per BOTH segment of at most maxSmoothableBothMS:
//   - both neighbors the same single source        -> that source
//   - one neighbor single source, other silence    -> the single source
//   - anything else                                -> keep BOTH
//
// A missing neighbor at the timeline edge counts as silence.
func smoothBoth(segments []Segment) []Segment {
	relabeled := false
	for i := range segments {
		seg := segments[i]
		if seg.Source != SourceBoth || seg.DurationMS() > maxSmoothableBothMS {
			continue
		}

		prev := SourceSilence
		if i > 0 {
			prev = segments[i-1].Source
		}
		next := SourceSilence
		if i < len(segments)-1 {
			next = segments[i+1].Source
		}

		if replacement, ok := smoothingTarget(prev, next); ok {
			segments[i].Source = replacement
			relabeled = true
		}
	}
	if relabeled {
		segments = mergeSameSource(segments)
	}
	return segments
}

// smoothingTarget decides what a short BOTH segment between the given
// neighbors should become, if anything.
func smoothingTarget(prev, next Source) (Source, bool) {
	prevSingle := prev == SourceUser || prev == SourceSystem
	nextSingle := next == SourceUser || next == SourceSystem

	switch {
	case prevSingle && nextSingle && prev == next:
		return prev, true
	case prevSingle && next == SourceSilence:
		return prev, true
	case nextSingle && prev == SourceSilence:
		return next, true
	default:
		return SourceBoth, false
	}
}
