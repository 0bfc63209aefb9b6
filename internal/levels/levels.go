// Package levels computes time-domain level measurements for raw PCM buffers.
// All measurements are taken over mono 16-bit signed samples and expressed in
// dBFS (decibels relative to digital full scale).
package levels

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxSampleValue is the full-scale reference for 16-bit signed audio.
	MaxSampleValue = 32768.0

	// ClippingThresholdDB is the peak level at or above which a track is
	// treated as clipped. Slightly below 0 dBFS to catch near-clips that
	// already show flat-topped waveforms.
	ClippingThresholdDB = -0.1

	// SilenceThresholdDB is the RMS level below which a track is treated
	// as silent.
	SilenceThresholdDB = -60.0

	// minLinearLevel floors linear amplitudes before log conversion so that
	// digital silence maps to a finite dB value (-200 dBFS) instead of -Inf.
	minLinearLevel = 1e-10
)

// ErrInvalidInput is returned for malformed input: empty sample buffers or a
// non-positive sample rate. It is shared by the normalize and activity
// packages so callers can classify every core failure with a single errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// TrackAnalysis holds the level measurements for one PCM buffer.
// Values are computed once by Analyze and never mutated.
type TrackAnalysis struct {
	RMSDB          float64 // average loudness (dBFS)
	PeakDB         float64 // loudest single sample (dBFS)
	DynamicRangeDB float64 // PeakDB - RMSDB
	DurationMS     int64   // buffer length in milliseconds (truncated)
	IsClipped      bool    // PeakDB >= ClippingThresholdDB
	IsSilent       bool    // RMSDB < SilenceThresholdDB
}

// Analyze measures RMS and peak levels for a mono 16-bit PCM buffer.
// Returns ErrInvalidInput when samples is empty or sampleRate is not positive.
func Analyze(samples []int16, sampleRate int) (TrackAnalysis, error) {
	if len(samples) == 0 {
		return TrackAnalysis{}, fmt.Errorf("%w: empty sample buffer", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return TrackAnalysis{}, fmt.Errorf("%w: sample rate %d", ErrInvalidInput, sampleRate)
	}

	var sumSquares float64
	var peak float64
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
		if abs := math.Abs(v); abs > peak {
			peak = abs
		}
	}

	rmsLinear := math.Sqrt(sumSquares/float64(len(samples))) / MaxSampleValue
	peakLinear := peak / MaxSampleValue

	rmsDB := DBFS(rmsLinear)
	peakDB := DBFS(peakLinear)

	return TrackAnalysis{
		RMSDB:          rmsDB,
		PeakDB:         peakDB,
		DynamicRangeDB: peakDB - rmsDB,
		DurationMS:     int64(len(samples)) * 1000 / int64(sampleRate),
		IsClipped:      peakDB >= ClippingThresholdDB,
		IsSilent:       rmsDB < SilenceThresholdDB,
	}, nil
}

// LinearRMS returns the linear RMS amplitude of a buffer, scaled to [0, 1].
// An empty buffer has zero RMS. Used by the activity tracker, which
// classifies intervals in linear space rather than dB.
func LinearRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares/float64(len(samples))) / MaxSampleValue
}

// DBFS converts a linear amplitude (1.0 = full scale) to dBFS.
// Amplitudes at or below zero are floored to minLinearLevel.
func DBFS(linear float64) float64 {
	return 20.0 * math.Log10(math.Max(linear, minLinearLevel))
}

// DBToLinear converts a dB value to a linear amplitude multiplier.
func DBToLinear(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}
