package levels

import (
	"errors"
	"math"
	"testing"
)

// squareWave generates a constant-magnitude alternating waveform. Every
// sample has the same absolute value, so linear RMS equals amp/32768 exactly.
func squareWave(t *testing.T, amp int16, n int) []int16 {
	t.Helper()
	samples := make([]int16, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = amp
		} else {
			samples[i] = -amp
		}
	}
	return samples
}

func TestAnalyzeInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		samples    []int16
		sampleRate int
	}{
		{"empty buffer", nil, 44100},
		{"zero sample rate", []int16{1, 2, 3}, 0},
		{"negative sample rate", []int16{1, 2, 3}, -44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.samples, tt.sampleRate)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Analyze() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAnalyzeDuration(t *testing.T) {
	tests := []struct {
		name       string
		numSamples int
		sampleRate int
		wantMS     int64
	}{
		{"one second at 44.1kHz", 44100, 44100, 1000},
		{"half second at 44.1kHz", 22050, 44100, 500},
		{"one second at 16kHz", 16000, 16000, 1000},
		{"truncating division", 1599, 1600, 999},
		{"single sample", 1, 44100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Analyze(squareWave(t, 1000, tt.numSamples), tt.sampleRate)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if a.DurationMS != tt.wantMS {
				t.Errorf("DurationMS = %d, want %d", a.DurationMS, tt.wantMS)
			}
		})
	}
}

func TestAnalyzeLevels(t *testing.T) {
	// A square wave at amplitude a has RMS and peak both at a/32768.
	a, err := Analyze(squareWave(t, 3277, 44100), 44100) // ~0.1 linear, ~-20 dBFS
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	wantDB := 20 * math.Log10(3277.0/32768.0)
	if math.Abs(a.RMSDB-wantDB) > 0.01 {
		t.Errorf("RMSDB = %.3f, want %.3f", a.RMSDB, wantDB)
	}
	if math.Abs(a.PeakDB-wantDB) > 0.01 {
		t.Errorf("PeakDB = %.3f, want %.3f", a.PeakDB, wantDB)
	}
	if math.Abs(a.DynamicRangeDB) > 0.01 {
		t.Errorf("DynamicRangeDB = %.3f, want 0 for a square wave", a.DynamicRangeDB)
	}
	if a.IsClipped {
		t.Error("IsClipped = true for a -20 dBFS signal")
	}
	if a.IsSilent {
		t.Error("IsSilent = true for a -20 dBFS signal")
	}
}

func TestAnalyzeSineRMS(t *testing.T) {
	// A full-scale sine has RMS 1/sqrt(2), about -3.01 dBFS.
	samples := make([]int16, 44100)
	for i := range samples {
		samples[i] = int16(32767.0 * math.Sin(2.0*math.Pi*440.0*float64(i)/44100.0))
	}

	a, err := Analyze(samples, 44100)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if math.Abs(a.RMSDB-(-3.01)) > 0.05 {
		t.Errorf("RMSDB = %.3f, want ~-3.01 for a full-scale sine", a.RMSDB)
	}
}

func TestAnalyzeClippedFlag(t *testing.T) {
	a, err := Analyze(squareWave(t, 32767, 1000), 44100)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !a.IsClipped {
		t.Errorf("IsClipped = false at peak %.3f dBFS", a.PeakDB)
	}
}

func TestAnalyzeSilentFlag(t *testing.T) {
	tests := []struct {
		name string
		amp  int16
		want bool
	}{
		{"digital silence", 0, true},
		{"below threshold", 16, true},   // ~-66 dBFS
		{"above threshold", 100, false}, // ~-50 dBFS
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Analyze(squareWave(t, tt.amp, 1000), 44100)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if a.IsSilent != tt.want {
				t.Errorf("IsSilent = %v at %.1f dBFS, want %v", a.IsSilent, a.RMSDB, tt.want)
			}
		})
	}
}

func TestLinearRMS(t *testing.T) {
	if got := LinearRMS(nil); got != 0 {
		t.Errorf("LinearRMS(nil) = %g, want 0", got)
	}
	got := LinearRMS(squareWave(t, 3277, 1000))
	want := 3277.0 / 32768.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("LinearRMS = %g, want %g", got, want)
	}
}

func TestDBConversionRoundTrip(t *testing.T) {
	for _, linear := range []float64{1.0, 0.5, 0.1, 0.001} {
		db := DBFS(linear)
		if back := DBToLinear(db); math.Abs(back-linear) > 1e-9 {
			t.Errorf("DBToLinear(DBFS(%g)) = %g", linear, back)
		}
	}

	// Zero amplitude floors at the minimum instead of -Inf.
	if db := DBFS(0); math.IsInf(db, -1) || db > -190 {
		t.Errorf("DBFS(0) = %g, want a finite floor near -200", db)
	}
}
