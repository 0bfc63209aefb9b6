package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xblabs/WhisperDog-sub002/internal/activity"
	"github.com/xblabs/WhisperDog-sub002/internal/cli"
	"github.com/xblabs/WhisperDog-sub002/internal/config"
	"github.com/xblabs/WhisperDog-sub002/internal/levels"
	"github.com/xblabs/WhisperDog-sub002/internal/normalize"
	"github.com/xblabs/WhisperDog-sub002/internal/report"
	"github.com/xblabs/WhisperDog-sub002/internal/ui"
	"github.com/xblabs/WhisperDog-sub002/internal/wav"
)

var version = "0.0.1"

// CLI defines the command-line interface. Flags left unset fall back to the
// WHISPERDOG_* environment configuration, which in turn defaults to the
// engine constants.
type CLI struct {
	Version bool `short:"v" help:"Show version information"`
	Report  bool `help:"Write the full analysis report next to the inputs"`

	NoNormalize       bool     `help:"Skip loudness normalization"`
	TargetRMS         *float64 `help:"Normalization target in dBFS"`
	Interval          *int64   `help:"Attribution window size in milliseconds"`
	ActivityThreshold *float64 `help:"Linear RMS above which a window counts as active"`
	DominanceRatio    *float64 `help:"RMS ratio required to attribute a window to one source"`

	Mic    string `arg:"" optional:"" type:"existingfile" help:"Microphone track (mono 16-bit WAV)"`
	System string `arg:"" optional:"" type:"existingfile" help:"System output track (mono 16-bit WAV)"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("whisperdog"),
		kong.Description("Dual-source recording level normalizer and source attributor"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if cliArgs.Mic == "" || cliArgs.System == "" {
		cli.PrintError("Both a microphone track and a system track are required")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	applyFlagOverrides(cliArgs, cfg)

	log := newDebugLogger(cfg.LogLevel)
	log.Info("starting", "version", version, "mic", cliArgs.Mic, "system", cliArgs.System)

	model := ui.NewModel(cliArgs.Mic, cliArgs.System)
	p := tea.NewProgram(model, tea.WithAltScreen())

	var data *report.Data
	go func() {
		var runErr error
		data, runErr = runPipeline(cliArgs, cfg, log, model.ProgressChan)
		model.ProgressChan <- ui.DoneMsg{Err: runErr}
	}()

	finalModel, err := p.Run()
	if err != nil {
		cli.PrintError(fmt.Sprintf("terminal error: %v", err))
		os.Exit(1)
	}

	if m, ok := finalModel.(ui.Model); ok {
		if !m.Done {
			cli.PrintWarning("aborted")
			os.Exit(130)
		}
		if m.Err != nil {
			cli.PrintError(m.Err.Error())
			os.Exit(1)
		}
	}

	fmt.Println(report.Render(data))

	if cliArgs.Report {
		path := reportPath(cliArgs.Mic)
		if err := os.WriteFile(path, []byte(report.Render(data)), 0o644); err != nil {
			cli.PrintWarning(fmt.Sprintf("could not write report: %v", err))
		} else {
			fmt.Printf("%s %s\n", cli.KeyStyle.Render("Report:"), cli.ValueStyle.Render(path))
		}
	}
}

// runPipeline executes the four stages and streams progress to the TUI.
func runPipeline(cliArgs *CLI, cfg *config.Config, log *slog.Logger, progress chan<- tea.Msg) (*report.Data, error) {
	// Stage 1: load and analyze both tracks.
	progress <- ui.StageMsg{Stage: 1, Name: "Analyzing", Progress: 0.0}

	mic, micRate, err := wav.ReadFile(cliArgs.Mic)
	if err != nil {
		return nil, fmt.Errorf("reading mic track: %w", err)
	}
	progress <- ui.StageMsg{Stage: 1, Name: "Analyzing", Progress: 0.3}

	sys, sysRate, err := wav.ReadFile(cliArgs.System)
	if err != nil {
		return nil, fmt.Errorf("reading system track: %w", err)
	}
	if micRate != sysRate {
		return nil, fmt.Errorf("sample rate mismatch: mic %d Hz, system %d Hz", micRate, sysRate)
	}
	progress <- ui.StageMsg{Stage: 1, Name: "Analyzing", Progress: 0.6}

	micAnalysis, err := levels.Analyze(mic, micRate)
	if err != nil {
		return nil, fmt.Errorf("analyzing mic track: %w", err)
	}
	sysAnalysis, err := levels.Analyze(sys, sysRate)
	if err != nil {
		return nil, fmt.Errorf("analyzing system track: %w", err)
	}
	progress <- ui.LevelMsg{MicDB: micAnalysis.RMSDB, SysDB: sysAnalysis.RMSDB}
	progress <- ui.StageMsg{Stage: 1, Name: "Analyzing", Progress: 1.0}
	log.Debug("analysis complete",
		"mic_rms_db", micAnalysis.RMSDB, "mic_peak_db", micAnalysis.PeakDB,
		"sys_rms_db", sysAnalysis.RMSDB, "sys_peak_db", sysAnalysis.PeakDB)

	// Stage 2: normalize for merge. A normalization failure falls back to
	// the original tracks; it never aborts the run.
	progress <- ui.StageMsg{Stage: 2, Name: "Normalizing", Progress: 0.0}
	result, err := normalize.ForMerge(mic, sys, micRate, cfg.TargetRMSDB, cfg.Normalize)
	if err != nil {
		log.Warn("normalization failed, using original tracks", "error", err)
		progress <- ui.WarningMsg{Message: "normalization failed; using original tracks"}
		result = normalize.Result{MicSamples: mic, SysSamples: sys}
	}
	if result.Warning != "" {
		progress <- ui.WarningMsg{Message: result.Warning}
	}
	if result.WasProcessed {
		if err := writeNormalized(cliArgs.Mic, result.MicSamples, mic, micRate); err != nil {
			return nil, err
		}
		if err := writeNormalized(cliArgs.System, result.SysSamples, sys, sysRate); err != nil {
			return nil, err
		}
	}
	progress <- ui.StageMsg{Stage: 2, Name: "Normalizing", Progress: 1.0}
	log.Debug("normalization complete",
		"processed", result.WasProcessed,
		"mic_gain_db", result.MicGainDB, "sys_gain_db", result.SysGainDB)

	// Stage 3: attribute the timeline on the normalized buffers.
	progress <- ui.StageMsg{Stage: 3, Name: "Attributing", Progress: 0.0}
	totalMS := micAnalysis.DurationMS
	if sysAnalysis.DurationMS > totalMS {
		totalMS = sysAnalysis.DurationMS
	}
	opts := activity.Options{
		IntervalMS:        cfg.IntervalMS,
		ActivityThreshold: cfg.ActivityThreshold,
		DominanceRatio:    cfg.DominanceRatio,
	}
	timeline, err := activity.Track(result.MicSamples, result.SysSamples, micRate, opts)
	if err != nil {
		// An unattributable recording is still a recording: treat the
		// whole range as overlap rather than failing the run.
		log.Warn("attribution failed, marking whole range as overlap", "error", err)
		progress <- ui.WarningMsg{Message: "attribution failed; treating the whole recording as overlap"}
		if totalMS > 0 {
			timeline = []activity.Segment{{StartMS: 0, EndMS: totalMS, Source: activity.SourceBoth}}
		}
	}
	progress <- ui.StageMsg{Stage: 3, Name: "Attributing", Progress: 1.0}
	log.Debug("attribution complete", "segments", len(timeline))

	// Stage 4: assemble the report.
	progress <- ui.StageMsg{Stage: 4, Name: "Reporting", Progress: 0.5}
	data := &report.Data{
		MicPath:       cliArgs.Mic,
		SysPath:       cliArgs.System,
		SampleRate:    micRate,
		TotalMS:       totalMS,
		Mic:           micAnalysis,
		Sys:           sysAnalysis,
		Normalization: result,
		Timeline:      timeline,
	}
	progress <- ui.StageMsg{Stage: 4, Name: "Reporting", Progress: 1.0}

	return data, nil
}

// writeNormalized writes the adjusted track next to the original, but only
// when gain actually changed the buffer.
func writeNormalized(inputPath string, adjusted, original []int16, sampleRate int) error {
	if len(adjusted) == len(original) && &adjusted[0] == &original[0] {
		return nil // pass-through track, nothing to write
	}
	outPath := normalizedPath(inputPath)
	if err := wav.WriteFile(outPath, adjusted, sampleRate); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

// normalizedPath derives the output name: recording.wav -> recording-normalized.wav
func normalizedPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "-normalized" + ext
}

// reportPath derives the report name from the mic track.
func reportPath(micPath string) string {
	ext := filepath.Ext(micPath)
	return strings.TrimSuffix(micPath, ext) + "-report.txt"
}

// applyFlagOverrides resolves precedence: explicit flags beat environment
// configuration.
func applyFlagOverrides(cliArgs *CLI, cfg *config.Config) {
	if cliArgs.NoNormalize {
		cfg.Normalize = false
	}
	if cliArgs.TargetRMS != nil {
		cfg.TargetRMSDB = *cliArgs.TargetRMS
	}
	if cliArgs.Interval != nil {
		cfg.IntervalMS = *cliArgs.Interval
	}
	if cliArgs.ActivityThreshold != nil {
		cfg.ActivityThreshold = *cliArgs.ActivityThreshold
	}
	if cliArgs.DominanceRatio != nil {
		cfg.DominanceRatio = *cliArgs.DominanceRatio
	}
}

// newDebugLogger writes structured diagnostics to a log file beside the
// binary; the terminal belongs to the TUI.
func newDebugLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	f, err := os.OpenFile("whisperdog-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
}
