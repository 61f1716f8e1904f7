// Package pipeline is the public entry point for analyzing a video's
// framing and reframing it to the vertical 9:16 target. The CLI and the
// HTTP API both drive it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/shortsup/shortsup/internal/detect"
	"github.com/shortsup/shortsup/internal/ffmpeg"
	"github.com/shortsup/shortsup/internal/logging"
	"github.com/shortsup/shortsup/internal/reframe"
)

// Options configures one analyze or reframe run.
type Options struct {
	InputPath  string
	OutputPath string // reframe only; empty = derived from InputPath
	Backend    string // detector backend; empty = "mediapipe"
	PythonPath string // detector python binary; empty = "python3"
	Logger     *slog.Logger
}

// Result describes a finished reframe run.
type Result struct {
	InputPath  string           `json:"input_path"`
	OutputPath string           `json:"output_path"`
	Analysis   *reframe.Analysis `json:"analysis"`
	Reframed   bool             `json:"reframed"`
}

const outputSuffix = "_crop916"

// OutputPath derives the reframed filename next to the input:
// clip.mp4 becomes clip_crop916.mp4.
func OutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	return base + outputSuffix + ext
}

var unsafeTitleChars = regexp.MustCompile(`[^a-zA-Z0-9-_. ]`)
var squeezeUnderscores = regexp.MustCompile(`_+`)

// TitleFromFilename turns a video filename into an upload title: the
// extension is dropped and characters YouTube rejects are replaced.
func TitleFromFilename(filename string) string {
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	title = unsafeTitleChars.ReplaceAllString(title, "_")
	title = squeezeUnderscores.ReplaceAllString(title, "_")
	title = strings.Trim(title, "_ ")
	if title == "" {
		title = "untitled"
	}
	return title
}

// AnalyzeVideo probes the input and, when its ratio misses the target,
// samples frames to locate the subject and computes the transform plan.
func AnalyzeVideo(ctx context.Context, opts Options) (*reframe.Analysis, error) {
	analyzer, _, err := buildAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(ctx, opts.InputPath)
}

// ReframeVideo analyzes the input and applies the resulting plan. When the
// input already matches the target ratio no output file is produced and
// Result.Reframed is false.
func ReframeVideo(ctx context.Context, opts Options) (*Result, error) {
	analyzer, processor, err := buildAnalyzer(opts)
	if err != nil {
		return nil, err
	}

	analysis, err := analyzer.Analyze(ctx, opts.InputPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		InputPath: opts.InputPath,
		Analysis:  analysis,
	}

	if !analysis.NeedsProcessing {
		result.OutputPath = opts.InputPath
		return result, nil
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = OutputPath(opts.InputPath)
	}

	if err := processor.ApplyPlan(opts.InputPath, outputPath, analysis.Plan, analysis.Metadata.HasAudio); err != nil {
		return nil, errors.Wrapf(err, "applying %s transform", analysis.Plan.Operation)
	}

	result.OutputPath = outputPath
	result.Reframed = true
	return result, nil
}

func buildAnalyzer(opts Options) (*reframe.Analyzer, *ffmpeg.Processor, error) {
	if opts.InputPath == "" {
		return nil, nil, fmt.Errorf("input path is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithVideo(logger, opts.InputPath)

	backendName := opts.Backend
	if backendName == "" {
		backendName = "mediapipe"
	}

	backend, err := detect.Get(backendName, detect.Options{
		PythonPath: opts.PythonPath,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	processor := ffmpeg.NewProcessor(logger)
	locator := detect.NewLocator(backend, logger)
	analyzer := reframe.NewAnalyzer(processor, processor, locator, logger)
	return analyzer, processor, nil
}
