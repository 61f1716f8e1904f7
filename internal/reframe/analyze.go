package reframe

import (
	"context"
	"image"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/shortsup/shortsup/internal/ffmpeg"
	"github.com/shortsup/shortsup/pkg/types"
)

// MaxSampleFrames is the number of frames sampled across a clip to
// estimate the subject position.
const MaxSampleFrames = 5

// Prober reads container metadata for a video file.
type Prober interface {
	Probe(path string) (*ffmpeg.VideoMetadata, error)
}

// FrameSource decodes a single frame of a video by index.
type FrameSource interface {
	ReadFrame(path string, frameIndex int) (image.Image, error)
}

// SubjectLocator reduces one frame to a subject center in pixel
// coordinates.
type SubjectLocator interface {
	Locate(ctx context.Context, frame image.Image) image.Point
}

// Analysis is the result of inspecting one video.
type Analysis struct {
	Metadata        *ffmpeg.VideoMetadata
	SubjectCenter   image.Point
	Plan            types.CropPlan
	NeedsProcessing bool
}

// Analyzer estimates a clip's subject center and derives its crop plan.
type Analyzer struct {
	prober  Prober
	frames  FrameSource
	locator SubjectLocator
	logger  *slog.Logger
}

// NewAnalyzer creates an analyzer. *ffmpeg.Processor satisfies both the
// Prober and FrameSource contracts.
func NewAnalyzer(prober Prober, frames FrameSource, locator SubjectLocator, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		prober:  prober,
		frames:  frames,
		locator: locator,
		logger:  logger,
	}
}

// Analyze probes a video and, when its ratio does not already match the
// target, samples frames to locate the subject and computes the plan.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Analysis, error) {
	meta, err := a.prober.Probe(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if RatioMatches(meta.AspectRatio()) {
		// No transform needed; skip frame sampling entirely.
		return &Analysis{
			Metadata:      meta,
			SubjectCenter: image.Pt(meta.Width/2, meta.Height/2),
			Plan:          Plan(meta.Width, meta.Height, image.Pt(meta.Width/2, meta.Height/2)),
		}, nil
	}

	center := a.SubjectCenter(ctx, path, meta)
	plan := Plan(meta.Width, meta.Height, center)

	a.logger.Info("video analyzed",
		"path", path,
		"width", meta.Width,
		"height", meta.Height,
		"aspect_ratio", meta.AspectRatio(),
		"subject_x", center.X,
		"subject_y", center.Y,
		"operation", string(plan.Operation),
	)

	return &Analysis{
		Metadata:        meta,
		SubjectCenter:   center,
		Plan:            plan,
		NeedsProcessing: plan.NeedsTransform(),
	}, nil
}

// SubjectCenter samples up to MaxSampleFrames frames evenly spaced across
// the clip, locates the subject in each, and returns the mean center.
// Frames that fail to decode are skipped; if every sample fails the
// metadata-derived geometric center is returned so the caller degrades to
// a center crop instead of aborting.
func (a *Analyzer) SubjectCenter(ctx context.Context, path string, meta *ffmpeg.VideoMetadata) image.Point {
	totalFrames := meta.TotalFrames()

	sampleCount := MaxSampleFrames
	if totalFrames < sampleCount {
		sampleCount = totalFrames
	}

	var centers []image.Point
	for i := 0; i < sampleCount; i++ {
		frameIndex := i * totalFrames / sampleCount

		frame, err := a.frames.ReadFrame(path, frameIndex)
		if err != nil {
			a.logger.Warn("skipping undecodable sample frame",
				"path", path,
				"frame", frameIndex,
				"error", err,
			)
			continue
		}

		center := a.locator.Locate(ctx, frame)
		a.logger.Debug("sampled subject center",
			"path", path,
			"frame", frameIndex,
			"x", center.X,
			"y", center.Y,
		)
		centers = append(centers, center)
	}

	if len(centers) == 0 {
		a.logger.Warn("no sample frames decoded, falling back to geometric center", "path", path)
		return image.Pt(meta.Width/2, meta.Height/2)
	}

	var sumX, sumY float64
	for _, c := range centers {
		sumX += float64(c.X)
		sumY += float64(c.Y)
	}
	n := float64(len(centers))
	return image.Pt(int(sumX/n), int(sumY/n))
}
