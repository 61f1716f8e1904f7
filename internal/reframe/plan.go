// Package reframe decides how a video is converted to the 9:16 vertical
// target: it samples frames to estimate the subject position and computes
// a bounds-safe crop or pad plan centered on it.
package reframe

import (
	"image"
	"math"

	"github.com/shortsup/shortsup/pkg/types"
)

const (
	// TargetRatio is the vertical Shorts aspect ratio (width:height).
	TargetRatio = 9.0 / 16.0

	// RatioTolerance treats near-matches, e.g. due to rounding in source
	// dimensions, as already conformant so they are not re-encoded.
	RatioTolerance = 0.01
)

// RatioMatches reports whether an aspect ratio already satisfies the
// target within tolerance.
func RatioMatches(ratio float64) bool {
	return math.Abs(ratio-TargetRatio) < RatioTolerance
}

// Plan computes the crop or pad geometry that converts a width x height
// frame to the 9:16 target, keeping the subject as centered as the frame
// bounds allow. It is a pure function; all arithmetic is in integer pixel
// units with truncating division so no sub-pixel windows are produced.
func Plan(width, height int, subject image.Point) types.CropPlan {
	current := float64(width) / float64(height)

	if RatioMatches(current) {
		return types.CropPlan{
			Operation: types.PlanOperationNone,
			Width:     width,
			Height:    height,
		}
	}

	if current > TargetRatio && width != height {
		// Wider than the target: narrow the frame, keeping full height.
		targetWidth := height * 9 / 16
		return types.CropPlan{
			Operation: types.PlanOperationCropWidth,
			X:         clamp(subject.X-targetWidth/2, 0, width-targetWidth),
			Y:         0,
			Width:     targetWidth,
			Height:    height,
		}
	}

	// Narrower than the target, or exactly square.
	targetHeight := width * 16 / 9
	if targetHeight <= height {
		return types.CropPlan{
			Operation: types.PlanOperationCropHeight,
			X:         0,
			Y:         clamp(subject.Y-targetHeight/2, 0, height-targetHeight),
			Width:     width,
			Height:    targetHeight,
		}
	}

	// Too square to reach the target by cropping alone: letterbox instead
	// so no original content is lost.
	return types.CropPlan{
		Operation: types.PlanOperationAddPadding,
		Width:     width,
		Height:    height,
		PadTotal:  targetHeight - height,
	}
}

// clamp keeps v within [lo, hi].
func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
