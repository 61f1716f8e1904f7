package detect

import (
	"context"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/shortsup/shortsup/pkg/types"
)

// maxDetectDimension bounds the frame size handed to detectors. Frames are
// downscaled before detection; detections come back normalized, so the
// reduction still maps onto the original pixel grid.
const maxDetectDimension = 640

// Detection is one detector hit reduced to a point, in pixel coordinates
// of the original frame.
type Detection struct {
	Kind types.DetectionKind
	X    float64
	Y    float64
}

// Locator reduces the output of a detector backend to a single subject
// center per frame.
type Locator struct {
	faces  FaceDetector
	pose   PoseDetector
	logger *slog.Logger
}

// NewLocator creates a locator over the given backend.
func NewLocator(backend Backend, logger *slog.Logger) *Locator {
	return &Locator{
		faces:  backend.Faces(),
		pose:   backend.Pose(),
		logger: logger,
	}
}

// Locate returns the subject center of a frame in pixel coordinates.
// Detector failures are treated as zero detections; with no detections at
// all the frame's geometric center is returned. Multiple simultaneous
// subjects are merged into one centroid rather than tracked or ranked --
// a known limitation.
func (l *Locator) Locate(ctx context.Context, frame image.Image) image.Point {
	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	detections := l.collect(ctx, frame)
	if len(detections) == 0 {
		return image.Pt(width/2, height/2)
	}

	var sumX, sumY float64
	for _, d := range detections {
		sumX += d.X
		sumY += d.Y
	}
	n := float64(len(detections))
	return image.Pt(int(sumX/n), int(sumY/n))
}

func (l *Locator) collect(ctx context.Context, frame image.Image) []Detection {
	bounds := frame.Bounds()
	width, height := float64(bounds.Dx()), float64(bounds.Dy())

	detectFrame := frame
	if bounds.Dx() > maxDetectDimension || bounds.Dy() > maxDetectDimension {
		detectFrame = imaging.Fit(frame, maxDetectDimension, maxDetectDimension, imaging.Box)
	}

	var detections []Detection

	faces, err := l.faces.DetectFaces(ctx, detectFrame)
	if err != nil {
		l.logger.Debug("face detection unavailable", "error", err)
	}
	for _, box := range faces {
		cx, cy := box.Center()
		detections = append(detections, Detection{
			Kind: types.DetectionKindFace,
			X:    cx * width,
			Y:    cy * height,
		})
	}

	landmarks, err := l.pose.DetectPose(ctx, detectFrame)
	if err != nil {
		l.logger.Debug("pose detection unavailable", "error", err)
	}
	if landmarks != nil {
		torso := landmarks.TorsoCenter()
		detections = append(detections, Detection{
			Kind: types.DetectionKindBody,
			X:    torso.X * width,
			Y:    torso.Y * height,
		})
	}

	if len(detections) > 0 {
		l.logger.Debug("frame detections", "count", len(detections))
	}

	return detections
}
