// Package detect locates the principal subject of a video frame. It runs
// independent face and body detectors and reduces their output to a single
// point estimate per frame.
package detect

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// BoundingBox is a detection region in normalized [0,1] coordinates
// relative to the frame it was detected in.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Score  float64 `json:"score,omitempty"`
}

// Center returns the normalized center of the box.
func (b BoundingBox) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Point is a normalized [0,1] coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks holds the named body landmarks required to estimate a torso
// center, in normalized coordinates.
type Landmarks struct {
	LeftShoulder  Point `json:"left_shoulder"`
	RightShoulder Point `json:"right_shoulder"`
	LeftHip       Point `json:"left_hip"`
	RightHip      Point `json:"right_hip"`
}

// TorsoCenter returns the mean of the shoulder and hip positions.
func (l Landmarks) TorsoCenter() Point {
	return Point{
		X: (l.LeftShoulder.X + l.RightShoulder.X + l.LeftHip.X + l.RightHip.X) / 4,
		Y: (l.LeftShoulder.Y + l.RightShoulder.Y + l.LeftHip.Y + l.RightHip.Y) / 4,
	}
}

// FaceDetector detects faces in a frame. Zero results is a normal outcome.
type FaceDetector interface {
	DetectFaces(ctx context.Context, frame image.Image) ([]BoundingBox, error)
}

// PoseDetector detects body landmarks in a frame. A nil result means no
// body was found.
type PoseDetector interface {
	DetectPose(ctx context.Context, frame image.Image) (*Landmarks, error)
}

// Backend bundles the two detector capabilities of one provider.
type Backend interface {
	Name() string
	Faces() FaceDetector
	Pose() PoseDetector
}

// Options configures backend construction.
type Options struct {
	PythonPath string        // path to python binary; empty = "python3"
	ModuleName string        // detector CLI module name
	Timeout    time.Duration // per-invocation timeout
	Logger     *slog.Logger
}

// Factory builds a Backend from options.
type Factory func(opts Options) (Backend, error)

var backends = make(map[string]Factory)

// Register adds a backend factory to the registry.
func Register(name string, f Factory) {
	backends[name] = f
}

// Get builds a backend by name.
func Get(name string, opts Options) (Backend, error) {
	f, ok := backends[name]
	if !ok {
		return nil, errors.Errorf("unsupported detector backend: %s", name)
	}
	return f(opts)
}

// SupportedBackends returns the registered backend names, sorted.
func SupportedBackends() []string {
	names := maps.Keys(backends)
	slices.Sort(names)
	return names
}
