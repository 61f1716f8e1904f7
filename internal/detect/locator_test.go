package detect

import (
	"context"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFaces struct {
	boxes []BoundingBox
	err   error
}

func (s *stubFaces) DetectFaces(ctx context.Context, frame image.Image) ([]BoundingBox, error) {
	return s.boxes, s.err
}

type stubPose struct {
	landmarks *Landmarks
	err       error
}

func (s *stubPose) DetectPose(ctx context.Context, frame image.Image) (*Landmarks, error) {
	return s.landmarks, s.err
}

type stubBackend struct {
	faces FaceDetector
	pose  PoseDetector
}

func (s *stubBackend) Name() string        { return "stub" }
func (s *stubBackend) Faces() FaceDetector { return s.faces }
func (s *stubBackend) Pose() PoseDetector  { return s.pose }

func newTestLocator(faces FaceDetector, pose PoseDetector) *Locator {
	return NewLocator(&stubBackend{faces: faces, pose: pose}, testLogger())
}

func frame(width, height int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func TestLocate_NoDetectionsReturnsGeometricCenter(t *testing.T) {
	l := newTestLocator(&stubFaces{}, &stubPose{})

	got := l.Locate(context.Background(), frame(640, 480))

	if got != image.Pt(320, 240) {
		t.Errorf("center = %v, want (320,240)", got)
	}
}

func TestLocate_SingleFace(t *testing.T) {
	faces := &stubFaces{boxes: []BoundingBox{
		{X: 0.25, Y: 0.25, Width: 0.25, Height: 0.25},
	}}
	l := newTestLocator(faces, &stubPose{})

	got := l.Locate(context.Background(), frame(1000, 500))

	// Face center at (0.375, 0.375) normalized.
	if got != image.Pt(375, 187) {
		t.Errorf("center = %v, want (375,187)", got)
	}
}

func TestLocate_MultipleFacesMerged(t *testing.T) {
	faces := &stubFaces{boxes: []BoundingBox{
		{X: 0.0, Y: 0.0, Width: 0.5, Height: 0.5}, // center (0.25, 0.25)
		{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5}, // center (0.75, 0.75)
	}}
	l := newTestLocator(faces, &stubPose{})

	got := l.Locate(context.Background(), frame(100, 100))

	if got != image.Pt(50, 50) {
		t.Errorf("center = %v, want merged centroid (50,50)", got)
	}
}

func TestLocate_FaceAndTorsoAveraged(t *testing.T) {
	faces := &stubFaces{boxes: []BoundingBox{
		{X: 0.125, Y: 0.125, Width: 0.25, Height: 0.25}, // center (0.25, 0.25)
	}}
	pose := &stubPose{landmarks: &Landmarks{
		LeftShoulder:  Point{X: 0.25, Y: 0.25},
		RightShoulder: Point{X: 0.75, Y: 0.25},
		LeftHip:       Point{X: 0.25, Y: 0.75},
		RightHip:      Point{X: 0.75, Y: 0.75},
	}} // torso center (0.5, 0.5)
	l := newTestLocator(faces, pose)

	got := l.Locate(context.Background(), frame(200, 200))

	if got != image.Pt(75, 75) {
		t.Errorf("center = %v, want (75,75)", got)
	}
}

func TestLocate_DetectorFailuresAbsorbed(t *testing.T) {
	faces := &stubFaces{err: errors.New("model crashed")}
	pose := &stubPose{err: errors.New("model crashed")}
	l := newTestLocator(faces, pose)

	got := l.Locate(context.Background(), frame(1920, 1080))

	if got != image.Pt(960, 540) {
		t.Errorf("center = %v, want geometric center (960,540)", got)
	}
}

func TestLocate_OneDetectorFailsOtherCounts(t *testing.T) {
	faces := &stubFaces{err: errors.New("model crashed")}
	pose := &stubPose{landmarks: &Landmarks{
		LeftShoulder:  Point{X: 0.375, Y: 0.25},
		RightShoulder: Point{X: 0.625, Y: 0.25},
		LeftHip:       Point{X: 0.375, Y: 0.75},
		RightHip:      Point{X: 0.625, Y: 0.75},
	}} // torso center (0.5, 0.5)
	l := newTestLocator(faces, pose)

	got := l.Locate(context.Background(), frame(1000, 1000))

	if got != image.Pt(500, 500) {
		t.Errorf("center = %v, want (500,500)", got)
	}
}

func TestLocate_DownscaledFrameMapsToOriginalPixels(t *testing.T) {
	// Frame larger than the detection bound still reduces against the
	// original dimensions because detections are normalized.
	faces := &stubFaces{boxes: []BoundingBox{
		{X: 0.375, Y: 0.375, Width: 0.25, Height: 0.25}, // center (0.5, 0.5)
	}}
	l := newTestLocator(faces, &stubPose{})

	got := l.Locate(context.Background(), frame(3840, 2160))

	if got != image.Pt(1920, 1080) {
		t.Errorf("center = %v, want (1920,1080)", got)
	}
}

func TestTorsoCenter(t *testing.T) {
	lm := Landmarks{
		LeftShoulder:  Point{X: 0.25, Y: 0.25},
		RightShoulder: Point{X: 0.75, Y: 0.25},
		LeftHip:       Point{X: 0.25, Y: 0.75},
		RightHip:      Point{X: 0.75, Y: 0.75},
	}

	got := lm.TorsoCenter()
	if got.X != 0.5 || got.Y != 0.5 {
		t.Errorf("torso center = %v, want (0.5,0.5)", got)
	}
}

func TestSupportedBackends(t *testing.T) {
	names := SupportedBackends()
	found := false
	for _, n := range names {
		if n == "mediapipe" {
			found = true
		}
	}
	if !found {
		t.Errorf("SupportedBackends() = %v, want to include mediapipe", names)
	}
}
