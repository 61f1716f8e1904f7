package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

const (
	// DefaultModuleName is the Python CLI module wrapping the MediaPipe
	// face and pose models.
	DefaultModuleName = "shortsup_detectors"

	// DefaultDetectTimeout bounds a single detector invocation.
	DefaultDetectTimeout = 30 * time.Second

	maxStderrBytes = 8 * 1024
)

func init() {
	Register("mediapipe", newMediapipeBackend)
}

// mediapipeBackend shells out to a Python CLI that runs the MediaPipe face
// and pose models on a single image and prints JSON results.
type mediapipeBackend struct {
	python  string
	module  string
	timeout time.Duration
	logger  *slog.Logger
}

func newMediapipeBackend(opts Options) (Backend, error) {
	pythonPath := opts.PythonPath
	if pythonPath == "" {
		pythonPath = "python3"
	}
	resolved, err := exec.LookPath(pythonPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot locate python binary %q", pythonPath)
	}

	module := opts.ModuleName
	if module == "" {
		module = DefaultModuleName
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultDetectTimeout
	}

	return &mediapipeBackend{
		python:  resolved,
		module:  module,
		timeout: timeout,
		logger:  opts.Logger,
	}, nil
}

func (b *mediapipeBackend) Name() string        { return "mediapipe" }
func (b *mediapipeBackend) Faces() FaceDetector { return &mediapipeFaces{b} }
func (b *mediapipeBackend) Pose() PoseDetector  { return &mediapipePose{b} }

// run writes the frame to a temporary JPEG and invokes
// `python -m <module> <subcommand> --image <path> --json`.
func (b *mediapipeBackend) run(ctx context.Context, frame image.Image, subcommand string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "shortsup_frame_*.jpg")
	if err != nil {
		return nil, errors.Wrap(err, "cannot create frame temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := imaging.Encode(tmp, frame, imaging.JPEG); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "cannot encode frame")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "cannot close frame temp file")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.python, "-m", b.module, subcommand, "--image", tmpPath, "--json")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	if err != nil {
		return nil, errors.Wrapf(err, "%s detector failed: %s", subcommand, stderrTail(stderr.Bytes()))
	}

	b.logger.Debug("detector invocation complete",
		"subcommand", subcommand,
		"duration", time.Since(start),
	)

	return stdout.Bytes(), nil
}

func stderrTail(b []byte) string {
	if len(b) > maxStderrBytes {
		b = b[len(b)-maxStderrBytes:]
	}
	return string(bytes.TrimSpace(b))
}

type mediapipeFaces struct {
	backend *mediapipeBackend
}

func (d *mediapipeFaces) DetectFaces(ctx context.Context, frame image.Image) ([]BoundingBox, error) {
	out, err := d.backend.run(ctx, frame, "faces")
	if err != nil {
		return nil, err
	}

	var result struct {
		Detections []BoundingBox `json:"detections"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, errors.Wrap(err, "cannot parse face detector output")
	}
	return result.Detections, nil
}

type mediapipePose struct {
	backend *mediapipeBackend
}

func (d *mediapipePose) DetectPose(ctx context.Context, frame image.Image) (*Landmarks, error) {
	out, err := d.backend.run(ctx, frame, "pose")
	if err != nil {
		return nil, err
	}

	var result struct {
		Landmarks *Landmarks `json:"landmarks"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, errors.Wrap(err, "cannot parse pose detector output")
	}
	return result.Landmarks, nil
}
