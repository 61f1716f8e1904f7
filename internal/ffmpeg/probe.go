// Package ffmpeg wraps the ffmpeg/ffprobe toolchain for metadata probing,
// single-frame extraction, and applying crop/pad transforms.
package ffmpeg

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Sentinel errors for the probe failure taxonomy. Callers match them with
// errors.Is.
var (
	// ErrNotReadable means the file is missing or the container cannot
	// be parsed.
	ErrNotReadable = errors.New("video not readable")

	// ErrNoVideoStream means the container parsed but carries no video
	// stream.
	ErrNoVideoStream = errors.New("no video stream found")
)

// Rational is an exact frame-rate fraction as reported by ffprobe
// (e.g. "30000/1001"). Kept as integers so callers that only need
// informational precision lose nothing to float parsing.
type Rational struct {
	Num int
	Den int
}

// ParseRational parses a "num/den" fraction string. A bare integer is
// treated as num/1.
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rational{}, errors.New("empty rational")
	}

	parts := strings.SplitN(s, "/", 2)
	num, err := strconv.Atoi(parts[0])
	if err != nil {
		return Rational{}, errors.Wrapf(err, "invalid rational %q", s)
	}
	den := 1
	if len(parts) == 2 {
		den, err = strconv.Atoi(parts[1])
		if err != nil {
			return Rational{}, errors.Wrapf(err, "invalid rational %q", s)
		}
	}
	return Rational{Num: num, Den: den}, nil
}

// Float64 returns the fraction as a float, or 0 for a zero denominator.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// VideoMetadata contains container/stream metadata about a video file.
type VideoMetadata struct {
	Width     int
	Height    int
	Duration  float64 // seconds
	FrameRate Rational
	Bitrate   int64 // bits per second, 0 if unknown
	HasAudio  bool
	NbFrames  int // frame count reported by the stream, 0 if unknown
}

// AspectRatio returns width/height. Probe guarantees Height > 0.
func (m *VideoMetadata) AspectRatio() float64 {
	return float64(m.Width) / float64(m.Height)
}

// TotalFrames returns the best available frame count: the stream's
// reported count, or duration times frame rate when the stream omits it.
func (m *VideoMetadata) TotalFrames() int {
	if m.NbFrames > 0 {
		return m.NbFrames
	}
	return int(m.Duration * m.FrameRate.Float64())
}

// Processor wraps FFmpeg functionality.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new FFmpeg processor.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

// probeResult matches the ffprobe JSON output structure.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Duration     string `json:"duration"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		BitRate      string `json:"bit_rate"`
	} `json:"streams"`
}

// Probe reads container and stream metadata for a video file. It does not
// decode any frames. Returns ErrNotReadable when the container cannot be
// parsed and ErrNoVideoStream when no video stream is present.
func (p *Processor) Probe(inputPath string) (*VideoMetadata, error) {
	raw, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotReadable, inputPath, err)
	}

	var probe probeResult
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotReadable, inputPath, err)
	}

	meta := &VideoMetadata{}
	foundVideo := false

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true

			meta.Width = stream.Width
			meta.Height = stream.Height

			if d, err := strconv.ParseFloat(strings.TrimSpace(stream.Duration), 64); err == nil {
				meta.Duration = d
			}
			if n, err := strconv.Atoi(stream.NbFrames); err == nil {
				meta.NbFrames = n
			}
			if br, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
				meta.Bitrate = br
			}

			rate, err := ParseRational(stream.AvgFrameRate)
			if err != nil || rate.Float64() <= 0 {
				rate, err = ParseRational(stream.RFrameRate)
				if err != nil {
					rate = Rational{Num: 30, Den: 1}
				}
			}
			meta.FrameRate = rate

		case "audio":
			meta.HasAudio = true
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("%w: %s", ErrNoVideoStream, inputPath)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid dimensions %dx%d",
			ErrNotReadable, inputPath, meta.Width, meta.Height)
	}

	// Stream duration is not always present; fall back to the container.
	if meta.Duration == 0 {
		if d, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64); err == nil {
			meta.Duration = d
		}
	}
	if meta.Duration == 0 && meta.NbFrames > 0 && meta.FrameRate.Float64() > 0 {
		meta.Duration = float64(meta.NbFrames) / meta.FrameRate.Float64()
	}

	// Same for bitrate.
	if meta.Bitrate == 0 {
		if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
			meta.Bitrate = br
		}
	}

	p.logger.Debug("probed video",
		"path", inputPath,
		"width", meta.Width,
		"height", meta.Height,
		"duration", meta.Duration,
		"frame_rate", meta.FrameRate.String(),
		"has_audio", meta.HasAudio,
	)

	return meta, nil
}
