// Package scanner walks a watch folder and classifies each video file
// against the upload history and the vertical target ratio, so the queue
// only receives files that are actually worth uploading.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/shortsup/shortsup/internal/ffmpeg"
	"github.com/shortsup/shortsup/internal/history"
	"github.com/shortsup/shortsup/internal/reframe"
	"github.com/shortsup/shortsup/pkg/types"
)

// VideoExtensions lists the container extensions picked up by a scan.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".mkv":  true,
}

// Files smaller than this cannot be a playable video.
const minFileSize = 1024

// VideoFile is the scan result for one file in the folder.
type VideoFile struct {
	Filename     string           `json:"filename"`
	Path         string           `json:"path"`
	Valid        bool             `json:"valid"`
	Message      string           `json:"message"`
	Status       types.FileStatus `json:"status_type"`
	YouTubeURL   string           `json:"youtube_url,omitempty"`
	UploadDate   string           `json:"upload_date,omitempty"`
	NeedsReframe bool             `json:"needs_reframe"`
	AspectRatio  float64          `json:"aspect_ratio,omitempty"`
	Size         int64            `json:"size"`
}

// Prober supplies video metadata for aspect-ratio checks.
type Prober interface {
	Probe(inputPath string) (*ffmpeg.VideoMetadata, error)
}

type Scanner struct {
	prober  Prober
	history history.Repository
	logger  *slog.Logger
}

func New(prober Prober, repo history.Repository, logger *slog.Logger) *Scanner {
	return &Scanner{prober: prober, history: repo, logger: logger}
}

// IsVideoFile reports whether filename carries a known video extension.
func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Scan lists folder (non-recursive) and classifies every video file found.
// Classification precedence: duplicate, retry, wrong ratio, size validation.
func (s *Scanner) Scan(ctx context.Context, folder string) ([]*VideoFile, error) {
	if strings.HasPrefix(folder, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			folder = filepath.Join(home, strings.TrimPrefix(folder, "~"))
		}
	}

	info, err := os.Stat(folder)
	if err != nil {
		return nil, errors.Wrapf(err, "folder not found: %s", folder)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("path is not a directory: %s", folder)
	}

	uploaded, err := s.recordsByStatus(ctx, history.StatusCompleted)
	if err != nil {
		return nil, errors.Wrap(err, "loading completed uploads")
	}
	failed, err := s.recordsByStatus(ctx, history.StatusFailed)
	if err != nil {
		return nil, errors.Wrap(err, "loading failed uploads")
	}

	s.logger.Info("scanning folder",
		"folder", folder,
		"uploaded", len(uploaded),
		"failed", len(failed),
	)

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", folder)
	}

	var videos []*VideoFile
	for _, entry := range entries {
		if entry.IsDir() || !IsVideoFile(entry.Name()) {
			continue
		}
		videos = append(videos, s.classify(folder, entry.Name(), uploaded, failed))
	}
	return videos, nil
}

func (s *Scanner) classify(folder, filename string, uploaded, failed map[string]*history.Record) *VideoFile {
	vf := &VideoFile{
		Filename: filename,
		Path:     filepath.Join(folder, filename),
		Valid:    true,
		Message:  "Ready to upload",
		Status:   types.FileStatusNew,
	}

	if fi, err := os.Stat(vf.Path); err == nil {
		vf.Size = fi.Size()
	}

	meta, probeErr := s.prober.Probe(vf.Path)
	if meta != nil {
		vf.AspectRatio = meta.AspectRatio()
		vf.NeedsReframe = !reframe.RatioMatches(vf.AspectRatio)
	}

	if rec, ok := uploaded[filename]; ok {
		vf.Valid = false
		vf.Status = types.FileStatusDuplicate
		vf.YouTubeURL = rec.YouTubeURL
		vf.UploadDate = rec.UploadDate.Format(time.RFC3339)
		vf.Message = fmt.Sprintf("Already uploaded (%s)", rec.UploadDate.Format("Jan 2, 2006"))
		return vf
	}

	if rec, ok := failed[filename]; ok {
		vf.Status = types.FileStatusRetry
		vf.UploadDate = rec.UploadDate.Format(time.RFC3339)
		vf.Message = fmt.Sprintf("Previous upload failed (%s), ready to retry", rec.UploadDate.Format("Jan 2, 2006"))
		return vf
	}

	if probeErr != nil {
		vf.Valid = false
		vf.Status = types.FileStatusInvalid
		vf.Message = "Cannot read video"
		s.logger.Warn("unreadable video in scan", "path", vf.Path, "error", probeErr)
		return vf
	}

	if vf.NeedsReframe {
		vf.Valid = false
		vf.Status = types.FileStatusWrongRatio
		vf.Message = fmt.Sprintf("Not 9:16 (current: %.2f), auto-fix available", vf.AspectRatio)
		return vf
	}

	switch {
	case vf.Size == 0:
		vf.Valid = false
		vf.Status = types.FileStatusInvalid
		vf.Message = "Empty file"
	case vf.Size < minFileSize:
		vf.Valid = false
		vf.Status = types.FileStatusInvalid
		vf.Message = "File too small"
	}
	return vf
}

func (s *Scanner) recordsByStatus(ctx context.Context, status string) (map[string]*history.Record, error) {
	records, err := s.history.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	// Records come back newest first; keep the most recent per filename.
	byName := make(map[string]*history.Record, len(records))
	for _, rec := range records {
		if _, ok := byName[rec.Filename]; !ok {
			byName[rec.Filename] = rec
		}
	}
	return byName, nil
}
