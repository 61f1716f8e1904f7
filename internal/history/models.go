// Package history persists the outcome of every upload attempt so that
// repeated scans of a watch folder never re-upload a video that already
// went out, and failed videos can be retried.
package history

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is one upload attempt for a local video file.
type Record struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	UploadDate time.Time `json:"upload_date"`
	YouTubeURL string    `json:"youtube_url,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
