package api

import (
	"time"

	"github.com/shortsup/shortsup/internal/history"
	"github.com/shortsup/shortsup/internal/reframe"
	"github.com/shortsup/shortsup/pkg/types"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ScanRequest struct {
	FolderPath string `json:"folder_path"`
}

type AnalyzeRequest struct {
	Path string `json:"path"`
}

type AnalyzeResponse struct {
	Path            string         `json:"path"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	AspectRatio     float64        `json:"aspect_ratio"`
	Duration        float64        `json:"duration"`
	HasAudio        bool           `json:"has_audio"`
	SubjectX        int            `json:"subject_x"`
	SubjectY        int            `json:"subject_y"`
	Plan            types.CropPlan `json:"plan"`
	NeedsProcessing bool           `json:"needs_processing"`
}

type ReframeRequest struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path,omitempty"`
}

type ReframeResponse struct {
	InputPath  string         `json:"input_path"`
	OutputPath string         `json:"output_path"`
	Reframed   bool           `json:"reframed"`
	Plan       types.CropPlan `json:"plan"`
}

type ScheduleUploadsRequest struct {
	Videos []ScheduleVideo `json:"videos"`
}

type ScheduleVideo struct {
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Privacy     string `json:"privacy,omitempty"`
}

type ScheduleUploadsResponse struct {
	Queued []string `json:"queued"` // job IDs in enqueue order
}

type HistoryRecordResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	UploadDate string `json:"upload_date"`
	YouTubeURL string `json:"youtube_url,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type HistoryResponse struct {
	Records []HistoryRecordResponse `json:"records"`
}

type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	ChannelName   string `json:"channel_name,omitempty"`
}

type SettingsResponse struct {
	UploadFolder     string `json:"upload_folder"`
	DefaultPrivacy   string `json:"default_privacy"`
	DefaultTags      string `json:"default_tags"`
	UploadDelay      int    `json:"upload_delay"`
	ClientConfigured bool   `json:"client_configured"`
}

type UpdateSettingsRequest struct {
	UploadFolder   *string `json:"upload_folder,omitempty"`
	DefaultPrivacy *string `json:"default_privacy,omitempty"`
	DefaultTags    *string `json:"default_tags,omitempty"`
	UploadDelay    *int    `json:"upload_delay,omitempty"`
	ClientID       *string `json:"client_id,omitempty"`
	ClientSecret   *string `json:"client_secret,omitempty"`
}

func AnalysisToResponse(path string, a *reframe.Analysis) AnalyzeResponse {
	return AnalyzeResponse{
		Path:            path,
		Width:           a.Metadata.Width,
		Height:          a.Metadata.Height,
		AspectRatio:     a.Metadata.AspectRatio(),
		Duration:        a.Metadata.Duration,
		HasAudio:        a.Metadata.HasAudio,
		SubjectX:        a.SubjectCenter.X,
		SubjectY:        a.SubjectCenter.Y,
		Plan:            a.Plan,
		NeedsProcessing: a.NeedsProcessing,
	}
}

func RecordToResponse(rec *history.Record) HistoryRecordResponse {
	return HistoryRecordResponse{
		ID:         rec.ID,
		Filename:   rec.Filename,
		Title:      rec.Title,
		UploadDate: rec.UploadDate.Format(time.RFC3339),
		YouTubeURL: rec.YouTubeURL,
		Status:     rec.Status,
		Error:      rec.Error,
	}
}
