package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/shortsup/shortsup/internal/config"
	"github.com/shortsup/shortsup/internal/ffmpeg"
	"github.com/shortsup/shortsup/internal/history"
	"github.com/shortsup/shortsup/internal/queue"
	"github.com/shortsup/shortsup/internal/reframe"
	"github.com/shortsup/shortsup/internal/scanner"
	"github.com/shortsup/shortsup/pkg/pipeline"
	"github.com/shortsup/shortsup/pkg/types"
)

type fakeScanner struct {
	videos []*scanner.VideoFile
	err    error
}

func (f *fakeScanner) Scan(ctx context.Context, folder string) ([]*scanner.VideoFile, error) {
	return f.videos, f.err
}

type fakeQueue struct {
	jobs   []queue.Job
	paused bool
	full   bool
}

func (f *fakeQueue) Enqueue(job *queue.Job) bool {
	if f.full {
		return false
	}
	job.Status = queue.StatusQueued
	f.jobs = append(f.jobs, *job)
	return true
}

func (f *fakeQueue) Snapshot() []queue.Job { return f.jobs }
func (f *fakeQueue) Pause()                { f.paused = true }
func (f *fakeQueue) Resume()               { f.paused = false }
func (f *fakeQueue) IsPaused() bool        { return f.paused }

type fakeAuth struct{ ok bool }

func (f *fakeAuth) IsAuthenticated() bool { return f.ok }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestRepo(t *testing.T) history.Repository {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return history.NewRepository(db.Conn())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	return cfg
}

func testRouter(t *testing.T, mutate func(*ServerConfig)) http.Handler {
	t.Helper()
	cfg := ServerConfig{
		Scanner:   &fakeScanner{},
		Queue:     &fakeQueue{},
		History:   openTestRepo(t),
		Settings:  testConfig(t),
		Auth:      &fakeAuth{ok: true},
		Logger:    testLogger(),
		StartTime: time.Now(),
		Analyze: func(ctx context.Context, opts pipeline.Options) (*reframe.Analysis, error) {
			return nil, errors.New("not configured in test")
		},
		Reframe: func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
			return nil, errors.New("not configured in test")
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := testRouter(t, nil)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ok" || resp.Version != Version {
		t.Errorf("resp = %+v", resp)
	}
}

func TestScan(t *testing.T) {
	router := testRouter(t, func(cfg *ServerConfig) {
		cfg.Scanner = &fakeScanner{videos: []*scanner.VideoFile{
			{Filename: "clip.mp4", Status: types.FileStatusNew, Valid: true},
		}}
	})

	rec := doJSON(t, router, http.MethodPost, "/api/scan", ScanRequest{FolderPath: "/videos"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Videos []scanner.VideoFile `json:"videos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].Filename != "clip.mp4" {
		t.Errorf("videos = %+v", resp.Videos)
	}
}

func TestScan_MissingFolder(t *testing.T) {
	router := testRouter(t, nil)
	rec := doJSON(t, router, http.MethodPost, "/api/scan", ScanRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyze(t *testing.T) {
	router := testRouter(t, func(cfg *ServerConfig) {
		cfg.Analyze = func(ctx context.Context, opts pipeline.Options) (*reframe.Analysis, error) {
			return &reframe.Analysis{
				Metadata:      &ffmpeg.VideoMetadata{Width: 1920, Height: 1080, HasAudio: true},
				SubjectCenter: image.Pt(657, 540),
				Plan: types.CropPlan{
					Operation: types.PlanOperationCropWidth,
					X:         354, Y: 0, Width: 607, Height: 1080,
				},
				NeedsProcessing: true,
			}, nil
		}
	})

	rec := doJSON(t, router, http.MethodPost, "/api/analyze", AnalyzeRequest{Path: "/videos/wide.mp4"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
	}

	var resp AnalyzeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Plan.Operation != types.PlanOperationCropWidth || !resp.NeedsProcessing {
		t.Errorf("resp = %+v", resp)
	}
	if resp.SubjectX != 657 {
		t.Errorf("subject_x = %d, want 657", resp.SubjectX)
	}
}

func TestAnalyze_UnreadableInput(t *testing.T) {
	router := testRouter(t, func(cfg *ServerConfig) {
		cfg.Analyze = func(ctx context.Context, opts pipeline.Options) (*reframe.Analysis, error) {
			return nil, ffmpeg.ErrNotReadable
		}
	})

	rec := doJSON(t, router, http.MethodPost, "/api/analyze", AnalyzeRequest{Path: "/videos/bad.mp4"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestScheduleUploads(t *testing.T) {
	fq := &fakeQueue{}
	router := testRouter(t, func(cfg *ServerConfig) {
		cfg.Queue = fq
	})

	rec := doJSON(t, router, http.MethodPost, "/api/uploads", ScheduleUploadsRequest{
		Videos: []ScheduleVideo{{Path: "/videos/My Clip.mp4"}},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body: %s", rec.Code, rec.Body)
	}

	if len(fq.jobs) != 1 {
		t.Fatalf("queued %d jobs, want 1", len(fq.jobs))
	}
	job := fq.jobs[0]
	if job.Title != "My Clip" {
		t.Errorf("title = %q, want derived from filename", job.Title)
	}
	if string(job.Privacy) != config.DefaultPrivacy {
		t.Errorf("privacy = %q, want default %q", job.Privacy, config.DefaultPrivacy)
	}
	if len(job.Tags) == 0 {
		t.Error("default tags not applied")
	}
}

func TestScheduleUploads_NotAuthenticated(t *testing.T) {
	router := testRouter(t, func(cfg *ServerConfig) {
		cfg.Auth = &fakeAuth{ok: false}
	})

	rec := doJSON(t, router, http.MethodPost, "/api/uploads", ScheduleUploadsRequest{
		Videos: []ScheduleVideo{{Path: "/videos/clip.mp4"}},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPauseResume(t *testing.T) {
	fq := &fakeQueue{}
	router := testRouter(t, func(cfg *ServerConfig) {
		cfg.Queue = fq
	})

	rec := doJSON(t, router, http.MethodPost, "/api/uploads/pause", nil)
	if rec.Code != http.StatusOK || !fq.paused {
		t.Fatalf("pause: status = %d, paused = %v", rec.Code, fq.paused)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/uploads/resume", nil)
	if rec.Code != http.StatusOK || fq.paused {
		t.Fatalf("resume: status = %d, paused = %v", rec.Code, fq.paused)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	repo := openTestRepo(t)
	if err := repo.Create(context.Background(), &history.Record{
		ID: history.NewID(), Filename: "clip.mp4", Title: "clip",
		UploadDate: time.Now().UTC(), Status: history.StatusCompleted,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	router := testRouter(t, func(cfg *ServerConfig) {
		cfg.History = repo
	})

	rec := doJSON(t, router, http.MethodGet, "/api/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].Filename != "clip.mp4" {
		t.Errorf("records = %+v", resp.Records)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	router := testRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var before SettingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&before); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if before.DefaultPrivacy != config.DefaultPrivacy {
		t.Errorf("default privacy = %q", before.DefaultPrivacy)
	}

	folder := "/videos"
	privacy := "unlisted"
	rec = doJSON(t, router, http.MethodPost, "/api/settings", UpdateSettingsRequest{
		UploadFolder:   &folder,
		DefaultPrivacy: &privacy,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body: %s", rec.Code, rec.Body)
	}
	var after SettingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&after); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if after.UploadFolder != folder || after.DefaultPrivacy != privacy {
		t.Errorf("after = %+v", after)
	}
}

func TestAuthStatus(t *testing.T) {
	router := testRouter(t, nil)
	rec := doJSON(t, router, http.MethodGet, "/api/auth/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp AuthStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Authenticated {
		t.Error("authenticated = false, want true")
	}
}
