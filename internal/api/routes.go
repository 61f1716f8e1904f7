package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shortsup/shortsup/internal/history"
	"github.com/shortsup/shortsup/internal/queue"
	"github.com/shortsup/shortsup/internal/youtube"
	"github.com/shortsup/shortsup/pkg/pipeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Analyze == nil {
		cfg.Analyze = pipeline.AnalyzeVideo
	}
	if cfg.Reframe == nil {
		cfg.Reframe = pipeline.ReframeVideo
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", scanHandler(cfg))
		r.Post("/analyze", analyzeHandler(cfg))
		r.Post("/reframe", reframeHandler(cfg))
		r.Post("/uploads", scheduleUploadsHandler(cfg))
		r.Get("/uploads", uploadsStatusHandler(cfg))
		r.Post("/uploads/pause", pauseHandler(cfg))
		r.Post("/uploads/resume", resumeHandler(cfg))
		r.Get("/history", historyHandler(cfg))
		r.Get("/settings", getSettingsHandler(cfg))
		r.Post("/settings", updateSettingsHandler(cfg))
		r.Get("/auth/status", authStatusHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func scanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.FolderPath == "" {
			WriteError(w, http.StatusBadRequest, "folder_path is required", "BAD_REQUEST")
			return
		}

		videos, err := cfg.Scanner.Scan(r.Context(), req.FolderPath)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "SCAN_FAILED")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"videos": videos})
	}
}

func analyzeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		analysis, err := cfg.Analyze(r.Context(), pipeline.Options{
			InputPath: req.Path,
			Logger:    cfg.Logger,
		})
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "ANALYZE_FAILED")
			return
		}
		WriteJSON(w, http.StatusOK, AnalysisToResponse(req.Path, analysis))
	}
}

func reframeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReframeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		result, err := cfg.Reframe(r.Context(), pipeline.Options{
			InputPath:  req.Path,
			OutputPath: req.OutputPath,
			Logger:     cfg.Logger,
		})
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "REFRAME_FAILED")
			return
		}
		WriteJSON(w, http.StatusOK, ReframeResponse{
			InputPath:  result.InputPath,
			OutputPath: result.OutputPath,
			Reframed:   result.Reframed,
			Plan:       result.Analysis.Plan,
		})
	}
}

func scheduleUploadsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleUploadsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if len(req.Videos) == 0 {
			WriteError(w, http.StatusBadRequest, "no videos provided", "BAD_REQUEST")
			return
		}
		if cfg.Auth != nil && !cfg.Auth.IsAuthenticated() {
			WriteError(w, http.StatusUnauthorized, "YouTube not connected", "NOT_AUTHENTICATED")
			return
		}

		prefs := cfg.Settings.Preferences

		var queued []string
		for _, v := range req.Videos {
			filename := filepath.Base(v.Path)

			title := v.Title
			if title == "" {
				title = pipeline.TitleFromFilename(filename)
			}
			tags := v.Tags
			if tags == "" {
				tags = prefs.DefaultTags
			}
			privacy := v.Privacy
			if privacy == "" {
				privacy = prefs.DefaultPrivacy
			}

			job := &queue.Job{
				ID:          history.NewID(),
				Filename:    filename,
				Path:        v.Path,
				Title:       title,
				Description: v.Description,
				Tags:        youtube.ParseTags(tags),
				Privacy:     youtube.PrivacyStatus(privacy),
			}
			if !cfg.Queue.Enqueue(job) {
				WriteError(w, http.StatusServiceUnavailable, "upload queue is full", "QUEUE_FULL")
				return
			}
			queued = append(queued, job.ID)
		}

		WriteJSON(w, http.StatusAccepted, ScheduleUploadsResponse{Queued: queued})
	}
}

func uploadsStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"paused": cfg.Queue.IsPaused(),
			"jobs":   cfg.Queue.Snapshot(),
		})
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Queue.Pause()
		WriteJSON(w, http.StatusOK, map[string]bool{"paused": true})
	}
}

func resumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Queue.Resume()
		WriteJSON(w, http.StatusOK, map[string]bool{"paused": false})
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := cfg.History.List(r.Context(), 100)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load history", "INTERNAL_ERROR")
			return
		}

		resp := HistoryResponse{Records: make([]HistoryRecordResponse, 0, len(records))}
		for _, rec := range records {
			resp.Records = append(resp.Records, RecordToResponse(rec))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := cfg.Settings
		WriteJSON(w, http.StatusOK, SettingsResponse{
			UploadFolder:     c.UploadFolder,
			DefaultPrivacy:   c.Preferences.DefaultPrivacy,
			DefaultTags:      c.Preferences.DefaultTags,
			UploadDelay:      c.Preferences.UploadDelaySeconds,
			ClientConfigured: c.YouTube.ClientID != "" && c.YouTube.ClientSecret != "",
		})
	}
}

func updateSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		c := cfg.Settings
		if req.UploadFolder != nil {
			c.UploadFolder = *req.UploadFolder
		}
		if req.DefaultPrivacy != nil {
			c.Preferences.DefaultPrivacy = *req.DefaultPrivacy
		}
		if req.DefaultTags != nil {
			c.Preferences.DefaultTags = *req.DefaultTags
		}
		if req.UploadDelay != nil && *req.UploadDelay > 0 {
			c.Preferences.UploadDelaySeconds = *req.UploadDelay
		}
		if req.ClientID != nil {
			c.YouTube.ClientID = *req.ClientID
		}
		if req.ClientSecret != nil {
			c.YouTube.ClientSecret = *req.ClientSecret
		}

		if err := c.Save(); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to save settings", "INTERNAL_ERROR")
			return
		}
		getSettingsHandler(cfg)(w, r)
	}
}

func authStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := AuthStatusResponse{}
		if cfg.Auth != nil {
			resp.Authenticated = cfg.Auth.IsAuthenticated()
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
