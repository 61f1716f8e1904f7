package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shortsup/shortsup/internal/api"
	"github.com/shortsup/shortsup/internal/config"
	"github.com/shortsup/shortsup/internal/ffmpeg"
	"github.com/shortsup/shortsup/internal/history"
	"github.com/shortsup/shortsup/internal/logging"
	"github.com/shortsup/shortsup/internal/queue"
	"github.com/shortsup/shortsup/internal/scanner"
	"github.com/shortsup/shortsup/internal/youtube"
	"github.com/shortsup/shortsup/pkg/pipeline"
)

var (
	rootCmd = &cobra.Command{
		Use:   "shortsup",
		Short: "Batch-upload vertical videos to YouTube Shorts",
		Long: `shortsup scans a folder of short videos, reframes clips shot in the
wrong aspect ratio to the vertical 9:16 target by cropping or padding
around the detected subject, and uploads the results to YouTube.

Examples:
  # Inspect a clip's framing and the transform it would get
  shortsup analyze -i clip.mp4

  # Reframe a landscape clip to 9:16
  shortsup reframe -i clip.mp4

  # Scan the watch folder against the upload history
  shortsup scan -f ~/videos/shorts

  # Upload clips now
  shortsup upload clip1.mp4 clip2.mp4

  # Run the local web API
  shortsup serve`,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Probe a video and compute its 9:16 transform plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup()
			if err != nil {
				return err
			}

			inputPath, _ := cmd.Flags().GetString("input")
			backend, _ := cmd.Flags().GetString("backend")
			pythonPath, _ := cmd.Flags().GetString("python")

			analysis, err := pipeline.AnalyzeVideo(cmd.Context(), pipeline.Options{
				InputPath:  inputPath,
				Backend:    backend,
				PythonPath: pythonPath,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			return printJSON(api.AnalysisToResponse(inputPath, analysis))
		},
	}

	reframeCmd = &cobra.Command{
		Use:   "reframe",
		Short: "Reframe a video to 9:16 around its subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup()
			if err != nil {
				return err
			}

			inputPath, _ := cmd.Flags().GetString("input")
			outputPath, _ := cmd.Flags().GetString("output")
			backend, _ := cmd.Flags().GetString("backend")
			pythonPath, _ := cmd.Flags().GetString("python")

			result, err := pipeline.ReframeVideo(cmd.Context(), pipeline.Options{
				InputPath:  inputPath,
				OutputPath: outputPath,
				Backend:    backend,
				PythonPath: pythonPath,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			if !result.Reframed {
				fmt.Println("already 9:16, nothing to do")
				return nil
			}
			fmt.Println(result.OutputPath)
			return nil
		},
	}

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Scan a folder and classify videos against the upload history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			folder, _ := cmd.Flags().GetString("folder")
			if folder == "" {
				folder = cfg.UploadFolder
			}
			if folder == "" {
				return fmt.Errorf("no folder given and no upload folder configured")
			}

			db, err := history.Open(cfg.DBPath(), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			s := scanner.New(ffmpeg.NewProcessor(logger), history.NewRepository(db.Conn()), logger)
			videos, err := s.Scan(cmd.Context(), folder)
			if err != nil {
				return err
			}
			return printJSON(videos)
		},
	}

	uploadCmd = &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload videos to YouTube now",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			privacy, _ := cmd.Flags().GetString("privacy")
			tags, _ := cmd.Flags().GetString("tags")
			description, _ := cmd.Flags().GetString("description")
			if privacy == "" {
				privacy = cfg.Preferences.DefaultPrivacy
			}
			if tags == "" {
				tags = cfg.Preferences.DefaultTags
			}

			auth := youtube.NewAuth(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret, cfg.DataDir, logger)
			if !auth.IsAuthenticated() {
				return fmt.Errorf("not authenticated, run: shortsup auth")
			}

			uploader, err := youtube.NewUploader(cmd.Context(), auth, logger)
			if err != nil {
				return err
			}

			db, err := history.Open(cfg.DBPath(), logger)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := history.NewRepository(db.Conn())

			delay := time.Duration(cfg.Preferences.UploadDelaySeconds) * time.Second
			for i, path := range args {
				if i > 0 {
					time.Sleep(delay)
				}

				filename := filepath.Base(path)
				rec := &history.Record{
					ID:         history.NewID(),
					Filename:   filename,
					Title:      pipeline.TitleFromFilename(filename),
					UploadDate: time.Now().UTC(),
				}

				result, err := uploader.Upload(cmd.Context(), youtube.UploadOptions{
					VideoPath:     path,
					Title:         rec.Title,
					Description:   description,
					Tags:          youtube.ParseTags(tags),
					PrivacyStatus: youtube.PrivacyStatus(privacy),
				}, func(read, total int64) {
					if total > 0 {
						fmt.Printf("\r%s: %d%%", filename, read*100/total)
					}
				})
				fmt.Println()

				if err != nil {
					rec.Status = history.StatusFailed
					rec.Error = err.Error()
					if herr := repo.Create(cmd.Context(), rec); herr != nil {
						logger.Error("failed to record upload", "error", herr)
					}
					return err
				}

				rec.Status = history.StatusCompleted
				rec.YouTubeURL = result.VideoURL
				if herr := repo.Create(cmd.Context(), rec); herr != nil {
					logger.Error("failed to record upload", "error", herr)
				}
				fmt.Println(result.VideoURL)
			}
			return nil
		},
	}

	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with YouTube",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			if cfg.YouTube.ClientID == "" || cfg.YouTube.ClientSecret == "" {
				return fmt.Errorf("OAuth client credentials not configured, set them via the settings API or %s", cfg.ConfigPath())
			}

			auth := youtube.NewAuth(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret, cfg.DataDir, logger)

			logout, _ := cmd.Flags().GetBool("logout")
			if logout {
				return auth.Logout()
			}

			if err := auth.Authenticate(cmd.Context()); err != nil {
				return err
			}

			name, err := auth.ChannelName(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("authenticated as %s\n", name)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API and upload worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Port = port
			}

			return serve(cmd.Context(), cfg, logger)
		},
	}
)

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewLogger(cfg.LogLevel), nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := history.Open(cfg.DBPath(), logger)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := history.NewRepository(db.Conn())

	auth := youtube.NewAuth(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret, cfg.DataDir, logger)

	delay := time.Duration(cfg.Preferences.UploadDelaySeconds) * time.Second
	q := queue.New(&lazyUploader{auth: auth, logger: logger}, repo, delay, logging.WithComponent(logger, "queue"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go q.Start(ctx)

	server := api.NewServer(api.ServerConfig{
		Port:      cfg.Port,
		Scanner:   scanner.New(ffmpeg.NewProcessor(logger), repo, logging.WithComponent(logger, "scanner")),
		Queue:     q,
		History:   repo,
		Settings:  cfg,
		Auth:      auth,
		Logger:    logging.WithComponent(logger, "api"),
		StartTime: time.Now(),
	})

	errChan := make(chan error, 1)
	go func() { errChan <- server.Start() }()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// lazyUploader defers YouTube service construction to upload time so that
// serve can start before the user has authenticated.
type lazyUploader struct {
	auth   *youtube.Auth
	logger *slog.Logger
}

func (l *lazyUploader) Upload(ctx context.Context, opts youtube.UploadOptions, progressFunc func(read, total int64)) (*youtube.UploadResult, error) {
	uploader, err := youtube.NewUploader(ctx, l.auth, l.logger)
	if err != nil {
		return nil, err
	}
	return uploader.Upload(ctx, opts, progressFunc)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	analyzeCmd.Flags().StringP("input", "i", "", "Input video file")
	analyzeCmd.Flags().String("backend", "", "Detector backend (default mediapipe)")
	analyzeCmd.Flags().String("python", "", "Python binary for the detector backend")
	analyzeCmd.MarkFlagRequired("input")

	reframeCmd.Flags().StringP("input", "i", "", "Input video file")
	reframeCmd.Flags().StringP("output", "o", "", "Output path (default <input>_crop916.<ext>)")
	reframeCmd.Flags().String("backend", "", "Detector backend (default mediapipe)")
	reframeCmd.Flags().String("python", "", "Python binary for the detector backend")
	reframeCmd.MarkFlagRequired("input")

	scanCmd.Flags().StringP("folder", "f", "", "Folder to scan (default from config)")

	uploadCmd.Flags().String("privacy", "", "Privacy status (public, unlisted, private)")
	uploadCmd.Flags().String("tags", "", "Comma-separated tags")
	uploadCmd.Flags().String("description", "", "Video description")

	authCmd.Flags().Bool("logout", false, "Remove stored credentials")

	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (default from config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reframeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
