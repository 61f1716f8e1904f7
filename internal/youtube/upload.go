package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// Uploader pushes videos to the authenticated channel.
type Uploader struct {
	service *youtubeapi.Service
	logger  *slog.Logger
}

func NewUploader(ctx context.Context, auth *Auth, logger *slog.Logger) (*Uploader, error) {
	client, err := auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client: %w", err)
	}

	service, err := youtubeapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Uploader{service: service, logger: logger}, nil
}

// ProgressReader wraps an io.Reader and reports cumulative bytes read.
type ProgressReader struct {
	reader       io.Reader
	total        int64
	read         int64
	progressFunc func(read, total int64)
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)
	if pr.progressFunc != nil {
		pr.progressFunc(pr.read, pr.total)
	}
	return n, err
}

// Upload sends one video to YouTube and returns its ID and watch URL.
// progressFunc may be nil.
func (u *Uploader) Upload(ctx context.Context, opts UploadOptions, progressFunc func(read, total int64)) (*UploadResult, error) {
	if opts.VideoPath == "" {
		return nil, fmt.Errorf("video path is required")
	}
	if opts.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	file, err := os.Open(opts.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = file.Close() }()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat video file: %w", err)
	}

	reader := &ProgressReader{
		reader:       file,
		total:        fileInfo.Size(),
		progressFunc: progressFunc,
	}

	privacyStatus := string(opts.PrivacyStatus)
	if privacyStatus == "" {
		privacyStatus = string(PrivacyPublic)
	}
	categoryID := opts.CategoryID
	if categoryID == "" {
		categoryID = CategoryPeopleBlogs
	}

	video := &youtubeapi.Video{
		Snippet: &youtubeapi.VideoSnippet{
			Title:       opts.Title,
			Description: opts.Description,
			Tags:        opts.Tags,
			CategoryId:  categoryID,
		},
		Status: &youtubeapi.VideoStatus{
			PrivacyStatus: privacyStatus,
		},
	}

	u.logger.Info("starting upload",
		"path", opts.VideoPath,
		"title", opts.Title,
		"size", fileInfo.Size(),
		"privacy", privacyStatus,
	)

	call := u.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(reader).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	result := &UploadResult{
		VideoID:  response.Id,
		VideoURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", response.Id),
	}
	u.logger.Info("upload complete", "video_id", result.VideoID, "url", result.VideoURL)
	return result, nil
}
