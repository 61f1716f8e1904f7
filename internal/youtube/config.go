// Package youtube handles OAuth2 authentication against the YouTube Data
// API and uploads finished Shorts with progress reporting.
package youtube

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// PrivacyStatus is a YouTube video privacy setting.
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyUnlisted PrivacyStatus = "unlisted"
	PrivacyPrivate  PrivacyStatus = "private"
)

// CategoryPeopleBlogs is the upload category for Shorts from the watch
// folder.
const CategoryPeopleBlogs = "22"

// Token is the persisted form of an OAuth2 token.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Expiry       string `json:"expiry"` // RFC3339
}

// UploadOptions describes one video upload.
type UploadOptions struct {
	VideoPath     string
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus PrivacyStatus
}

// UploadResult is returned after a successful upload.
type UploadResult struct {
	VideoID  string
	VideoURL string
}

// TokenPath returns the token file location inside the data directory.
func TokenPath(dataDir string) string {
	return filepath.Join(dataDir, "youtube_token.json")
}

// LoadToken reads the persisted OAuth token.
func LoadToken(dataDir string) (*Token, error) {
	data, err := os.ReadFile(TokenPath(dataDir))
	if err != nil {
		return nil, err
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// SaveToken writes the token with owner-only permissions.
func SaveToken(dataDir string, token *Token) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(TokenPath(dataDir), data, 0600)
}

// DeleteToken removes the stored token. Missing file is not an error.
func DeleteToken(dataDir string) error {
	err := os.Remove(TokenPath(dataDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// HasToken reports whether a token file exists.
func HasToken(dataDir string) bool {
	_, err := os.Stat(TokenPath(dataDir))
	return err == nil
}

// ParseTags splits a comma-separated tag string, dropping empties.
func ParseTags(tagsStr string) []string {
	if tagsStr == "" {
		return nil
	}

	var tags []string
	for _, part := range strings.Split(tagsStr, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
