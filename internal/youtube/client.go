// Package youtube uploads finished videos through the YouTube Data API
// using a refresh token grant, so runs need no interactive consent.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// HTTPClient defines the interface for HTTP operations.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"

	categoryEducation = "27"
)

// Client performs resumable video uploads.
type Client struct {
	TokenURL   string
	UploadURL  string
	HTTPClient HTTPClient

	clientID     string
	clientSecret string
	refreshToken string
	apiKey       string
	log          *slog.Logger
}

type ClientConfig struct {
	TokenURL     string
	UploadURL    string
	ClientID     string
	ClientSecret string
	RefreshToken string
	APIKey       string
	HTTPClient   HTTPClient
}

func NewClient(log *slog.Logger) *Client {
	return NewClientWithConfig(log, ClientConfig{
		ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		RefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
		APIKey:       os.Getenv("GOOGLE_API_KEY"),
	})
}

func NewClientWithConfig(log *slog.Logger, cfg ClientConfig) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = defaultUploadURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout: 10 * time.Minute,
		}
	}

	return &Client{
		TokenURL:     cfg.TokenURL,
		UploadURL:    cfg.UploadURL,
		HTTPClient:   cfg.HTTPClient,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		apiKey:       cfg.APIKey,
		log:          log,
	}
}

// Metadata describes the uploaded video.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
	MadeForKids   bool
}

// BuildMetadata derives upload metadata from the topic and the script
// text. Videos start private so they can be reviewed before release.
func BuildMetadata(topic, scriptText string) Metadata {
	description := fmt.Sprintf("Video about %s\n\n%s", topic, truncate(scriptText, 5000))
	tags := append([]string{topic}, strings.Fields(topic)...)

	return Metadata{
		Title:         fmt.Sprintf("%s - Automated Educational Video", topic),
		Description:   description,
		Tags:          tags,
		CategoryID:    categoryEducation,
		PrivacyStatus: "private",
		MadeForKids:   false,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type videoSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"categoryId"`
}

type videoStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type videoResource struct {
	Snippet videoSnippet `json:"snippet"`
	Status  videoStatus  `json:"status"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

// accessToken exchanges the refresh token for a short-lived access
// token.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("YouTube API credentials not configured")
	}
	if c.refreshToken == "" {
		return "", fmt.Errorf("YouTube refresh token not configured")
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {c.refreshToken},
		"grant_type":    {"refresh_token"},
	}

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		if attempt > 0 {
			c.log.Warn("Retrying token refresh", slog.Int("attempt", attempt))
		}
		attempt++

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("token refresh failed with status: %d, response: %s", resp.StatusCode, string(body))
			if retryableStatus(resp.StatusCode) {
				return "", err
			}
			return "", backoff.Permanent(err)
		}

		var token tokenResponse
		if err := json.Unmarshal(body, &token); err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to decode token response: %w", err))
		}
		if token.AccessToken == "" {
			return "", backoff.Permanent(fmt.Errorf("no access token in response"))
		}
		return token.AccessToken, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
}

// Upload sends the video in a resumable upload session and returns the
// watch URL. Failed attempts restart the session from scratch.
func (c *Client) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return "", fmt.Errorf("video file not found: %w", err)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	resource, err := json.Marshal(videoResource{
		Snippet: videoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryID:  meta.CategoryID,
		},
		Status: videoStatus{
			PrivacyStatus:           meta.PrivacyStatus,
			SelfDeclaredMadeForKids: meta.MadeForKids,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal video metadata: %w", err)
	}

	c.log.Info("Starting upload",
		slog.String("title", meta.Title),
		slog.Int64("size_bytes", info.Size()))

	attempt := 0
	videoID, err := backoff.Retry(ctx, func() (string, error) {
		if attempt > 0 {
			c.log.Warn("Retrying video upload", slog.Int("attempt", attempt))
		}
		attempt++

		session, err := c.startSession(ctx, token, resource)
		if err != nil {
			return "", err
		}
		return c.putVideo(ctx, session, videoPath, info.Size())
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	if err != nil {
		return "", err
	}

	watchURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	c.log.Info("Upload successful", slog.String("url", watchURL))
	return watchURL, nil
}

// startSession opens a resumable upload session and returns the session
// URL from the Location header.
func (c *Client) startSession(ctx context.Context, token string, resource []byte) (string, error) {
	endpoint := fmt.Sprintf("%s?uploadType=resumable&part=snippet,status", c.UploadURL)
	if c.apiKey != "" {
		endpoint += "&key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(resource))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/*")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("upload session failed with status: %d, response: %s", resp.StatusCode, string(body))
		if retryableStatus(resp.StatusCode) {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	session := resp.Header.Get("Location")
	if session == "" {
		return "", backoff.Permanent(fmt.Errorf("no upload session URL in response"))
	}
	return session, nil
}

// putVideo streams the file to the session URL and returns the new
// video ID.
func (c *Client) putVideo(ctx context.Context, session, videoPath string, size int64) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to open video: %w", err))
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session, file)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/*")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err := fmt.Errorf("upload failed with status: %d, response: %s", resp.StatusCode, string(body))
		if retryableStatus(resp.StatusCode) {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to decode upload response: %w", err))
	}
	if uploaded.ID == "" {
		return "", backoff.Permanent(fmt.Errorf("no video ID in API response"))
	}
	return uploaded.ID, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
