// Package api is the client for the Renzo backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/renzo/client/internal/models"
)

// Client calls the backend under <baseURL>/api.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the backend at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api",
		http:    httpClient,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Username    string             `json:"username"`
	ProfileType models.ProfileType `json:"profile_type"`
	Tags        []string           `json:"tags"`
}

// UploadRequest carries the multipart fields of a video upload.
type UploadRequest struct {
	UserID      string
	Title       string
	Description string
	Category    models.Category
	VideoData   string
}

// ConnectRequest carries the multipart fields of a connection request.
type ConnectRequest struct {
	FromUserID string
	ToUserID   string
	Message    string
}

type connectionsResponse struct {
	Connections []models.ConnectionRequest `json:"connections"`
}

// Login exchanges an email and password for the account's user id.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Register creates an account and returns the stored profile.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (models.UserProfile, error) {
	var user models.UserProfile
	err := c.doJSON(ctx, "register", http.MethodPost, "/auth/register", req, &user)
	return user, err
}

// GetUser fetches one profile.
func (c *Client) GetUser(ctx context.Context, userID string) (models.UserProfile, error) {
	var user models.UserProfile
	err := c.doJSON(ctx, "get user", http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user)
	return user, err
}

// ListUsers fetches every profile the backend returns.
func (c *Client) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	var users []models.UserProfile
	err := c.doJSON(ctx, "list users", http.MethodGet, "/users", nil, &users)
	return users, err
}

// ListVideos fetches the unfiltered video list.
func (c *Client) ListVideos(ctx context.Context) ([]models.VideoPost, error) {
	var videos []models.VideoPost
	err := c.doJSON(ctx, "list videos", http.MethodGet, "/videos", nil, &videos)
	return videos, err
}

// UploadVideo posts a new video as multipart form fields.
func (c *Client) UploadVideo(ctx context.Context, req UploadRequest) (models.VideoPost, error) {
	var video models.VideoPost
	err := c.doForm(ctx, "upload video", "/videos", []formField{
		{"user_id", req.UserID},
		{"title", req.Title},
		{"description", req.Description},
		{"category", string(req.Category)},
		{"video_data", req.VideoData},
	}, &video)
	return video, err
}

// ToggleLike flips userID's like on a video. The response body is discarded.
func (c *Client) ToggleLike(ctx context.Context, videoID, userID string) error {
	return c.doForm(ctx, "toggle like", "/videos/"+url.PathEscape(videoID)+"/like", []formField{
		{"user_id", userID},
	}, nil)
}

// CreateConnection sends a connection request.
func (c *Client) CreateConnection(ctx context.Context, req ConnectRequest) (models.ConnectionRequest, error) {
	var conn models.ConnectionRequest
	err := c.doForm(ctx, "create connection", "/connections", []formField{
		{"from_user_id", req.FromUserID},
		{"to_user_id", req.ToUserID},
		{"message", req.Message},
	}, &conn)
	return conn, err
}

// ListConnections fetches requests where userID is the sender or the recipient.
func (c *Client) ListConnections(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	var resp connectionsResponse
	if err := c.doJSON(ctx, "list connections", http.MethodGet, "/connections/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Connections, nil
}

type formField struct {
	name  string
	value string
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(op, req, out)
}

func (c *Client) doForm(ctx context.Context, op, path string, fields []formField, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return fmt.Errorf("%s: encode field %s: %w", op, field.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%s: encode form: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{Op: op, Status: resp.StatusCode, Detail: parseDetail(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
