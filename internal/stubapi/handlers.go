// Package stubapi is an in-memory stand-in for the Renzo backend, used for
// local development and tests. It speaks the same /api surface and error
// format, and substitutes fixed values for the AI-generated fields.
package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/models"
)

const (
	defaultPageLimit     = 20
	connectionsLimit     = 100
	recommendationsLimit = 10
	maxFormMemory        = 64 << 20
)

// Options tune the stub's behavior.
type Options struct {
	// RejectDuplicateConnections refuses a second request with the same
	// sender and recipient.
	RejectDuplicateConnections bool
	NowFunc                    func() time.Time
}

// API implements the backend endpoints over a Store.
type API struct {
	Store   *Store
	Options Options
}

// New returns an API over an empty Store.
func New(opts Options) *API {
	return &API{Store: NewStore(), Options: opts}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Username    string             `json:"username"`
	ProfileType models.ProfileType `json:"profile_type"`
	Tags        []string           `json:"tags"`
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Register handles POST /api/auth/register.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(ctx, w, validationIssue{Loc: []string{"body"}, Msg: "invalid json", Type: "value_error.jsondecode"})
		return
	}

	var missing []validationIssue
	for field, value := range map[string]string{"email": req.Email, "name": req.Name, "username": req.Username} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, validationIssue{Loc: []string{"body", field}, Msg: "field required", Type: "value_error.missing"})
		}
	}
	if len(missing) > 0 {
		respondValidation(ctx, w, missing...)
		return
	}
	if req.ProfileType == "" {
		req.ProfileType = models.ProfileDancer
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	if _, err := a.Store.FindUserByEmail(req.Email); err == nil {
		respondDetail(ctx, w, http.StatusBadRequest, "User already exists")
		return
	}
	if _, err := a.Store.FindUserByUsername(req.Username); err == nil {
		respondDetail(ctx, w, http.StatusBadRequest, "Username already taken")
		return
	}

	now := models.NewTimestamp(a.now())
	user := models.UserProfile{
		ID:                 uuid.NewString(),
		Email:              req.Email,
		Name:               req.Name,
		Username:           req.Username,
		ProfileType:        req.ProfileType,
		Tags:               req.Tags,
		AIGeneratedBio:     generateBio(req.ProfileType, req.Tags),
		VerificationStatus: "pending",
		Followers:          []string{},
		Following:          []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := a.Store.CreateUser(user); err != nil {
		if errors.Is(err, ErrConflict) {
			respondDetail(ctx, w, http.StatusBadRequest, "User already exists")
			return
		}
		respondDetail(ctx, w, http.StatusInternalServerError, "failed to create user")
		return
	}

	respondJSON(ctx, w, http.StatusOK, user)
}

// Login handles POST /api/auth/login. Only the email is checked.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(ctx, w, validationIssue{Loc: []string{"body"}, Msg: "invalid json", Type: "value_error.jsondecode"})
		return
	}

	user, err := a.Store.FindUserByEmail(req.Email)
	if err != nil {
		respondDetail(ctx, w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"user_id": user.ID, "message": "Login successful"})
}

// GetUser handles GET /api/users/{id}.
func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := a.Store.FindUser(mux.Vars(r)["id"])
	if err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

// ListUsers handles GET /api/users.
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	respondJSON(r.Context(), w, http.StatusOK, a.Store.ListUsers(skip, limit))
}

// CreateVideo handles multipart POST /api/videos.
func (a *API) CreateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseForm(ctx, w, r) {
		return
	}

	userID := r.FormValue("user_id")
	title := r.FormValue("title")
	videoData := r.FormValue("video_data")
	if missing := requiredForm(map[string]string{"user_id": userID, "title": title, "video_data": videoData}); len(missing) > 0 {
		respondValidation(ctx, w, missing...)
		return
	}

	category := models.Category(r.FormValue("category"))
	if category == "" {
		category = models.DefaultCategory
	}

	user, err := a.Store.FindUser(userID)
	if err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "User not found")
		return
	}

	rating := defaultSkillRating
	video := models.VideoPost{
		ID:                 uuid.NewString(),
		UserID:             user.ID,
		Title:              title,
		Description:        r.FormValue("description"),
		Category:           category,
		VideoData:          videoData,
		AIGeneratedTags:    generateVideoTags(category),
		AISkillRating:      &rating,
		Likes:              []string{},
		VerificationStatus: "pending",
		CreatedAt:          models.NewTimestamp(a.now()),
	}
	a.Store.CreateVideo(video)

	logging.FromContext(ctx).Info("video stored", "videoId", video.ID, "userId", user.ID, "bytes", len(videoData))
	respondJSON(ctx, w, http.StatusOK, video)
}

// ListVideos handles GET /api/videos. Videos whose owner no longer exists are skipped.
func (a *API) ListVideos(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	videos := a.Store.ListVideos(skip, limit)

	enriched := make([]models.VideoPost, 0, len(videos))
	for _, video := range videos {
		if withOwner, ok := a.enrich(video); ok {
			enriched = append(enriched, withOwner)
		}
	}
	respondJSON(r.Context(), w, http.StatusOK, enriched)
}

// GetVideo handles GET /api/videos/{id}, counting a view.
func (a *API) GetVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := a.Store.ViewVideo(mux.Vars(r)["id"])
	if err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "Video not found")
		return
	}
	enriched, ok := a.enrich(video)
	if !ok {
		respondDetail(ctx, w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, enriched)
}

// LikeVideo handles multipart POST /api/videos/{id}/like.
func (a *API) LikeVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseForm(ctx, w, r) {
		return
	}

	userID := r.FormValue("user_id")
	if missing := requiredForm(map[string]string{"user_id": userID}); len(missing) > 0 {
		respondValidation(ctx, w, missing...)
		return
	}

	count, err := a.Store.ToggleLike(mux.Vars(r)["id"], userID)
	if err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "Video not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"message": "Like updated", "likes_count": count})
}

// CreateConnection handles multipart POST /api/connections.
func (a *API) CreateConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseForm(ctx, w, r) {
		return
	}

	fromID := r.FormValue("from_user_id")
	toID := r.FormValue("to_user_id")
	if missing := requiredForm(map[string]string{"from_user_id": fromID, "to_user_id": toID}); len(missing) > 0 {
		respondValidation(ctx, w, missing...)
		return
	}

	if _, err := a.Store.FindUser(fromID); err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "User not found")
		return
	}
	if _, err := a.Store.FindUser(toID); err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "User not found")
		return
	}

	conn := models.ConnectionRequest{
		ID:         uuid.NewString(),
		FromUserID: fromID,
		ToUserID:   toID,
		Message:    r.FormValue("message"),
		Status:     models.ConnectionPending,
		CreatedAt:  models.NewTimestamp(a.now()),
	}
	if err := a.Store.CreateConnection(conn, a.Options.RejectDuplicateConnections); err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, "Connection already exists")
		return
	}

	respondJSON(ctx, w, http.StatusOK, conn)
}

// ListConnections handles GET /api/connections/{userId}.
func (a *API) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns := a.Store.ConnectionsFor(mux.Vars(r)["userId"], connectionsLimit)
	respondJSON(r.Context(), w, http.StatusOK, map[string]any{"connections": conns})
}

// RespondConnection handles multipart POST /api/connections/{id}/respond.
func (a *API) RespondConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseForm(ctx, w, r) {
		return
	}

	status := r.FormValue("status")
	if missing := requiredForm(map[string]string{"status": status}); len(missing) > 0 {
		respondValidation(ctx, w, missing...)
		return
	}
	switch models.ConnectionStatus(status) {
	case models.ConnectionAccepted, models.ConnectionRejected:
	default:
		respondDetail(ctx, w, http.StatusBadRequest, "Invalid status")
		return
	}

	if err := a.Store.RespondConnection(mux.Vars(r)["id"], models.ConnectionStatus(status)); err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "Connection not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Connection " + status})
}

// Recommendations handles GET /api/recommendations/{userId}: other users'
// videos sharing a generated tag with the user's skills.
func (a *API) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := a.Store.FindUser(mux.Vars(r)["userId"])
	if err != nil {
		respondDetail(ctx, w, http.StatusNotFound, "User not found")
		return
	}

	videos := a.Store.RecommendVideos(user.ID, user.Tags, recommendationsLimit)
	enriched := make([]models.VideoPost, 0, len(videos))
	for _, video := range videos {
		if withOwner, ok := a.enrich(video); ok {
			enriched = append(enriched, withOwner)
		}
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"recommended_videos": enriched})
}

func (a *API) enrich(video models.VideoPost) (models.VideoPost, bool) {
	owner, err := a.Store.FindUser(video.UserID)
	if err != nil {
		return models.VideoPost{}, false
	}
	video.UserName = owner.Name
	video.UserUsername = owner.Username
	return video, true
}

func (a *API) now() time.Time {
	if a.Options.NowFunc != nil {
		return a.Options.NowFunc()
	}
	return time.Now().UTC()
}

func pageParams(r *http.Request) (skip, limit int) {
	skip, limit = 0, defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v >= 0 {
		skip = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 0 {
		limit = v
	}
	return skip, limit
}

func parseForm(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		logging.FromContext(ctx).Warn("invalid form payload", "error", err)
		respondValidation(ctx, w, validationIssue{Loc: []string{"body"}, Msg: "invalid form", Type: "value_error"})
		return false
	}
	return true
}

func requiredForm(fields map[string]string) []validationIssue {
	var missing []validationIssue
	for name, value := range fields {
		if value == "" {
			missing = append(missing, validationIssue{Loc: []string{"body", name}, Msg: "field required", Type: "value_error.missing"})
		}
	}
	return missing
}

func respondDetail(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	respondJSON(ctx, w, status, map[string]string{"detail": detail})
}

func respondValidation(ctx context.Context, w http.ResponseWriter, issues ...validationIssue) {
	respondJSON(ctx, w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	if status >= http.StatusBadRequest {
		logging.FromContext(ctx).Warn("request returned error", "status", status, "response", payload)
	}
}
