package stubapi

import (
	"errors"
	"slices"
	"sync"

	"github.com/renzo/client/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write would violate a uniqueness rule.
	ErrConflict = errors.New("record conflict")
)

// Store keeps accounts, videos and connection requests in memory, in
// insertion order.
type Store struct {
	mu          sync.RWMutex
	users       []models.UserProfile
	videos      []models.VideoPost
	connections []models.ConnectionRequest
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// CreateUser adds user. Email and username must be unique.
func (s *Store) CreateUser(user models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return ErrConflict
		}
	}
	s.users = append(s.users, user)
	return nil
}

// FindUser returns the user with the given id.
func (s *Store) FindUser(id string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.UserProfile{}, ErrNotFound
}

// FindUserByEmail returns the user registered with email.
func (s *Store) FindUserByEmail(email string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.UserProfile{}, ErrNotFound
}

// FindUserByUsername returns the user registered with username.
func (s *Store) FindUserByUsername(username string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.UserProfile{}, ErrNotFound
}

// ListUsers returns up to limit users after skipping skip.
func (s *Store) ListUsers(skip, limit int) []models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.users, skip, limit)
}

// CreateVideo adds video.
func (s *Store) CreateVideo(video models.VideoPost) {
	s.mu.Lock()
	s.videos = append(s.videos, video)
	s.mu.Unlock()
}

// ListVideos returns up to limit videos after skipping skip.
func (s *Store) ListVideos(skip, limit int) []models.VideoPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.videos, skip, limit)
}

// ViewVideo increments the view count of a video and returns it.
func (s *Store) ViewVideo(id string) (models.VideoPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.videos {
		if s.videos[i].ID == id {
			s.videos[i].Views++
			return s.videos[i], nil
		}
	}
	return models.VideoPost{}, ErrNotFound
}

// ToggleLike flips userID's like on a video and returns the new like count.
func (s *Store) ToggleLike(videoID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.videos {
		if s.videos[i].ID == videoID {
			s.videos[i] = s.videos[i].ToggleLike(userID)
			return len(s.videos[i].Likes), nil
		}
	}
	return 0, ErrNotFound
}

// CreateConnection adds req. When unique is set an existing request with the
// same sender and recipient is a conflict.
func (s *Store) CreateConnection(req models.ConnectionRequest, unique bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if unique {
		for _, existing := range s.connections {
			if existing.FromUserID == req.FromUserID && existing.ToUserID == req.ToUserID {
				return ErrConflict
			}
		}
	}
	s.connections = append(s.connections, req)
	return nil
}

// ConnectionsFor returns up to limit requests where userID is either party.
func (s *Store) ConnectionsFor(userID string, limit int) []models.ConnectionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConnectionRequest, 0)
	for _, conn := range s.connections {
		if conn.FromUserID == userID || conn.ToUserID == userID {
			out = append(out, conn)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// RespondConnection sets the status of the request with the given id.
func (s *Store) RespondConnection(id string, status models.ConnectionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.connections {
		if s.connections[i].ID == id {
			s.connections[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

// RecommendVideos returns up to limit videos by other users whose generated
// tags share at least one of tags.
func (s *Store) RecommendVideos(userID string, tags []string, limit int) []models.VideoPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.VideoPost, 0)
	for _, video := range s.videos {
		if len(out) == limit {
			break
		}
		if video.UserID == userID {
			continue
		}
		if slices.ContainsFunc(video.AIGeneratedTags, func(tag string) bool { return slices.Contains(tags, tag) }) {
			out = append(out, video)
		}
	}
	return out
}

func page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return make([]T, 0)
	}
	end := len(items)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	out := make([]T, end-skip)
	copy(out, items[skip:end])
	return out
}
