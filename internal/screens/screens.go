// Package screens implements the client's screens: the sign-in form and the
// five authenticated views. Each screen owns the data it fetched and renders
// itself as text.
package screens

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/renzo/client/internal/api"
	"github.com/renzo/client/internal/media"
	"github.com/renzo/client/internal/models"
	"github.com/renzo/client/internal/session"
)

// Backend is the subset of the API client the screens call.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, req api.RegisterRequest) (models.UserProfile, error)
	GetUser(ctx context.Context, userID string) (models.UserProfile, error)
	ListUsers(ctx context.Context) ([]models.UserProfile, error)
	ListVideos(ctx context.Context) ([]models.VideoPost, error)
	UploadVideo(ctx context.Context, req api.UploadRequest) (models.VideoPost, error)
	ToggleLike(ctx context.Context, videoID, userID string) error
	CreateConnection(ctx context.Context, req api.ConnectRequest) (models.ConnectionRequest, error)
	ListConnections(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
}

// Identity exposes the signed-in user.
type Identity interface {
	Identity() (models.UserProfile, bool)
}

// SessionWriter records a successful sign-in.
type SessionWriter interface {
	Login(ctx context.Context, profile models.UserProfile) (session.Snapshot, error)
}

// MediaLoader reads a video file into memory.
type MediaLoader interface {
	Load(ctx context.Context, location string) (media.Clip, error)
}

// Notifier shows a blocking acknowledgement to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) { f(message) }

// WriterNotifier prints acknowledgements to W.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (n WriterNotifier) Notify(message string) {
	fmt.Fprintf(n.W, "** %s **\n", message)
}

// mountGuard tracks whether a screen is mounted and how many times it has
// been mounted. A response is applied only when the generation it was issued
// under is still current.
type mountGuard struct {
	mu         sync.Mutex
	generation uint64
	mounted    bool
}

func (g *mountGuard) mount() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
	g.mounted = true
	return g.generation
}

func (g *mountGuard) unmount() {
	g.mu.Lock()
	g.generation++
	g.mounted = false
	g.mu.Unlock()
}

// apply runs fn if generation is still current and reports whether it ran.
func (g *mountGuard) apply(generation uint64, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mounted || g.generation != generation {
		return false
	}
	fn()
	return true
}

func (g *mountGuard) active() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation, g.mounted
}

// loadState is shared by the fetch-on-mount screens.
type loadState int

const (
	stateIdle loadState = iota
	stateLoading
	stateReady
)
