// Package views routes between the authenticated screens of the client.
package views

import (
	"context"
	"io"
	"sync"
)

// View names one authenticated screen.
type View string

const (
	Feed        View = "feed"
	Upload      View = "upload"
	Profile     View = "profile"
	Discover    View = "discover"
	Connections View = "connections"
)

// All lists the views in navigation order.
var All = []View{Feed, Upload, Profile, Discover, Connections}

// Parse maps name to a View. Unknown names, including "", select the feed.
func Parse(name string) View {
	switch v := View(name); v {
	case Feed, Upload, Profile, Discover, Connections:
		return v
	default:
		return Feed
	}
}

// Screen is one renderable, mountable part of the UI.
type Screen interface {
	Mount(ctx context.Context)
	Unmount()
	Render(w io.Writer) error
}

// Session reports whether a user is signed in.
type Session interface {
	IsAuthenticated() bool
}

// Router selects which screen is shown. The auth screen replaces every view
// while the session is signed out.
type Router struct {
	session Session
	auth    Screen
	screens map[View]Screen

	mu      sync.Mutex
	current View
	mounted Screen
}

// NewRouter returns a Router on the feed. Views missing from screens render
// nothing.
func NewRouter(session Session, auth Screen, screens map[View]Screen) *Router {
	return &Router{
		session: session,
		auth:    auth,
		screens: screens,
		current: Feed,
	}
}

// Current returns the selected view.
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Select switches to the view named name, unmounting the previous screen and
// mounting the new one. Selecting the current view remounts it.
func (r *Router) Select(ctx context.Context, name string) View {
	view := Parse(name)

	r.mu.Lock()
	previous := r.mounted
	r.current = view
	r.mounted = nil
	if r.session.IsAuthenticated() {
		r.mounted = r.screens[view]
	}
	next := r.mounted
	r.mu.Unlock()

	if previous != nil {
		previous.Unmount()
	}
	if next != nil {
		next.Mount(ctx)
	}
	return view
}

// Mounted reports whether view is selected and its screen is mounted.
func (r *Router) Mounted(view View) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current == view && r.mounted != nil
}

// Reset unmounts the current screen and returns to the feed without mounting
// it. It is used when the user signs out.
func (r *Router) Reset() {
	r.mu.Lock()
	previous := r.mounted
	r.mounted = nil
	r.current = Feed
	r.mu.Unlock()

	if previous != nil {
		previous.Unmount()
	}
}

// Render draws the auth screen when signed out, otherwise the current view.
func (r *Router) Render(w io.Writer) error {
	if !r.session.IsAuthenticated() {
		if r.auth == nil {
			return nil
		}
		return r.auth.Render(w)
	}

	r.mu.Lock()
	screen := r.screens[r.current]
	r.mu.Unlock()
	if screen == nil {
		return nil
	}
	return screen.Render(w)
}
