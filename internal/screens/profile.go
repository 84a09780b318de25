package screens

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/models"
)

// Stats summarizes the signed-in user's uploads.
type Stats struct {
	Videos    int
	Views     int
	Likes     int
	AvgRating float64
}

// ComputeStats totals videos. Unrated videos count as 0 toward the average.
func ComputeStats(videos []models.VideoPost) Stats {
	stats := Stats{Videos: len(videos)}
	if len(videos) == 0 {
		return stats
	}
	var ratingSum float64
	for _, v := range videos {
		stats.Views += v.Views
		stats.Likes += len(v.Likes)
		ratingSum += v.Rating()
	}
	stats.AvgRating = ratingSum / float64(len(videos))
	return stats
}

// Profile shows the signed-in user and their own videos.
type Profile struct {
	backend  Backend
	identity Identity
	logger   *slog.Logger
	guard    mountGuard

	mu     sync.Mutex
	state  loadState
	videos []models.VideoPost
}

// NewProfile returns an unmounted profile screen.
func NewProfile(backend Backend, identity Identity, logger *slog.Logger) *Profile {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profile{backend: backend, identity: identity, logger: logger}
}

// Mount fetches all videos and keeps the ones the signed-in user posted.
func (p *Profile) Mount(ctx context.Context) {
	gen := p.guard.mount()
	user, ok := p.identity.Identity()
	if !ok {
		return
	}
	p.mu.Lock()
	p.state = stateLoading
	p.mu.Unlock()

	ctx, op := logging.Start(logging.WithLogger(ctx, p.logger), "profile.load")
	videos, err := p.backend.ListVideos(ctx)
	op.End(err)

	p.guard.apply(gen, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.state = stateReady
		if err != nil {
			logging.FromContext(ctx).Error("fetch user videos", "error", err)
			return
		}
		p.videos = slices.DeleteFunc(videos, func(v models.VideoPost) bool { return v.UserID != user.ID })
	})
}

// Unmount stops pending responses from being applied.
func (p *Profile) Unmount() { p.guard.unmount() }

// Videos returns a copy of the user's videos.
func (p *Profile) Videos() []models.VideoPost {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.videos)
}

// Stats summarizes the loaded videos.
func (p *Profile) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ComputeStats(p.videos)
}

// Render draws the profile card, the stats and the video list.
func (p *Profile) Render(w io.Writer) error {
	user, ok := p.identity.Identity()
	if !ok {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s (@%s) - %s\n", user.Name, user.Username, user.ProfileType)
	if user.AIGeneratedBio != "" {
		fmt.Fprintf(&b, "\nAI generated bio:\n  %s\n", user.AIGeneratedBio)
	}
	if len(user.Tags) > 0 {
		fmt.Fprintf(&b, "\nSkills & interests: %s\n", strings.Join(user.Tags, ", "))
	}
	stats := ComputeStats(p.videos)
	fmt.Fprintf(&b, "\nVideos: %d  Total views: %d  Total likes: %d  Avg rating: %.1f\n\nMy videos\n",
		stats.Videos, stats.Views, stats.Likes, stats.AvgRating)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	switch {
	case p.state == stateLoading:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	case len(p.videos) == 0:
		_, err := fmt.Fprintln(w, "No videos uploaded yet. Share your talent!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tLIKES\tVIEWS\tRATING")
	for _, v := range p.videos {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", v.Title, len(v.Likes), v.Views, formatRating(v.AISkillRating))
	}
	return tw.Flush()
}
