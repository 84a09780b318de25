package screens

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"text/tabwriter"

	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/models"
)

// Feed lists every video, newest last as the backend returns them.
type Feed struct {
	backend  Backend
	identity Identity
	logger   *slog.Logger
	guard    mountGuard

	mu     sync.Mutex
	state  loadState
	videos []models.VideoPost
}

// NewFeed returns an unmounted feed.
func NewFeed(backend Backend, identity Identity, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{backend: backend, identity: identity, logger: logger}
}

// Mount fetches the video list. A response arriving after the feed was
// unmounted or remounted is dropped.
func (f *Feed) Mount(ctx context.Context) {
	gen := f.guard.mount()
	f.mu.Lock()
	f.state = stateLoading
	f.mu.Unlock()

	ctx, op := logging.Start(logging.WithLogger(ctx, f.logger), "feed.load")
	videos, err := f.backend.ListVideos(ctx)
	op.End(err)

	f.guard.apply(gen, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.state = stateReady
		if err != nil {
			logging.FromContext(ctx).Error("fetch videos", "error", err)
			return
		}
		f.videos = videos
	})
}

// Unmount stops pending responses from being applied.
func (f *Feed) Unmount() { f.guard.unmount() }

// Videos returns a copy of the loaded videos.
func (f *Feed) Videos() []models.VideoPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.videos)
}

// Like toggles the signed-in user's like on videoID. The server's reply is
// not read; the local copy is flipped after the request succeeds.
func (f *Feed) Like(ctx context.Context, videoID string) bool {
	user, ok := f.identity.Identity()
	if !ok {
		return false
	}
	gen, mounted := f.guard.active()
	if !mounted {
		return false
	}

	ctx, op := logging.Start(logging.WithLogger(ctx, f.logger), "feed.like")
	err := f.backend.ToggleLike(ctx, videoID, user.ID)
	op.End(err)
	if err != nil {
		logging.FromContext(ctx).Error("like video", "videoId", videoID, "error", err)
		return false
	}

	return f.guard.apply(gen, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.videos {
			if f.videos[i].ID == videoID {
				f.videos[i] = f.videos[i].ToggleLike(user.ID)
			}
		}
	})
}

// Render draws the feed.
func (f *Feed) Render(w io.Writer) error {
	user, _ := f.identity.Identity()

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := fmt.Fprint(w, "Talent feed\n\n"); err != nil {
		return err
	}
	switch {
	case f.state == stateLoading:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	case len(f.videos) == 0:
		_, err := fmt.Fprintln(w, "No videos yet. Be the first to upload!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tBY\tCATEGORY\tRATING\tLIKES\tVIEWS\tPOSTED")
	for _, v := range f.videos {
		likes := fmt.Sprintf("%d", len(v.Likes))
		if v.LikedBy(user.ID) {
			likes += " (liked)"
		}
		fmt.Fprintf(tw, "%s\t%s\t@%s\t%s\t%s\t%s\t%d\t%s\n",
			v.ID, v.Title, v.UserUsername, v.Category, formatRating(v.AISkillRating), likes, v.Views, formatDate(v.CreatedAt))
	}
	return tw.Flush()
}

func formatRating(rating *float64) string {
	if rating == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *rating)
}

func formatDate(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02")
}
