package screens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/renzo/client/internal/api"
	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/media"
	"github.com/renzo/client/internal/models"
)

// ErrUnknownCategory is returned when setting a category the backend does not offer.
var ErrUnknownCategory = errors.New("unknown category")

// Upload is the video upload form.
type Upload struct {
	backend  Backend
	identity Identity
	loader   MediaLoader
	logger   *slog.Logger
	guard    mountGuard

	mu          sync.Mutex
	title       string
	description string
	category    models.Category
	fileName    string
	videoData   string
	submitting  bool
	succeeded   bool
}

// NewUpload returns an empty upload form.
func NewUpload(backend Backend, identity Identity, loader MediaLoader, logger *slog.Logger) *Upload {
	if logger == nil {
		logger = slog.Default()
	}
	return &Upload{
		backend:  backend,
		identity: identity,
		loader:   loader,
		logger:   logger,
		category: models.DefaultCategory,
	}
}

// Mount shows the form. The form keeps its values across remounts.
func (u *Upload) Mount(context.Context) { u.guard.mount() }

// Unmount hides the form.
func (u *Upload) Unmount() { u.guard.unmount() }

// SetTitle sets the required title.
func (u *Upload) SetTitle(title string) {
	u.mu.Lock()
	u.title = title
	u.mu.Unlock()
}

// SetDescription sets the optional description.
func (u *Upload) SetDescription(description string) {
	u.mu.Lock()
	u.description = description
	u.mu.Unlock()
}

// SetCategory sets the category.
func (u *Upload) SetCategory(category models.Category) error {
	if !category.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownCategory, category)
	}
	u.mu.Lock()
	u.category = category
	u.mu.Unlock()
	return nil
}

// SelectFile reads the video at location and keeps it as a data URI.
func (u *Upload) SelectFile(ctx context.Context, location string) error {
	clip, err := u.loader.Load(ctx, location)
	if err != nil {
		return err
	}
	u.mu.Lock()
	u.fileName = clip.Name
	u.videoData = clip.DataURI()
	u.succeeded = false
	u.mu.Unlock()
	return nil
}

// CanSubmit reports whether a file and a title are present and no upload is
// in flight.
func (u *Upload) CanSubmit() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.canSubmitLocked()
}

func (u *Upload) canSubmitLocked() bool {
	return u.videoData != "" && strings.TrimSpace(u.title) != "" && !u.submitting
}

// Submit posts the form. On success the form is cleared and a confirmation is
// shown. Failures are logged and leave the form as it was.
func (u *Upload) Submit(ctx context.Context) bool {
	user, ok := u.identity.Identity()
	if !ok {
		return false
	}

	u.mu.Lock()
	if !u.canSubmitLocked() {
		u.mu.Unlock()
		return false
	}
	req := api.UploadRequest{
		UserID:      user.ID,
		Title:       u.title,
		Description: u.description,
		Category:    u.category,
		VideoData:   u.videoData,
	}
	u.submitting = true
	u.succeeded = false
	u.mu.Unlock()

	ctx, op := logging.Start(logging.WithLogger(ctx, u.logger), "upload.submit")
	video, err := u.backend.UploadVideo(ctx, req)
	op.End(err)

	u.mu.Lock()
	defer u.mu.Unlock()
	u.submitting = false
	if err != nil {
		logging.FromContext(ctx).Error("upload failed", "title", req.Title, "error", err)
		return false
	}

	logging.FromContext(ctx).Info("video uploaded", "videoId", video.ID)
	u.title = ""
	u.description = ""
	u.category = models.DefaultCategory
	u.fileName = ""
	u.videoData = ""
	u.succeeded = true
	return true
}

// Succeeded reports whether the last submission went through.
func (u *Upload) Succeeded() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.succeeded
}

// Render draws the form.
func (u *Upload) Render(w io.Writer) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	var b strings.Builder
	b.WriteString("Upload your performance\n\n")
	if u.succeeded {
		b.WriteString("Video uploaded successfully! AI is processing your content...\n\n")
	}
	fmt.Fprintf(&b, "  Title *:     %s\n", u.title)
	fmt.Fprintf(&b, "  Description: %s\n", u.description)
	fmt.Fprintf(&b, "  Category:    %s\n", u.category)
	if u.fileName != "" {
		fmt.Fprintf(&b, "  Video:       %s (selected)\n", u.fileName)
	} else {
		b.WriteString("  Video:       none selected\n")
	}
	switch {
	case u.submitting:
		b.WriteString("\nProcessing...\n")
	case u.canSubmitLocked():
		b.WriteString("\nReady to upload.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

var _ MediaLoader = media.Loader{}
