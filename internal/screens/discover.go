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

	"github.com/renzo/client/internal/api"
	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/models"
)

const (
	connectMessage = "Let's collaborate!"
	connectSent    = "Connection request sent!"
	shownTags      = 3
)

// Discover lists other accounts and sends connection requests.
type Discover struct {
	backend  Backend
	identity Identity
	notifier Notifier
	logger   *slog.Logger
	guard    mountGuard

	mu    sync.Mutex
	state loadState
	users []models.UserProfile
}

// NewDiscover returns an unmounted discover screen.
func NewDiscover(backend Backend, identity Identity, notifier Notifier, logger *slog.Logger) *Discover {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &Discover{backend: backend, identity: identity, notifier: notifier, logger: logger}
}

// Mount fetches every account except the signed-in one.
func (d *Discover) Mount(ctx context.Context) {
	gen := d.guard.mount()
	self, ok := d.identity.Identity()
	if !ok {
		return
	}
	d.mu.Lock()
	d.state = stateLoading
	d.mu.Unlock()

	ctx, op := logging.Start(logging.WithLogger(ctx, d.logger), "discover.load")
	users, err := d.backend.ListUsers(ctx)
	op.End(err)

	d.guard.apply(gen, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.state = stateReady
		if err != nil {
			logging.FromContext(ctx).Error("fetch users", "error", err)
			return
		}
		d.users = slices.DeleteFunc(users, func(u models.UserProfile) bool { return u.ID == self.ID })
	})
}

// Unmount stops pending responses from being applied.
func (d *Discover) Unmount() { d.guard.unmount() }

// Users returns a copy of the listed accounts.
func (d *Discover) Users() []models.UserProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.users)
}

// Connect sends a connection request to targetID. Repeating it sends another
// request. Success is acknowledged through the notifier; failures are logged.
func (d *Discover) Connect(ctx context.Context, targetID string) bool {
	self, ok := d.identity.Identity()
	if !ok {
		return false
	}

	ctx, op := logging.Start(logging.WithLogger(ctx, d.logger), "discover.connect")
	_, err := d.backend.CreateConnection(ctx, api.ConnectRequest{
		FromUserID: self.ID,
		ToUserID:   targetID,
		Message:    connectMessage,
	})
	op.End(err)
	if err != nil {
		logging.FromContext(ctx).Error("send connection", "toUserId", targetID, "error", err)
		return false
	}

	d.notifier.Notify(connectSent)
	return true
}

// Render draws the account list.
func (d *Discover) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := fmt.Fprint(w, "Discover talent\n\n"); err != nil {
		return err
	}
	if d.state == stateLoading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tTYPE\tTAGS")
	for _, u := range d.users {
		fmt.Fprintf(tw, "%s\t%s\t@%s\t%s\t%s\n", u.ID, u.Name, u.Username, u.ProfileType, summarizeTags(u.Tags))
	}
	return tw.Flush()
}

func summarizeTags(tags []string) string {
	if len(tags) <= shownTags {
		return strings.Join(tags, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(tags[:shownTags], ", "), len(tags)-shownTags)
}
