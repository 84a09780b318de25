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

// Connections lists the connection requests the signed-in user sent or received.
type Connections struct {
	backend  Backend
	identity Identity
	logger   *slog.Logger
	guard    mountGuard

	mu          sync.Mutex
	state       loadState
	connections []models.ConnectionRequest
}

// NewConnections returns an unmounted connections screen.
func NewConnections(backend Backend, identity Identity, logger *slog.Logger) *Connections {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connections{backend: backend, identity: identity, logger: logger}
}

// Mount fetches the signed-in user's requests.
func (c *Connections) Mount(ctx context.Context) {
	gen := c.guard.mount()
	self, ok := c.identity.Identity()
	if !ok {
		return
	}
	c.mu.Lock()
	c.state = stateLoading
	c.mu.Unlock()

	ctx, op := logging.Start(logging.WithLogger(ctx, c.logger), "connections.load")
	conns, err := c.backend.ListConnections(ctx, self.ID)
	op.End(err)

	c.guard.apply(gen, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state = stateReady
		if err != nil {
			logging.FromContext(ctx).Error("fetch connections", "error", err)
			return
		}
		c.connections = conns
	})
}

// Unmount stops pending responses from being applied.
func (c *Connections) Unmount() { c.guard.unmount() }

// List returns a copy of the loaded requests.
func (c *Connections) List() []models.ConnectionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.connections)
}

// Direction labels conn relative to userID.
func Direction(conn models.ConnectionRequest, userID string) string {
	if conn.SentBy(userID) {
		return "To"
	}
	return "From"
}

// Render draws the request list.
func (c *Connections) Render(w io.Writer) error {
	self, _ := c.identity.Identity()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprint(w, "My connections\n\n"); err != nil {
		return err
	}
	switch {
	case c.state == stateLoading:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	case len(c.connections) == 0:
		_, err := fmt.Fprintln(w, "No connections yet. Start discovering talent!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTION\tOTHER\tMESSAGE\tSTATUS\tDATE")
	for _, conn := range c.connections {
		other := conn.FromUserID
		if conn.SentBy(self.ID) {
			other = conn.ToUserID
		}
		message := conn.Message
		if message == "" {
			message = "No message"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", Direction(conn, self.ID), other, message, conn.Status, formatDate(conn.CreatedAt))
	}
	return tw.Flush()
}
