package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/renzo/client/internal/models"
	"github.com/renzo/client/internal/screens"
	"github.com/renzo/client/internal/views"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in")

type command struct {
	usage string
	run   func(ctx context.Context, d *Dependencies, args []string) error
}

func lookupCommand(name string) (command, bool) {
	cmd, ok := commandTable()[name]
	return cmd, ok
}

func commandTable() map[string]command {
	return map[string]command{
		"login":       {usage: "login <email>", run: runLogin},
		"register":    {usage: "register -name N -email E -username U [-type dancer] [-tags a,b]", run: runRegister},
		"logout":      {usage: "logout", run: runLogout},
		"whoami":      {usage: "whoami", run: runWhoami},
		"feed":        {usage: "feed", run: showView(views.Feed)},
		"profile":     {usage: "profile", run: showView(views.Profile)},
		"discover":    {usage: "discover", run: showView(views.Discover)},
		"connections": {usage: "connections", run: showView(views.Connections)},
		"like":        {usage: "like <video-id>", run: runLike},
		"upload":      {usage: "upload -title T [-description D] [-category solo] <file|s3://bucket/key>", run: runUpload},
		"connect":     {usage: "connect <user-id>", run: runConnect},
	}
}

func usageLines() []string {
	table := commandTable()
	lines := make([]string, 0, len(table))
	for _, cmd := range table {
		lines = append(lines, cmd.usage)
	}
	sort.Strings(lines)
	return lines
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	return nil
}

func runLogin(ctx context.Context, d *Dependencies, args []string) error {
	fs := newFlagSet("login")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: login <email>", ErrUsage)
	}
	if err := d.Auth.Login(ctx, fs.Arg(0)); err != nil {
		fmt.Fprintf(d.Out, "Login failed: %s\n", d.Auth.Error())
		return fmt.Errorf("login: %w", err)
	}
	return greet(d)
}

func runRegister(ctx context.Context, d *Dependencies, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	username := fs.String("username", "", "username")
	profileType := fs.String("type", string(models.ProfileDancer), "dancer, musician, director or fan")
	tags := fs.String("tags", "", "comma separated skills")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *name == "" || *email == "" || *username == "" {
		return fmt.Errorf("%w: register needs -name, -email and -username", ErrUsage)
	}
	if !models.ProfileType(*profileType).Valid() {
		return fmt.Errorf("%w: unknown profile type %q", ErrUsage, *profileType)
	}

	form := screens.RegisterForm{
		Name:        *name,
		Email:       *email,
		Username:    *username,
		ProfileType: models.ProfileType(*profileType),
		Tags:        splitTags(*tags),
	}
	if err := d.Auth.Register(ctx, form); err != nil {
		fmt.Fprintf(d.Out, "Registration failed: %s\n", d.Auth.Error())
		return fmt.Errorf("register: %w", err)
	}
	return greet(d)
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func greet(d *Dependencies) error {
	user, ok := d.Session.Identity()
	if !ok {
		return ErrNotSignedIn
	}
	_, err := fmt.Fprintf(d.Out, "Welcome, %s (@%s)\n", user.Name, user.Username)
	return err
}

func runLogout(ctx context.Context, d *Dependencies, _ []string) error {
	d.Router.Reset()
	if _, err := d.Session.Logout(ctx); err != nil {
		d.Logger.Warn("session record not erased", "error", err)
	}
	_, err := fmt.Fprintln(d.Out, "Signed out.")
	return err
}

func runWhoami(_ context.Context, d *Dependencies, _ []string) error {
	user, ok := d.Session.Identity()
	if !ok {
		_, err := fmt.Fprintln(d.Out, "Not signed in.")
		return err
	}
	_, err := fmt.Fprintf(d.Out, "%s (@%s) <%s> %s id=%s\n", user.Name, user.Username, user.Email, user.ProfileType, user.ID)
	return err
}

func showView(view views.View) func(context.Context, *Dependencies, []string) error {
	return func(ctx context.Context, d *Dependencies, _ []string) error {
		if err := requireSession(d); err != nil {
			return err
		}
		d.Router.Select(ctx, string(view))
		return d.Router.Render(d.Out)
	}
}

func requireSession(d *Dependencies) error {
	if !d.Session.IsAuthenticated() {
		return fmt.Errorf("%w: run login or register first", ErrNotSignedIn)
	}
	return nil
}

func runLike(ctx context.Context, d *Dependencies, args []string) error {
	if err := requireSession(d); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: like <video-id>", ErrUsage)
	}
	if !d.Router.Mounted(views.Feed) {
		d.Router.Select(ctx, string(views.Feed))
	}
	d.Feed.Like(ctx, args[0])
	return d.Router.Render(d.Out)
}

func runUpload(ctx context.Context, d *Dependencies, args []string) error {
	if err := requireSession(d); err != nil {
		return err
	}
	fs := newFlagSet("upload")
	title := fs.String("title", "", "video title")
	description := fs.String("description", "", "video description")
	category := fs.String("category", string(models.DefaultCategory), "solo, group, duet, rehearsal or performance")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 || strings.TrimSpace(*title) == "" {
		return fmt.Errorf("%w: upload -title T <file>", ErrUsage)
	}

	d.Router.Select(ctx, string(views.Upload))
	d.Upload.SetTitle(*title)
	d.Upload.SetDescription(*description)
	if err := d.Upload.SetCategory(models.Category(*category)); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := d.Upload.SelectFile(ctx, fs.Arg(0)); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	d.Upload.Submit(ctx)
	return d.Router.Render(d.Out)
}

func runConnect(ctx context.Context, d *Dependencies, args []string) error {
	if err := requireSession(d); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: connect <user-id>", ErrUsage)
	}
	d.Discover.Connect(ctx, args[0])
	return nil
}
