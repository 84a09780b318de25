package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/renzo/client/internal/config"
	"github.com/renzo/client/internal/models"
	"github.com/renzo/client/internal/stubapi"
)

type harness struct {
	backend *stubapi.API
	dir     string
}

func newHarness(t *testing.T, sessionBackend string) *harness {
	t.Helper()
	backend := stubapi.New(stubapi.Options{})
	srv := httptest.NewServer(backend.Handler(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("RENZO_BACKEND_URL", srv.URL)
	t.Setenv("RENZO_SESSION_BACKEND", sessionBackend)
	t.Setenv("RENZO_SESSION_PATH", filepath.Join(dir, "session."+sessionBackend))
	t.Setenv("RENZO_LOG_LEVEL", "error")
	t.Setenv("RENZO_REQUEST_RATE", "1000")
	t.Setenv("RENZO_REQUEST_BURST", "100")
	return &harness{backend: backend, dir: dir}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return h.runWithInput(t, "", args...)
}

func (h *harness) runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := RunWithStreams(context.Background(), args, Streams{In: strings.NewReader(input), Out: &out, Err: io.Discard})
	return out.String(), err
}

func TestRegisterPersistsAcrossRuns(t *testing.T) {
	for _, backend := range []string{config.SessionBackendFile, config.SessionBackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			h := newHarness(t, backend)

			out, err := h.run(t, "register", "-name", "Ana", "-email", "ana@example.com", "-username", "ana", "-type", "dancer")
			if err != nil {
				t.Fatalf("register: %v", err)
			}
			if !strings.Contains(out, "Welcome, Ana (@ana)") {
				t.Fatalf("unexpected output %q", out)
			}

			users := h.backend.Store.ListUsers(0, 10)
			if len(users) != 1 || !slices.Equal(users[0].Tags, []string{"beginner"}) {
				t.Fatalf("expected one user tagged beginner, got %+v", users)
			}

			out, err = h.run(t, "whoami")
			if err != nil {
				t.Fatalf("whoami: %v", err)
			}
			if !strings.Contains(out, "@ana") {
				t.Fatalf("expected restored session, got %q", out)
			}

			if _, err := h.run(t, "logout"); err != nil {
				t.Fatalf("logout: %v", err)
			}
			out, err = h.run(t, "whoami")
			if err != nil {
				t.Fatalf("whoami: %v", err)
			}
			if !strings.Contains(out, "Not signed in.") {
				t.Fatalf("expected signed out, got %q", out)
			}
		})
	}
}

func TestCorruptSessionFileIsReplacedOnRegister(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)
	path := filepath.Join(h.dir, "session."+config.SessionBackendFile)
	if err := os.WriteFile(path, []byte("{truncated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := h.run(t, "register", "-name", "Ana", "-email", "ana@example.com", "-username", "ana"); err != nil {
		t.Fatalf("register: %v", err)
	}
	out, err := h.run(t, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "@ana") {
		t.Fatalf("expected restored session, got %q", out)
	}
}

func TestLoginUnknownEmailFails(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)

	out, err := h.run(t, "login", "nobody@example.com")
	if err == nil {
		t.Fatal("expected login to fail")
	}
	if !strings.Contains(out, "Invalid credentials") {
		t.Fatalf("expected backend detail in output, got %q", out)
	}
}

func TestViewCommandsRequireSession(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)

	for _, name := range []string{"feed", "profile", "discover", "connections"} {
		if _, err := h.run(t, name); !errors.Is(err, ErrNotSignedIn) {
			t.Fatalf("%s: expected ErrNotSignedIn, got %v", name, err)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)

	if _, err := h.run(t, "dance"); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}

func TestUploadLikeAndProfile(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)
	if _, err := h.run(t, "register", "-name", "Ana", "-email", "ana@example.com", "-username", "ana"); err != nil {
		t.Fatalf("register: %v", err)
	}

	clip := filepath.Join(h.dir, "spin.mp4")
	if err := os.WriteFile(clip, []byte("frames"), 0o600); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	out, err := h.run(t, "upload", "-title", "Spin", "-category", "duet", clip)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(out, "uploaded successfully") {
		t.Fatalf("expected success banner, got %q", out)
	}

	videos := h.backend.Store.ListVideos(0, 10)
	if len(videos) != 1 {
		t.Fatalf("expected one stored video, got %d", len(videos))
	}

	out, err = h.run(t, "like", videos[0].ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !strings.Contains(out, "1 (liked)") {
		t.Fatalf("expected liked video in feed, got %q", out)
	}

	out, err = h.run(t, "profile")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !strings.Contains(out, "Avg rating: 7.0") || !strings.Contains(out, "Spin") {
		t.Fatalf("unexpected profile output %q", out)
	}
}

func TestUploadRejectsUnknownCategory(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)
	if _, err := h.run(t, "register", "-name", "Ana", "-email", "ana@example.com", "-username", "ana"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := h.run(t, "upload", "-title", "Spin", "-category", "tap", "clip.mp4"); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}

func TestShellSession(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)
	if _, err := h.backend.Store.FindUserByEmail("ben@example.com"); err == nil {
		t.Fatal("expected empty backend")
	}

	input := strings.Join([]string{
		"mode",
		"tag Jazz",
		`register -name "Ana Lima" -email ana@example.com -username ana -type musician -tags Jazz`,
		"view discover",
		"whoami",
		"quit",
	}, "\n")

	out, err := h.runWithInput(t, input)
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	for _, want := range []string{"Sign in", "Create account", "[x] Jazz", "Welcome, Ana Lima (@ana)", "Discover talent", "musician"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in shell output:\n%s", want, out)
		}
	}
}

func TestShellConnect(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)
	if _, err := h.run(t, "register", "-name", "Ben", "-email", "ben@example.com", "-username", "ben"); err != nil {
		t.Fatalf("register ben: %v", err)
	}
	ben, err := h.backend.Store.FindUserByEmail("ben@example.com")
	if err != nil {
		t.Fatalf("find ben: %v", err)
	}
	if _, err := h.run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	input := strings.Join([]string{
		"register -name Ana -email ana@example.com -username ana",
		"connect " + ben.ID,
		"connect " + ben.ID,
		"view connections",
		"bogus",
	}, "\n")
	out, err := h.runWithInput(t, input)
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if strings.Count(out, "Connection request sent!") != 2 {
		t.Fatalf("expected two acknowledgements:\n%s", out)
	}
	if strings.Count(out, "Let's collaborate!") != 2 {
		t.Fatalf("expected two listed requests:\n%s", out)
	}
	if !strings.Contains(out, "unknown command") {
		t.Fatalf("expected unknown command to be reported:\n%s", out)
	}
}

func TestFailedActionsPrintNoFeedback(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)
	if _, err := h.run(t, "register", "-name", "Ana", "-email", "ana@example.com", "-username", "ana"); err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := h.run(t, "connect", "nobody")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output for a failed connect, got %q", out)
	}

	feed, err := h.run(t, "feed")
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	out, err = h.run(t, "like", "missing-video")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if out != feed {
		t.Fatalf("expected only the feed to be rendered, got %q want %q", out, feed)
	}
}

func TestConnectionsShowResponseStatus(t *testing.T) {
	h := newHarness(t, config.SessionBackendFile)
	if _, err := h.run(t, "register", "-name", "Ben", "-email", "ben@example.com", "-username", "ben"); err != nil {
		t.Fatalf("register ben: %v", err)
	}
	ben, err := h.backend.Store.FindUserByEmail("ben@example.com")
	if err != nil {
		t.Fatalf("find ben: %v", err)
	}
	if _, err := h.run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := h.run(t, "register", "-name", "Ana", "-email", "ana@example.com", "-username", "ana"); err != nil {
		t.Fatalf("register ana: %v", err)
	}
	if _, err := h.run(t, "connect", ben.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}

	conns := h.backend.Store.ConnectionsFor(ben.ID, 10)
	if len(conns) != 1 {
		t.Fatalf("expected one request, got %d", len(conns))
	}
	if err := h.backend.Store.RespondConnection(conns[0].ID, models.ConnectionAccepted); err != nil {
		t.Fatalf("respond: %v", err)
	}

	out, err := h.run(t, "connections")
	if err != nil {
		t.Fatalf("connections: %v", err)
	}
	if !strings.Contains(out, "accepted") || strings.Contains(out, "pending") {
		t.Fatalf("expected accepted request, got %q", out)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "feed", want: []string{"feed"}},
		{in: `title  "My first spin"`, want: []string{"title", "My first spin"}},
		{in: `say 'it''s'`, want: []string{"say", "its"}},
		{in: `bad "quote`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := splitArgs(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("splitArgs(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("splitArgs(%q): %v", tt.in, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Fatalf("splitArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitTags(t *testing.T) {
	if got := splitTags(" Jazz, Pop,,Jazz "); !slices.Equal(got, []string{"Jazz", "Pop"}) {
		t.Fatalf("unexpected tags %v", got)
	}
	if got := splitTags(""); len(got) != 0 {
		t.Fatalf("expected no tags, got %v", got)
	}
}
