package views

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"testing"
)

type recordingScreen struct {
	name   string
	events *[]string
}

func (s recordingScreen) Mount(context.Context) { *s.events = append(*s.events, "mount "+s.name) }
func (s recordingScreen) Unmount()              { *s.events = append(*s.events, "unmount "+s.name) }
func (s recordingScreen) Render(w io.Writer) error {
	_, err := fmt.Fprint(w, s.name)
	return err
}

type fakeSession bool

func (f *fakeSession) IsAuthenticated() bool { return bool(*f) }

func newTestRouter(signedIn bool) (*Router, *[]string, *fakeSession) {
	events := &[]string{}
	screens := make(map[View]Screen)
	for _, v := range All {
		screens[v] = recordingScreen{name: string(v), events: events}
	}
	session := fakeSession(signedIn)
	return NewRouter(&session, recordingScreen{name: "auth", events: events}, screens), events, &session
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want View
	}{
		{in: "feed", want: Feed},
		{in: "upload", want: Upload},
		{in: "profile", want: Profile},
		{in: "discover", want: Discover},
		{in: "connections", want: Connections},
		{in: "", want: Feed},
		{in: "settings", want: Feed},
		{in: "FEED", want: Feed},
	}

	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Fatalf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSelectUnmountsPreviousAndMountsNext(t *testing.T) {
	router, events, _ := newTestRouter(true)
	ctx := context.Background()

	router.Select(ctx, "upload")
	router.Select(ctx, "profile")

	want := []string{"mount upload", "unmount upload", "mount profile"}
	if !slices.Equal(*events, want) {
		t.Fatalf("expected %v got %v", want, *events)
	}
	if router.Current() != Profile {
		t.Fatalf("expected profile, got %q", router.Current())
	}
}

func TestSelectUnknownFallsBackToFeed(t *testing.T) {
	router, _, _ := newTestRouter(true)

	if got := router.Select(context.Background(), "nowhere"); got != Feed {
		t.Fatalf("expected feed got %q", got)
	}
}

func TestRenderShowsAuthWhenSignedOut(t *testing.T) {
	router, events, session := newTestRouter(false)
	ctx := context.Background()

	router.Select(ctx, "discover")
	if len(*events) != 0 {
		t.Fatalf("expected no mount while signed out, got %v", *events)
	}

	var buf bytes.Buffer
	if err := router.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "auth" {
		t.Fatalf("expected auth screen, got %q", buf.String())
	}

	*session = true
	buf.Reset()
	if err := router.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "discover" {
		t.Fatalf("expected discover screen, got %q", buf.String())
	}
}

func TestReset(t *testing.T) {
	router, events, _ := newTestRouter(true)
	ctx := context.Background()

	router.Select(ctx, "connections")
	router.Reset()

	if router.Current() != Feed {
		t.Fatalf("expected feed after reset, got %q", router.Current())
	}
	if last := (*events)[len(*events)-1]; last != "unmount connections" {
		t.Fatalf("expected connections to be unmounted, got %q", last)
	}
}

func TestMounted(t *testing.T) {
	router, _, session := newTestRouter(false)
	ctx := context.Background()

	router.Select(ctx, "feed")
	if router.Mounted(Feed) {
		t.Fatal("expected nothing mounted while signed out")
	}

	*session = true
	router.Select(ctx, "feed")
	if !router.Mounted(Feed) || router.Mounted(Upload) {
		t.Fatal("expected only the feed to be mounted")
	}
}
