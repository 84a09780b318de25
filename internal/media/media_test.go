package media

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubFetcher struct {
	data     []byte
	name     string
	err      error
	location string
}

func (s *stubFetcher) Fetch(_ context.Context, location string) ([]byte, string, error) {
	s.location = location
	return s.data, s.name, s.err
}

func TestLoaderLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routine.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	clip, err := Loader{}.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if clip.Name != "routine.mp4" {
		t.Fatalf("unexpected name %q", clip.Name)
	}
	if clip.MIMEType != "video/mp4" {
		t.Fatalf("expected extension fallback to video/mp4, got %q", clip.MIMEType)
	}

	uri := clip.DataURI()
	want := "data:video/mp4;base64," + base64.StdEncoding.EncodeToString([]byte("video-bytes"))
	if uri != want {
		t.Fatalf("expected %q got %q", want, uri)
	}
}

func TestLoaderRemote(t *testing.T) {
	fetcher := &stubFetcher{data: []byte("clip"), name: "duet.webm"}
	loader := Loader{Remote: fetcher}

	clip, err := loader.Load(context.Background(), "s3://performances/2024/duet.webm")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fetcher.location != "s3://performances/2024/duet.webm" {
		t.Fatalf("fetcher received %q", fetcher.location)
	}
	if clip.Name != "duet.webm" || !strings.HasPrefix(clip.DataURI(), "data:video/webm;base64,") {
		t.Fatalf("unexpected clip %+v", clip)
	}
}

func TestLoaderErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := (Loader{}).Load(ctx, "  "); err == nil {
		t.Fatal("expected error for empty location")
	}
	if _, err := (Loader{}).Load(ctx, "s3://bucket/key.mp4"); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable got %v", err)
	}
	if _, err := (Loader{}).Load(ctx, filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}

	boom := errors.New("boom")
	if _, err := (Loader{Remote: &stubFetcher{err: boom}}).Load(ctx, "s3://bucket/key.mp4"); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error got %v", err)
	}
}

func TestParseS3Location(t *testing.T) {
	bucket, key, err := parseS3Location("s3://clips/solo/take-1.mov")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bucket != "clips" || key != "solo/take-1.mov" {
		t.Fatalf("unexpected bucket %q key %q", bucket, key)
	}

	for _, bad := range []string{"https://clips/solo.mov", "s3://clips", "s3:///solo.mov"} {
		if _, _, err := parseS3Location(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
