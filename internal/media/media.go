// Package media reads performance videos into the data-URI form the backend
// stores.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrRemoteUnavailable indicates an s3:// location was given but no fetcher is configured.
var ErrRemoteUnavailable = errors.New("media: remote object store not configured")

// Clip is a video file read fully into memory.
type Clip struct {
	Name     string
	MIMEType string
	Data     []byte
}

// DataURI encodes the clip as data:<mime>;base64,<payload>.
func (c Clip) DataURI() string {
	return "data:" + c.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// RemoteFetcher retrieves objects that do not live on the local filesystem.
type RemoteFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, string, error)
}

// Loader resolves a location to a Clip. Locations starting with s3:// go to
// Remote; everything else is a local path.
type Loader struct {
	Remote RemoteFetcher
}

// Load reads the clip at location.
func (l Loader) Load(ctx context.Context, location string) (Clip, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Clip{}, errors.New("media: empty location")
	}

	var (
		data []byte
		name string
	)
	if strings.HasPrefix(location, "s3://") {
		if l.Remote == nil {
			return Clip{}, ErrRemoteUnavailable
		}
		var err error
		data, name, err = l.Remote.Fetch(ctx, location)
		if err != nil {
			return Clip{}, err
		}
	} else {
		var err error
		data, err = os.ReadFile(location)
		if err != nil {
			return Clip{}, fmt.Errorf("media: read %s: %w", location, err)
		}
		name = filepath.Base(location)
	}

	return Clip{Name: name, MIMEType: detectType(data, name), Data: data}, nil
}

// detectType sniffs the content; when the bytes are inconclusive the file
// extension decides.
func detectType(data []byte, name string) string {
	detected := mimetype.Detect(data)
	if !detected.Is("application/octet-stream") && !detected.Is("text/plain") {
		return detected.String()
	}
	if byExt := extensionType(name); byExt != "" {
		return byExt
	}
	return detected.String()
}

func extensionType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".avi":
		return "video/x-msvideo"
	default:
		return ""
	}
}
