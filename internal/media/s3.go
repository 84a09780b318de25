package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/renzo/client/internal/config"
)

// S3Fetcher downloads whole objects from an S3-compatible service.
type S3Fetcher struct {
	downloader *manager.Downloader
}

// NewS3Fetcher configures a downloader targeting the provided object store.
func NewS3Fetcher(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Fetcher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 5 * 1024 * 1024
		d.Concurrency = 3
	})

	return &S3Fetcher{downloader: downloader}, nil
}

// Fetch downloads the object named by an s3://bucket/key location and returns
// its bytes together with the object's base name.
func (f *S3Fetcher) Fetch(ctx context.Context, location string) ([]byte, string, error) {
	bucket, key, err := parseS3Location(location)
	if err != nil {
		return nil, "", err
	}

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := f.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, "", fmt.Errorf("s3 download %s/%s: %w", bucket, key, err)
	}

	return buf.Bytes(), path.Base(key), nil
}

func parseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 location %q: %w", location, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3 location %q: scheme must be s3", location)
	}
	key = strings.TrimLeft(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 location %q: expected s3://bucket/key", location)
	}
	return u.Host, key, nil
}
