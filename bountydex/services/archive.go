package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds parallel snapshot uploads per archive run.
const uploadConcurrency = 4

// ArchiveService pushes raw snapshot directories to a Spaces bucket so a
// day's feed can be replayed even after local disk rotation.
type ArchiveService struct {
	client *s3.Client
	bucket string
	root   string
}

func NewArchiveService(key, secret, region, bucket, root string) (*ArchiveService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load Spaces config: %w", err)
	}

	return &ArchiveService{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		root:   strings.Trim(root, "/"),
	}, nil
}

// ArchiveDir uploads every file in a snapshot directory under
// <root>/<date>/<name> and returns the number uploaded. One failed upload
// fails the whole archive; the caller treats archival as best-effort.
func (s *ArchiveService) ArchiveDir(ctx context.Context, dir string, runDate time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	prefix := runDate.Format("2006-01-02")
	if s.root != "" {
		prefix = s.root + "/" + prefix
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		uploaded++

		g.Go(func() error {
			return s.uploadFile(ctx, path, prefix+"/"+name)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	slog.Info("Snapshot directory archived",
		slog.String("type", "archive"),
		slog.String("dir", dir),
		slog.String("prefix", prefix),
		slog.Int("files", uploaded))
	return uploaded, nil
}

func (s *ArchiveService) uploadFile(ctx context.Context, path, key string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        file,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
