package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/logger"
)

// AuditSource is the read side the archiver drains. The archiver supplies
// both bounds so consecutive exports cover disjoint half-open windows.
type AuditSource interface {
	GetByTimeRange(ctx context.Context, from, to time.Time) ([]*models.NotificationAudit, error)
}

// ArchiveService ships audit journal batches to S3-compatible object
// storage so the bounded in-process window never becomes the only copy.
type ArchiveService struct {
	client     *s3.Client
	bucket     string
	region     string
	prefix     string
	lastExport time.Time
}

func NewArchiveService(accessKey, secret, region, bucket, prefix string) (*ArchiveService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive storage config: %w", err)
	}

	return &ArchiveService{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		region:     region,
		prefix:     strings.Trim(prefix, "/"),
		lastExport: time.Now(),
	}, nil
}

// UploadBatch writes one JSON batch under a timestamped key. Empty batches
// are skipped.
func (s *ArchiveService) UploadBatch(ctx context.Context, entries []*models.NotificationAudit) error {
	if len(entries) == 0 {
		return nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode audit batch: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/audit-%s.json", s.prefix, now.Format("2006/01/02"), now.Format("150405"))
	contentType := "application/json"

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(payload),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload audit batch %s: %w", key, err)
	}

	logger.LogSystem("Archived audit batch", "key", key, "entries", len(entries))
	return nil
}

// ExportNew drains entries appended since the previous export and ships
// them. The watermark only advances after a successful upload.
func (s *ArchiveService) ExportNew(ctx context.Context, source AuditSource) error {
	cutoff := time.Now()
	entries, err := source.GetByTimeRange(ctx, s.lastExport, cutoff)
	if err != nil {
		return err
	}
	if err := s.UploadBatch(ctx, entries); err != nil {
		return err
	}
	s.lastExport = cutoff
	return nil
}

// StartArchiveRoutine exports on a ticker until ctx is done.
func (s *ArchiveService) StartArchiveRoutine(ctx context.Context, source AuditSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.ExportNew(ctx, source); err != nil {
					logger.LogError("Audit archive export failed", err)
				}
			}
		}
	}()
}

func (s *ArchiveService) GetBucket() string {
	return s.bucket
}

func (s *ArchiveService) GetRegion() string {
	return s.region
}
