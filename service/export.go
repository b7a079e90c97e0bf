package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ryandumpert/flint/config"
	"github.com/ryandumpert/flint/model"
	"github.com/ryandumpert/flint/pkg/pii"
)

// MaskedReport is the exported form of a session. It never carries the
// original extracted text.
type MaskedReport struct {
	VersionID  string         `json:"version_id"`
	TextHash   string         `json:"text_hash"`
	Metadata   model.Metadata `json:"metadata"`
	MaskedText string         `json:"masked_text"`
	PII        pii.Summary    `json:"pii"`
	Status     string         `json:"status"`
	Issues     []model.Issue  `json:"issues"`
	ExportedAt time.Time      `json:"exported_at"`
}

// BuildReport masks a snapshot for export
func BuildReport(scanner *pii.Scanner, snap Snapshot, now time.Time) (*MaskedReport, error) {
	if snap.Version == nil {
		return nil, ErrNoActiveDocument
	}
	dets := scanner.Detect(snap.Version.ExtractedText)
	return &MaskedReport{
		VersionID:  snap.Version.ID,
		TextHash:   snap.Version.TextHash,
		Metadata:   snap.Version.Metadata,
		MaskedText: scanner.Mask(snap.Version.ExtractedText),
		PII:        pii.Summarized(dets),
		Status:     string(snap.Status),
		Issues:     MaskIssues(scanner, snap.Issues),
		ExportedAt: now,
	}, nil
}

// ExportService writes masked reports to object storage
type ExportService struct {
	client  *minio.Client
	bucket  string
	config  *config.MinioConfig
	scanner *pii.Scanner
}

// NewExportService creates the export sink. With an empty endpoint the
// service is returned disabled and every export fails with ErrExportDisabled.
func NewExportService(cfg *config.MinioConfig, scanner *pii.Scanner) (*ExportService, error) {
	svc := &ExportService{bucket: cfg.Bucket, config: cfg, scanner: scanner}
	if cfg.Endpoint == "" {
		return svc, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	svc.client = client
	return svc, nil
}

// Enabled reports whether an object store is configured
func (s *ExportService) Enabled() bool {
	return s != nil && s.client != nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ExportService) EnsureBucket(ctx context.Context) error {
	if !s.Enabled() {
		return ErrExportDisabled
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Export uploads the masked report for snap and returns a presigned URL
func (s *ExportService) Export(ctx context.Context, sessionKey string, snap Snapshot) (string, error) {
	if !s.Enabled() {
		return "", ErrExportDisabled
	}

	now := time.Now().UTC()
	report, err := BuildReport(s.scanner, snap, now)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(report)
	if err != nil {
		return "", errors.Wrap(err, "encode report")
	}

	objectName := ObjectName(sessionKey, report.VersionID, now)
	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// ObjectName returns the object key of a report
func ObjectName(sessionKey, versionID string, at time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, sessionKey)
	return fmt.Sprintf("%s/%s/report-%d.json", safe, versionID, at.Unix())
}
