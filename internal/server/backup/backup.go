// Package backup uploads JSON snapshots of the user records to S3-compatible
// object storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

const DownloadLinkValidity = 15 * time.Minute

// Source provides the records to snapshot. users.Repository implements it.
type Source interface {
	GetAll(ctx context.Context) ([]models.User, error)
}

// Result describes an uploaded snapshot.
type Result struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Count       int       `json:"count"`
	CreatedAt   time.Time `json:"createdAt"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
}

type Service struct {
	src       Source
	store     ObjectStore
	presigner Presigner
	bucket    string
	log       logging.Logger
	now       func() time.Time
}

// NewService returns a snapshot service writing to bucket. presigner may be
// nil, in which case results carry no download link.
func NewService(src Source, store ObjectStore, presigner Presigner, bucket string, log logging.Logger) *Service {
	return &Service{
		src:       src,
		store:     store,
		presigner: presigner,
		bucket:    bucket,
		log:       log.With("module", "backup"),
		now:       time.Now,
	}
}

// ObjectKey returns backups/yyyy/mm/dd/<uuid>.json for t.
func ObjectKey(t time.Time) string {
	return fmt.Sprintf("backups/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), uuid.New())
}

// Snapshot uploads every record, password hashes included, as one JSON
// array. The object is exactly what the file backend would store.
func (s *Service) Snapshot(ctx context.Context) (*Result, error) {
	users, err := s.src.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	body, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	now := s.now().UTC()
	key := ObjectKey(now)

	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	res := &Result{Bucket: s.bucket, Key: key, Count: len(users), CreatedAt: now}

	if s.presigner != nil {
		req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(DownloadLinkValidity))
		if err != nil {
			s.log.Warn(ctx, "snapshot uploaded but presign failed", "key", key, "error", err)
		} else {
			res.DownloadURL = req.URL
		}
	}

	s.log.Info(ctx, "snapshot uploaded", "bucket", s.bucket, "key", key, "count", len(users))
	return res, nil
}
