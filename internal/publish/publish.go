// Package publish uploads a finished video to S3.
package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Publisher uploads files to one bucket under an optional key prefix.
type Publisher struct {
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
	logger   zerolog.Logger
}

// New creates a publisher using the default AWS credential chain.
func New(opts config.PublishOptions, logger zerolog.Logger) (*Publisher, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("publish bucket is not configured")
	}
	cfg := &aws.Config{}
	if opts.Region != "" {
		cfg.Region = aws.String(opts.Region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}
	return NewWithSession(sess, opts, logger), nil
}

// NewWithSession creates a publisher on an existing session.
func NewWithSession(sess *session.Session, opts config.PublishOptions, logger zerolog.Logger) *Publisher {
	return &Publisher{
		uploader: s3manager.NewUploader(sess),
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		logger:   logger,
	}
}

// Key returns the object key for a local file.
func (p *Publisher) Key(localPath string) string {
	name := filepath.Base(localPath)
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads localPath and returns the object location.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", localPath)
	}
	defer file.Close()

	key := p.Key(localPath)
	contentType := ContentType(localPath)

	out, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("bucket", p.bucket).
			Str("key", key).
			Msg("Failed to upload object to S3")
		return "", errors.Wrap(err, "upload failed")
	}

	p.logger.Info().
		Str("bucket", p.bucket).
		Str("key", key).
		Str("location", out.Location).
		Msg("video published")
	return out.Location, nil
}

var mediaTypes = map[string]string{
	".mp4": "video/mp4",
	".mp3": "audio/mpeg",
	".png": "image/png",
	".jpg": "image/jpeg",
}

// ContentType returns the MIME type uploaded with localPath.
func ContentType(localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
