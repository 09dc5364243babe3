package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/models"
)

type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	Bucket    string
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// SpacesClient archives finished transcripts to an S3 compatible bucket.
type SpacesClient struct {
	client     objectAPI
	bucket     string
	maxElapsed time.Duration
}

// ArchivedTranscript is the JSON document stored per run.
type ArchivedTranscript struct {
	RunID      string             `json:"run_id"`
	URL        string             `json:"url"`
	Transcript *models.Transcript `json:"transcript"`
	Timestamp  time.Time          `json:"timestamp"`
}

func NewSpacesClient(ctx context.Context, cfg SpacesConfig) (*SpacesClient, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &SpacesClient{
		client:     client,
		bucket:     cfg.Bucket,
		maxElapsed: 10 * time.Second,
	}, nil
}

func transcriptKey(runID string) string {
	return fmt.Sprintf("transcripts/%s.json", runID)
}

// Error codes that no retry can fix.
var permanentCodes = map[string]bool{
	"AccessDenied":          true,
	"InvalidAccessKeyId":    true,
	"InvalidBucketName":     true,
	"NoSuchBucket":          true,
	"SignatureDoesNotMatch": true,
}

func isPermanent(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && permanentCodes[apiErr.ErrorCode()]
}

// SaveTranscript writes the transcript for runID, retrying transient
// failures for a short period. Credential and bucket errors fail at once.
func (s *SpacesClient) SaveTranscript(ctx context.Context, runID, url string, t *models.Transcript) error {
	const op = "SpacesClient.SaveTranscript"

	data, err := json.Marshal(ArchivedTranscript{
		RunID:      runID,
		URL:        url,
		Transcript: t,
		Timestamp:  time.Now(),
	})
	if err != nil {
		return errors.Internal(op, err, "failed to marshal transcript")
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.maxElapsed

	put := func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(transcriptKey(runID)),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(put, backoff.WithContext(bo, ctx)); err != nil {
		return errors.Internal(op, err, "failed to save to Spaces")
	}
	return nil
}

func (s *SpacesClient) GetTranscript(ctx context.Context, runID string) (*ArchivedTranscript, error) {
	const op = "SpacesClient.GetTranscript"

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(transcriptKey(runID)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, errors.NotFound(op, err, "Transcript not found")
		}
		return nil, errors.Internal(op, err, "failed to get from Spaces")
	}
	defer result.Body.Close()

	var data ArchivedTranscript
	if err := json.NewDecoder(result.Body).Decode(&data); err != nil {
		return nil, errors.Internal(op, err, "failed to decode transcript")
	}
	return &data, nil
}
