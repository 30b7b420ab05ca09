package artifact

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"

	"github.com/autoreel-labs/autoreel/internal/config"
)

const retentionTagKey = "autoreel:retention-days"

// Publisher uploads run artifacts to a bucket.
type Publisher struct {
	client *s3.Client
	cfg    config.ArtifactConfig
	clock  clockwork.Clock
	log    *slog.Logger
}

// New creates a Publisher. When no access key is configured the
// default AWS credential chain is used, so instance roles and ambient
// environment credentials keep working in CI.
func New(ctx context.Context, log *slog.Logger, cfg config.ArtifactConfig, clock clockwork.Clock) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("artifact bucket is required")
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 2
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if cfg.EndpointURL != nil && *cfg.EndpointURL != "" {
		s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = cfg.EndpointURL
			o.UsePathStyle = true // Required for MinIO and similar services
		})
		log.Info("Using custom S3 endpoint", slog.String("endpoint", *cfg.EndpointURL))
	} else {
		s3Client = s3.NewFromConfig(awsCfg)
	}

	return &Publisher{
		client: s3Client,
		cfg:    cfg,
		clock:  clock,
		log:    log,
	}, nil
}

// PublishRun uploads the given files beneath a timestamped run prefix
// and returns the prefix URL. Objects carry an expiry and a retention
// tag so a bucket lifecycle rule can remove them after the retention
// window.
func (p *Publisher) PublishRun(ctx context.Context, runName string, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no artifacts to publish")
	}

	prefix := RunPrefix(p.clock.Now(), runName)
	if p.cfg.KeyPrefix != nil && *p.cfg.KeyPrefix != "" {
		prefix = fmt.Sprintf("%s/%s", *p.cfg.KeyPrefix, prefix)
	}

	for _, path := range paths {
		key := fmt.Sprintf("%s/%s", prefix, filepath.Base(path))
		if err := p.putFile(ctx, key, path); err != nil {
			return "", err
		}
	}

	prefixURL := p.objectURL(prefix)
	p.log.Info("Artifacts published",
		slog.Int("files", len(paths)),
		slog.Int("retention_days", p.cfg.RetentionDays),
		slog.String("url", prefixURL))
	return prefixURL, nil
}

func (p *Publisher) putFile(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	contentMD5 := computeMD5(data)
	expires := p.clock.Now().Add(time.Duration(p.cfg.RetentionDays) * 24 * time.Hour)
	tagging := url.Values{retentionTagKey: {strconv.Itoa(p.cfg.RetentionDays)}}.Encode()

	body := bytes.NewReader(data)
	input := &s3.PutObjectInput{
		Bucket:     &p.cfg.Bucket,
		Key:        &key,
		Body:       body,
		ContentMD5: &contentMD5,
		Expires:    &expires,
		Tagging:    &tagging,
	}
	if contentType := mime.TypeByExtension(filepath.Ext(path)); contentType != "" {
		input.ContentType = &contentType
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		if attempt > 0 {
			p.log.Warn("Retrying artifact upload",
				slog.String("key", key),
				slog.Int("attempt", attempt))
		}
		attempt++

		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if _, err := p.client.PutObject(ctx, input); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(4))
	if err != nil {
		return fmt.Errorf("S3 upload failed after retries: %w", err)
	}

	if p.cfg.VerifyUpload {
		if err := p.verify(ctx, key, int64(len(data))); err != nil {
			return fmt.Errorf("upload verification failed: %w", err)
		}
	}

	p.log.Info("Artifact uploaded",
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return nil
}

// verify checks that the uploaded object exists and has the expected
// size.
func (p *Publisher) verify(ctx context.Context, key string, expectedSize int64) error {
	result, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &p.cfg.Bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to verify uploaded file: %w", err)
	}

	actualSize := *result.ContentLength
	if actualSize != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d bytes", expectedSize, actualSize)
	}
	return nil
}

func (p *Publisher) objectURL(key string) string {
	if p.cfg.EndpointURL != nil && *p.cfg.EndpointURL != "" {
		return fmt.Sprintf("%s/%s/%s", *p.cfg.EndpointURL, p.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, key)
}

// computeMD5 computes the base64-encoded MD5 hash of the data.
func computeMD5(data []byte) string {
	hash := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(hash[:])
}
