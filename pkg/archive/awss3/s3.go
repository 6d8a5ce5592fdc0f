package awss3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsTypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// Archiver uploads the log files of one benchmark run to an S3 bucket.
// Every file of a run lands under the same timestamped key prefix.
type Archiver struct {
	cfg    *Config
	logger *zap.Logger

	runStamp int64

	// AWS S3 client reference
	s3Client *s3.Client
}

func NewArchiver(cfg *Config, logger *zap.Logger) *Archiver {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	return &Archiver{
		cfg:      cfg,
		logger:   logger,
		runStamp: time.Now().Unix(),
	}
}

// Open authenticates with AWS and makes sure the archive bucket exists.
func (a *Archiver) Open() error {
	if a.cfg.AWSConfig == nil {
		awsCfg, err := getAWSConfig(a.cfg)
		if err != nil {
			return fmt.Errorf("failed to authenticate with AWS: %w", err)
		}
		a.cfg.AWSConfig = awsCfg
	}

	a.s3Client = s3.NewFromConfig(*a.cfg.AWSConfig)

	if err := a.createArchiveBucket(context.Background()); err != nil {
		return fmt.Errorf("failed to open archive bucket: %w", err)
	}

	return nil
}

// createArchiveBucket creates the bucket if it does not exist.
func (a *Archiver) createArchiveBucket(ctx context.Context) error {
	if _, err := a.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &a.cfg.BucketName}); err != nil {

		a.logger.Info("Bucket does not exists. Creating it.", zap.String("bucket", a.cfg.BucketName))
		_, err := a.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: &a.cfg.BucketName,
			CreateBucketConfiguration: &awsTypes.CreateBucketConfiguration{
				LocationConstraint: awsTypes.BucketLocationConstraint(a.cfg.Region),
			},
		})
		if err != nil {
			return fmt.Errorf("Failed to create bucket: %w", err)
		}
	} else {
		a.logger.Info("Bucket already exists", zap.String("bucket", a.cfg.BucketName))
	}

	return nil
}

// ObjectKey returns the bucket key one output file is archived under.
func (a *Archiver) ObjectKey(path string) string {
	return fmt.Sprintf("%s/%d/%s", a.cfg.KeyPrefix, a.runStamp, filepath.Base(path))
}

// Upload puts every given file into the archive bucket under this run's
// key prefix. It stops at the first failure.
func (a *Archiver) Upload(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := a.uploadFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archiver) uploadFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open '%s' for archiving: %w", path, err)
	}
	defer file.Close()

	key := a.ObjectKey(path)
	input := &s3.PutObjectInput{
		Bucket: &a.cfg.BucketName,
		Key:    &key,
		Body:   file,
	}

	if _, err := a.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("Failed to put object '%s' in bucket '%s' with error: %w", key, a.cfg.BucketName, err)
	}

	a.logger.Info("archived benchmark output",
		zap.String("file", path),
		zap.String("key", key),
	)

	return nil
}
