package awss3

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/localstack"
	"github.com/pantuza/blfbench/internal/logs"
)

// Reusable configuration for tests
var cfg Config

// init starts a localstack container and points the AWS S3 client at it.
// The container is started only once, so the tests can run multiple times
// against the same instance.
func init() {
	// Configures and starts localstack to use only the S3 service
	p := localstack.Preset(localstack.WithServices(localstack.S3))
	c, err := gnomock.Start(p)
	if err != nil {
		panic(err)
	}

	cfg = Config{
		BucketName: "test-bucket",
		Region:     "sa-east-1",
		Auth: &S3Auth{
			AccessKey: "fakeAccessKey",
			SecretKey: "fakeSecretKey",
		},
	}

	// Updates the S3 endpoint to the localstack container address
	awsCfg, err := getAWSConfig(&cfg)
	if err != nil {
		panic(err)
	}
	s3Endpoint := fmt.Sprintf("http://%s/", c.Address(localstack.APIPort))
	awsCfg.BaseEndpoint = aws.String(s3Endpoint)

	cfg.AWSConfig = awsCfg
}

func newTestArchiver(t *testing.T) *Archiver {
	t.Helper()

	logger, err := logs.NewLogger("debug")
	require.NoError(t, err)

	return NewArchiver(&cfg, logger)
}

func TestCreateArchiveBucket(t *testing.T) {
	archiver := newTestArchiver(t)
	err := archiver.Open()
	assert.NoError(t, err)
}

func TestCreateArchiveBucketAlreadyExists(t *testing.T) {
	archiver := newTestArchiver(t)
	err := archiver.Open()
	assert.NoError(t, err)

	// The bucket exists now. Opening again should reuse it instead of failing.
	if _, err := archiver.s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{Bucket: &cfg.BucketName}); err == nil {
		err := archiver.Open()
		assert.NoError(t, err)
	}
}

func TestObjectKey(t *testing.T) {
	archiver := newTestArchiver(t)
	archiver.runStamp = 1700000000

	key := archiver.ObjectKey(filepath.Join("blf_multi_writer_logs", "can_channel_1.blf"))
	assert.Equal(t, "runs/1700000000/can_channel_1.blf", key)
}

func TestUpload(t *testing.T) {
	archiver := newTestArchiver(t)
	require.NoError(t, archiver.Open())

	path := filepath.Join(t.TempDir(), "can_channel_1.blf")
	content := []byte("fake log file content")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	err := archiver.Upload(context.Background(), []string{path})
	require.NoError(t, err)

	key := archiver.ObjectKey(path)
	object, err := archiver.s3Client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: &cfg.BucketName,
		Key:    &key,
	})
	require.NoError(t, err)
	defer object.Body.Close()

	stored, err := io.ReadAll(object.Body)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestUploadMissingFile(t *testing.T) {
	archiver := newTestArchiver(t)
	require.NoError(t, archiver.Open())

	err := archiver.Upload(context.Background(), []string{"/no/such/file.blf"})
	assert.Error(t, err)
}
