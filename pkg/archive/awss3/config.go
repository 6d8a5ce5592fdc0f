package awss3

import (
	"github.com/aws/aws-sdk-go-v2/aws"
)

const (
	// DefaultKeyPrefix is the bucket key prefix run artifacts are stored under.
	DefaultKeyPrefix = "runs"
)

// S3Auth carries optional static AWS credentials. Default is to resolve
// credentials from the environment or the shared credentials file.
type S3Auth struct {
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// Config of the post-run artifact archive. All fields come from the
// benchmark YAML configuration file.
type Config struct {
	// Name of the s3 bucket where benchmark output files will be stored
	BucketName string `yaml:"bucketName"`

	// AWS Region where the bucket is located
	Region string `yaml:"region"`

	// AWS Profile to be used (optional)
	Profile string `yaml:"profile,omitempty"`

	// Bucket key prefix for archived runs (optional)
	KeyPrefix string `yaml:"keyPrefix,omitempty"`

	// AWS Auth credentials (optional). Default is to read from aws credentials file
	Auth *S3Auth `yaml:"auth,omitempty"`

	// Resolved AWS client configuration. Never read from yaml; it is set
	// during Open or injected by tests.
	AWSConfig *aws.Config `yaml:"-"`
}
