package awss3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// getAWSConfig resolves the AWS client configuration. Static credentials
// take precedence, then a named profile, then the default credential chain.
func getAWSConfig(cfg *Config) (*aws.Config, error) {
	ctx := context.Background()

	// If the access key and secret key are set, use them as static credentials
	if cfg.Auth != nil && cfg.Auth.AccessKey != "" && cfg.Auth.SecretKey != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.Auth.AccessKey, cfg.Auth.SecretKey, ""),
			),
		)
		if err != nil {
			return nil, err
		}
		return &awsCfg, nil
	}

	// Otherwise if we have a profile set, resolve the config with this profile
	if cfg.Profile != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithSharedConfigProfile(cfg.Profile),
		)
		if err != nil {
			return nil, err
		}
		return &awsCfg, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	return &awsCfg, nil
}
