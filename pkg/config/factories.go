package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittoshare/internal/logger"
	"github.com/marmos91/dittoshare/pkg/share"
	shareBadger "github.com/marmos91/dittoshare/pkg/share/badger"
	shareMemory "github.com/marmos91/dittoshare/pkg/share/memory"
	shareS3 "github.com/marmos91/dittoshare/pkg/share/s3"
	"github.com/mitchellh/mapstructure"
)

// CreateShareStore creates a share store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration from
// the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": in-memory storage, ephemeral
//   - "badger": BadgerDB storage, persistent
//   - "s3": Amazon S3 or compatible object storage
func CreateShareStore(ctx context.Context, cfg *StoreConfig) (share.Store, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryShareStore(ctx)
	case "badger":
		return createBadgerShareStore(ctx, cfg.Badger)
	case "s3":
		return createS3ShareStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown share store type: %q (supported: memory, badger, s3)", cfg.Type)
	}
}

// createMemoryShareStore creates an in-memory share store.
func createMemoryShareStore(ctx context.Context) (share.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return shareMemory.NewMemoryShareStore(), nil
}

// createBadgerShareStore creates a BadgerDB-backed persistent share store.
func createBadgerShareStore(ctx context.Context, options map[string]any) (share.Store, error) {
	type BadgerShareStoreOptions struct {
		DBPath string `mapstructure:"db_path"`
	}

	var storeOpts BadgerShareStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger share store options: %w", err)
	}

	if storeOpts.DBPath == "" {
		return nil, fmt.Errorf("badger share store: db_path is required")
	}

	store, err := shareBadger.NewBadgerShareStore(ctx, shareBadger.BadgerShareStoreConfig{
		DBPath: storeOpts.DBPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger share store: %w", err)
	}

	return store, nil
}

// createS3ShareStore creates an S3-backed share store.
func createS3ShareStore(ctx context.Context, options map[string]any) (share.Store, error) {
	type S3ShareStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeOpts S3ShareStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 share store options: %w", err)
	}

	if storeOpts.Bucket == "" {
		return nil, fmt.Errorf("S3 share store: bucket is required")
	}
	if storeOpts.Region == "" {
		return nil, fmt.Errorf("S3 share store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeOpts.Region))

	// Custom endpoint support for MinIO, Localstack and other S3-compatible
	// services.
	if storeOpts.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeOpts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default credential chain.
	if storeOpts.AccessKeyID != "" && storeOpts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeOpts.AccessKeyID,
			storeOpts.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeOpts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Path-style addressing for compatibility with MinIO/Localstack
		if storeOpts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := shareS3.NewS3ShareStore(ctx, shareS3.S3ShareStoreConfig{
		Client:    client,
		Bucket:    storeOpts.Bucket,
		KeyPrefix: storeOpts.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 share store: %w", err)
	}

	logger.Info("S3 share store initialized: bucket=%s, region=%s, prefix=%s",
		storeOpts.Bucket, storeOpts.Region, storeOpts.KeyPrefix)

	return store, nil
}
