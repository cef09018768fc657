package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"agroproposals/internal/storage"
	"agroproposals/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"
)

func loadConfig(prefix string) (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process(prefix, c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	if strings.TrimSpace(c.StorageBucket) == "" {
		return nil, fmt.Errorf("set STORAGE_BUCKET")
	}

	switch c.StorageBackend {
	case types.StorageBackendS3, types.StorageBackendMemory:
	case types.StorageBackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAPIKey == "" {
			return nil, fmt.Errorf("set SUPABASE_URL and SUPABASE_API_KEY for the supabase storage backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q, use s3, supabase or memory", c.StorageBackend)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	c.PublicURL = strings.TrimRight(c.PublicURL, "/")

	return c, nil
}

// validateServeConfig checks the settings only the HTTP server needs.
func validateServeConfig(c *types.Config) error {
	if c.CognitoClientID == "" || c.CognitoIssuerURL == "" {
		return fmt.Errorf("set COGNITO_CLIENT_ID and COGNITO_ISSUER_URL")
	}

	if c.CookieHashKey == "" || c.CookieBlockKey == "" {
		return fmt.Errorf("set COOKIE_HASH_KEY and COOKIE_BLOCK_KEY")
	}

	return nil
}

func loadAWSConfig(ctx context.Context, c *types.Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if c.S3AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.S3AccessKeyID, c.S3SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return awsConfig, nil
}

func newS3Client(awsConfig aws.Config, c *types.Config) *s3.Client {
	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
		}
		o.UsePathStyle = c.S3UsePathStyle
	})
}

// s3PublicBaseURL is the origin public object URLs are built on.
func s3PublicBaseURL(c *types.Config, region string) string {
	switch {
	case c.S3PublicBaseURL != "":
		return c.S3PublicBaseURL
	case c.S3Endpoint != "":
		return c.S3Endpoint
	default:
		return fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}
}

// buildStorage picks the configured backend. The returned handler is non nil
// only when stored objects have to be served by this process.
func buildStorage(ctx context.Context, c *types.Config) (storage.Backend, http.Handler, error) {
	switch c.StorageBackend {
	case types.StorageBackendSupabase:
		return storage.NewSupabaseBackend(c.SupabaseURL, c.SupabaseAPIKey, c.StorageBucket), nil, nil
	case types.StorageBackendMemory:
		backend := storage.NewMemoryBackend(c.StorageBucket, c.PublicURL+"/files")
		return backend, backend, nil
	default:
		awsConfig, err := loadAWSConfig(ctx, c)
		if err != nil {
			return nil, nil, err
		}

		client := newS3Client(awsConfig, c)
		return storage.NewS3Backend(client, c.StorageBucket, s3PublicBaseURL(c, awsConfig.Region)), nil, nil
	}
}
