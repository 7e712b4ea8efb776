// Package objectstore builds clients for S3-compatible storage.
package objectstore

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// NewClient returns a path-style client, which works against AWS as well as
// MinIO, R2 and Backblaze endpoints.
func NewClient(cfg Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}
