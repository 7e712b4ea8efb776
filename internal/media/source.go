package media

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source is a single immutable media object. Each call goes back to the
// underlying storage.
type Source interface {
	Size(ctx context.Context) (int64, error)
	// ReadRange returns bytes start..end inclusive.
	ReadRange(ctx context.Context, start, end int64) (io.ReadCloser, error)
}

// FileSource serves a file from local disk.
type FileSource struct {
	Path string
}

func (s FileSource) Size(ctx context.Context) (int64, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", s.Path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("stat %s: is a directory", s.Path)
	}
	return info.Size(), nil
}

func (s FileSource) ReadRange(ctx context.Context, start, end int64) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s: %w", s.Path, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(f, end-start+1), f}, nil
}

type s3Client interface {
	HeadObject(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source serves an object from S3-compatible storage.
type S3Source struct {
	client s3Client
	bucket string
	key    string
}

func NewS3Source(client s3Client, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

func (s *S3Source) Size(ctx context.Context) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return 0, fmt.Errorf("head s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

func (s *S3Source) ReadRange(ctx context.Context, start, end int64) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return out.Body, nil
}
