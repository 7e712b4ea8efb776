// Package backup takes encrypted snapshots of the SQLite store and ships them
// to S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/santaswishlist/internal/database"
)

const keyPrefix = "snapshots/"

// ErrUnsupported is returned when snapshotting a non-SQLite database.
var ErrUnsupported = errors.New("backup: snapshots require a sqlite database")

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Object describes a stored snapshot.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type Manager struct {
	client     s3Client
	bucket     string
	passphrase string
	logger     *slog.Logger
	now        func() time.Time
}

func NewManager(client s3Client, bucket, passphrase string, logger *slog.Logger) *Manager {
	return &Manager{
		client:     client,
		bucket:     bucket,
		passphrase: passphrase,
		logger:     logger.With("component", "backup"),
		now:        time.Now,
	}
}

// Snapshot copies db with VACUUM INTO, encrypts the copy and uploads it.
// It returns the object key.
func (m *Manager) Snapshot(ctx context.Context, db *database.DB) (string, error) {
	if db.Dialect != database.SQLite {
		return "", ErrUnsupported
	}

	tmpDir, err := os.MkdirTemp("", "santaswishlist-snapshot-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbCopy := filepath.Join(tmpDir, "snapshot.db")
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dbCopy); err != nil {
		return "", fmt.Errorf("vacuum into: %w", err)
	}

	plaintext, err := os.ReadFile(dbCopy)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Seal(plaintext, m.passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	key := keyPrefix + "santaswishlist-" + m.now().UTC().Format("2006-01-02T150405Z") + ".db.enc"
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	m.logger.Info("snapshot uploaded", "key", key, "bytes", len(sealed))
	return key, nil
}

// List returns stored snapshots, newest first.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	var token *string
	for {
		out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.bucket),
			Prefix:            aws.String(keyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, o := range out.Contents {
			obj := Object{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
			if o.LastModified != nil {
				obj.LastModified = *o.LastModified
			}
			objects = append(objects, obj)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

// Restore downloads and decrypts the snapshot at key, checks its integrity
// and writes it to dstPath. dstPath must not be open by a running server.
func (m *Manager) Restore(ctx context.Context, key, dstPath string) error {
	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}
	plaintext, err := Open(sealed, m.passphrase)
	if err != nil {
		return err
	}

	tmp := dstPath + ".restore"
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(tmp)

	if err := checkIntegrity(ctx, tmp); err != nil {
		return err
	}

	if err := os.Rename(tmp, dstPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dstPath + "-wal")
	os.Remove(dstPath + "-shm")

	m.logger.Info("snapshot restored", "key", key, "path", dstPath)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}
	return nil
}
