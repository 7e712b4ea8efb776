package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/model"
	"github.com/dukerupert/santaswishlist/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(input.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(m.objects[k]))),
		})
	}
	return out, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedDB opens a file-backed database holding one wishlist.
func seedDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "live.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	u, err := store.NewUserStore(db).Create(ctx, "parent@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	err = store.NewWishlistStore(db).Create(ctx, &model.Wishlist{
		ID:         "wishlist_abc_1",
		FamilyName: "The Smiths",
		Children:   []string{"Emma"},
		CreatedAt:  time.Now().UTC(),
		UserID:     u.ID,
		UserEmail:  u.Email,
	})
	if err != nil {
		t.Fatalf("create wishlist: %v", err)
	}
	return db
}

func TestSnapshotAndRestore(t *testing.T) {
	ctx := context.Background()
	db := seedDB(t)
	mock := newMockS3()
	m := NewManager(mock, "backups", "sleigh-bells", testLogger())
	m.now = func() time.Time { return time.Date(2025, 12, 24, 23, 0, 0, 0, time.UTC) }

	key, err := m.Snapshot(ctx, db)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if key != "snapshots/santaswishlist-2025-12-24T230000Z.db.enc" {
		t.Errorf("key = %q", key)
	}
	if bytes.HasPrefix(mock.objects[key], []byte("SQLite format 3")) {
		t.Error("uploaded object is not encrypted")
	}

	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(ctx, key, dst); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := database.Open(dst)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	defer restored.Close()

	w, err := store.NewWishlistStore(restored).GetByID(ctx, "wishlist_abc_1")
	if err != nil {
		t.Fatalf("get wishlist: %v", err)
	}
	if w == nil || w.FamilyName != "The Smiths" {
		t.Errorf("restored wishlist = %+v", w)
	}
	if _, err := os.Stat(dst + ".restore"); !os.IsNotExist(err) {
		t.Error("temp restore file left behind")
	}
}

func TestRestoreWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	key, err := NewManager(mock, "b", "right", testLogger()).Snapshot(ctx, seedDB(t))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := NewManager(mock, "b", "wrong", testLogger()).Restore(ctx, key, dst); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should not be written on failure")
	}
}

func TestRestoreRejectsCorruptDatabase(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	sealed, err := Seal([]byte("definitely not a sqlite file, just some padding bytes"), "pass")
	if err != nil {
		t.Fatal(err)
	}
	mock.objects["snapshots/bad.db.enc"] = sealed

	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := NewManager(mock, "b", "pass", testLogger()).Restore(ctx, "snapshots/bad.db.enc", dst); err == nil {
		t.Fatal("expected integrity error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should not be written on failure")
	}
}

func TestRestoreMissingKey(t *testing.T) {
	m := NewManager(newMockS3(), "b", "pass", testLogger())
	if err := m.Restore(context.Background(), "snapshots/nope", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("expected download error")
	}
}

func TestSnapshotUploadError(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("bucket gone")
	m := NewManager(mock, "b", "pass", testLogger())
	if _, err := m.Snapshot(context.Background(), seedDB(t)); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestSnapshotRequiresSQLite(t *testing.T) {
	m := NewManager(newMockS3(), "b", "pass", testLogger())
	_, err := m.Snapshot(context.Background(), &database.DB{Dialect: database.Postgres})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	mock := newMockS3()
	mock.objects["snapshots/santaswishlist-2025-12-01T000000Z.db.enc"] = []byte("a")
	mock.objects["snapshots/santaswishlist-2025-12-24T000000Z.db.enc"] = []byte("bb")
	mock.objects["other/file"] = []byte("c")

	objs, err := NewManager(mock, "b", "pass", testLogger()).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("len = %d, want 2", len(objs))
	}
	if objs[0].Key != "snapshots/santaswishlist-2025-12-24T000000Z.db.enc" || objs[0].Size != 2 {
		t.Errorf("first = %+v", objs[0])
	}
}
