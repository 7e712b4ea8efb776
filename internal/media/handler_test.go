package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVideo(t *testing.T) (string, []byte) {
	t.Helper()
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "tutorial.mp4")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(h http.Handler, method, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/video", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerFullFile(t *testing.T) {
	path, data := testVideo(t)
	h := NewHandler(FileSource{Path: path}, discardLogger())

	rec := serve(h, http.MethodGet, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Empty(t, rec.Header().Get("Content-Range"))
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestHandlerPartial(t *testing.T) {
	path, data := testVideo(t)
	h := NewHandler(FileSource{Path: path}, discardLogger())

	tests := []struct {
		header     string
		wantRange  string
		wantLength string
		start, end int
	}{
		{"bytes=0-99", "bytes 0-99/1000", "100", 0, 99},
		{"bytes=950-", "bytes 950-999/1000", "50", 950, 999},
		{"bytes=-10", "bytes 990-999/1000", "10", 990, 999},
		{"bytes=900-4000", "bytes 900-999/1000", "100", 900, 999},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			rec := serve(h, http.MethodGet, tt.header)
			require.Equal(t, http.StatusPartialContent, rec.Code)
			assert.Equal(t, tt.wantRange, rec.Header().Get("Content-Range"))
			assert.Equal(t, tt.wantLength, rec.Header().Get("Content-Length"))
			assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
			assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
			assert.Equal(t, data[tt.start:tt.end+1], rec.Body.Bytes())
		})
	}
}

func TestHandlerUnsatisfiable(t *testing.T) {
	path, _ := testVideo(t)
	h := NewHandler(FileSource{Path: path}, discardLogger())

	for _, header := range []string{"bytes=1000-", "bytes=5-1", "bytes=a-b", "bytes=0-1,4-5"} {
		rec := serve(h, http.MethodGet, header)
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code, header)
		assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"), header)
	}
}

func TestHandlerHead(t *testing.T) {
	path, _ := testVideo(t)
	h := NewHandler(FileSource{Path: path}, discardLogger())

	rec := serve(h, http.MethodHead, "bytes=0-9")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Zero(t, rec.Body.Len())
}

func TestHandlerMissingFile(t *testing.T) {
	h := NewHandler(FileSource{Path: filepath.Join(t.TempDir(), "missing.mp4")}, discardLogger())

	rec := serve(h, http.MethodGet, "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error loading video", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "missing.mp4")
}

type fakeS3 struct {
	data    []byte
	headErr error
	ranges  []string
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(f.data)))}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	rng := aws.ToString(in.Range)
	f.ranges = append(f.ranges, rng)
	var start, end int
	if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &start, &end); err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.data[start : end+1]))}, nil
}

func TestHandlerS3Source(t *testing.T) {
	_, data := testVideo(t)
	client := &fakeS3{data: data}
	h := NewHandler(NewS3Source(client, "media", "videos/tutorial.mp4"), discardLogger())

	rec := serve(h, http.MethodGet, "bytes=100-199")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, data[100:200], rec.Body.Bytes())
	assert.Equal(t, []string{"bytes=100-199"}, client.ranges)

	rec = serve(h, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestHandlerS3Failure(t *testing.T) {
	h := NewHandler(NewS3Source(&fakeS3{headErr: errors.New("access denied")}, "media", "v.mp4"), discardLogger())

	rec := serve(h, http.MethodGet, "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error loading video", rec.Body.String())
}

// slowSource trickles its bytes out in small chunks.
type slowSource struct {
	data  []byte
	chunk int
	delay time.Duration
}

func (s slowSource) Size(context.Context) (int64, error) { return int64(len(s.data)), nil }

func (s slowSource) ReadRange(_ context.Context, start, end int64) (io.ReadCloser, error) {
	return io.NopCloser(&slowReader{data: s.data[start : end+1], chunk: s.chunk, delay: s.delay}), nil
}

type slowReader struct {
	data  []byte
	chunk int
	delay time.Duration
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	time.Sleep(r.delay)
	n := min(len(p), r.chunk, len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestHandlerStreamsPastWriteTimeout(t *testing.T) {
	data := bytes.Repeat([]byte("santa"), 40<<10)
	src := slowSource{data: data, chunk: 16 << 10, delay: 30 * time.Millisecond}

	ts := httptest.NewUnstartedServer(NewHandler(src, discardLogger()))
	ts.Config.WriteTimeout = 100 * time.Millisecond
	ts.Start()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/video")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, len(data), len(body))
}
