package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"Fpublisher/internal/types"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int32
	data  []byte
	ct    string
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &Fetched{Data: f.data, ContentType: f.ct}, nil
}

func TestResolver_InlineSkipsFetch(t *testing.T) {
	f := &countingFetcher{}
	r := NewResolver(f)
	inline := &types.File{Name: "a.mp4", Data: []byte("x")}

	got, err := r.Resolve(context.Background(), &types.MediaRef{SourceURL: "https://x/a.mp4", Inline: inline}, KindVideo)
	require.NoError(t, err)
	assert.Same(t, inline, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.calls))
}

func TestResolver_FetchOnce(t *testing.T) {
	f := &countingFetcher{data: []byte("video")}
	r := NewResolver(f)
	ref := &types.MediaRef{SourceURL: "https://cdn.example.com/v/clip.MP4", FileName: "我的视频.MP4"}

	first, err := r.Resolve(context.Background(), ref, KindVideo)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), ref, KindVideo)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))
	assert.Same(t, first, second)
	assert.Equal(t, "我的视频.mp4", first.Name)
	assert.Equal(t, "video/mp4", first.MimeType)
	assert.Equal(t, []byte("video"), first.Data)
}

func TestResolver_FetchFailure(t *testing.T) {
	r := NewResolver(&countingFetcher{err: errors.New("connection refused")})
	_, err := r.Resolve(context.Background(), &types.MediaRef{SourceURL: "https://down/v.mp4"}, KindVideo)
	assert.ErrorIs(t, err, types.ErrFetchFailure)
	assert.Equal(t, types.KindFetchFailure, types.KindOf(err))
}

func TestResolver_MissingRef(t *testing.T) {
	r := NewResolver(&countingFetcher{})
	_, err := r.Resolve(context.Background(), nil, KindVideo)
	assert.ErrorIs(t, err, types.ErrMissingInput)
}

func TestResolver_ImageMime(t *testing.T) {
	ctx := context.Background()

	r := NewResolver(&countingFetcher{data: []byte("png"), ct: "image/png; charset=binary"})
	got, err := r.Resolve(ctx, &types.MediaRef{SourceURL: "https://x/cover"}, KindImage)
	require.NoError(t, err)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Equal(t, "cover.jpg", got.Name)

	r = NewResolver(&countingFetcher{data: []byte("?"), ct: "application/octet-stream"})
	got, err = r.Resolve(ctx, &types.MediaRef{SourceURL: "https://x/c.PNG", MimeType: "image/webp"}, KindImage)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", got.MimeType)
	assert.Equal(t, "c.png", got.Name)

	got, err = NewResolver(&countingFetcher{}).Resolve(ctx, &types.MediaRef{SourceURL: "https://x/c.jpg"}, KindImage)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", got.MimeType)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		ref  types.MediaRef
		kind Kind
		want string
	}{
		{"keeps_base", types.MediaRef{FileName: "clip.MOV"}, KindVideo, "clip.mov"},
		{"default_video_ext", types.MediaRef{FileName: "clip"}, KindVideo, "clip.mp4"},
		{"default_image_ext", types.MediaRef{FileName: "cover"}, KindImage, "cover.jpg"},
		{"strips_dir", types.MediaRef{FileName: `C:\videos\a.mp4`}, KindVideo, "a.mp4"},
		{"from_url", types.MediaRef{SourceURL: "https://x/y/z.webm?sig=1"}, KindVideo, "z.webm"},
		{"blob_url", types.MediaRef{SourceURL: "blob:https://x/uuid"}, KindVideo, "video.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(&tt.ref, tt.kind))
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)

	got, err := f.Fetch(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got.Data)
	assert.Equal(t, "image/png", got.ContentType)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.mp4")
	require.NoError(t, os.WriteFile(p, []byte("local"), 0644))

	r := NewRouter(time.Second)
	got, err := r.Fetch(context.Background(), "file://"+filepath.ToSlash(p))
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), got.Data)

	_, err = r.Fetch(context.Background(), "blob:https://x/1")
	assert.Error(t, err)

	withBlob := r.With("blob", FetcherFunc(func(ctx context.Context, rawURL string) (*Fetched, error) {
		return &Fetched{Data: []byte("blob")}, nil
	}))
	got, err = withBlob.Fetch(context.Background(), "blob:https://x/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got.Data)

	_, err = r.Fetch(context.Background(), "blob:https://x/1")
	assert.Error(t, err, "With 不修改原路由")
}

type fakeS3 struct {
	bucket, key string
}

func (f *fakeS3) GetObject(ctx context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	ct := "video/mp4"
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("s3"))), ContentType: &ct}, nil
}

func TestS3Fetcher(t *testing.T) {
	api := &fakeS3{}
	f := NewS3Fetcher(api)

	got, err := f.Fetch(context.Background(), "s3://media-bucket/videos/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "media-bucket", api.bucket)
	assert.Equal(t, "videos/a.mp4", api.key)
	assert.Equal(t, []byte("s3"), got.Data)
	assert.Equal(t, "video/mp4", got.ContentType)

	_, err = f.Fetch(context.Background(), "s3://bucket-only")
	assert.Error(t, err)
}
