package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"agroproposals/internal/codec"
	"agroproposals/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBucket  = "proposals"
	testBaseURL = "http://files.test"
	ownerA      = "owner-a"
	ownerB      = "owner-b"
)

var samplePDF = []byte("%PDF-1.3\n%fake body\n%%EOF")

// flakyBackend fails removals but otherwise behaves like the memory backend.
type flakyBackend struct {
	*MemoryBackend
	removeErr error
	uploadErr error
	removed   []string
}

func (f *flakyBackend) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	return f.MemoryBackend.Upload(ctx, key, data, contentType)
}

func (f *flakyBackend) Remove(ctx context.Context, keys ...string) error {
	f.removed = append(f.removed, keys...)
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.MemoryBackend.Remove(ctx, keys...)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestGateway() (*Gateway, *flakyBackend) {
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend(testBucket, testBaseURL)}
	return NewGateway(backend, testBucket, quietLogger()), backend
}

func TestPut(t *testing.T) {
	gw, backend := newTestGateway()

	url, err := gw.Put(context.Background(), ownerA, "jane-doe-1.pdf", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/proposals/owner-a/jane-doe-1.pdf", url)

	got, ok := backend.Object("owner-a/jane-doe-1.pdf")
	require.True(t, ok)
	assert.Equal(t, samplePDF, got)
}

func TestPutOverwrites(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	_, err := gw.Put(ctx, ownerA, "same.pdf", samplePDF)
	require.NoError(t, err)

	second := []byte("%PDF-1.7 second")
	_, err = gw.Put(ctx, ownerA, "same.pdf", second)
	require.NoError(t, err)

	got, _ := backend.Object("owner-a/same.pdf")
	assert.Equal(t, second, got)
	assert.Equal(t, 1, backend.Len())
}

func TestPutKeepsCallerInsideOwnPrefix(t *testing.T) {
	gw, backend := newTestGateway()

	url, err := gw.Put(context.Background(), ownerA, "../owner-b/evil.pdf", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/proposals/owner-a/evil.pdf", url)

	_, ok := backend.Object("owner-b/evil.pdf")
	assert.False(t, ok)
}

func TestPutErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not authenticated", func(t *testing.T) {
		gw, backend := newTestGateway()
		_, err := gw.Put(ctx, "", "a.pdf", samplePDF)
		assert.ErrorIs(t, err, types.ErrNotAuthenticated)
		assert.Zero(t, backend.Len())
	})

	t.Run("not a pdf", func(t *testing.T) {
		gw, backend := newTestGateway()
		_, err := gw.Put(ctx, ownerA, "a.pdf", []byte("<html>"))
		assert.ErrorIs(t, err, types.ErrInvalidContent)
		assert.Zero(t, backend.Len())
	})

	t.Run("empty file name", func(t *testing.T) {
		gw, _ := newTestGateway()
		_, err := gw.Put(ctx, ownerA, "", samplePDF)
		assert.ErrorIs(t, err, types.ErrInvalidReference)
	})

	t.Run("upstream failure", func(t *testing.T) {
		gw, backend := newTestGateway()
		backend.uploadErr = errors.New("connection reset")

		_, err := gw.Put(ctx, ownerA, "a.pdf", samplePDF)
		var upstream *types.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Contains(t, upstream.Op, "owner-a/a.pdf")
	})
}

func TestPutEncoded(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	url, err := gw.PutEncoded(ctx, ownerA, "a.pdf", codec.EncodeDataURL("application/pdf", samplePDF))
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/proposals/owner-a/a.pdf", url)

	got, _ := backend.Object("owner-a/a.pdf")
	assert.Equal(t, samplePDF, got)

	_, err = gw.PutEncoded(ctx, ownerA, "b.pdf", "!!not-base64!!")
	assert.ErrorIs(t, err, types.ErrInvalidContent)

	_, err = gw.PutEncoded(ctx, ownerA, "c.pdf", codec.Encode([]byte("PK\x03\x04zip")))
	assert.ErrorIs(t, err, types.ErrInvalidContent)
}

func TestReplaceOwnedOldURL(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	oldURL, err := gw.Put(ctx, ownerA, "old.pdf", samplePDF)
	require.NoError(t, err)

	newPDF := []byte("%PDF-1.4 new")
	newURL, err := gw.Replace(ctx, ownerA, "new.pdf", newPDF, oldURL)
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/proposals/owner-a/new.pdf", newURL)

	_, ok := backend.Object("owner-a/old.pdf")
	assert.False(t, ok, "old object must be gone")

	got, ok := backend.Object("owner-a/new.pdf")
	require.True(t, ok)
	assert.Equal(t, newPDF, got)
}

func TestReplaceForeignOldURLLeavesItAlone(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	foreignURL, err := gw.Put(ctx, ownerB, "theirs.pdf", samplePDF)
	require.NoError(t, err)

	_, err = gw.Replace(ctx, ownerA, "mine.pdf", samplePDF, foreignURL)
	require.NoError(t, err)

	_, ok := backend.Object("owner-b/theirs.pdf")
	assert.True(t, ok, "foreign object must survive")
	_, ok = backend.Object("owner-a/mine.pdf")
	assert.True(t, ok)
	assert.Empty(t, backend.removed)
}

func TestReplaceSkipsUnparsableOrTraversingOldURL(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	for _, oldURL := range []string{
		"",
		"https://elsewhere.test/file.pdf",
		"http://files.test/proposals/owner-a/../owner-b/theirs.pdf",
	} {
		_, err := gw.Replace(ctx, ownerA, "mine.pdf", samplePDF, oldURL)
		require.NoError(t, err, oldURL)
	}

	assert.Empty(t, backend.removed)
}

func TestReplaceIgnoresRemoveFailure(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	oldURL, err := gw.Put(ctx, ownerA, "old.pdf", samplePDF)
	require.NoError(t, err)

	backend.removeErr = errors.New("storage unavailable")

	url, err := gw.Replace(ctx, ownerA, "new.pdf", samplePDF, oldURL)
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/proposals/owner-a/new.pdf", url)
	assert.Equal(t, []string{"owner-a/old.pdf"}, backend.removed)
}

func TestReplaceRejectsInvalidContentBeforeRemoving(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	oldURL, err := gw.Put(ctx, ownerA, "old.pdf", samplePDF)
	require.NoError(t, err)

	_, err = gw.Replace(ctx, ownerA, "new.pdf", []byte("nope"), oldURL)
	assert.ErrorIs(t, err, types.ErrInvalidContent)

	_, ok := backend.Object("owner-a/old.pdf")
	assert.True(t, ok)
}

func TestReplaceEncoded(t *testing.T) {
	gw, backend := newTestGateway()
	ctx := context.Background()

	oldURL, err := gw.Put(ctx, ownerA, "old.pdf", samplePDF)
	require.NoError(t, err)

	_, err = gw.ReplaceEncoded(ctx, ownerA, "new.pdf", codec.Encode(samplePDF), oldURL)
	require.NoError(t, err)

	_, ok := backend.Object("owner-a/old.pdf")
	assert.False(t, ok)

	_, err = gw.ReplaceEncoded(ctx, "", "new.pdf", codec.Encode(samplePDF), oldURL)
	assert.ErrorIs(t, err, types.ErrNotAuthenticated)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("owned", func(t *testing.T) {
		gw, backend := newTestGateway()
		url, err := gw.Put(ctx, ownerA, "a.pdf", samplePDF)
		require.NoError(t, err)

		require.NoError(t, gw.Remove(ctx, ownerA, url))
		assert.Zero(t, backend.Len())
	})

	t.Run("other owner", func(t *testing.T) {
		gw, backend := newTestGateway()
		url, err := gw.Put(ctx, ownerB, "b.pdf", samplePDF)
		require.NoError(t, err)

		err = gw.Remove(ctx, ownerA, url)
		assert.ErrorIs(t, err, types.ErrUnauthorized)
		assert.Equal(t, 1, backend.Len())
	})

	t.Run("owner id is only a prefix of another owner", func(t *testing.T) {
		gw, _ := newTestGateway()
		url, err := gw.Put(ctx, "owner-a2", "b.pdf", samplePDF)
		require.NoError(t, err)

		assert.ErrorIs(t, gw.Remove(ctx, ownerA, url), types.ErrUnauthorized)
	})

	t.Run("no bucket path", func(t *testing.T) {
		gw, _ := newTestGateway()
		err := gw.Remove(ctx, ownerA, "https://example.com/something.pdf")
		assert.ErrorIs(t, err, types.ErrInvalidReference)
	})

	t.Run("not authenticated", func(t *testing.T) {
		gw, _ := newTestGateway()
		err := gw.Remove(ctx, "", "http://files.test/proposals/owner-a/a.pdf")
		assert.ErrorIs(t, err, types.ErrNotAuthenticated)
	})

	t.Run("upstream failure", func(t *testing.T) {
		gw, backend := newTestGateway()
		backend.removeErr = errors.New("boom")

		err := gw.Remove(ctx, ownerA, "http://files.test/proposals/owner-a/a.pdf")
		var upstream *types.UpstreamError
		assert.ErrorAs(t, err, &upstream)
	})
}

func TestKeyFromURL(t *testing.T) {
	gw, _ := newTestGateway()

	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{url: "http://files.test/proposals/owner-a/a.pdf", want: "owner-a/a.pdf", wantOK: true},
		{url: "https://x.supabase.co/storage/v1/object/public/proposals/u1/f.pdf?download=1", want: "u1/f.pdf", wantOK: true},
		{url: "http://files.test/proposals/", wantOK: false},
		{url: "http://files.test/other/u1/f.pdf", wantOK: false},
		{url: "http://files.test/myproposals/u1/f.pdf", wantOK: false},
		{url: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := gw.KeyFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyFromURLBucketNamedLikeAPathSegment(t *testing.T) {
	supabase := NewGateway(NewSupabaseBackend("https://x.supabase.co", "key", "public"), "public", quietLogger())

	got, ok := supabase.KeyFromURL(supabase.ResolveURL("owner-a/a.pdf"))
	require.True(t, ok)
	assert.Equal(t, "owner-a/a.pdf", got)

	s3 := NewGateway(NewS3Backend(nil, "v1", "https://cdn.test/v1"), "v1", quietLogger())

	got, ok = s3.KeyFromURL("https://cdn.test/v1/v1/owner-a/a.pdf")
	require.True(t, ok)
	assert.Equal(t, "owner-a/a.pdf", got)
}

func TestOwnerManagesObjectsInBucketNamedLikeAPathSegment(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend("public", "http://files.test/public")}
	gw := NewGateway(backend, "public", quietLogger())
	ctx := context.Background()

	oldURL, err := gw.Put(ctx, ownerA, "old.pdf", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/public/public/owner-a/old.pdf", oldURL)

	newURL, err := gw.Replace(ctx, ownerA, "new.pdf", samplePDF, oldURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner-a/old.pdf"}, backend.removed)
	_, ok := backend.Object("owner-a/old.pdf")
	assert.False(t, ok, "previous pdf should be removed")

	require.NoError(t, gw.Remove(ctx, ownerA, newURL))
	assert.Equal(t, 0, backend.Len())
}

func TestResolveURL(t *testing.T) {
	gw, _ := newTestGateway()
	assert.Equal(t, "http://files.test/proposals/u1/f.pdf", gw.ResolveURL("u1/f.pdf"))
	assert.Equal(t, "http://files.test/proposals/u1/f.pdf", gw.ResolveURL("/u1/f.pdf"))
}
