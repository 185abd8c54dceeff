package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers path-style object requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.objects[path] = body
		f.types[path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[path])
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Store(context.Background(), S3Options{
		Bucket:    "orders",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3Store_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestS3(t)

	require.NoError(t, s.Put(ctx, "orders/u1/a.pdf", []byte("%PDF-1.4"), "application/pdf"))
	fake.mu.Lock()
	assert.Equal(t, []byte("%PDF-1.4"), fake.objects["/orders/orders/u1/a.pdf"], "path-style bucket prefix")
	assert.Equal(t, "application/pdf", fake.types["/orders/orders/u1/a.pdf"])
	fake.mu.Unlock()

	got, err := s.Get(ctx, "orders/u1/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), got)

	require.NoError(t, s.Delete(ctx, "orders/u1/a.pdf"))
	_, err = s.Get(ctx, "orders/u1/a.pdf")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_MissingKeyIsNotFound(t *testing.T) {
	s, _ := newTestS3(t)

	_, err := s.Get(context.Background(), "orders/nobody/none.pdf")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_ServerErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	t.Cleanup(srv.Close)
	s, err := NewS3Store(context.Background(), S3Options{
		Bucket: "orders", Region: "us-east-1", Endpoint: srv.URL, AccessKey: "test", SecretKey: "test",
	})
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "orders/u1/a.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "s3 get orders/u1/a.pdf")
}
