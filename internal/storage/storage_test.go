package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ytframes/internal/config"
	"ytframes/internal/storage"
)

// fakeS3 answers the handful of requests the uploader makes.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	switch {
	case len(parts) == 1 || parts[1] == "":
		switch r.Method {
		case http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			f.buckets[bucket] = true
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+parts[1]] = body
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestNewDisabledReturnsNil(t *testing.T) {
	s, err := storage.New(config.Storage{})
	if err != nil || s != nil {
		t.Fatalf("expected nil storage when disabled, got %v %v", s, err)
	}
}

func TestUploadArchive(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	endpoint := strings.TrimPrefix(server.URL, "http://")
	s, err := storage.New(config.Storage{
		Enabled:   true,
		Endpoint:  endpoint,
		Bucket:    "datasets",
		AccessKey: "access",
		SecretKey: "secret",
		Prefix:    "/ytframes/",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := s.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if !fake.buckets["datasets"] {
		t.Fatal("expected bucket to be created")
	}

	archive := filepath.Join(t.TempDir(), "catdog.zip")
	if err := os.WriteFile(archive, []byte("zipdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	url, err := s.UploadArchive(ctx, archive)
	if err != nil {
		t.Fatalf("UploadArchive: %v", err)
	}
	if url != "http://"+endpoint+"/datasets/ytframes/catdog.zip" {
		t.Fatalf("unexpected url %q", url)
	}
	// Plain-HTTP uploads may use aws-chunked framing around the payload.
	if !strings.Contains(string(fake.objects["datasets/ytframes/catdog.zip"]), "zipdata") {
		t.Fatalf("unexpected stored objects %v", fake.objects)
	}
}

func TestObjectKeyWithoutPrefix(t *testing.T) {
	s, err := storage.New(config.Storage{Enabled: true, Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.ObjectKey("/data/archives/frames_dataset.zip"); got != "frames_dataset.zip" {
		t.Fatalf("ObjectKey = %q", got)
	}
}
