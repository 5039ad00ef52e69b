package blob

import (
	"context"
	"errors"
	"os"
	"testing"

	"qualtrack/internal/ports"
)

func TestNewMinioStoreRequiresEndpointAndBucket(t *testing.T) {
	if _, err := NewMinioStore(MinioConfig{Bucket: "attachments"}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
	if _, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestMinioObjectNamePrefix(t *testing.T) {
	store, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "attachments", Prefix: "/qualtrack/"})
	if err != nil {
		t.Fatalf("NewMinioStore() error = %v", err)
	}
	if got := store.objectName("phase/12/abc.pdf"); got != "qualtrack/phase/12/abc.pdf" {
		t.Fatalf("objectName() = %q", got)
	}

	bare, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "attachments"})
	if err != nil {
		t.Fatalf("NewMinioStore() error = %v", err)
	}
	if got := bare.objectName("abc.pdf"); got != "abc.pdf" {
		t.Fatalf("objectName() without prefix = %q", got)
	}
}

// Needs a live server: QT_TEST_MINIO_ENDPOINT, QT_TEST_MINIO_ACCESS_KEY, QT_TEST_MINIO_SECRET_KEY.
func TestMinioStoreRoundTrip(t *testing.T) {
	endpoint := os.Getenv("QT_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("QT_TEST_MINIO_ENDPOINT not set")
	}
	ctx := context.Background()
	store, err := NewMinioStore(MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("QT_TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("QT_TEST_MINIO_SECRET_KEY"),
		Bucket:    "qualtrack-test",
		Prefix:    "it",
	})
	if err != nil {
		t.Fatalf("NewMinioStore() error = %v", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket() error = %v", err)
	}

	if err := store.Put(ctx, "round-trip.txt", []byte("IQ protocol"), "text/plain"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	data, err := store.Get(ctx, "round-trip.txt")
	if err != nil || string(data) != "IQ protocol" {
		t.Fatalf("Get() = %q err=%v", data, err)
	}
	if err := store.Delete(ctx, "round-trip.txt"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "round-trip.txt"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want not found", err)
	}
}
