package storage

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// TestS3Storage exercises the S3 backend against a real (or
// S3-compatible, e.g. MinIO) bucket. It's skipped unless the test
// environment is configured, since it needs live network access and
// credentials this package can't fabricate.
func TestS3Storage(t *testing.T) {
	bucket := os.Getenv("GO_TEST_S3_BUCKET")
	if bucket == "" {
		t.Skip("env GO_TEST_S3_BUCKET not set")
	}
	s3, err := NewS3Storage(&StorageOptions{
		Type:            "s3",
		Endpoint:        os.Getenv("GO_TEST_S3_ENDPOINT"),
		Region:          os.Getenv("GO_TEST_S3_REGION"),
		Bucket:          bucket,
		AccessKeyID:     os.Getenv("GO_TEST_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("GO_TEST_S3_SECRET_ACCESS_KEY"),
	})
	if err != nil {
		t.Fatal(err)
	}

	dirname := os.Getenv("GO_TEST_S3_ROOTDIR")
	if dirname == "" {
		dirname = "test"
	}

	// clean up from any previous run
	_, err = s3.DeleteAll(dirname + "/")
	if err != nil {
		t.Fatal(err)
	}

	if err := s3.Put(dirname+"/hello.txt", bytes.NewReader([]byte("Hello, world!"))); err != nil {
		t.Fatal(err)
	}
	if err := s3.Put(dirname+"/foo/bar.txt", bytes.NewBufferString("foobar~")); err != nil {
		t.Fatal(err)
	}

	keys, err := s3.List(dirname + "/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("invalid keys length(%d), expected 2", len(keys))
	}

	stat, err := s3.Stat(dirname + "/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if stat.Size() != 13 {
		t.Fatalf("invalid size(%d), expected 13", stat.Size())
	}

	r, stat, err := s3.Get(dirname + "/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if stat.Size() != 13 {
		t.Fatalf("invalid size(%d), expected 13", stat.Size())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Hello, world!" {
		t.Fatalf("invalid content(%s), expected 'Hello, world!'", string(data))
	}

	if err := s3.Delete(dirname + "/hello.txt"); err != nil {
		t.Fatal(err)
	}

	if _, err := s3.Stat(dirname + "/hello.txt"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}

	deleted, err := s3.DeleteAll(dirname + "/")
	if err != nil {
		t.Fatal(err)
	}
	if len(deleted) != 1 {
		t.Fatalf("invalid deleted keys length(%d), expected 1", len(deleted))
	}
}
