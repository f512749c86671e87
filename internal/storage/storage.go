// Package storage implements the Bundle Orchestrator's Emitting stage
// (spec §4.7): a filesystem backend and an S3 backend behind one
// Storage interface, so the orchestrator never branches on which one
// a run is configured with.
package storage

import (
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Stat and Get for a key that doesn't exist.
var ErrNotFound = errors.New("storage: not found")

// Stat is the subset of file metadata a backend can report.
type Stat interface {
	Size() int64
	ModTime() time.Time
}

// StorageOptions configures either backend; which fields apply depends
// on Type.
type StorageOptions struct {
	Type            string // "fs" or "s3"
	Endpoint        string // fs: root directory. s3: "https://bucket.s3.region.amazonaws.com" or custom endpoint
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	CacheDir        string
}

// Storage is the destination the orchestrator's Emitting stage writes
// bundled output and copied assets through.
type Storage interface {
	Stat(key string) (Stat, error)
	Get(key string) (io.ReadCloser, Stat, error)
	Put(key string, content io.Reader) error
	Delete(key string) error
	DeleteAll(prefix string) ([]string, error)
	List(prefix string) ([]string, error)
	// Clear removes everything previously written to this destination.
	// The orchestrator calls it once at the start of the Emitting
	// state, before writing this run's output (spec §4.6 State
	// machine: "the output directory is removed before emission
	// begins").
	Clear() error
}

// New builds the Storage backend named by options.Type.
func New(options *StorageOptions) (Storage, error) {
	switch options.Type {
	case "s3":
		return NewS3Storage(options)
	default:
		return NewFSStorage(options)
	}
}
