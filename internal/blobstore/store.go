// Package blobstore defines the minimal object-store contract the puller
// and coordinator consume, and the path convention layered above it:
// <env>/<framework>/<name>/<version>/model.tar.gz, with version 0 reserved
// for the priority overlay.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store methods when the referenced blob (or
// prefix) does not exist. Callers distinguish this from transient I/O
// errors, which are returned without ErrNotFound in their chain.
var ErrNotFound = errors.New("blobstore: not found")

// Descriptor identifies a single blob: its full path and the bucket it
// lives in.
type Descriptor struct {
	Bucket string
	Path   string
}

// Store is the full contract consumed by this module: list blobs under a
// prefix, download one to a local file, server-side copy one blob to a new
// path, and delete a batch of blobs.
type Store interface {
	List(ctx context.Context, prefix string) ([]Descriptor, error)
	Download(ctx context.Context, desc Descriptor, destFile string) error
	Copy(ctx context.Context, src Descriptor, dstPath string) error
	DeleteMany(ctx context.Context, descs []Descriptor) error
}
