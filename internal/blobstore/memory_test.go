package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_DownloadMissingIsNotFound(t *testing.T) {
	s := NewMemoryStore("bucket")
	err := s.Download(context.Background(), Descriptor{Path: "missing"}, filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DownloadWritesContent(t *testing.T) {
	s := NewMemoryStore("bucket")
	s.Put("prod/tensorflow/A/7/model.tar.gz", []byte("archive-bytes"))

	dest := filepath.Join(t.TempDir(), "out.tar.gz")
	require.NoError(t, s.Download(context.Background(), Descriptor{Path: "prod/tensorflow/A/7/model.tar.gz"}, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(data))
}

func TestMemoryStore_CopyThenList(t *testing.T) {
	s := NewMemoryStore("bucket")
	s.Put("prod/tensorflow/A/7/model.tar.gz", []byte("archive-bytes"))

	require.NoError(t, s.Copy(context.Background(), Descriptor{Path: "prod/tensorflow/A/7/model.tar.gz"}, "prod/tensorflow/A/0/model.tar.gz"))

	descs, err := s.List(context.Background(), "prod/tensorflow/A/")
	require.NoError(t, err)
	assert.Len(t, descs, 2)
}

func TestMemoryStore_DeleteMany(t *testing.T) {
	s := NewMemoryStore("bucket")
	s.Put("a", []byte("1"))
	s.Put("b", []byte("2"))

	require.NoError(t, s.DeleteMany(context.Background(), []Descriptor{{Path: "a"}}))

	descs, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, descs, 1)
	assert.Equal(t, "b", descs[0].Path)
}
