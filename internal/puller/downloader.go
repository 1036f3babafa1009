package puller

import (
	"context"
	"fmt"

	"github.com/vitaliisemenov/modelfleet/internal/blobstore"
	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// blobDownloader adapts a blobstore.Store to localfs.Downloader, resolving
// a RemoteRecord back to its blob Descriptor before downloading.
type blobDownloader struct {
	store blobstore.Store
	env   string
}

func (d *blobDownloader) Download(ctx context.Context, remote model.RemoteRecord, destFile string) error {
	desc := blobstore.Descriptor{Bucket: d.env, Path: remote.RemotePath}
	if err := d.store.Download(ctx, desc, destFile); err != nil {
		return fmt.Errorf("puller: downloading %s: %w", remote.RemotePath, err)
	}
	return nil
}
