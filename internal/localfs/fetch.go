package localfs

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// ErrDownloadFailed means a download completed without error but produced
// no file, so the remote could not be confirmed fetched.
var ErrDownloadFailed = errors.New("localfs: download produced no local file")

// Downloader is the subset of the blob store contract the fetch path
// needs: write the single blob for remote to destFile.
type Downloader interface {
	Download(ctx context.Context, remote model.RemoteRecord, destFile string) error
}

// FetchAndPublish downloads remote's artifact into a unique scratch
// directory under scratchRoot, extracts it with tar-sandbox filtering, and
// publishes it at its expected path under localRoot via a single rename.
// If the destination already exists by the time the rename is attempted,
// the fetch is abandoned in favor of whatever is already there (another
// pass won the race) rather than treated as an error. The scratch directory
// is always removed, on every exit path.
func FetchAndPublish(ctx context.Context, downloader Downloader, scratchRoot string, remote model.RemoteRecord, localRoot string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	tempDir := filepath.Join(scratchRoot, uuid.NewString())
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("localfs: creating scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Warn("localfs: failed to clean up scratch dir", "dir", tempDir, "error", err)
		}
	}()

	archivePath := filepath.Join(tempDir, "model.tar.gz")
	if err := downloader.Download(ctx, remote, archivePath); err != nil {
		return fmt.Errorf("localfs: downloading %s: %w", remote.RemotePath, err)
	}
	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("%w: %s", ErrDownloadFailed, remote.RemotePath)
	}

	extractDir := filepath.Join(tempDir, "untared_model")
	if err := extractTarGz(archivePath, extractDir, logger); err != nil {
		return fmt.Errorf("localfs: extracting %s: %w", remote.RemotePath, err)
	}

	finalPath := ExpectedLocalPath(localRoot, remote.Key, remote.Version)
	if _, err := os.Stat(finalPath); err == nil {
		logger.Info("localfs: target already published, abandoning fetch", "path", finalPath)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("localfs: preparing parent of %s: %w", finalPath, err)
	}

	if err := os.Rename(extractDir, finalPath); err != nil {
		if _, statErr := os.Stat(finalPath); statErr == nil {
			logger.Info("localfs: lost publish race, abandoning fetch", "path", finalPath)
			return nil
		}
		return fmt.Errorf("localfs: publishing %s: %w", finalPath, err)
	}
	return nil
}

// extractTarGz extracts a gzipped tar archive into dir, rejecting any
// member whose path is absolute or contains a ".." traversal segment.
// Rejected members are skipped, not fatal: extraction continues with the
// remaining safe members.
func extractTarGz(archivePath, dir string, logger *slog.Logger) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if !memberIsSafe(hdr.Name) {
			logger.Warn("localfs: rejected unsafe tar member", "name", hdr.Name)
			continue
		}

		target := filepath.Join(dir, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode&0o777))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		default:
			// symlinks, hardlinks, devices: not expected for model artifacts; skip.
		}
	}
}

// memberIsSafe rejects absolute paths and any path containing a ".."
// segment, matching the tar-extraction sandbox invariant.
func memberIsSafe(name string) bool {
	if name == "" {
		return false
	}
	cleaned := filepath.ToSlash(name)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
