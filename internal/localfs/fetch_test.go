package localfs

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

type fakeDownloader struct {
	archive []byte
	fail    bool
}

func (d *fakeDownloader) Download(ctx context.Context, remote model.RemoteRecord, destFile string) error {
	if d.fail {
		return nil // simulates a download that "succeeds" but writes nothing
	}
	return os.WriteFile(destFile, d.archive, 0o644)
}

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func testRemote(version model.Version) model.RemoteRecord {
	key := model.RecordKey{Framework: "tensorflow", Name: "A"}
	return model.RemoteRecord{Record: model.NewRecord(key, version), RemotePath: "test/A/model.tar.gz"}
}

func TestFetchAndPublish_HappyPath(t *testing.T) {
	scratch := t.TempDir()
	localRoot := t.TempDir()
	archive := buildTarGz(t, map[string]string{"saved_model.pb": "contents"})

	err := FetchAndPublish(context.Background(), &fakeDownloader{archive: archive}, scratch, testRemote(7), localRoot, nil)
	require.NoError(t, err)

	finalPath := ExpectedLocalPath(localRoot, model.RecordKey{Framework: "tensorflow", Name: "A"}, 7)
	data, err := os.ReadFile(filepath.Join(finalPath, "saved_model.pb"))
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch dir must be cleaned up")
}

func TestFetchAndPublish_DownloadProducesNoFile(t *testing.T) {
	scratch := t.TempDir()
	localRoot := t.TempDir()

	err := FetchAndPublish(context.Background(), &fakeDownloader{fail: true}, scratch, testRemote(7), localRoot, nil)
	assert.ErrorIs(t, err, ErrDownloadFailed)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchAndPublish_UnsafeTarMemberSkipped(t *testing.T) {
	scratch := t.TempDir()
	localRoot := t.TempDir()
	archive := buildTarGz(t, map[string]string{
		"/etc/passwd":     "malicious",
		"../../escape.txt": "malicious",
		"saved_model.pb":  "contents",
	})

	err := FetchAndPublish(context.Background(), &fakeDownloader{archive: archive}, scratch, testRemote(7), localRoot, nil)
	require.NoError(t, err)

	finalPath := ExpectedLocalPath(localRoot, model.RecordKey{Framework: "tensorflow", Name: "A"}, 7)
	_, err = os.ReadFile(filepath.Join(finalPath, "saved_model.pb"))
	require.NoError(t, err)

	_, err = os.Stat("/etc/passwd_should_not_exist")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(localRoot, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchAndPublish_AbandonsOnRace(t *testing.T) {
	scratch := t.TempDir()
	localRoot := t.TempDir()
	archive := buildTarGz(t, map[string]string{"saved_model.pb": "first"})

	finalPath := ExpectedLocalPath(localRoot, model.RecordKey{Framework: "tensorflow", Name: "A"}, 7)
	require.NoError(t, os.MkdirAll(finalPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(finalPath, "saved_model.pb"), []byte("already-here"), 0o644))

	err := FetchAndPublish(context.Background(), &fakeDownloader{archive: archive}, scratch, testRemote(7), localRoot, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(finalPath, "saved_model.pb"))
	require.NoError(t, err)
	assert.Equal(t, "already-here", string(data), "existing publish must win the race")
}
