// Package localfs owns the node-local model directory: enumerating what is
// already on disk, atomically publishing newly fetched versions into it,
// and removing directories that are no longer current.
package localfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// AllLocalRecords walks root (laid out <root>/<framework>/<name>/<version>/)
// and returns every local record found, grouped by key. A directory entry
// whose name is not a valid non-negative integer is skipped.
func AllLocalRecords(root string) (map[model.RecordKey][]model.LocalRecord, error) {
	out := make(map[model.RecordKey][]model.LocalRecord)

	frameworks, err := readDirNames(root)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("localfs: listing %s: %w", root, err)
	}

	for _, framework := range frameworks {
		frameworkDir := filepath.Join(root, framework)
		names, err := readDirNames(frameworkDir)
		if err != nil {
			return nil, fmt.Errorf("localfs: listing %s: %w", frameworkDir, err)
		}
		for _, name := range names {
			nameDir := filepath.Join(frameworkDir, name)
			versions, err := readDirNames(nameDir)
			if err != nil {
				return nil, fmt.Errorf("localfs: listing %s: %w", nameDir, err)
			}
			key := model.RecordKey{Framework: framework, Name: name}
			for _, v := range versions {
				version, err := strconv.ParseInt(v, 10, 64)
				if err != nil || version < 0 {
					continue
				}
				rec := model.LocalRecord{
					Record:    model.NewRecord(key, model.Version(version)),
					LocalPath: filepath.Join(nameDir, v),
				}
				out[key] = append(out[key], rec)
			}
		}
	}
	return out, nil
}

// CurrentLocalRecords returns, for every key under root, the single current
// local record (highest (is_priority, version)).
func CurrentLocalRecords(root string) (map[model.RecordKey]model.LocalRecord, error) {
	all, err := AllLocalRecords(root)
	if err != nil {
		return nil, err
	}
	sorted := model.CurrentLocalSet(all)
	out := make(map[model.RecordKey]model.LocalRecord, len(sorted))
	for key, recs := range sorted {
		if len(recs) > 0 {
			out[key] = recs[0]
		}
	}
	return out, nil
}

// ExpectedLocalPath returns the path a local record for key/version would
// live at under root, regardless of whether it currently exists.
func ExpectedLocalPath(root string, key model.RecordKey, version model.Version) string {
	return filepath.Join(root, key.Framework, key.Name, strconv.FormatInt(int64(version), 10))
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
