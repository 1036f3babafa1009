package localfs

import (
	"os"
	"path/filepath"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// RemoveRecord deletes a local record's directory recursively. Removal is
// best-effort: a directory that is already gone is not an error.
func RemoveRecord(rec model.LocalRecord) error {
	if err := os.RemoveAll(rec.LocalPath); err != nil {
		return err
	}
	return nil
}

// RemoveRecordsByKey deletes every local directory for key under root.
func RemoveRecordsByKey(root string, key model.RecordKey) error {
	all, err := AllLocalRecords(root)
	if err != nil {
		return err
	}
	for _, rec := range all[key] {
		if err := RemoveRecord(rec); err != nil {
			return err
		}
	}
	// The key's own directory goes once its version directories are gone;
	// it stays if anything else is left inside it.
	_ = os.Remove(filepath.Join(root, key.Framework, key.Name))
	return nil
}

// RemovePriorityRecord deletes only the version==PriorityVersion directory
// for key, if present, leaving ordinary versions untouched.
func RemovePriorityRecord(root string, key model.RecordKey) error {
	all, err := AllLocalRecords(root)
	if err != nil {
		return err
	}
	for _, rec := range all[key] {
		if rec.IsPriority {
			return RemoveRecord(rec)
		}
	}
	return nil
}
