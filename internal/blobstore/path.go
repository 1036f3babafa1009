package blobstore

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// modelArchiveName is the fixed blob name every valid model artifact ends
// with; anything else under a prefix is not a model blob.
const modelArchiveName = "model.tar.gz"

// ToRemoteRecord parses a blob path shaped
// <env>/<framework>/<name>/<version>/model.tar.gz into a RemoteRecord. A
// path with fewer than 5 components, a non-integer version segment, or a
// name other than model.tar.gz is not a valid model blob: it is skipped (ok
// is false), never treated as a hard error. The first two cases are logged
// at warning level; a blob with another name is skipped without a log line.
func ToRemoteRecord(desc Descriptor, logger *slog.Logger) (rec model.RemoteRecord, ok bool) {
	if logger == nil {
		logger = slog.Default()
	}

	parts := strings.Split(strings.Trim(desc.Path, "/"), "/")
	if len(parts) < 5 {
		logger.Warn("blobstore: skipping blob path with too few components", "path", desc.Path)
		return model.RemoteRecord{}, false
	}
	if parts[len(parts)-1] != modelArchiveName {
		return model.RemoteRecord{}, false
	}

	versionStr := parts[len(parts)-2]
	version, err := strconv.ParseInt(versionStr, 10, 64)
	if err != nil || version < 0 {
		logger.Warn("blobstore: skipping blob with non-integer version segment", "path", desc.Path)
		return model.RemoteRecord{}, false
	}

	name := parts[len(parts)-3]
	framework := parts[len(parts)-4]
	key := model.RecordKey{Framework: framework, Name: name}

	return model.RemoteRecord{
		Record:     model.NewRecord(key, model.Version(version)),
		RemotePath: desc.Path,
	}, true
}

// BlobPath builds the canonical path for a record under env.
func BlobPath(env string, key model.RecordKey, version model.Version) string {
	return strings.Join([]string{env, key.Framework, key.Name, strconv.FormatInt(int64(version), 10), modelArchiveName}, "/")
}

// CurrentRemoteRecords folds a list of blob descriptors into one
// RemoteRecord per key, applying ChooseCurrentRemote to break ties between
// multiple versions of the same key.
func CurrentRemoteRecords(descs []Descriptor, logger *slog.Logger) map[model.RecordKey]model.RemoteRecord {
	out := make(map[model.RecordKey]model.RemoteRecord)
	for _, d := range descs {
		rec, ok := ToRemoteRecord(d, logger)
		if !ok {
			continue
		}
		existing, present := out[rec.Key]
		if !present {
			out[rec.Key] = rec
			continue
		}
		out[rec.Key] = model.ChooseCurrentRemote(existing, rec)
	}
	return out
}
