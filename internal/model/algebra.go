package model

import "sort"

// ChooseCurrentRemote returns which of two RemoteRecords sharing a key
// should be treated as "current": if either is the priority slot, that one
// wins, with a ties in favor of a (the first argument); otherwise the
// greater version wins.
func ChooseCurrentRemote(a, b RemoteRecord) RemoteRecord {
	if a.IsPriority {
		return a
	}
	if b.IsPriority {
		return b
	}
	if b.Version > a.Version {
		return b
	}
	return a
}

// CurrentLocalSet reduces, per key, a slice of LocalRecords to the
// descending-sorted order (is_priority desc, version desc) the rest of the
// system expects: index 0 is current, the remainder is out of date.
func CurrentLocalSet(recordsByKey map[RecordKey][]LocalRecord) map[RecordKey][]LocalRecord {
	out := make(map[RecordKey][]LocalRecord, len(recordsByKey))
	for key, recs := range recordsByKey {
		sorted := make([]LocalRecord, len(recs))
		copy(sorted, recs)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].IsPriority != sorted[j].IsPriority {
				return sorted[i].IsPriority
			}
			return sorted[i].Version > sorted[j].Version
		})
		out[key] = sorted
	}
	return out
}

// CurrentLocal returns the head of the sorted slice for key, i.e. the
// current local record, and false if the key has no locals.
func CurrentLocal(sortedByKey map[RecordKey][]LocalRecord, key RecordKey) (LocalRecord, bool) {
	recs, ok := sortedByKey[key]
	if !ok || len(recs) == 0 {
		return LocalRecord{}, false
	}
	return recs[0], true
}

// NeedPull reports whether remote must be fetched given the current sorted
// local records for its key: true iff the key is absent locally, iff the
// local current version is strictly behind the remote, or iff the remote is
// priority and the local current is not.
func NeedPull(remote RemoteRecord, localsForKey []LocalRecord) bool {
	if len(localsForKey) == 0 {
		return true
	}
	current := localsForKey[0]
	if current.Version < remote.Version {
		return true
	}
	if remote.IsPriority && !current.IsPriority {
		return true
	}
	return false
}

// NeedAddToConfig reports whether local needs a serving-config entry: true
// iff key is absent from config, or iff the engine's most recent AVAILABLE
// record for key has a different priority bit than local.
func NeedAddToConfig(key RecordKey, local LocalRecord, configKeys map[RecordKey]struct{}, engineView EngineView) bool {
	if _, present := configKeys[key]; !present {
		return true
	}
	enginePriority, found := engineView.AvailableIsPriority(key)
	if !found {
		return false
	}
	return enginePriority != local.IsPriority
}

// OutOfDateLocal reports whether local is superseded according to the
// engine's view: true iff the engine reports at least one AVAILABLE version
// for local's key and local.Version is strictly less than the maximum
// AVAILABLE version. A key absent from engineView is never out of date:
// the engine has not caught up yet.
func OutOfDateLocal(local LocalRecord, engineView EngineView) bool {
	maxAvailable, found := engineView.MaxAvailableVersion(local.Key)
	if !found {
		return false
	}
	return local.Version < maxAvailable
}
