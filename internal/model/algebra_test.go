package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func key(name string) RecordKey {
	return RecordKey{Framework: "tensorflow", Name: name}
}

func remote(name string, version Version, path string) RemoteRecord {
	return RemoteRecord{Record: NewRecord(key(name), version), RemotePath: path}
}

func local(name string, version Version, path string) LocalRecord {
	return LocalRecord{Record: NewRecord(key(name), version), LocalPath: path}
}

func TestChooseCurrentRemote_HigherVersionWins(t *testing.T) {
	a := remote("A", 7, "a7")
	b := remote("A", 8, "a8")
	assert.Equal(t, b, ChooseCurrentRemote(a, b))
	assert.Equal(t, b, ChooseCurrentRemote(b, a))
}

func TestChooseCurrentRemote_PriorityAlwaysWins(t *testing.T) {
	priority := remote("A", PriorityVersion, "a0")
	ordinary := remote("A", 99, "a99")
	assert.Equal(t, priority, ChooseCurrentRemote(priority, ordinary))
	assert.Equal(t, priority, ChooseCurrentRemote(ordinary, priority))
}

func TestChooseCurrentRemote_BothPriority_FirstWins(t *testing.T) {
	a := remote("A", PriorityVersion, "a0-first")
	b := remote("A", PriorityVersion, "a0-second")
	assert.Equal(t, a, ChooseCurrentRemote(a, b))
	assert.Equal(t, b, ChooseCurrentRemote(b, a))
}

func TestCurrentLocalSet_SortsPriorityThenVersionDescending(t *testing.T) {
	recs := map[RecordKey][]LocalRecord{
		key("A"): {
			local("A", 5, "a5"),
			local("A", PriorityVersion, "a0"),
			local("A", 7, "a7"),
		},
	}
	sorted := CurrentLocalSet(recs)
	got := sorted[key("A")]
	assert.Equal(t, []Version{PriorityVersion, 7, 5}, []Version{got[0].Version, got[1].Version, got[2].Version})

	current, ok := CurrentLocal(sorted, key("A"))
	assert.True(t, ok)
	assert.Equal(t, Version(PriorityVersion), current.Version)
}

func TestCurrentLocal_AbsentKey(t *testing.T) {
	_, ok := CurrentLocal(map[RecordKey][]LocalRecord{}, key("missing"))
	assert.False(t, ok)
}

func TestNeedPull_EmptyLocals(t *testing.T) {
	assert.True(t, NeedPull(remote("A", 7, "a7"), nil))
}

func TestNeedPull_StrictlyBehind(t *testing.T) {
	locals := []LocalRecord{local("A", 7, "a7")}
	assert.True(t, NeedPull(remote("A", 8, "a8"), locals))
	assert.False(t, NeedPull(remote("A", 7, "a7"), locals))
	assert.False(t, NeedPull(remote("A", 6, "a6"), locals))
}

func TestNeedPull_RemotePriorityLocalOrdinary(t *testing.T) {
	locals := []LocalRecord{local("A", 7, "a7")}
	assert.True(t, NeedPull(remote("A", PriorityVersion, "a0"), locals))
}

func TestNeedPull_BothPriority(t *testing.T) {
	locals := []LocalRecord{local("A", PriorityVersion, "a0")}
	assert.False(t, NeedPull(remote("A", PriorityVersion, "a0"), locals))
}

func TestNeedAddToConfig_KeyAbsent(t *testing.T) {
	k := key("A")
	assert.True(t, NeedAddToConfig(k, local("A", 7, "a7"), map[RecordKey]struct{}{}, EngineView{}))
}

func TestNeedAddToConfig_PriorityBitFlip(t *testing.T) {
	k := key("A")
	configKeys := map[RecordKey]struct{}{k: {}}
	view := EngineView{
		k: {{Record: NewRecord(k, PriorityVersion), Status: StatusAvailable}},
	}
	// local is ordinary, engine's available record is priority: flip, needs re-add.
	assert.True(t, NeedAddToConfig(k, local("A", 7, "a7"), configKeys, view))
}

func TestNeedAddToConfig_NoFlipNoEngineData(t *testing.T) {
	k := key("A")
	configKeys := map[RecordKey]struct{}{k: {}}
	assert.False(t, NeedAddToConfig(k, local("A", 7, "a7"), configKeys, EngineView{}))
}

func TestOutOfDateLocal_KeyAbsentFromEngineView(t *testing.T) {
	assert.False(t, OutOfDateLocal(local("A", 7, "a7"), EngineView{}))
}

func TestOutOfDateLocal_BehindMaxAvailable(t *testing.T) {
	k := key("A")
	view := EngineView{
		k: {
			{Record: NewRecord(k, 7), Status: StatusAvailable},
			{Record: NewRecord(k, 8), Status: StatusAvailable},
		},
	}
	assert.True(t, OutOfDateLocal(local("A", 7, "a7"), view))
	assert.False(t, OutOfDateLocal(local("A", 8, "a8"), view))
}

func TestOutOfDateLocal_MonotoneInEngineView(t *testing.T) {
	k := key("A")
	l := local("A", 7, "a7")

	withoutHigher := EngineView{k: {{Record: NewRecord(k, 7), Status: StatusAvailable}}}
	assert.False(t, OutOfDateLocal(l, withoutHigher))

	withHigher := EngineView{k: {
		{Record: NewRecord(k, 7), Status: StatusAvailable},
		{Record: NewRecord(k, 8), Status: StatusAvailable},
	}}
	assert.True(t, OutOfDateLocal(l, withHigher))
}

func TestScenario_EmptyToOneRemote(t *testing.T) {
	remotes := map[RecordKey]RemoteRecord{key("A"): remote("A", 7, "a7")}
	locals := map[RecordKey][]LocalRecord{}

	for k, r := range remotes {
		assert.True(t, NeedPull(r, locals[k]))
	}
}

func TestScenario_Supersession(t *testing.T) {
	k := key("A")
	view := EngineView{k: {{Record: NewRecord(k, 7), Status: StatusAvailable}}}
	locals := []LocalRecord{local("A", 7, "a7"), local("A", 8, "a8")}

	assert.False(t, OutOfDateLocal(locals[0], view))

	viewWithEight := EngineView{k: {
		{Record: NewRecord(k, 7), Status: StatusAvailable},
		{Record: NewRecord(k, 8), Status: StatusAvailable},
	}}
	assert.True(t, OutOfDateLocal(locals[0], viewWithEight))
	assert.False(t, OutOfDateLocal(locals[1], viewWithEight))
}
