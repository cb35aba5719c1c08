package bag

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/midbel/damasc/eval"
)

func TestBoltSnapshotterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.db")

	src := NewSet()
	if _, err := src.Current().Insert([]eval.Value{mustValue(t, "1"), mustValue(t, `"a"`)}); err != nil {
		t.Fatal(err)
	}
	users, err := src.Create("users", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := users.Insert([]eval.Value{mustValue(t, `{x: 1, }`)}); err != nil {
		t.Fatal(err)
	}

	snap := NewBoltSnapshotter(path)
	if err := snap.Save(src); err != nil {
		t.Fatal(err)
	}

	dst := NewSet()
	if err := snap.Load(dst); err != nil {
		t.Fatal(err)
	}

	initBag, ok := dst.Get("init")
	if !ok || initBag.Len() != 2 {
		t.Fatalf("init bag: ok=%v len=%d, want 2", ok, initBag.Len())
	}
	restoredUsers, ok := dst.Get("users")
	if !ok || restoredUsers.Len() != 1 {
		t.Fatalf("users bag: ok=%v len=%d, want 1", ok, restoredUsers.Len())
	}
	if !restoredUsers.Entries()[0].Equal(users.Entries()[0]) {
		t.Fatalf("users entry mismatch: %s != %s", restoredUsers.Entries()[0], users.Entries()[0])
	}
}

// TestBoltSnapshotterPreservesOrderPastTenEntries guards against the
// bucket iterating in byte-lexicographic key order: an unpadded decimal
// key would put "10" before "2", scrambling journal order once a bag
// crosses ten entries.
func TestBoltSnapshotterPreservesOrderPastTenEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.db")

	src := NewSet()
	var values []eval.Value
	for i := 0; i < 12; i++ {
		values = append(values, mustValue(t, strconv.Itoa(i)))
	}
	if _, err := src.Current().Insert(values); err != nil {
		t.Fatal(err)
	}

	snap := NewBoltSnapshotter(path)
	if err := snap.Save(src); err != nil {
		t.Fatal(err)
	}

	dst := NewSet()
	if err := snap.Load(dst); err != nil {
		t.Fatal(err)
	}

	restored := dst.Current().Entries()
	if len(restored) != len(values) {
		t.Fatalf("got %d entries, want %d", len(restored), len(values))
	}
	for i, v := range restored {
		if !v.Equal(values[i]) {
			t.Fatalf("entry %d: got %s, want %s (journal order not preserved)", i, v, values[i])
		}
	}
}
