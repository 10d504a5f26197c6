package lockfree

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHashMapInsertGetRemove(t *testing.T) {
	m := NewHashMap[string, int](8)

	m.Insert("a", 1)
	m.Insert("b", 2)
	m.Insert("c", 3)

	for k, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if got, ok := m.Get(k); !ok || got != want {
			t.Fatalf("Get(%q): got (%d, %v), want (%d, true)", k, got, ok, want)
		}
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatal("Get on an absent key should report false")
	}

	if !m.Remove("b") {
		t.Fatal("Remove(\"b\") should succeed on a live key")
	}
	if _, ok := m.Get("b"); ok {
		t.Fatal("Get(\"b\") should report false immediately after Remove")
	}
	if m.Remove("b") {
		t.Fatal("removing an already-removed key must report false")
	}
}

func TestHashMapInsertUpdatesExistingKeyInPlace(t *testing.T) {
	m := NewHashMap[int, string](4)

	m.Insert(1, "first")
	m.Insert(1, "second")

	got, ok := m.Get(1)
	if !ok || got != "second" {
		t.Fatalf("Get(1): got (%q, %v), want (\"second\", true)", got, ok)
	}
	if m.buckets[m.hash(1)] == nil {
		t.Fatal("bucket for key 1 should exist")
	}
}

func TestHashMapBucketCount(t *testing.T) {
	m := NewHashMap[int, int](37)
	if got := m.BucketCount(); got != 37 {
		t.Fatalf("BucketCount: got %d, want 37", got)
	}
}

func TestHashMapTwoThreadsSameKeyInsertRace(t *testing.T) {
	m := NewHashMap[int, int](1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.Insert(42, 1)
	}()
	go func() {
		defer wg.Done()
		m.Insert(42, 2)
	}()
	wg.Wait()

	got, ok := m.Get(42)
	if !ok {
		t.Fatal("key 42 must be present after both racing inserts complete")
	}
	if got != 1 && got != 2 {
		t.Fatalf("Get(42) returned %d, want either racer's value (1 or 2)", got)
	}

	live := 0
	bucket := m.buckets[m.hash(42)]
	prev := &bucket.head
	cur := nextOf(prev)
	for cur != nil {
		if !isDeleted(cur) && cur.value.key == 42 {
			live++
		}
		cur = nextOf(cur)
	}
	if live != 1 {
		t.Fatalf("expected exactly one live node for key 42 after the race, found %d", live)
	}
}

// TestHashMapSnapshotMatchesExpectedState replays a deterministic, single-
// threaded sequence of inserts/updates/removes and compares the recovered
// live key/value set against the expected map built alongside it, using
// cmp.Diff rather than a manual key-by-key walk so the failure output shows
// the full structural difference at once.
func TestHashMapSnapshotMatchesExpectedState(t *testing.T) {
	m := NewHashMap[int, int](8)
	expected := map[int]int{}

	ops := []struct {
		key    int
		value  int
		remove bool
	}{
		{key: 1, value: 10},
		{key: 2, value: 20},
		{key: 3, value: 30},
		{key: 2, value: 200}, // update an existing key in place
		{key: 1, remove: true},
		{key: 4, value: 40},
		{key: 5, remove: true}, // removing an absent key is a no-op
	}
	for _, op := range ops {
		if op.remove {
			m.Remove(op.key)
			delete(expected, op.key)
			continue
		}
		m.Insert(op.key, op.value)
		expected[op.key] = op.value
	}

	got := map[int]int{}
	for k := 0; k < 8; k++ {
		if v, ok := m.Get(k); ok {
			got[k] = v
		}
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("recovered hash map state mismatch (-want +got):\n%s", diff)
	}
}

func TestHashMapConcurrentMixedWorkload(t *testing.T) {
	const keyspace = 128
	m := NewHashMap[int, int](64) // pool of 3*64 nodes covers every key plus in-flight and retired nodes

	var wg sync.WaitGroup
	workers := 12
	var inserts, removes int32

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(id) + 1))
			for j := 0; j < 300; j++ {
				k := r.Intn(keyspace)
				switch r.Intn(3) {
				case 0, 1:
					m.Insert(k, id*10000+j)
					atomic.AddInt32(&inserts, 1)
				case 2:
					if m.Remove(k) {
						atomic.AddInt32(&removes, 1)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	if inserts == 0 {
		t.Fatal("expected at least one successful insert across the workload")
	}

	for k := 0; k < keyspace; k++ {
		v, ok := m.Get(k)
		if !ok {
			continue
		}
		if v2, ok2 := m.Get(k); !ok2 || v2 != v {
			t.Fatalf("Get(%d) is not stable across repeated reads after the workload settled: %d vs %d", k, v, v2)
		}
	}
}
