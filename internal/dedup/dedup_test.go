package dedup

import (
	"fmt"
	"testing"
)

func TestSeenAfterAdd(t *testing.T) {
	s := NewSet()

	if s.Seen("/tmp/a.jpg") {
		t.Error("Seen() = true for path never added")
	}

	s.Add("/tmp/a.jpg")

	if !s.Seen("/tmp/a.jpg") {
		t.Error("Seen() = false after Add()")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestAdd_Idempotent(t *testing.T) {
	s := NewSet()
	s.Add("/tmp/a.jpg")
	s.Add("/tmp/a.jpg")

	if s.Len() != 1 {
		t.Errorf("Len() = %d after duplicate Add, want 1", s.Len())
	}
}

func TestNoEvictionAtCapacity(t *testing.T) {
	s := NewSet()
	for i := 0; i < 1000; i++ {
		s.Add(fmt.Sprintf("/tmp/p%04d.jpg", i))
	}

	if s.Len() != 1000 {
		t.Errorf("Len() = %d after 1000 adds, want 1000 (no eviction yet)", s.Len())
	}
	if !s.Seen("/tmp/p0000.jpg") {
		t.Error("oldest path evicted before capacity was exceeded")
	}
}

func TestEviction_KeepsMostRecent500(t *testing.T) {
	s := NewSet()
	for i := 0; i <= 1000; i++ { // 1001 distinct paths
		s.Add(fmt.Sprintf("/tmp/p%04d.jpg", i))
	}

	if s.Len() != 500 {
		t.Fatalf("Len() = %d after eviction, want 500", s.Len())
	}

	// Survivors are the 500 most recently inserted: p0501..p1000
	if s.Seen("/tmp/p0500.jpg") {
		t.Error("p0500 survived eviction, should be among the evicted")
	}
	if !s.Seen("/tmp/p0501.jpg") {
		t.Error("p0501 evicted, should be the oldest survivor")
	}
	if !s.Seen("/tmp/p1000.jpg") {
		t.Error("p1000 evicted, should be the newest survivor")
	}
}

func TestEviction_IndexMatchesOrder(t *testing.T) {
	s := NewSet()
	for i := 0; i <= 1000; i++ {
		s.Add(fmt.Sprintf("/tmp/p%04d.jpg", i))
	}

	// Every survivor must still answer Seen; every evictee must not
	seen := 0
	for i := 0; i <= 1000; i++ {
		if s.Seen(fmt.Sprintf("/tmp/p%04d.jpg", i)) {
			seen++
		}
	}
	if seen != 500 {
		t.Errorf("index answers Seen for %d paths, want exactly 500", seen)
	}
}

func TestBurstBelowCapacity_AllRetained(t *testing.T) {
	s := NewSet()
	for i := 0; i < 800; i++ {
		s.Add(fmt.Sprintf("/tmp/burst%03d.png", i))
	}

	if s.Len() != 800 {
		t.Fatalf("Len() = %d, want 800", s.Len())
	}
	for i := 0; i < 800; i++ {
		path := fmt.Sprintf("/tmp/burst%03d.png", i)
		if !s.Seen(path) {
			t.Fatalf("path %s lost without eviction", path)
		}
	}
}
