package cache

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func testCache(maxEntries int, ttl time.Duration) (*Cache, *time.Time) {
	c := New(maxEntries, ttl)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

// --- Cache Tests ---

func TestCache_SetGet(t *testing.T) {
	c, _ := testCache(4, time.Minute)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("expected hit with 1, got %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_SetOverwritesAndResetsAge(t *testing.T) {
	c, now := testCache(4, time.Minute)

	c.Set("a", 1)
	*now = now.Add(50 * time.Second)
	c.Set("a", 2)
	*now = now.Add(50 * time.Second)

	// Возраст считается от второй записи: ещё жива
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("expected overwritten live value, got %v, %v", v, ok)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, now := testCache(4, time.Minute)

	c.Set("a", 1)
	*now = now.Add(61 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry must miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry must be purged, len=%d", c.Len())
	}
}

func TestCache_GetPurgesAllExpired(t *testing.T) {
	c, now := testCache(4, time.Minute)

	c.Set("old1", 1)
	c.Set("old2", 2)
	*now = now.Add(50 * time.Second)
	c.Set("fresh", 3)
	*now = now.Add(20 * time.Second)

	// Чтение живого ключа выметает и незатронутые просроченные записи
	if v, ok := c.Get("fresh"); !ok || v != 3 {
		t.Fatalf("expected live hit, got %v, %v", v, ok)
	}
	if got := c.order.Len(); got != 1 {
		t.Errorf("stale entries must be gone after any read, len=%d", got)
	}
}

func TestCache_GetDoesNotResetAge(t *testing.T) {
	c, now := testCache(4, time.Minute)

	c.Set("a", 1)
	*now = now.Add(40 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry must still be live")
	}
	*now = now.Add(30 * time.Second)

	// 70 секунд от записи: чтение на 40-й секунде возраст не сбросило
	if _, ok := c.Get("a"); ok {
		t.Error("read must not extend entry lifetime")
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := testCache(3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Чтение освежает позицию a в порядке вытеснения
	c.Get("a")

	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("b was least recently used and must be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s must survive eviction", key)
		}
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c, _ := testCache(4, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry must miss")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", c.Len())
	}
}

func TestCache_Defaults(t *testing.T) {
	c := New(0, 0)
	if c.maxEntries != DefaultMaxEntries || c.ttl != DefaultTTL {
		t.Errorf("expected defaults, got %d, %v", c.maxEntries, c.ttl)
	}
}

// --- Fingerprint Tests ---

func TestFingerprint_Stable(t *testing.T) {
	files := []FileStat{{ID: 1, Size: 100}, {ID: 2, Size: 200}}
	doc := map[string]any{"nodes": []any{map[string]any{"id": "n1", "type": "filter_rows"}}}
	target := "virtual:out"

	a, err := Fingerprint(7, files, doc, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Fingerprint(7, files, doc, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("fingerprint must be stable: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected sha256 hex, got %d chars", len(a))
	}
}

func TestFingerprint_KeyOrderIndependent(t *testing.T) {
	// Один и тот же документ с разным порядком ключей в исходном JSON
	var doc1, doc2 map[string]any
	if err := json.Unmarshal([]byte(`{"nodes":[],"meta":{"a":1,"b":2}}`), &doc1); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"meta":{"b":2,"a":1},"nodes":[]}`), &doc2); err != nil {
		t.Fatal(err)
	}

	a, _ := Fingerprint(1, nil, doc1, "")
	b, _ := Fingerprint(1, nil, doc2, "")
	if a != b {
		t.Error("fingerprint must not depend on JSON key order")
	}
}

func TestFingerprint_FileOrderIndependent(t *testing.T) {
	doc := map[string]any{"nodes": []any{}}
	forward := []FileStat{{ID: 1, Size: 100}, {ID: 2, Size: 200}}
	backward := []FileStat{{ID: 2, Size: 200}, {ID: 1, Size: 100}}

	a, _ := Fingerprint(7, forward, doc, "")
	b, _ := Fingerprint(7, backward, doc, "")
	if a != b {
		t.Errorf("same file set in a different order must fingerprint equally: %s != %s", a, b)
	}

	// Сортировка не мутирует срез вызывающего
	if backward[0].ID != 2 {
		t.Error("caller's slice must stay untouched")
	}
}

func TestFingerprint_Sensitivity(t *testing.T) {
	base := func() (int64, []FileStat, map[string]any, string) {
		return 1, []FileStat{{ID: 1, Size: 100}}, map[string]any{"nodes": []any{}}, "t"
	}

	userID, files, doc, target := base()
	ref, _ := Fingerprint(userID, files, doc, target)

	tests := []struct {
		name string
		hash func() string
	}{
		{"user", func() string {
			_, f, d, tg := base()
			h, _ := Fingerprint(2, f, d, tg)
			return h
		}},
		{"file size", func() string {
			u, _, d, tg := base()
			h, _ := Fingerprint(u, []FileStat{{ID: 1, Size: 101}}, d, tg)
			return h
		}},
		{"document", func() string {
			u, f, _, tg := base()
			h, _ := Fingerprint(u, f, map[string]any{"nodes": []any{"x"}}, tg)
			return h
		}},
		{"target", func() string {
			u, f, d, _ := base()
			h, _ := Fingerprint(u, f, d, "other")
			return h
		}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("changed %s", tt.name), func(t *testing.T) {
			if tt.hash() == ref {
				t.Error("fingerprint must change")
			}
		})
	}
}
