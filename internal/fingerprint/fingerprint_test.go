package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	t.Parallel()

	a := Key("corpus text", "find all r", "claude", 10)
	b := Key("corpus text", "find all r", "claude", 10)
	if a != b {
		t.Fatalf("same inputs produced different keys: %q vs %q", a, b)
	}
	if len(a) != 8 {
		t.Fatalf("key length: got %q", a)
	}

	variants := []string{
		Key("corpus text!", "find all r", "claude", 10),
		Key("corpus text", "find all R", "claude", 10),
		Key("corpus text", "find all r", "openai", 10),
		Key("corpus text", "find all r", "claude", 5),
	}
	for i, v := range variants {
		if v == a {
			t.Fatalf("variant %d collided with base key %q", i, a)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := Key("c", "q", "m", 3)
	if _, ok := st.Get(key); ok {
		t.Fatalf("Get before Put: expected miss")
	}

	in := &Entry{Predicted: []string{"a", "b"}, ElapsedMs: 42, Raw: `["a","b"]`}
	if err := st.Put(key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out, ok := st.Get(key)
	if !ok {
		t.Fatalf("Get after Put: expected hit")
	}
	if len(out.Predicted) != 2 || out.Predicted[0] != "a" || out.Predicted[1] != "b" {
		t.Fatalf("predicted: got %#v", out.Predicted)
	}
	if out.ElapsedMs != 42 || out.Raw != `["a","b"]` {
		t.Fatalf("entry: got %#v", out)
	}
}

func TestStoreOverwrite(t *testing.T) {
	t.Parallel()

	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := Key("c", "q", "m", 3)
	if err := st.Put(key, &Entry{Predicted: []string{"old"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := st.Put(key, &Entry{Predicted: []string{"new"}, ElapsedMs: 7}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	out, ok := st.Get(key)
	if !ok || len(out.Predicted) != 1 || out.Predicted[0] != "new" {
		t.Fatalf("got %#v ok=%v, want overwritten entry", out, ok)
	}
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := Key("c", "q", "m", 3)
	if err := os.WriteFile(filepath.Join(dir, key+".json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt entry: %v", err)
	}

	if _, ok := st.Get(key); ok {
		t.Fatalf("corrupt entry: expected miss")
	}
}
