package storage

import "testing"

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore()

	value, err := store.Get("missing")
	if err != nil {
		t.Fatalf("Get(missing) error = %v, want nil", err)
	}
	if value != nil {
		t.Errorf("Get(missing) = %q, want nil", value)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Put("key", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	value, err := store.Get("key")
	if err != nil {
		t.Fatal(err)
	}
	if string(value) != `{"a":1}` {
		t.Errorf("Get = %q, want original value", value)
	}

	if err := store.Put("key", []byte(`{"a":2}`)); err != nil {
		t.Fatal(err)
	}
	value, _ = store.Get("key")
	if string(value) != `{"a":2}` {
		t.Errorf("Get after overwrite = %q, want new value", value)
	}

	if err := store.Delete("key"); err != nil {
		t.Fatal(err)
	}
	value, _ = store.Get("key")
	if value != nil {
		t.Errorf("Get after delete = %q, want nil", value)
	}
}
