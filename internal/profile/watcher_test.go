package profile

import (
	"testing"
	"time"
)

func TestWatcherReloadsAfterExternalSave(t *testing.T) {
	s := testStore(t)
	if err := s.Add(New("Valorant")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := make(chan int, 4)
	w, err := NewWatcher(s, nil,
		WithDebounce(50*time.Millisecond),
		WithReloadHook(func(skipped int) { reloaded <- skipped }),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	// Another process edits the file: write through a second store
	// bound to the same path.
	other := NewStore(s.Path(), nil)
	if _, err := other.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := other.Add(New("CS2")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := other.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	select {
	case skipped := <-reloaded:
		if skipped != 0 {
			t.Errorf("skipped = %d, want 0", skipped)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	if len(s.List()) != 2 {
		t.Errorf("profiles after reload = %d, want 2", len(s.List()))
	}
}
