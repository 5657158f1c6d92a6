package memregion

import "testing"

func TestNewAllocatesPageAlignedRW(t *testing.T) {
	r, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Release()

	if r.Len() != PageSize() {
		t.Errorf("Len() = %d, want %d (one page)", r.Len(), PageSize())
	}
	if r.IsExecutable() {
		t.Error("fresh region should not be executable")
	}
}

func TestProtectTransitions(t *testing.T) {
	r, err := New(16)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Release()

	if err := r.Protect(RX); err != nil {
		t.Fatalf("Protect(RX) error = %v", err)
	}
	if !r.IsExecutable() {
		t.Error("expected IsExecutable() after Protect(RX)")
	}

	if err := r.Protect(None); err != nil {
		t.Fatalf("Protect(None) error = %v", err)
	}
	if r.IsExecutable() {
		t.Error("expected not executable after Protect(None)")
	}
}

func TestSplitTailShrinksOriginal(t *testing.T) {
	r, err := New(3 * PageSize())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Release()

	originalLen := r.Len()
	tail, err := r.SplitTail(PageSize())
	if err != nil {
		t.Fatalf("SplitTail() error = %v", err)
	}
	defer tail.Release()

	if r.Len() != originalLen-PageSize() {
		t.Errorf("remaining Len() = %d, want %d", r.Len(), originalLen-PageSize())
	}
	if tail.Len() != PageSize() {
		t.Errorf("tail Len() = %d, want %d", tail.Len(), PageSize())
	}
}

func TestSplitNotEnoughSpace(t *testing.T) {
	r, err := New(PageSize())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Release()

	_, err = r.SplitTail(2 * PageSize())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	me, ok := err.(Error)
	if !ok || me.Kind != SplitNotEnoughSpace {
		t.Errorf("error = %v, want SplitNotEnoughSpace", err)
	}
}

func TestNewGuardedLiveRegionIsUsable(t *testing.T) {
	g, err := NewGuarded(PageSize())
	if err != nil {
		t.Fatalf("NewGuarded() error = %v", err)
	}
	defer g.Release()

	live := g.Live()
	if live.Len() != PageSize() {
		t.Errorf("Live().Len() = %d, want %d", live.Len(), PageSize())
	}
	live.Bytes()[0] = 0x90 // writable: must not panic
}

func TestSplitRegionsBothReleaseCleanly(t *testing.T) {
	r, err := New(3 * PageSize())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tail, err := r.SplitTail(PageSize())
	if err != nil {
		t.Fatalf("SplitTail() error = %v", err)
	}

	// Neither data[:boundary] nor data[boundary:] is the exact slice
	// unix.Mmap originally returned; both Releases must still succeed.
	if err := r.Release(); err != nil {
		t.Errorf("Release() on shrunk head = %v, want nil", err)
	}
	if err := tail.Release(); err != nil {
		t.Errorf("Release() on split tail = %v, want nil", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r, err := New(16)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	if err := r.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
}
