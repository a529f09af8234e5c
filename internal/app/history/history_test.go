package history

import (
	"fmt"
	"testing"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

func rec(v string) domain.ScanRecord {
	return domain.ScanRecord{Value: v, Symbology: domain.SymbologyManual}
}

func TestHistoryNewestFirst(t *testing.T) {
	h := New(4)

	h.Push(rec("a"))
	h.Push(rec("b"))

	got := h.Snapshot()
	if len(got) != 2 || got[0].Value != "b" || got[1].Value != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	latest, ok := h.Latest()
	if !ok || latest.Value != "b" {
		t.Fatalf("expected latest b, got %+v ok=%v", latest, ok)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := New(0)
	if h.Cap() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, h.Cap())
	}

	for i := 0; i < 25; i++ {
		h.Push(rec(fmt.Sprint(i)))
		if h.Len() > DefaultCapacity {
			t.Fatalf("history exceeded capacity: %d", h.Len())
		}
	}

	got := h.Snapshot()
	if len(got) != DefaultCapacity {
		t.Fatalf("expected %d entries, got %d", DefaultCapacity, len(got))
	}
	for i, r := range got {
		if want := fmt.Sprint(24 - i); r.Value != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, r.Value)
		}
	}
}

func TestHistorySnapshotIsCopy(t *testing.T) {
	h := New(2)
	h.Push(rec("a"))

	snap := h.Snapshot()
	snap[0].Value = "mutated"

	if latest, _ := h.Latest(); latest.Value != "a" {
		t.Fatalf("snapshot mutation leaked into history: %+v", latest)
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := New(3)
	if _, ok := h.Latest(); ok {
		t.Fatalf("expected empty history to have no latest")
	}
	if len(h.Snapshot()) != 0 {
		t.Fatalf("expected empty snapshot")
	}
}
