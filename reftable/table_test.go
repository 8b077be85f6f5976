package reftable_test

import (
	"errors"
	"testing"

	"github.com/wippyai/wasm-bindgen/reftable"
)

func TestSeededHandles(t *testing.T) {
	tb := reftable.New(true)
	tests := []struct {
		h    reftable.Handle
		want any
	}{
		{reftable.HandleUndefined, reftable.Undefined{}},
		{reftable.HandleNull, nil},
		{reftable.HandleTrue, true},
		{reftable.HandleFalse, false},
	}
	for _, tt := range tests {
		v, err := tb.GetObject(tt.h)
		if err != nil {
			t.Fatalf("GetObject(%d): %v", tt.h, err)
		}
		if v != tt.want {
			t.Errorf("GetObject(%d) = %v, want %v", tt.h, v, tt.want)
		}
	}
	// seeded cells survive drops
	if err := tb.DropRef(reftable.HandleTrue); err != nil {
		t.Fatalf("DropRef seeded: %v", err)
	}
	if v, _ := tb.GetObject(reftable.HandleTrue); v != true {
		t.Error("seeded cell recycled")
	}
}

func TestNoTwoLiveHandlesShareAnIndex(t *testing.T) {
	tb := reftable.New(true)
	live := map[reftable.Handle]bool{}

	// interleave adds and drops and check uniqueness of live handles
	var handles []reftable.Handle
	for i := 0; i < 64; i++ {
		h := tb.AddHeapObject(i)
		if live[h] {
			t.Fatalf("handle %d assigned while still live", h)
		}
		live[h] = true
		handles = append(handles, h)
		if i%3 == 2 {
			victim := handles[len(handles)/2]
			if live[victim] {
				if err := tb.DropRef(victim); err != nil {
					t.Fatalf("DropRef: %v", err)
				}
				delete(live, victim)
			}
		}
	}
}

func TestGetUntilDropped(t *testing.T) {
	tb := reftable.New(true)
	h := tb.AddHeapObject("hello")

	if v, err := tb.GetObject(h); err != nil || v != "hello" {
		t.Fatalf("GetObject = %v, %v", v, err)
	}
	if err := tb.DropRef(h); err != nil {
		t.Fatalf("DropRef: %v", err)
	}
	if _, err := tb.GetObject(h); !errors.Is(err, reftable.ErrCorruptSlab) {
		t.Errorf("expected corrupt slab fault after final drop, got %v", err)
	}
}

func TestHandleReuseAfterFree(t *testing.T) {
	tb := reftable.New(false)
	h1 := tb.AddHeapObject("a")
	if err := tb.DropRef(h1); err != nil {
		t.Fatal(err)
	}
	h2 := tb.AddHeapObject("b")
	if h1 != h2 {
		t.Errorf("freed cell not reused: %d then %d", h1, h2)
	}
	if v, _ := tb.GetObject(h2); v != "b" {
		t.Error("reused cell holds stale value")
	}
}

func TestCloneRefSlab(t *testing.T) {
	tb := reftable.New(true)
	h := tb.AddHeapObject("v")

	h2, err := tb.CloneRef(h)
	if err != nil {
		t.Fatal(err)
	}
	if h2 != h {
		t.Errorf("slab clone changed handle: %d -> %d", h, h2)
	}
	// two owners: value survives one drop, dies after the second
	if err := tb.DropRef(h); err != nil {
		t.Fatal(err)
	}
	if v, err := tb.GetObject(h); err != nil || v != "v" {
		t.Fatalf("value died after first drop: %v, %v", v, err)
	}
	if err := tb.DropRef(h); err != nil {
		t.Fatal(err)
	}
	if err := tb.AssertSlabEmpty(); err != nil {
		t.Errorf("slab not empty after balanced drops: %v", err)
	}
}

func TestCloneRefPromotesStackHandle(t *testing.T) {
	tb := reftable.New(true)
	borrowed := tb.AddBorrowedObject("tmp")
	if borrowed&1 != 1 {
		t.Fatalf("borrowed handle %d is not odd", borrowed)
	}

	durable, err := tb.CloneRef(borrowed)
	if err != nil {
		t.Fatal(err)
	}
	if durable&1 != 0 {
		t.Fatalf("promoted handle %d is not even", durable)
	}
	tb.PopBorrowed()

	// the durable copy outlives the borrow scope
	if v, err := tb.GetObject(durable); err != nil || v != "tmp" {
		t.Errorf("promoted value lost: %v, %v", v, err)
	}
}

func TestTakeObjectConsumes(t *testing.T) {
	tb := reftable.New(true)
	h := tb.AddHeapObject(42)
	v, err := tb.TakeObject(h)
	if err != nil || v != 42 {
		t.Fatalf("TakeObject = %v, %v", v, err)
	}
	if err := tb.AssertSlabEmpty(); err != nil {
		t.Error("TakeObject did not release the cell")
	}
}

func TestDropStackHandleFaultsInDebug(t *testing.T) {
	tb := reftable.New(true)
	h := tb.AddBorrowedObject("x")
	if err := tb.DropRef(h); !errors.Is(err, reftable.ErrDropStackHandle) {
		t.Errorf("expected stack-drop fault, got %v", err)
	}

	rel := reftable.New(false)
	h = rel.AddBorrowedObject("x")
	if err := rel.DropRef(h); err != nil {
		t.Errorf("release mode must ignore stack drops, got %v", err)
	}
}

func TestStackBalance(t *testing.T) {
	tb := reftable.New(true)

	h1 := tb.AddBorrowedObject("a")
	h2 := tb.AddBorrowedObject("b")
	if v, _ := tb.GetObject(h2); v != "b" {
		t.Error("stack deref wrong")
	}
	if v, _ := tb.GetObject(h1); v != "a" {
		t.Error("stack deref wrong")
	}

	tb.PopBorrowed()
	if err := tb.AssertStackEmpty(); !errors.Is(err, reftable.ErrStackNotEmpty) {
		t.Error("unbalanced stack not detected")
	}
	tb.PopBorrowed()
	if err := tb.AssertStackEmpty(); err != nil {
		t.Errorf("balanced stack flagged: %v", err)
	}
}
