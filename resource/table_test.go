package resource

import "testing"

func TestTable_MonotonicHandles(t *testing.T) {
	table := NewTable()
	var prev Handle
	for i := 0; i < 10; i++ {
		h := table.Insert(KindValue, i)
		if h <= prev {
			t.Fatalf("handle %d not greater than previous %d", h, prev)
		}
		prev = h
	}
}

func TestTable_RetainRelease(t *testing.T) {
	table := NewTable()
	h := table.Insert(KindValue, "x")

	const k = 3
	for i := 0; i < k; i++ {
		if !table.Retain(h) {
			t.Fatalf("retain %d failed", i)
		}
	}
	for i := 0; i < k; i++ {
		if !table.Release(h) {
			t.Fatalf("release %d failed", i)
		}
	}

	if _, ok := table.Get(h); !ok {
		t.Fatal("entry should still be present after balanced retain/release")
	}

	table.Release(h)
	if _, ok := table.Get(h); ok {
		t.Fatal("entry should be gone after final release")
	}
}

func TestTable_Destroy(t *testing.T) {
	table := NewTable()
	h := table.Insert(KindCanvasContext, "ctx")

	if !table.Destroy(h) {
		t.Fatal("destroy should report the handle existed")
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("entry should be gone after destroy")
	}
	if table.Destroy(h) {
		t.Fatal("destroying an already-gone handle should report false")
	}
}

func TestTable_ForceRemoveIgnoresRefcount(t *testing.T) {
	table := NewTable()
	h := table.Insert(KindValue, 1)
	table.Retain(h)
	table.Retain(h)

	if _, ok := table.ForceRemove(h); !ok {
		t.Fatal("force remove should report the handle existed")
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("entry should be gone after force remove regardless of refcount")
	}
}

func TestTable_GetTyped(t *testing.T) {
	table := NewTable()
	h := table.Insert(KindCanvasContext, "ctx")

	if _, ok := table.GetTyped(h, KindImage); ok {
		t.Fatal("GetTyped should reject mismatched kind")
	}
	if v, ok := table.GetTyped(h, KindCanvasContext); !ok || v != "ctx" {
		t.Fatal("GetTyped should accept matching kind")
	}
}

func TestTable_UpdatePreservesHandleAndKind(t *testing.T) {
	table := NewTable()
	h := table.Insert(KindValue, "original")

	if !table.Update(h, []byte("encoded")) {
		t.Fatal("update should succeed for a live handle")
	}
	v, ok := table.Get(h)
	if !ok {
		t.Fatal("entry should still exist")
	}
	if string(v.([]byte)) != "encoded" {
		t.Fatalf("unexpected payload after update: %v", v)
	}
	if kind, _ := table.KindOf(h); kind != KindValue {
		t.Fatal("update should not change kind")
	}
}

type dropRecorder struct{ dropped *bool }

func (d dropRecorder) Drop() { *d.dropped = true }

func TestTable_DropperCalledOnFinalRelease(t *testing.T) {
	table := NewTable()
	dropped := false
	h := table.Insert(KindImage, dropRecorder{&dropped})

	table.Release(h)
	if !dropped {
		t.Fatal("Dropper.Drop should be called when refcount reaches zero")
	}
}

func TestTable_InvalidHandleOperationsAreNoops(t *testing.T) {
	table := NewTable()
	if _, ok := table.Get(0); ok {
		t.Fatal("handle 0 must never be valid")
	}
	if table.Destroy(999) {
		t.Fatal("destroying an unknown handle should report false")
	}
}
