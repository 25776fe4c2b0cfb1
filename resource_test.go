package canopy

import "testing"

// fakeResource records disposal for slot-level tests.
type fakeResource struct {
	name     string
	disposed int
}

func (f *fakeResource) Dispose() { f.disposed++ }

// --- Slot derivation ---

func TestSlotDeriveCachesBySignature(t *testing.T) {
	rm := NewResourceManager()
	slot := newSlot(rm)

	calls := 0
	factory := func() Disposable {
		calls++
		return &fakeResource{}
	}

	r1 := slot.Derive(materialSig{color: Color{1, 0, 0, 1}, opacity: 1}, factory)
	r2 := slot.Derive(materialSig{color: Color{1, 0, 0, 1}, opacity: 1}, factory)
	if calls != 1 {
		t.Errorf("factory calls = %d, want 1 (signature unchanged)", calls)
	}
	if r1 != r2 {
		t.Error("unchanged signature should return the cached resource")
	}
}

func TestSlotDeriveReplacesOnSignatureChange(t *testing.T) {
	rm := NewResourceManager()
	slot := newSlot(rm)

	first := &fakeResource{name: "first"}
	second := &fakeResource{name: "second"}

	slot.Derive(materialSig{color: Color{1, 0, 0, 1}}, func() Disposable { return first })
	slot.Derive(materialSig{color: Color{0, 0, 1, 1}}, func() Disposable { return second })

	if first.disposed != 0 {
		t.Error("old resource must not be disposed before the flush point")
	}
	rm.Flush()
	if first.disposed != 1 {
		t.Errorf("first.disposed = %d, want 1", first.disposed)
	}
	if second.disposed != 0 {
		t.Error("current resource must stay live")
	}
	if rm.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", rm.LiveCount())
	}
}

// Resource conservation: any N updates leave at most one live resource per
// slot at the end of a settled pass.
func TestSlotResourceConservation(t *testing.T) {
	rm := NewResourceManager()
	slot := newSlot(rm)

	var all []*fakeResource
	for i := 0; i < 20; i++ {
		r := &fakeResource{}
		slot.Derive(materialSig{opacity: float64(i)}, func() Disposable {
			all = append(all, r)
			return r
		})
		rm.Flush()
	}

	live := 0
	for _, r := range all {
		if r.disposed == 0 {
			live++
		}
		if r.disposed > 1 {
			t.Errorf("resource disposed %d times", r.disposed)
		}
	}
	if live != 1 {
		t.Errorf("live resources = %d, want 1", live)
	}
	if rm.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", rm.LiveCount())
	}
}

// --- Nil factory results ---

func TestSlotNilResourceTransitions(t *testing.T) {
	rm := NewResourceManager()
	slot := newSlot(rm)

	shadow := &fakeResource{}
	slot.Derive(shadowSig{opacity: 0.5}, func() Disposable { return shadow })

	// Condition goes false: no resource needed, old one released.
	r := slot.Derive(shadowSig{opacity: 0}, func() Disposable { return nil })
	if r != nil {
		t.Error("factory returning nil should leave the slot empty")
	}
	rm.Flush()
	if shadow.disposed != 1 {
		t.Errorf("shadow.disposed = %d, want 1", shadow.disposed)
	}

	// Condition goes true again: a fresh resource appears cleanly.
	again := &fakeResource{}
	if got := slot.Derive(shadowSig{opacity: 0.7}, func() Disposable { return again }); got != again {
		t.Error("slot should hold the fresh resource")
	}
	rm.Flush()
	if again.disposed != 0 {
		t.Error("fresh resource must stay live")
	}
}

// --- Release ---

func TestSlotReleaseIsIdempotent(t *testing.T) {
	rm := NewResourceManager()
	slot := newSlot(rm)

	r := &fakeResource{}
	slot.Derive(shadowSig{opacity: 1}, func() Disposable { return r })

	slot.Release()
	slot.Release()
	rm.Flush()

	if r.disposed != 1 {
		t.Errorf("disposed = %d, want exactly 1", r.disposed)
	}
	if rm.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0", rm.LiveCount())
	}
}

func TestReleaseEmptySlotIsNoOp(t *testing.T) {
	rm := NewResourceManager()
	slot := newSlot(rm)
	slot.Release()
	rm.Flush()
	if rm.DisposedCount() != 0 {
		t.Error("releasing an empty slot should dispose nothing")
	}
}

// --- Resource types ---

func TestDoubleDisposeIsNoOpInReleaseMode(t *testing.T) {
	globalDebug = false
	g := NewGeometry("g", []Vec3{{0, 0, 0}}, []uint16{0})
	g.Dispose()
	g.Dispose() // must not panic
	if !g.IsDisposed() {
		t.Error("geometry should be disposed")
	}

	m := &Material{Color: ColorWhite}
	m.Dispose()
	m.Dispose()
	if !m.IsDisposed() {
		t.Error("material should be disposed")
	}
}

func TestDoubleDisposePanicsInDebugMode(t *testing.T) {
	globalDebug = true
	defer func() {
		globalDebug = false
		if recover() == nil {
			t.Error("double dispose should panic in debug mode")
		}
	}()
	m := &Material{}
	m.Dispose()
	m.Dispose()
}

func TestSharedGeometryIgnoresDispose(t *testing.T) {
	UnitCube.Dispose()
	if UnitCube.IsDisposed() {
		t.Fatal("shared primitives must never be disposed")
	}
	if len(UnitCube.Vertices) != 8 {
		t.Errorf("unit cube vertices = %d, want 8", len(UnitCube.Vertices))
	}
	if len(UnitPlane.Indices) != 6 {
		t.Errorf("unit plane indices = %d, want 6", len(UnitPlane.Indices))
	}
}
