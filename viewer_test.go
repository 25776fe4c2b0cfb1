package canopy

import "testing"

// boxMaterial returns the standard material currently derived for a box node.
func boxMaterial(t *testing.T, v *Viewer, path string) *Material {
	t.Helper()
	n := v.tree.Get(path)
	if n == nil {
		t.Fatalf("node %q missing", path)
	}
	c, ok := n.component.(*boxComponent)
	if !ok {
		t.Fatalf("node %q is not a box", path)
	}
	mat, _ := c.material.Resource().(*Material)
	return mat
}

func boxShadow(t *testing.T, v *Viewer, path string) *ShadowMaterial {
	t.Helper()
	c := v.tree.Get(path).component.(*boxComponent)
	sm, _ := c.shadow.Resource().(*ShadowMaterial)
	return sm
}

// --- End-to-end material lifecycle ---

func TestMaterialLifecycleEndToEnd(t *testing.T) {
	v := newTestViewer()

	red := BoxProps{Dimensions: Vec3{1, 1, 1}, Color: Color{1, 0, 0, 1}, Opacity: 1}
	v.Upsert("/a", red)

	m1 := boxMaterial(t, v, "/a")
	if m1 == nil {
		t.Fatal("one material should exist after creation")
	}
	if v.resources.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1", v.resources.LiveCount())
	}

	blue := red
	blue.Color = Color{0, 0, 1, 1}
	v.Upsert("/a", blue)

	m2 := boxMaterial(t, v, "/a")
	if m2 == m1 {
		t.Fatal("changed signature should derive a new material")
	}
	if !m1.IsDisposed() {
		t.Error("superseded material should be disposed by end of the pass")
	}
	if m2.IsDisposed() {
		t.Error("current material must be live")
	}

	// Same signature again: no new material, M2 reused.
	v.Upsert("/a", blue)
	if boxMaterial(t, v, "/a") != m2 {
		t.Error("unchanged signature should reuse the cached material")
	}
	if v.resources.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", v.resources.LiveCount())
	}

	v.Remove("/a")
	if !m2.IsDisposed() {
		t.Error("removal should dispose the current material")
	}
	if v.resources.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0 after removal", v.resources.LiveCount())
	}
	if v.resources.DisposedCount() != 2 {
		t.Errorf("DisposedCount = %d, want 2 (each material exactly once)", v.resources.DisposedCount())
	}
}

// Transform-only updates must not force material re-derivation.
func TestTransformChangeKeepsMaterial(t *testing.T) {
	v := newTestViewer()
	p := BoxProps{Dimensions: Vec3{1, 1, 1}, Color: ColorWhite, Opacity: 1}
	v.Upsert("/a", p)
	m1 := boxMaterial(t, v, "/a")

	p.Position = Vec3{5, 0, 0}
	v.Upsert("/a", p)
	if boxMaterial(t, v, "/a") != m1 {
		t.Error("position is not a material dependency")
	}
}

// --- Shadow material edge case ---

func TestShadowMaterialLifecycle(t *testing.T) {
	v := newTestViewer()
	p := BoxProps{Dimensions: Vec3{1, 1, 1}, Color: ColorWhite, Opacity: 1, ReceiveShadow: 0.5}
	v.Upsert("/box", p)

	s1 := boxShadow(t, v, "/box")
	if s1 == nil {
		t.Fatal("non-zero shadow opacity should create a shadow material")
	}

	// Opacity change disposes the old shadow material and creates a new one.
	p.ReceiveShadow = 0.7
	v.Upsert("/box", p)
	s2 := boxShadow(t, v, "/box")
	if s2 == s1 {
		t.Error("changed shadow opacity should derive a new shadow material")
	}
	if !s1.IsDisposed() {
		t.Error("old shadow material should be disposed")
	}

	// Opacity zero: the slot empties but still transitions cleanly.
	p.ReceiveShadow = 0
	v.Upsert("/box", p)
	if boxShadow(t, v, "/box") != nil {
		t.Error("zero shadow opacity should hold no shadow material")
	}
	if !s2.IsDisposed() {
		t.Error("shadow material should be disposed when opacity reaches zero")
	}

	// And back again.
	p.ReceiveShadow = 0.2
	v.Upsert("/box", p)
	if boxShadow(t, v, "/box") == nil {
		t.Error("shadow material should reappear")
	}
}

func TestShadowMaterialDisposedOnRemove(t *testing.T) {
	v := newTestViewer()
	v.Upsert("/box", BoxProps{Dimensions: Vec3{1, 1, 1}, Color: ColorWhite, Opacity: 1, ReceiveShadow: 0.5})
	s := boxShadow(t, v, "/box")

	v.Remove("/box")
	if !s.IsDisposed() {
		t.Error("shadow material should be disposed with its node")
	}
	if v.resources.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0", v.resources.LiveCount())
	}
}

// --- Cascading removal releases everything ---

func TestCascadingRemovalReleasesAllResources(t *testing.T) {
	v := newTestViewer()
	v.Upsert("/root", FrameProps{})
	v.Upsert("/root/box", BoxProps{Dimensions: Vec3{1, 1, 1}, Color: ColorWhite, Opacity: 1, ReceiveShadow: 0.4})
	v.Upsert("/root/grid", GridProps{Width: 10, Height: 10})
	v.Upsert("/root/deep/cloud", PointCloudProps{Points: []Vec3{{0, 0, 0}}, PointSize: 1})

	if v.resources.LiveCount() == 0 {
		t.Fatal("setup: resources should be live")
	}

	v.Remove("/root")

	if v.resources.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0 under the removed prefix", v.resources.LiveCount())
	}
	if v.tree.Len() != 0 {
		t.Errorf("tree.Len() = %d, want 0", v.tree.Len())
	}
}

// --- Kind change ---

func TestKindChangeRebuildsComponent(t *testing.T) {
	v := newTestViewer()
	v.Upsert("/x", BoxProps{Dimensions: Vec3{1, 1, 1}, Color: ColorWhite, Opacity: 1})
	m := boxMaterial(t, v, "/x")

	v.Upsert("/x", PointCloudProps{Points: []Vec3{{0, 0, 0}}, PointSize: 1})

	if !m.IsDisposed() {
		t.Error("old kind's resources should be released on kind change")
	}
	n := v.tree.Get("/x")
	if n.Kind != KindPointCloud {
		t.Errorf("Kind = %d, want KindPointCloud", n.Kind)
	}
	if _, ok := n.component.(*pointCloudComponent); !ok {
		t.Error("component should be rebuilt for the new kind")
	}
}

// --- Image texture churn through the viewer ---

func TestImageUpdateDisposesOldTexture(t *testing.T) {
	v := newTestViewer()
	// Decode synchronously on Load; completions still install on Update.
	v.loader.run = func(f func()) { f() }

	v.Upsert("/img", ImageProps{Data: makePNG(t, 8, 8), RenderWidth: 1, RenderHeight: 1, Opacity: 1})
	v.Update()

	n := v.tree.Get("/img")
	comp := n.component.(*imageComponent)
	t1 := comp.Texture()
	if t1 == nil || t1.Width() != 8 {
		t.Fatal("first texture should be installed")
	}
	if mat := comp.material.Resource().(*Material); mat.Texture() != t1 {
		t.Error("material should carry the installed texture after the tick")
	}

	// Ten content updates: exactly one live texture at the end, every
	// superseded one disposed.
	var last *Texture
	for i := 0; i < 10; i++ {
		v.Upsert("/img", ImageProps{Data: makePNG(t, 9+i, 8), RenderWidth: 1, RenderHeight: 1, Opacity: 1})
		v.Update()
		last = comp.Texture()
	}
	if last == nil || last.Width() != 18 {
		t.Fatalf("latest texture should be installed, got %v", last)
	}
	if !t1.IsDisposed() {
		t.Error("first texture should be disposed after updates")
	}
	if v.resources.LiveCount() != 2 { // image material + current texture
		t.Errorf("LiveCount = %d, want 2", v.resources.LiveCount())
	}
}

func TestImageSameDataDoesNotReload(t *testing.T) {
	v := newTestViewer()
	v.loader.run = func(f func()) { f() }

	data := makePNG(t, 4, 4)
	v.Upsert("/img", ImageProps{Data: data, RenderWidth: 1, RenderHeight: 1, Opacity: 1})
	v.Update()

	comp := v.tree.Get("/img").component.(*imageComponent)
	t1 := comp.Texture()

	v.Upsert("/img", ImageProps{Data: data, RenderWidth: 2, RenderHeight: 2, Opacity: 1})
	v.Update()

	if comp.Texture() != t1 {
		t.Error("identical image bytes should not trigger a reload")
	}
}

// --- Grid fade uniform ---

func TestGridFadeFollowsCamera(t *testing.T) {
	v := newTestViewer()
	v.Upsert("/grid", GridProps{Width: 10, Height: 10, FadeDistance: 10})

	comp := v.tree.Get("/grid").component.(*gridComponent)
	mat := comp.material.Resource().(*GridMaterial)

	v.SetCamera(CameraState{Position: Vec3{0, 0, 5}})
	v.Update()
	if mat.Fade != 0.5 {
		t.Errorf("Fade = %v, want 0.5 at half fade distance", mat.Fade)
	}

	v.SetCamera(CameraState{Position: Vec3{0, 0, 20}})
	v.Update()
	if mat.Fade != 0 {
		t.Errorf("Fade = %v, want 0 beyond fade distance", mat.Fade)
	}

	v.Upsert("/grid", GridProps{Width: 10, Height: 10})
	v.Update()
	if mat.Fade != 1 {
		t.Errorf("Fade = %v, want 1 with fading disabled", mat.Fade)
	}
}

// --- Teardown ---

func TestDisposeReleasesEverything(t *testing.T) {
	v := newTestViewer()
	v.Upsert("/box", BoxProps{Dimensions: Vec3{1, 1, 1}, Color: ColorWhite, Opacity: 1})
	clickableBox(v, "/click", Vec3{})
	v.InjectPointerMove(0, 0)
	v.Update()
	if v.HoverCount() != 1 {
		t.Fatal("setup: one node hovered")
	}

	// A load still in flight at teardown must be discarded, not installed.
	v.Upsert("/img", ImageProps{Data: makePNG(t, 6, 6), RenderWidth: 1, RenderHeight: 1, Opacity: 1})

	v.Dispose()

	if v.resources.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0 after Dispose", v.resources.LiveCount())
	}
	if v.HoverCount() != 0 {
		t.Error("hover state should be cleared by teardown")
	}
	if v.CursorMode() != CursorDefault {
		t.Error("cursor should be reset to default")
	}
	if v.tree.Len() != 0 {
		t.Errorf("tree.Len() = %d, want 0", v.tree.Len())
	}

	// Further calls are safe no-ops.
	v.Dispose()
	v.Update()
}

// --- Viewer isolation ---

func TestViewersAreIndependent(t *testing.T) {
	a := newTestViewer()
	b := newTestViewer()

	a.Upsert("/only-a", BoxProps{Dimensions: Vec3{1, 1, 1}, Color: ColorWhite, Opacity: 1})
	if b.tree.Get("/only-a") != nil {
		t.Error("viewers must not share a tree")
	}

	a.Env().ConfigureFog(FogConfig{Enabled: true, Near: 1, Far: 10})
	if b.Env().Fog().Enabled {
		t.Error("viewers must not share an environment")
	}
}
