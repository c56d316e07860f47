// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fluidcanvas

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/fluid"
	"github.com/gogpu/fluid/backend/software"
)

// mockTexture implements gpucontext.Texture and TextureUpdater.
type mockTexture struct {
	width, height int
	data          []byte
	updated       int
	destroyed     bool
}

func (m *mockTexture) Width() int  { return m.width }
func (m *mockTexture) Height() int { return m.height }

func (m *mockTexture) UpdateData(data []byte) error {
	m.data = append(m.data[:0], data...)
	m.updated++
	return nil
}

func (m *mockTexture) Destroy() { m.destroyed = true }

// staticTexture cannot be updated in place.
type staticTexture struct{ width, height int }

func (s *staticTexture) Width() int  { return s.width }
func (s *staticTexture) Height() int { return s.height }

type mockCreator struct {
	textures []*mockTexture
	static   bool
	fail     bool
}

func (m *mockCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if m.fail {
		return nil, errors.New("mock texture creation failed")
	}
	if m.static {
		return &staticTexture{width, height}, nil
	}
	tex := &mockTexture{width: width, height: height, data: append([]byte(nil), data...)}
	m.textures = append(m.textures, tex)
	return tex, nil
}

type mockDrawer struct {
	creator *mockCreator
	drawn   gpucontext.Texture
	x, y    float32
	draws   int
}

func (m *mockDrawer) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	m.drawn, m.x, m.y = tex, x, y
	m.draws++
	return nil
}

func (m *mockDrawer) TextureCreator() gpucontext.TextureCreator {
	if m.creator == nil {
		return nil
	}
	return m.creator
}

func testConfig() *fluid.Config {
	cfg := fluid.DefaultConfig()
	cfg.SimResolution = 16
	cfg.DyeResolution = 32
	cfg.CaptureResolution = 16
	cfg.BloomResolution = 16
	cfg.BloomIterations = 2
	cfg.SunraysResolution = 16
	cfg.Text = ""
	return cfg
}

func newTestCanvas(t *testing.T) *Canvas {
	t.Helper()
	ctx := software.New(32, 32)
	t.Cleanup(ctx.Destroy)
	frames := fluid.FrameCount(0)
	c, err := New(ctx, testConfig(),
		fluid.WithFrameSource(&frames),
		fluid.WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewNilContext(t *testing.T) {
	if _, err := New(nil, testConfig()); !errors.Is(err, fluid.ErrNoContext) {
		t.Errorf("New(nil) error = %v, want %v", err, fluid.ErrNoContext)
	}
}

func TestDrawCreatesThenUpdates(t *testing.T) {
	c := newTestCanvas(t)
	dc := &mockDrawer{creator: &mockCreator{}}

	if err := c.DrawAt(dc, 3, 4); err != nil {
		t.Fatalf("DrawAt() error = %v", err)
	}
	if got := len(dc.creator.textures); got != 1 {
		t.Fatalf("textures created = %d, want 1", got)
	}
	tex := dc.creator.textures[0]
	if tex.width != 16 || tex.height != 16 {
		t.Errorf("texture size = %dx%d, want 16x16", tex.width, tex.height)
	}
	if len(tex.data) != 16*16*4 {
		t.Errorf("len(texture data) = %d, want %d", len(tex.data), 16*16*4)
	}
	if dc.drawn != tex || dc.x != 3 || dc.y != 4 {
		t.Errorf("DrawTexture(%v, %v, %v), want (%v, 3, 4)", dc.drawn, dc.x, dc.y, tex)
	}

	if err := c.Draw(dc); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if got := len(dc.creator.textures); got != 1 {
		t.Errorf("textures created after second Draw = %d, want 1", got)
	}
	if tex.updated != 1 {
		t.Errorf("texture updates = %d, want 1", tex.updated)
	}
	if got := c.Driver().Frames(); got != 2 {
		t.Errorf("Frames() = %d, want 2", got)
	}
}

func TestDrawRecreatesStaticTexture(t *testing.T) {
	c := newTestCanvas(t)
	creator := &mockCreator{static: true}
	dc := &mockDrawer{creator: creator}
	if err := c.Draw(dc); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	first := c.Texture()
	if err := c.Draw(dc); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if c.Texture() == first {
		t.Error("Texture() unchanged, want a new texture for a non-updatable host texture")
	}
}

func TestResizeRecreatesTexture(t *testing.T) {
	c := newTestCanvas(t)
	dc := &mockDrawer{creator: &mockCreator{}}
	if err := c.Draw(dc); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	c.Resize(64, 32)
	c.Resize(0, 10)
	if w, h := c.Size(); w != 64 || h != 32 {
		t.Errorf("Size() = %dx%d, want 64x32", w, h)
	}
	if err := c.Draw(dc); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if got := len(dc.creator.textures); got != 2 {
		t.Fatalf("textures created = %d, want 2", got)
	}
	if !dc.creator.textures[0].destroyed {
		t.Error("old texture not destroyed")
	}
	if tex := dc.creator.textures[1]; tex.width != 32 || tex.height != 16 {
		t.Errorf("texture size = %dx%d, want 32x16", tex.width, tex.height)
	}
}

func TestDrawErrors(t *testing.T) {
	c := newTestCanvas(t)
	if err := c.Draw(nil); !errors.Is(err, ErrNilDrawer) {
		t.Errorf("Draw(nil) error = %v, want %v", err, ErrNilDrawer)
	}
	if err := c.Draw(&mockDrawer{}); !errors.Is(err, ErrNoTextureCreator) {
		t.Errorf("Draw(no creator) error = %v, want %v", err, ErrNoTextureCreator)
	}
	if err := c.Draw(&mockDrawer{creator: &mockCreator{fail: true}}); err == nil {
		t.Error("Draw(failing creator) error = nil, want error")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := c.Draw(&mockDrawer{creator: &mockCreator{}}); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Draw() after Close error = %v, want %v", err, ErrCanvasClosed)
	}
}
