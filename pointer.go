package fluid

import "github.com/chewxy/math32"

// Pointer is the per-device interaction state in texture space, where
// (0, 0) is the bottom-left corner of the canvas.
type Pointer struct {
	ID       int
	TexX     float32
	TexY     float32
	PrevTexX float32
	PrevTexY float32
	DeltaX   float32
	DeltaY   float32
	Down     bool
	Moved    bool
	Color    RGB
}

// noPointer marks a free slot.
const noPointer = -1

func newPointer() *Pointer {
	return &Pointer{ID: noPointer, Color: RGB{30, 0, 300}}
}

// PointerTracker normalizes pointer events from canvas pixels and keeps
// one slot per device that is currently down. Slot 0 is allocated up
// front for the primary pointer.
type PointerTracker struct {
	pointers []*Pointer
	width    int
	height   int
	color    func() RGB
}

// NewPointerTracker creates a tracker for a width×height canvas. color
// picks the color of each new press.
func NewPointerTracker(width, height int, color func() RGB) *PointerTracker {
	return &PointerTracker{
		pointers: []*Pointer{newPointer()},
		width:    width,
		height:   height,
		color:    color,
	}
}

// Resize updates the canvas size used for normalization.
func (t *PointerTracker) Resize(width, height int) {
	t.width, t.height = width, height
}

func (t *PointerTracker) aspect() float32 {
	if t.height == 0 {
		return 1
	}
	return float32(t.width) / float32(t.height)
}

func (t *PointerTracker) normalize(x, y float32) (texX, texY float32) {
	if t.width == 0 || t.height == 0 {
		return 0, 0
	}
	return x / float32(t.width), 1 - y/float32(t.height)
}

func (t *PointerTracker) find(id int) *Pointer {
	for _, p := range t.pointers {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Press starts tracking device id at canvas pixel (x, y). A device that
// is not yet down takes a free slot, or a new one when none is free.
func (t *PointerTracker) Press(id int, x, y float32) {
	if id == noPointer {
		return
	}
	p := t.find(id)
	if p == nil {
		p = t.find(noPointer)
	}
	if p == nil {
		p = newPointer()
		t.pointers = append(t.pointers, p)
	}
	p.ID = id
	p.Down = true
	p.Moved = false
	p.TexX, p.TexY = t.normalize(x, y)
	p.PrevTexX, p.PrevTexY = p.TexX, p.TexY
	p.DeltaX, p.DeltaY = 0, 0
	if t.color != nil {
		p.Color = t.color()
	}
}

// Move updates device id. The delta is corrected so that equal screen
// distances give equal deltas along both axes.
func (t *PointerTracker) Move(id int, x, y float32) {
	p := t.find(id)
	if p == nil || id == noPointer || !p.Down {
		return
	}
	p.PrevTexX, p.PrevTexY = p.TexX, p.TexY
	p.TexX, p.TexY = t.normalize(x, y)
	p.DeltaX = t.correctDeltaX(p.TexX - p.PrevTexX)
	p.DeltaY = t.correctDeltaY(p.TexY - p.PrevTexY)
	p.Moved = math32.Abs(p.DeltaX) > 0 || math32.Abs(p.DeltaY) > 0
}

// Release lifts device id and frees its slot for the next press.
// A pending move is still delivered by Drain.
func (t *PointerTracker) Release(id int) {
	p := t.find(id)
	if p == nil || id == noPointer {
		return
	}
	p.Down = false
	p.ID = noPointer
}

func (t *PointerTracker) correctDeltaX(d float32) float32 {
	if a := t.aspect(); a < 1 {
		d *= a
	}
	return d
}

func (t *PointerTracker) correctDeltaY(d float32) float32 {
	if a := t.aspect(); a > 1 {
		d /= a
	}
	return d
}

// Drain calls fn for every pointer that moved since the last Drain and
// clears its moved flag.
func (t *PointerTracker) Drain(fn func(p Pointer)) {
	for _, p := range t.pointers {
		if !p.Moved {
			continue
		}
		p.Moved = false
		fn(*p)
	}
}

// Recolor assigns a fresh color to every slot.
func (t *PointerTracker) Recolor() {
	if t.color == nil {
		return
	}
	for _, p := range t.pointers {
		p.Color = t.color()
	}
}

// Pointers returns a snapshot of every slot.
func (t *PointerTracker) Pointers() []Pointer {
	out := make([]Pointer, len(t.pointers))
	for i, p := range t.pointers {
		out[i] = *p
	}
	return out
}
