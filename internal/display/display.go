package display

// Screen sizes for the two SCHIP resolutions.
const (
	LowWidth   = 64
	LowHeight  = 32
	HighWidth  = 128
	HighHeight = 64
)

// Display is a monochrome pixel plane that sprites are XOR-blitted onto.
// One byte per pixel (0 or 1), row-major, sized for the current resolution.
type Display struct {
	w, h   int
	pixels []byte
	hires  bool
	// WrapSprites wraps sprite pixels that cross an edge instead of clipping them.
	WrapSprites bool
	dirty       bool
}

func New() *Display {
	d := &Display{}
	d.setResolution(false)
	return d
}

func (d *Display) setResolution(hires bool) {
	d.hires = hires
	if hires {
		d.w, d.h = HighWidth, HighHeight
	} else {
		d.w, d.h = LowWidth, LowHeight
	}
	d.pixels = make([]byte, d.w*d.h)
	d.dirty = true
}

// SetHighRes switches between 64x32 and 128x64. The plane is cleared.
func (d *Display) SetHighRes(on bool) { d.setResolution(on) }

func (d *Display) HighRes() bool { return d.hires }

func (d *Display) Size() (w, h int) { return d.w, d.h }

// Pixels exposes the plane for read-only use by presentation layers.
func (d *Display) Pixels() []byte { return d.pixels }

// Pixel reports whether the pixel at x,y is lit. Out-of-range reads are false.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= d.w || y >= d.h {
		return false
	}
	return d.pixels[y*d.w+x] != 0
}

func (d *Display) Clear() {
	for i := range d.pixels {
		d.pixels[i] = 0
	}
	d.dirty = true
}

// Dirty reports whether the plane changed since the last call and resets the mark.
func (d *Display) Dirty() bool {
	was := d.dirty
	d.dirty = false
	return was
}

// Draw XORs an 8-pixel-wide sprite at x,y and reports whether any lit pixel
// was turned off. The start position wraps around the screen, the sprite
// body is clipped at the edges unless WrapSprites is set.
func (d *Display) Draw(x, y byte, sprite []byte) bool {
	collided := false
	ox, oy := int(x)%d.w, int(y)%d.h
	for row, bits := range sprite {
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			if d.flip(ox+col, oy+row) {
				collided = true
			}
		}
	}
	d.dirty = true
	return collided
}

// Draw16 XORs a 16x16 SCHIP sprite (two bytes per row, 32 bytes total).
func (d *Display) Draw16(x, y byte, sprite []byte) bool {
	collided := false
	ox, oy := int(x)%d.w, int(y)%d.h
	for row := 0; row < 16 && 2*row+1 < len(sprite); row++ {
		bits := uint16(sprite[2*row])<<8 | uint16(sprite[2*row+1])
		for col := 0; col < 16; col++ {
			if bits&(0x8000>>col) == 0 {
				continue
			}
			if d.flip(ox+col, oy+row) {
				collided = true
			}
		}
	}
	d.dirty = true
	return collided
}

// flip toggles one pixel and reports a set-to-unset transition.
func (d *Display) flip(px, py int) bool {
	if d.WrapSprites {
		px %= d.w
		py %= d.h
	} else if px >= d.w || py >= d.h {
		return false
	}
	i := py*d.w + px
	was := d.pixels[i] != 0
	d.pixels[i] ^= 1
	return was
}

// ScrollDown moves the picture down by n rows, blanking the top.
func (d *Display) ScrollDown(n int) {
	if n <= 0 {
		return
	}
	if n > d.h {
		n = d.h
	}
	copy(d.pixels[n*d.w:], d.pixels[:(d.h-n)*d.w])
	for i := 0; i < n*d.w; i++ {
		d.pixels[i] = 0
	}
	d.dirty = true
}

// ScrollRight moves every row right by n pixels.
func (d *Display) ScrollRight(n int) {
	for y := 0; y < d.h; y++ {
		row := d.pixels[y*d.w : (y+1)*d.w]
		copy(row[n:], row[:d.w-n])
		for x := 0; x < n; x++ {
			row[x] = 0
		}
	}
	d.dirty = true
}

// ScrollLeft moves every row left by n pixels.
func (d *Display) ScrollLeft(n int) {
	for y := 0; y < d.h; y++ {
		row := d.pixels[y*d.w : (y+1)*d.w]
		copy(row, row[n:])
		for x := d.w - n; x < d.w; x++ {
			row[x] = 0
		}
	}
	d.dirty = true
}

// Packed returns the plane as MSB-first bits, one row after another.
func (d *Display) Packed() []byte {
	out := make([]byte, len(d.pixels)/8)
	for i, p := range d.pixels {
		if p != 0 {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// Snapshot and Restore support save states.
type Snapshot struct {
	HighRes bool
	Pixels  []byte
}

func (d *Display) Snapshot() Snapshot {
	px := make([]byte, len(d.pixels))
	copy(px, d.pixels)
	return Snapshot{HighRes: d.hires, Pixels: px}
}

func (d *Display) Restore(s Snapshot) {
	d.setResolution(s.HighRes)
	copy(d.pixels, s.Pixels)
}
