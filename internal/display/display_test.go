package display

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func litCount(d *Display) int {
	n := 0
	for _, p := range d.Pixels() {
		if p != 0 {
			n++
		}
	}
	return n
}

func TestDisplay_DrawAndCollision(t *testing.T) {
	d := New()
	sprite := []byte{0xF0, 0x90, 0x90, 0x90, 0xF0} // "0"
	if d.Draw(0, 0, sprite) {
		t.Fatalf("first draw must not report a collision")
	}
	if !d.Pixel(0, 0) || !d.Pixel(3, 0) || d.Pixel(1, 1) {
		t.Fatalf("glyph pixels not where expected")
	}
	assert.Equal(t, 14, litCount(d))

	// drawing it again erases it and reports the collision
	if !d.Draw(0, 0, sprite) {
		t.Fatalf("second draw must report a collision")
	}
	assert.Equal(t, 0, litCount(d))
}

func TestDisplay_StartWrapsBodyClips(t *testing.T) {
	d := New()
	// x=66 wraps to 2
	d.Draw(66, 0, []byte{0x80})
	if !d.Pixel(2, 0) {
		t.Fatalf("start coordinate should wrap to x=2")
	}

	d.Clear()
	// sprite at x=60 is clipped after 4 pixels
	d.Draw(60, 30, []byte{0xFF, 0xFF, 0xFF})
	assert.Equal(t, 8, litCount(d))
	if d.Pixel(0, 30) || d.Pixel(0, 0) {
		t.Fatalf("clipped pixels must not wrap")
	}

	d.Clear()
	d.WrapSprites = true
	d.Draw(60, 31, []byte{0xFF, 0xFF})
	assert.Equal(t, 16, litCount(d))
	if !d.Pixel(0, 0) || !d.Pixel(3, 31) {
		t.Fatalf("wrapping sprite should reappear on the other edge")
	}
}

func TestDisplay_HighResAndDraw16(t *testing.T) {
	d := New()
	d.Draw(0, 0, []byte{0xFF})
	d.SetHighRes(true)
	w, h := d.Size()
	assert.Equal(t, HighWidth, w)
	assert.Equal(t, HighHeight, h)
	assert.Equal(t, 0, litCount(d))

	sprite := make([]byte, 32)
	for i := range sprite {
		sprite[i] = 0xFF
	}
	if d.Draw16(100, 50, sprite) {
		t.Fatalf("unexpected collision")
	}
	assert.Equal(t, 16*14, litCount(d)) // rows 50..63
	if !d.Draw16(100, 50, sprite) {
		t.Fatalf("expected collision on redraw")
	}
}

func TestDisplay_Scroll(t *testing.T) {
	d := New()
	d.Draw(0, 0, []byte{0x80})
	d.ScrollDown(4)
	if d.Pixel(0, 0) || !d.Pixel(0, 4) {
		t.Fatalf("scroll down by 4 failed")
	}
	d.ScrollRight(4)
	if !d.Pixel(4, 4) || d.Pixel(0, 4) {
		t.Fatalf("scroll right by 4 failed")
	}
	d.ScrollLeft(4)
	if !d.Pixel(0, 4) || d.Pixel(4, 4) {
		t.Fatalf("scroll left by 4 failed")
	}
	d.ScrollLeft(4)
	assert.Equal(t, 0, litCount(d))
}

func TestDisplay_PackedAndSnapshot(t *testing.T) {
	d := New()
	d.Draw(8, 1, []byte{0xA5})
	p := d.Packed()
	assert.Equal(t, LowWidth*LowHeight/8, len(p))
	assert.Equal(t, byte(0xA5), p[LowWidth/8+1])

	s := d.Snapshot()
	d.SetHighRes(true)
	d.Restore(s)
	assert.Equal(t, false, d.HighRes())
	assert.Equal(t, byte(0xA5), d.Packed()[LowWidth/8+1])
}
