package tiles

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

var (
	black = RGB{0, 0, 0}
	white = RGB{255, 255, 255}
	gray1 = RGB{85, 85, 85}
	gray2 = RGB{170, 170, 170}

	testPalette = ColorMap{
		white: 0,
		gray1: 1,
		gray2: 2,
		black: 3,
	}
)

func solidTile(c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestConvertSolidWhiteTile(t *testing.T) {
	img := solidTile(color.NRGBA{255, 255, 255, 255})
	got, err := Convert(img, testPalette)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := make([]byte, 16)
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X (index 0 packs as all-zero bits)", got, want)
	}
}

func TestConvertSolidBlackTile(t *testing.T) {
	img := solidTile(color.NRGBA{0, 0, 0, 255})
	got, err := Convert(img, testPalette)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := bytes.Repeat([]byte{0xFF, 0xFF}, 8)
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X (index 3 sets both bit planes)", got, want)
	}
}

func TestConvertLeftHalfBlackRightHalfWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			} else {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}
	got, err := Convert(img, testPalette)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	// Leftmost 4 pixels are black (index 3, bits set), rightmost 4 are white
	// (index 0, bits clear). Bit 7 is the leftmost pixel, so the top 4 bits
	// of each plane byte are set and the bottom 4 are clear.
	for row := 0; row < 8; row++ {
		lo, hi := got[row*2], got[row*2+1]
		if lo != 0xF0 || hi != 0xF0 {
			t.Errorf("row %d: got lo=%#02x hi=%#02x, want lo=F0 hi=F0", row, lo, hi)
		}
	}
}

func TestConvertMultipleTilesRowMajorOrder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{255, 255, 255, 255})
		}
		for x := 8; x < 16; x++ {
			img.Set(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}
	got, err := Convert(img, testPalette)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("got %d bytes, want 32 (two 16-byte tiles)", len(got))
	}
	if !bytes.Equal(got[:16], make([]byte, 16)) {
		t.Errorf("first tile (white) = % X, want all zero", got[:16])
	}
	if !bytes.Equal(got[16:], bytes.Repeat([]byte{0xFF, 0xFF}, 8)) {
		t.Errorf("second tile (black) = % X, want all FF", got[16:])
	}
}

func TestConvertUnmappedColor(t *testing.T) {
	img := solidTile(color.NRGBA{1, 2, 3, 255})
	if _, err := Convert(img, testPalette); err == nil {
		t.Fatal("expected an error for an unmapped colour")
	}
}

func TestConvertRejectsNonMultipleOf8Dimensions(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 9, 8))
	if _, err := Convert(img, testPalette); err == nil {
		t.Fatal("expected an error for dimensions not a multiple of 8")
	}
}

func TestRGBString(t *testing.T) {
	if got := (RGB{0x1A, 0x2B, 0x3C}).String(); got != "#1A2B3C" {
		t.Errorf("String() = %q, want #1A2B3C", got)
	}
}
