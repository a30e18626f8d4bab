// Package tiles converts a decoded RGB pixel grid into Game Boy 2bpp
// planar tile data. PNG decoding itself is an external collaborator
// (stdlib image/png); this package starts from an already-decoded
// image.Image.
package tiles

import (
	"fmt"
	"image"
	"image/color"
)

// ColorMap assigns each RGB triple present in the source image a 2-bit
// Game Boy palette index (0-3).
type ColorMap map[RGB]byte

// RGB is a colour map key: an 8-bit-per-channel RGB triple.
type RGB struct {
	R, G, B uint8
}

func rgbFromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Convert walks img in row-major 8x8 tiles (spec §4.G): tile-rows
// top-to-bottom, tile-columns left-to-right within a tile row, and within
// each tile its 8 pixel rows top-to-bottom. Each tile emits 16 bytes of
// 2bpp planar data: per pixel row, the low-plane byte then the high-plane
// byte, with bit 7 holding the leftmost pixel's bit. img's bounds must be a
// multiple of 8 in both dimensions; any pixel whose colour is absent from
// colors is a fatal error naming the offending RGB triple.
func Convert(img image.Image, colors ColorMap) ([]byte, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width%8 != 0 || height%8 != 0 {
		return nil, fmt.Errorf("tiles: image dimensions %dx%d are not a multiple of 8", width, height)
	}

	var out []byte
	for tileY := 0; tileY < height; tileY += 8 {
		for tileX := 0; tileX < width; tileX += 8 {
			tile, err := convertTile(img, bounds.Min.X+tileX, bounds.Min.Y+tileY, colors)
			if err != nil {
				return nil, err
			}
			out = append(out, tile...)
		}
	}
	return out, nil
}

func convertTile(img image.Image, originX, originY int, colors ColorMap) ([]byte, error) {
	tile := make([]byte, 0, 16)
	for row := 0; row < 8; row++ {
		var lo, hi byte
		for col := 0; col < 8; col++ {
			rgb := rgbFromColor(img.At(originX+col, originY+row))
			index, ok := colors[rgb]
			if !ok {
				return nil, fmt.Errorf("tiles: pixel at (%d,%d) has unmapped colour %s", originX+col, originY+row, rgb)
			}
			bit := byte(7 - col)
			if index&0x01 != 0 {
				lo |= 1 << bit
			}
			if index&0x02 != 0 {
				hi |= 1 << bit
			}
		}
		tile = append(tile, lo, hi)
	}
	return tile, nil
}
