// Package rgb565 provides a 16-bit packed colour format for TFT display controllers.
//
// Pixels are stored big-endian, two bytes per pixel.
package rgb565

import (
	"image"
	"image/color"
)

// Color is a packed 5-6-5 colour.
type Color uint16

// Named colours, matching the palette common to TFT libraries.
const (
	Black     Color = 0x0000
	Navy      Color = 0x000F
	DarkGreen Color = 0x03E0
	Maroon    Color = 0x7800
	Blue      Color = 0x001F
	Green     Color = 0x07E0
	Cyan      Color = 0x07FF
	Red       Color = 0xF800
	Magenta   Color = 0xF81F
	Yellow    Color = 0xFFE0
	White     Color = 0xFFFF
	Orange    Color = 0xFDA0
	LightGrey Color = 0xD69A
	DarkGrey  Color = 0x7BEF
)

// RGB packs 8-bit channels into a Color, dropping the low bits.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3))
}

// RGBA converts the colour to standard 16-bit channels.
// The low bits are refilled from the high bits so that White maps to 0xFFFF.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F

	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2

	return r8 * 0x101, g8 * 0x101, b8 * 0x101, 0xFFFF
}

// toRGB565 converts any color.Color to Color. Alpha is ignored.
func toRGB565(c color.Color) color.Color {
	if p, ok := c.(Color); ok {
		return p
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts colours to Color.
var Model = color.ModelFunc(toRGB565)

// Image is an RGB565 image in controller wire order.
type Image struct {
	Pix    []byte          // Pixel data (2 bytes per pixel, high byte first)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage creates a new Image with the specified bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r}
	}
	stride := w * 2
	return &Image{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the packed colour of the pixel at (x, y).
func (p *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Black
	}
	i := p.pixOffset(x, y)
	return Color(p.Pix[i])<<8 | Color(p.Pix[i+1])
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(Color))
}

// SetRGB565 sets the packed colour of the pixel at (x, y).
// This is faster than Set() as it doesn't require color conversion.
func (p *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.pixOffset(x, y)
	p.Pix[i] = byte(c >> 8)
	p.Pix[i+1] = byte(c)
}

// Fill sets every pixel of the image to c.
func (p *Image) Fill(c Color) {
	hi, lo := byte(c>>8), byte(c)
	for i := 0; i+1 < len(p.Pix); i += 2 {
		p.Pix[i] = hi
		p.Pix[i+1] = lo
	}
}

// Opaque reports that every pixel is fully opaque.
func (p *Image) Opaque() bool {
	return true
}

// pixOffset returns the offset of the high byte of the pixel at (x, y).
func (p *Image) pixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}
