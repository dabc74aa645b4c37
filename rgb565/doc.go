// Package rgb565 provides the packed 16-bit colour format used by TFT
// display controllers such as the ILI9341.
//
// A colour keeps 5 bits of red, 6 bits of green and 5 bits of blue in a
// single uint16:
//
//	bit   15 14 13 12 11 10 9 8 7 6 5 4 3 2 1 0
//	      R  R  R  R  R  G  G G G G G B B B B B
//
// Images store every pixel as two bytes, high byte first, which is the
// order the controllers expect on the wire:
//
//	Pixels: 0       1
//	Values: 0xF800  0x07E0
//	Bytes:  F8 00   07 E0
//
// This package provides:
//
// - Color: the packed colour type, with the usual named colours
// - Model: a color.Model converting standard Go colours to Color
// - Image: an image.Image / draw.Image implementation in wire order
//
// Example usage:
//
//	img := rgb565.NewImage(image.Rect(0, 0, 240, 320))
//	img.SetRGB565(10, 20, rgb565.Red)
//	draw.Draw(img, img.Bounds(), image.NewUniform(rgb565.Navy), image.Point{}, draw.Src)
package rgb565
