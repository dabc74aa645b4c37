// Package ili9341 controls an ILI9341 TFT display via SPI.
//
// The ILI9341 drives 240×320 colour panels. This driver runs it with 16-bit
// RGB565 pixels and implements the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 16-bit colour, 5 bits red, 6 bits green, 5 bits blue
// - 240×320 native resolution, rotated in steps of 90°
// - Hardware vertical scrolling with fixed top and bottom areas
// - Colour inversion and brightness control
//
// # Hardware Connection
//
// Connect the ILI9341 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data (MOSI)
//	DC/RS       → GPIO (any available pin)
//	CS          → SPI Chip Select
//	RESET       → Optional: GPIO for hardware reset
//	LED         → 3.3V (backlight)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"image"
//		"image/draw"
//
//		"github.com/flavioheleno/gaugesprite/ili9341"
//		"github.com/flavioheleno/gaugesprite/rgb565"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//		spiBus, _ := spireg.Open("")
//		dcPin := gpioreg.ByName("GPIO24")
//
//		dev, _ := ili9341.NewSPI(spiBus, dcPin, &ili9341.Opts{
//			W:        320,
//			H:        240,
//			Rotation: ili9341.Rotate90,
//		})
//		defer dev.Halt()
//
//		img := rgb565.NewImage(dev.Bounds())
//		draw.Draw(img, img.Bounds(), image.NewUniform(rgb565.Navy), image.Point{}, draw.Src)
//		dev.Draw(dev.Bounds(), img, image.Point{})
//	}
//
// # Drawing Modes
//
// ## Full-Frame Update
//
// Write raw pixel data, two bytes per pixel with the high byte first:
//
//	pixels := make([]byte, 240*320*2)
//	dev.Write(pixels)
//
// A full-frame *rgb565.Image passed to Draw takes the same path.
//
// ## Differential Updates
//
// Any other Draw call is rendered into a shadow buffer first. The driver
// computes the smallest rectangle that differs from what the panel shows
// and only sends that window. Pushing a small sprite whose content did not
// change costs no bus traffic at all.
//
// Transfers are split to the connection's MaxTxSize when it reports one,
// which keeps Linux spidev (4096 bytes by default) happy.
//
// # Hardware Scrolling
//
// Scrolling works on native portrait lines regardless of rotation:
//
//	dev.SetScrollArea(20, 20) // Keep 20 lines fixed at top and bottom
//	for line := 20; line < 300; line++ {
//		dev.Scroll(line)
//		time.Sleep(10 * time.Millisecond)
//	}
//	dev.StopScroll()
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/ILI9341.pdf
package ili9341
